package dto

// RegisterPushTokenRequest associates a device token with the caller.
type RegisterPushTokenRequest struct {
	Token    string `json:"token" binding:"required" validate:"is-push-token"`
	Platform string `json:"platform" binding:"required" validate:"is-push-platform"`
	DeviceID string `json:"device_id,omitempty"`
}
