package ws

import (
	"errors"
	"strings"

	"homepro_backend/internal/models"
	"homepro_backend/internal/services/dto"
)

var (
	errUnknownKind      = errors.New("unknown frame kind")
	errIdentityMismatch = errors.New("frame identity does not match connection")
	errEmptyContent     = errors.New("message frame requires content")
)

// validateFrame checks an inbound frame against the identity the
// connection was bound to at handshake time. A frame claiming another
// room or user is spoofing over an authenticated channel and is
// dropped.
func validateFrame(frame *dto.ChatFrame, boundRoomID, boundUserID string) error {
	if !models.ValidMessageKind(frame.Type) {
		return errUnknownKind
	}
	if frame.RoomID != boundRoomID || frame.UserID != boundUserID {
		return errIdentityMismatch
	}
	if frame.Type == models.MessageKindMessage && strings.TrimSpace(frame.Content) == "" {
		return errEmptyContent
	}
	return nil
}
