package handlers

// AppHandlers bundles every HTTP handler for route registration.
type AppHandlers struct {
	ChatHandler         *ChatHandler
	NotificationHandler *NotificationHandler
	PushHandler         *PushHandler
}
