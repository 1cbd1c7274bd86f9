package app

import (
	"context"

	"homepro_backend/internal/push"
)

// noopGateway swallows pushes when push delivery is disabled by config
// (local development, CI).
type noopGateway struct{}

func (noopGateway) Send(_ context.Context, messages []push.Message) ([]push.Ticket, error) {
	tickets := make([]push.Ticket, len(messages))
	for i := range tickets {
		tickets[i] = push.Ticket{Status: "ok"}
	}
	return tickets, nil
}
