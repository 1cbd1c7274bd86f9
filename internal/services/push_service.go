package services

import (
	"context"
	"unicode/utf8"

	"homepro_backend/internal/logger"
	"homepro_backend/internal/models"
	"homepro_backend/internal/push"
	"homepro_backend/internal/repositories"

	"github.com/samber/lo"
)

// pushBodyLimit keeps notification bodies inside the size every mobile
// platform renders without clipping.
const pushBodyLimit = 140

type PushService interface {
	// DispatchToUsers sends one best-effort push per registered device
	// of each target user. Users without tokens are skipped silently;
	// transient gateway failures are logged, never retried.
	DispatchToUsers(ctx context.Context, userIDs []string, title, body string, data map[string]string) error
}

type pushService struct {
	tokenRepo repositories.PushTokenRepository
	gateway   push.Gateway
}

func NewPushService(tokenRepo repositories.PushTokenRepository, gateway push.Gateway) PushService {
	return &pushService{
		tokenRepo: tokenRepo,
		gateway:   gateway,
	}
}

func (s *pushService) DispatchToUsers(ctx context.Context, userIDs []string, title, body string, data map[string]string) error {
	if len(userIDs) == 0 {
		return nil
	}

	tokens, err := s.tokenRepo.FindByUserIDs(userIDs)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		// Most users never register for push; not an error.
		return nil
	}

	body = truncatePushBody(body)
	messages := lo.Map(tokens, func(t models.PushToken, _ int) push.Message {
		return push.Message{
			To:    t.Token,
			Title: title,
			Body:  body,
			Data:  data,
			Sound: "default",
		}
	})

	tickets, err := s.gateway.Send(ctx, messages)
	if err != nil {
		logger.CtxWithError(ctx, "push gateway send failed", err, "targets", len(messages))
		return err
	}

	// Tickets align positionally with the submitted messages.
	for i, ticket := range tickets {
		if ticket.Status == "ok" {
			continue
		}
		if i >= len(tokens) {
			break
		}
		if ticket.Details.Error == push.DeviceNotRegistered {
			// Stale token: deregister, do not treat as delivery failure.
			if err := s.tokenRepo.DeleteByToken(tokens[i].Token); err != nil {
				logger.CtxWithError(ctx, "failed to clean up stale push token", err, "user_id", tokens[i].UserID)
			}
			continue
		}
		logger.CtxWarn(ctx, "push delivery failed", "user_id", tokens[i].UserID, "reason", ticket.Message)
	}
	return nil
}

func truncatePushBody(body string) string {
	if utf8.RuneCountInString(body) <= pushBodyLimit {
		return body
	}
	runes := []rune(body)
	return string(runes[:pushBodyLimit-1]) + "…"
}
