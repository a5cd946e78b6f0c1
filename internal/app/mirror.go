package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"classroom-levels-service/internal/domain"
)

// StatusPublisher stores the session status somewhere operators can read it.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, status domain.SessionStatus) error
}

// StatusMirror copies coordinator status changes to a publisher, off the
// coordinator's lock.
type StatusMirror struct {
	publisher StatusPublisher
	statuses  <-chan domain.SessionStatus
	timeout   time.Duration
}

func NewStatusMirror(publisher StatusPublisher, statuses <-chan domain.SessionStatus) *StatusMirror {
	return &StatusMirror{publisher: publisher, statuses: statuses, timeout: 2 * time.Second}
}

// Run publishes until ctx is done. Publish errors are logged and skipped.
func (m *StatusMirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case status := <-m.statuses:
			pubCtx, cancel := context.WithTimeout(ctx, m.timeout)
			if err := m.publisher.PublishStatus(pubCtx, status); err != nil {
				log.Warn().Err(err).Msg("publish session status")
			}
			cancel()
		}
	}
}
