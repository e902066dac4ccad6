package service

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type OutboxAppender interface {
	Insert(ctx context.Context, url, method string, data map[string]string) error
}

// OutboxService captures mutating requests for later replay against the
// upstream server. A node with no sync destination captures nothing,
// otherwise its outbox would grow with no replicator to drain it. Capture
// failures never fail the originating request; the write already landed
// locally and losing one replay is preferable to turning away a player at
// the kiosk.
type OutboxService struct {
	outbox  OutboxAppender
	enabled bool
}

func NewOutboxService(outbox OutboxAppender, enabled bool) *OutboxService {
	return &OutboxService{
		outbox:  outbox,
		enabled: enabled,
	}
}

func (s *OutboxService) Capture(ctx context.Context, url, method string, data map[string]string) {
	if !s.enabled {
		log.Debugf("replication disabled, not capturing %s %s", method, url)
		return
	}

	if err := s.outbox.Insert(ctx, url, method, data); err != nil {
		log.Errorf("failed to capture sync request %s %s: %v", method, url, err)
	}
}
