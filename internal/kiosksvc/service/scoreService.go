package service

import (
	"context"
	"strconv"

	"github.com/startvr/kiosk-services/internal/kiosksvc/models"

	log "github.com/sirupsen/logrus"
)

type ScoreStore interface {
	Insert(ctx context.Context, score *models.Score) error
	List(ctx context.Context) ([]*models.Score, error)
}

type ScoreAppender interface {
	AppendScore(ctx context.Context, email string, score int) error
}

type ScoreService struct {
	scores  ScoreStore
	players ScoreAppender
	outbox  *OutboxService
	events  EventPublisher // may be nil
}

func NewScoreService(scores ScoreStore, players ScoreAppender, outbox *OutboxService, events EventPublisher) *ScoreService {
	return &ScoreService{
		scores:  scores,
		players: players,
		outbox:  outbox,
		events:  events,
	}
}

// Record stores a score posted from a station: it lands in the score list,
// is appended to the player's history, and is captured for replication.
func (s *ScoreService) Record(ctx context.Context, stationID, email, displayName string, score int) error {
	doc := &models.Score{
		Email:       email,
		DisplayName: displayName,
		Score:       score,
	}

	if err := s.scores.Insert(ctx, doc); err != nil {
		return err
	}

	if err := s.players.AppendScore(ctx, email, score); err != nil {
		// the score document is the source of truth for reports, keep going
		log.Errorf("failed to append score to player %s: %v", email, err)
	}

	s.outbox.Capture(ctx, "/scores", "post", map[string]string{
		"email":       email,
		"displayName": displayName,
		"score":       strconv.Itoa(score),
	})

	if s.events != nil {
		s.events.PublishKioskEvent("score", stationID, email, displayName)
	}

	return nil
}

// Ingest is the upstream-facing score write: no capture, no station event.
func (s *ScoreService) Ingest(ctx context.Context, email, displayName string, score int) error {
	doc := &models.Score{
		Email:       email,
		DisplayName: displayName,
		Score:       score,
	}

	return s.scores.Insert(ctx, doc)
}

func (s *ScoreService) List(ctx context.Context) ([]*models.Score, error) {
	return s.scores.List(ctx)
}
