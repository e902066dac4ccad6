package service

import (
	"context"

	"github.com/startvr/kiosk-services/internal/kiosksvc/models"
)

type PlayerStore interface {
	PlayerFlagStore
	UpsertProfile(ctx context.Context, player *models.Player) error
	List(ctx context.Context) ([]*models.Player, error)
}

type PlayerService struct {
	players PlayerStore
	outbox  *OutboxService
}

func NewPlayerService(players PlayerStore, outbox *OutboxService) *PlayerService {
	return &PlayerService{
		players: players,
		outbox:  outbox,
	}
}

// Register upserts the signup profile keyed by email and captures the write
// for upstream replication.
func (s *PlayerService) Register(ctx context.Context, player *models.Player) error {
	if err := s.players.UpsertProfile(ctx, player); err != nil {
		return err
	}

	s.outbox.Capture(ctx, "/players", "post", map[string]string{
		"email":       player.Email,
		"firstName":   player.FirstName,
		"lastName":    player.LastName,
		"displayName": player.DisplayName,
		"phone":       player.Phone,
	})

	return nil
}

func (s *PlayerService) List(ctx context.Context) ([]*models.Player, error) {
	return s.players.List(ctx)
}
