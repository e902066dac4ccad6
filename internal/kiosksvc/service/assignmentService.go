package service

import (
	"context"
	"sync"
	"time"

	"github.com/startvr/kiosk-services/internal/kiosksvc/models"

	log "github.com/sirupsen/logrus"
)

// Actions a kiosk can apply to its station's slot.
const (
	ActionStart    = "start"
	ActionCancel   = "cancel"
	ActionComplete = "complete"
)

// AssignmentStore defines what the service needs from the slot collection.
type AssignmentStore interface {
	Get(ctx context.Context, stationID string) (*models.Assignment, error)
	Put(ctx context.Context, assignment *models.Assignment) error
	SetReady(ctx context.Context, stationID string) error
	Delete(ctx context.Context, stationID string) error
}

// PlayerFlagStore is the slice of the player directory the workflow touches:
// the waiting/started flags and the lobby listing.
type PlayerFlagStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Player, error)
	SetFlags(ctx context.Context, email string, waiting, started bool) error
	ListWaiting(ctx context.Context, from, to time.Time) ([]*models.Player, error)
}

// EventPublisher fans a slot change out to lobby displays. Implementations
// must tolerate being called from the request path without blocking it.
type EventPublisher interface {
	PublishKioskEvent(eventType, stationID, email, displayName string)
}

// PlayerSummary is what a kiosk receives when it polls for its next player.
type PlayerSummary struct {
	Email       string
	DisplayName string
	Hand        string
	Started     bool
}

// AssignmentService enforces the one-player-per-station slot. Every
// read-modify-write on a station runs under that station's mutex, so
// concurrent kiosk and web requests against the same station serialize.
// Invalid transitions are deliberately silent no-ops: kiosks on the floor
// send duplicate and out-of-order requests and must never see an error for
// a stale button press.
type AssignmentService struct {
	assignments AssignmentStore
	players     PlayerFlagStore
	events      EventPublisher // may be nil when the event bus is disabled

	locks sync.Map // stationID -> *sync.Mutex
}

func NewAssignmentService(assignments AssignmentStore, players PlayerFlagStore, events EventPublisher) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		players:     players,
		events:      events,
	}
}

func (s *AssignmentService) stationLock(stationID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(stationID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *AssignmentService) publish(eventType, stationID, email, displayName string) {
	if s.events == nil {
		return
	}
	s.events.PublishKioskEvent(eventType, stationID, email, displayName)
}

// Enqueue queues a player onto an empty station. A station already holding
// a different player keeps it; the caller retries once the slot frees.
func (s *AssignmentService) Enqueue(ctx context.Context, stationID, email, displayName string) error {
	lock := s.stationLock(stationID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.assignments.Get(ctx, stationID)
	if err != nil {
		return err
	}

	if current != nil {
		if current.Email != email {
			log.Warnf("station %s already holds %s, ignoring enqueue of %s", stationID, current.Email, email)
		}
		return nil
	}

	assignment := &models.Assignment{
		StationID:   stationID,
		Email:       email,
		DisplayName: displayName,
		IsReady:     false,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.assignments.Put(ctx, assignment); err != nil {
		return err
	}

	// the player is in the slot now, not in the lobby
	if err := s.players.SetFlags(ctx, email, false, false); err != nil {
		return err
	}

	s.publish("queued", stationID, email, displayName)
	return nil
}

// PollReady acknowledges the queued player on behalf of the station and
// returns their summary. Repeated polls keep returning the same player.
// An empty slot yields (nil, nil).
func (s *AssignmentService) PollReady(ctx context.Context, stationID string) (*PlayerSummary, error) {
	lock := s.stationLock(stationID)
	lock.Lock()
	defer lock.Unlock()

	assignment, err := s.assignments.Get(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, nil
	}

	if !assignment.IsReady {
		if err := s.assignments.SetReady(ctx, stationID); err != nil {
			return nil, err
		}
		s.publish("ready", stationID, assignment.Email, assignment.DisplayName)
	}

	summary := &PlayerSummary{
		Email:       assignment.Email,
		DisplayName: assignment.DisplayName,
	}

	player, err := s.players.GetByEmail(ctx, assignment.Email)
	if err != nil {
		log.Errorf("failed to load player %s for station %s poll: %v", assignment.Email, stationID, err)
		return summary, nil
	}
	if player != nil {
		summary.Hand = player.Hand
		summary.Started = player.Started
	}

	return summary, nil
}

// Advance moves the station's play cycle forward. The requesting email must
// match the slot; anything stale is logged and dropped.
func (s *AssignmentService) Advance(ctx context.Context, stationID, email, action string) error {
	lock := s.stationLock(stationID)
	lock.Lock()
	defer lock.Unlock()

	assignment, err := s.assignments.Get(ctx, stationID)
	if err != nil {
		return err
	}
	if assignment == nil {
		log.Warnf("station %s has no assignment, ignoring %s for %s", stationID, action, email)
		return nil
	}
	if assignment.Email != email {
		log.Warnf("station %s holds %s, ignoring %s for %s", stationID, assignment.Email, action, email)
		return nil
	}

	switch action {
	case ActionStart:
		if err := s.players.SetFlags(ctx, email, false, true); err != nil {
			return err
		}
		s.publish("started", stationID, email, assignment.DisplayName)

	case ActionCancel:
		if err := s.assignments.Delete(ctx, stationID); err != nil {
			return err
		}
		// back to the lobby
		if err := s.players.SetFlags(ctx, email, true, false); err != nil {
			return err
		}
		s.publish("cancelled", stationID, email, assignment.DisplayName)

	case ActionComplete:
		player, err := s.players.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if player == nil || !player.Started {
			log.Warnf("station %s player %s has not started, ignoring complete", stationID, email)
			return nil
		}
		if err := s.assignments.Delete(ctx, stationID); err != nil {
			return err
		}
		if err := s.players.SetFlags(ctx, email, false, false); err != nil {
			return err
		}
		s.publish("completed", stationID, email, assignment.DisplayName)

	default:
		log.Warnf("station %s received unknown action %q for %s", stationID, action, email)
	}

	return nil
}

// Reset force-clears the station's slot whatever its state. The player's
// waiting/started flags are intentionally left as they are; an operator
// fixes the player record separately when needed.
func (s *AssignmentService) Reset(ctx context.Context, stationID string) error {
	lock := s.stationLock(stationID)
	lock.Lock()
	defer lock.Unlock()

	assignment, err := s.assignments.Get(ctx, stationID)
	if err != nil {
		return err
	}

	if err := s.assignments.Delete(ctx, stationID); err != nil {
		return err
	}

	if assignment != nil {
		s.publish("reset", stationID, assignment.Email, assignment.DisplayName)
	}
	return nil
}

// Current reads the slot without touching it, for the queue view.
func (s *AssignmentService) Current(ctx context.Context, stationID string) (*models.Assignment, error) {
	return s.assignments.Get(ctx, stationID)
}

// ListWaiting renders the lobby: players flagged waiting whose last activity
// falls inside [from, to), newest first.
func (s *AssignmentService) ListWaiting(ctx context.Context, from, to time.Time) ([]*models.Player, error) {
	return s.players.ListWaiting(ctx, from, to)
}
