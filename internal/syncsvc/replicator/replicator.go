package replicator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/startvr/kiosk-services/internal/kiosksvc/models"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Config struct {
	Interval       time.Duration
	RequestTimeout time.Duration
	WarnPending    int
	WarnAge        time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:       60 * time.Second,
		RequestTimeout: 10 * time.Second,
		WarnPending:    500,
		WarnAge:        time.Hour,
	}
}

// Store is the outbox as the replicator sees it: due entries in creation
// order, and deletion of acknowledged ones.
type Store interface {
	Due(ctx context.Context, before time.Time) ([]*models.OutboxEntry, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Replicator drains the outbox against the upstream server. Delivery is
// at-least-once: an entry is deleted only after a 200, so a crash between
// the request and the delete replays it. The replicator runs as a single
// instance; nothing else deletes from the outbox.
type Replicator struct {
	store       Store
	destination string
	client      *http.Client
	clock       clockwork.Clock
	config      Config

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New fails when no destination is configured; a deployment that does not
// replicate must not start the replicator at all.
func New(store Store, destination string, cfg Config, clock clockwork.Clock) (*Replicator, error) {
	if destination == "" {
		return nil, fmt.Errorf("sync destination is not configured")
	}

	return &Replicator{
		store:       store,
		destination: strings.TrimSuffix(destination, "/"),
		client:      &http.Client{Timeout: cfg.RequestTimeout},
		clock:       clock,
		config:      cfg,
		stopChan:    make(chan struct{}),
	}, nil
}

func (r *Replicator) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("replicator already running")
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx)

	log.Infof("sync replicator started against %s, interval %s", r.destination, r.config.Interval)
	return nil
}

// Stop finishes the in-flight delivery and shuts the loop down.
func (r *Replicator) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return fmt.Errorf("replicator not running")
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopChan)
	r.wg.Wait()

	log.Info("sync replicator stopped")
	return nil
}

func (r *Replicator) run(ctx context.Context) {
	defer r.wg.Done()

	// drain once on start, then on every tick
	r.drain(ctx)

	ticker := r.clock.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.Chan():
			r.drain(ctx)
		}
	}
}

// drain runs one replication cycle. Only entries whose ObjectID creation
// time has passed are selected, so future-dated entries stay queued. A
// failed entry is kept for the next cycle and never blocks the rest.
func (r *Replicator) drain(ctx context.Context) {
	now := r.clock.Now().UTC()

	entries, err := r.store.Due(ctx, now)
	if err != nil {
		log.Errorf("failed to read due sync entries: %v", err)
		return
	}
	if len(entries) == 0 {
		log.Debug("sync cycle found nothing to deliver")
		return
	}

	r.warnBacklog(entries, now)

	success, fail := 0, 0
	for _, entry := range entries {
		select {
		case <-r.stopChan:
			log.Warnf("sync cycle interrupted by shutdown, %d entries left for restart", len(entries)-success-fail)
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := r.deliver(ctx, entry); err != nil {
			fail++
			log.Warnf("Failed sync %s %s: %v", entry.Method, entry.URL, err)
			continue
		}

		if err := r.store.Delete(ctx, entry.ID); err != nil {
			// delivered but not removed: the next cycle redelivers, which
			// at-least-once already allows for
			fail++
			log.Errorf("failed to remove delivered sync entry %s: %v", entry.ID.Hex(), err)
			continue
		}
		success++
	}

	log.Infof("sync cycle completed with %d successful and %d failed requests", success, fail)
}

func (r *Replicator) warnBacklog(entries []*models.OutboxEntry, now time.Time) {
	if len(entries) > r.config.WarnPending {
		log.Warnf("sync backlog at %d entries, upstream may be unreachable", len(entries))
	}

	oldest := entries[0].ID.Timestamp()
	if age := now.Sub(oldest); age > r.config.WarnAge {
		log.Warnf("oldest sync entry is %s old, upstream may be rejecting requests", age.Round(time.Second))
	}
}

func (r *Replicator) deliver(ctx context.Context, entry *models.OutboxEntry) error {
	// a capture without method or url can never be replayed; drop it like
	// a delivered entry instead of retrying forever
	if entry.Method == "" || entry.URL == "" {
		log.Warnf("dropping malformed sync entry %s", entry.ID.Hex())
		return nil
	}

	form := url.Values{}
	for key, value := range entry.Data {
		form.Set(key, value)
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx,
		strings.ToUpper(entry.Method),
		r.destination+entry.URL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	return nil
}
