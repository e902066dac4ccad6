package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"

	"github.com/startvr/kiosk-services/internal/kiosksvc/models"
	"github.com/startvr/kiosk-services/internal/kiosksvc/service"
)

type fakeStationStore struct {
	stations map[string]*models.Station
}

func (f *fakeStationStore) Upsert(ctx context.Context, stationID, status string) error {
	f.stations[stationID] = &models.Station{ID: stationID, Status: status, UpdatedAt: time.Now().UTC()}
	return nil
}

func (f *fakeStationStore) Get(ctx context.Context, stationID string) (*models.Station, error) {
	return f.stations[stationID], nil
}

type fakeAssignmentStore struct {
	assignments map[string]*models.Assignment
}

func (f *fakeAssignmentStore) Get(ctx context.Context, stationID string) (*models.Assignment, error) {
	return f.assignments[stationID], nil
}

func (f *fakeAssignmentStore) Put(ctx context.Context, assignment *models.Assignment) error {
	f.assignments[assignment.StationID] = assignment
	return nil
}

func (f *fakeAssignmentStore) SetReady(ctx context.Context, stationID string) error {
	if assignment, ok := f.assignments[stationID]; ok {
		assignment.IsReady = true
	}
	return nil
}

func (f *fakeAssignmentStore) Delete(ctx context.Context, stationID string) error {
	delete(f.assignments, stationID)
	return nil
}

type fakePlayerStore struct {
	players map[string]*models.Player
}

func (f *fakePlayerStore) GetByEmail(ctx context.Context, email string) (*models.Player, error) {
	return f.players[email], nil
}

func (f *fakePlayerStore) SetFlags(ctx context.Context, email string, waiting, started bool) error {
	player, ok := f.players[email]
	if !ok {
		player = &models.Player{Email: email}
		f.players[email] = player
	}
	player.Waiting = waiting
	player.Started = started
	player.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakePlayerStore) ListWaiting(ctx context.Context, from, to time.Time) ([]*models.Player, error) {
	var waiting []*models.Player
	for _, player := range f.players {
		if player.Waiting && !player.UpdatedAt.Before(from) && player.UpdatedAt.Before(to) {
			waiting = append(waiting, player)
		}
	}
	sort.Slice(waiting, func(i, j int) bool {
		return waiting[i].UpdatedAt.After(waiting[j].UpdatedAt)
	})
	return waiting, nil
}

func (f *fakePlayerStore) UpsertProfile(ctx context.Context, player *models.Player) error {
	f.players[player.Email] = player
	return nil
}

func (f *fakePlayerStore) AppendScore(ctx context.Context, email string, score int) error {
	if player, ok := f.players[email]; ok {
		player.Scores = append(player.Scores, score)
	}
	return nil
}

func (f *fakePlayerStore) List(ctx context.Context) ([]*models.Player, error) {
	var players []*models.Player
	for _, player := range f.players {
		players = append(players, player)
	}
	return players, nil
}

type fakeScoreStore struct {
	scores []*models.Score
}

func (f *fakeScoreStore) Insert(ctx context.Context, score *models.Score) error {
	f.scores = append(f.scores, score)
	return nil
}

func (f *fakeScoreStore) List(ctx context.Context) ([]*models.Score, error) {
	return f.scores, nil
}

type capturedEntry struct {
	url    string
	method string
	data   map[string]string
}

type fakeOutbox struct {
	captured []capturedEntry
}

func (f *fakeOutbox) Insert(ctx context.Context, url, method string, data map[string]string) error {
	f.captured = append(f.captured, capturedEntry{url: url, method: method, data: data})
	return nil
}

type testEnv struct {
	router   *chi.Mux
	stations *fakeStationStore
	players  *fakePlayerStore
	outbox   *fakeOutbox
}

func newTestEnv() *testEnv {
	stations := &fakeStationStore{stations: map[string]*models.Station{}}
	assignments := &fakeAssignmentStore{assignments: map[string]*models.Assignment{}}
	players := &fakePlayerStore{players: map[string]*models.Player{}}
	scores := &fakeScoreStore{}
	outbox := &fakeOutbox{}

	outboxService := service.NewOutboxService(outbox, true)
	h := NewHandler(
		service.NewStationService(stations),
		service.NewAssignmentService(assignments, players, nil),
		service.NewPlayerService(players, outboxService),
		service.NewScoreService(scores, players, outboxService, nil),
	)

	r := chi.NewRouter()
	h.SetRoutes(r)

	return &testEnv{router: r, stations: stations, players: players, outbox: outbox}
}

func (e *testEnv) postForm(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestReportStatusMissingField(t *testing.T) {
	env := newTestEnv()

	w := env.postForm(t, "/station/s1", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Missing status") {
		t.Fatalf("Expected offending field in body, got %q", w.Body.String())
	}
}

func TestStationStatusRoundTrip(t *testing.T) {
	env := newTestEnv()

	w := env.postForm(t, "/station/s1", "status=idle")
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}

	w = env.get(t, "/station/s1/status")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Body.String() != "idle" {
		t.Fatalf("Expected status text, got %q", w.Body.String())
	}
}

func TestStationStatusUnknownStation(t *testing.T) {
	env := newTestEnv()

	w := env.get(t, "/station/ghost/status")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
}

func TestStationPlayerUnknownStation(t *testing.T) {
	env := newTestEnv()

	w := env.get(t, "/station/ghost/player")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unregistered station, got %d", w.Code)
	}
}

func TestStationPlayerEmptySlot(t *testing.T) {
	env := newTestEnv()
	env.postForm(t, "/station/s1", "status=idle")

	w := env.get(t, "/station/s1/player")
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204 for empty slot, got %d", w.Code)
	}
}

func TestStationPlayerPipeFormat(t *testing.T) {
	env := newTestEnv()
	env.players.players["a@x.io"] = &models.Player{Email: "a@x.io", DisplayName: "Alice", Hand: "left", Waiting: true}
	env.postForm(t, "/station/s1", "status=idle")

	w := env.postForm(t, "/next/s1", "email=a%40x.io&displayName=Alice")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("Expected 303 redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/next/s1" {
		t.Fatalf("Expected redirect to /next/s1, got %q", loc)
	}

	w = env.get(t, "/station/s1/player")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Body.String() != "a@x.io|Alice|left|false" {
		t.Fatalf("Unexpected poll payload %q", w.Body.String())
	}

	// polling again acknowledges the same player
	w = env.get(t, "/station/s1/player")
	if w.Body.String() != "a@x.io|Alice|left|false" {
		t.Fatalf("Expected idempotent poll, got %q", w.Body.String())
	}
}

func TestQueueActionMissingEmail(t *testing.T) {
	env := newTestEnv()

	w := env.postForm(t, "/next/s1", "displayName=Alice")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Missing email") {
		t.Fatalf("Expected offending field in body, got %q", w.Body.String())
	}
}

func TestQueueActionJSONBody(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest("POST", "/next/s1", strings.NewReader(`{"email":"a@x.io","displayName":"Alice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("Expected 303, got %d", w.Code)
	}
}

func TestScoreMissingScore(t *testing.T) {
	env := newTestEnv()

	w := env.postForm(t, "/score/s1", "email=a%40x.io")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Missing score") {
		t.Fatalf("Expected offending field in body, got %q", w.Body.String())
	}
}

func TestScoreMissingDisplayName(t *testing.T) {
	env := newTestEnv()

	w := env.postForm(t, "/score/s1", "email=a%40x.io&score=9000")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Missing displayName") {
		t.Fatalf("Expected offending field in body, got %q", w.Body.String())
	}
	if len(env.outbox.captured) != 0 {
		t.Fatalf("Expected rejected score to stay out of the outbox, got %d entries", len(env.outbox.captured))
	}
}

func TestScoreCapturesOutboxEntry(t *testing.T) {
	env := newTestEnv()
	env.players.players["a@x.io"] = &models.Player{Email: "a@x.io", DisplayName: "Alice"}

	w := env.postForm(t, "/score/s1", "email=a%40x.io&displayName=Alice&score=9000")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	if len(env.outbox.captured) != 1 {
		t.Fatalf("Expected 1 captured entry, got %d", len(env.outbox.captured))
	}
	entry := env.outbox.captured[0]
	if entry.url != "/scores" || entry.method != "post" {
		t.Fatalf("Expected post /scores capture, got %s %s", entry.method, entry.url)
	}
	if entry.data["score"] != "9000" {
		t.Fatalf("Expected score in capture payload, got %v", entry.data)
	}

	if got := env.players.players["a@x.io"].Scores; len(got) != 1 || got[0] != 9000 {
		t.Fatalf("Expected score appended to player, got %v", got)
	}
}

func TestRegisterPlayerValidation(t *testing.T) {
	env := newTestEnv()

	w := env.postForm(t, "/players", "email=a%40x.io&firstName=Al&lastName=Ice&displayName=Alice")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Missing phone") {
		t.Fatalf("Expected offending field in body, got %q", w.Body.String())
	}
}

func TestRegisterPlayerCapturesOutboxEntry(t *testing.T) {
	env := newTestEnv()

	w := env.postForm(t, "/players", "email=a%40x.io&firstName=Al&lastName=Ice&displayName=Alice&phone=0400000000")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	if len(env.outbox.captured) != 1 {
		t.Fatalf("Expected 1 captured entry, got %d", len(env.outbox.captured))
	}
	if env.outbox.captured[0].url != "/players" {
		t.Fatalf("Expected /players capture, got %s", env.outbox.captured[0].url)
	}
}

func TestIngestScoreDoesNotCapture(t *testing.T) {
	env := newTestEnv()

	w := env.postForm(t, "/scores", "email=a%40x.io&displayName=Alice&score=100")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if len(env.outbox.captured) != 0 {
		t.Fatalf("Expected no capture on the ingest surface, got %d", len(env.outbox.captured))
	}
}

func TestQueueViewDefaultWindow(t *testing.T) {
	env := newTestEnv()
	env.postForm(t, "/station/s1", "status=idle")

	now := time.Now().UTC()
	env.players.players["recent@x.io"] = &models.Player{
		Email: "recent@x.io", DisplayName: "Recent", Waiting: true, UpdatedAt: now.Add(-time.Hour),
	}
	env.players.players["stale@x.io"] = &models.Player{
		Email: "stale@x.io", DisplayName: "Stale", Waiting: true, UpdatedAt: now.Add(-25 * time.Hour),
	}
	env.players.players["playing@x.io"] = &models.Player{
		Email: "playing@x.io", DisplayName: "Playing", Waiting: false, UpdatedAt: now.Add(-time.Minute),
	}

	w := env.get(t, "/next/s1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var view queueView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("Failed to decode queue view: %v", err)
	}
	if view.Station != "s1" {
		t.Fatalf("Expected station s1, got %q", view.Station)
	}
	if view.Assignment != nil {
		t.Fatalf("Expected empty slot, got %+v", view.Assignment)
	}

	// only lobby players active in the last day make the default view
	if len(view.Waiting) != 1 {
		t.Fatalf("Expected 1 waiting player, got %d", len(view.Waiting))
	}
	if view.Waiting[0].Email != "recent@x.io" {
		t.Fatalf("Expected recent@x.io, got %q", view.Waiting[0].Email)
	}
}

func TestResetReturnsOK(t *testing.T) {
	env := newTestEnv()
	env.postForm(t, "/station/s1", "status=idle")
	env.postForm(t, "/next/s1", "email=a%40x.io&displayName=Alice")

	w := env.get(t, "/reset/s1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = env.get(t, "/station/s1/player")
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected empty slot after reset, got %d", w.Code)
	}
}
