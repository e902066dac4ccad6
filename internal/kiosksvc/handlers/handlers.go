package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"

	"github.com/startvr/kiosk-services/internal/comm"
	"github.com/startvr/kiosk-services/internal/kiosksvc/models"
	"github.com/startvr/kiosk-services/internal/kiosksvc/service"

	log "github.com/sirupsen/logrus"
)

type Handler struct {
	stations    *service.StationService
	assignments *service.AssignmentService
	players     *service.PlayerService
	scores      *service.ScoreService
}

func NewHandler(stations *service.StationService, assignments *service.AssignmentService,
	players *service.PlayerService, scores *service.ScoreService) *Handler {
	return &Handler{
		stations:    stations,
		assignments: assignments,
		players:     players,
		scores:      scores,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

// requestParams reads a POST body as either JSON or an HTML form; kiosk
// firmware posts forms, the web frontend posts JSON.
func requestParams(r *http.Request) (map[string]string, error) {
	params := map[string]string{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, err
		}
		for key, value := range raw {
			switch v := value.(type) {
			case string:
				params[key] = v
			case float64:
				params[key] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				params[key] = strconv.FormatBool(v)
			}
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params, nil
}

func badRequestMissing(w http.ResponseWriter, field string) {
	http.Error(w, "Bad request: Missing "+field, http.StatusBadRequest)
}

// ReportStationStatus handles POST /station/{id}.
func (h *Handler) ReportStationStatus(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "stationID")

	params, err := requestParams(r)
	if err != nil {
		http.Error(w, "Bad request: unreadable body", http.StatusBadRequest)
		return
	}

	status, ok := params["status"]
	if !ok || status == "" {
		badRequestMissing(w, "status")
		return
	}

	if err := h.stations.ReportStatus(r.Context(), stationID, status); err != nil {
		log.Errorf("Error [StationService.ReportStatus] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StationStatus handles GET /station/{id}/status.
func (h *Handler) StationStatus(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "stationID")

	station, err := h.stations.GetStatus(r.Context(), stationID)
	if err != nil {
		log.Errorf("Error [StationService.GetStatus] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if station == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, station.Status)
}

// StationPlayer handles GET and POST /station/{id}/player: the kiosk polls
// for (and thereby acknowledges) its next ready player. 204 means the slot
// is empty; 404 means the station never registered.
func (h *Handler) StationPlayer(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "stationID")

	station, err := h.stations.GetStatus(r.Context(), stationID)
	if err != nil {
		log.Errorf("Error [StationService.GetStatus] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if station == nil {
		http.NotFound(w, r)
		return
	}

	summary, err := h.assignments.PollReady(r.Context(), stationID)
	if err != nil {
		log.Errorf("Error [AssignmentService.PollReady] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if summary == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "%s|%s|%s|%s",
		summary.Email,
		summary.DisplayName,
		summary.Hand,
		strconv.FormatBool(summary.Started),
	)
}

type queueView struct {
	Station    string             `json:"station"`
	Assignment *models.Assignment `json:"assignment"`
	Waiting    []comm.LobbyPlayer `json:"waiting"`
}

// QueueView handles GET /next/{id}: the station's current slot plus the
// waiting lobby, newest first. The window defaults to the trailing 24h;
// from/to RFC3339 query params override it.
func (h *Handler) QueueView(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "stationID")

	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = t
		}
	}

	assignment, err := h.assignments.Current(r.Context(), stationID)
	if err != nil {
		log.Errorf("Error [AssignmentService.Current] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	waiting, err := h.assignments.ListWaiting(r.Context(), from, to)
	if err != nil {
		log.Errorf("Error [AssignmentService.ListWaiting] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	view := queueView{
		Station:    stationID,
		Assignment: assignment,
		Waiting:    []comm.LobbyPlayer{},
	}
	for _, player := range waiting {
		view.Waiting = append(view.Waiting, comm.LobbyPlayer{
			Email:       player.Email,
			DisplayName: player.DisplayName,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		log.Errorf("Failed to encode queue view: %v", err)
	}
}

// QueueAction handles POST /next/{id}: without an action it queues the
// player, with one it advances the play cycle. Stale or mismatched requests
// are absorbed by the service, so the redirect always lands on the fresh view.
func (h *Handler) QueueAction(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "stationID")

	params, err := requestParams(r)
	if err != nil {
		http.Error(w, "Bad request: unreadable body", http.StatusBadRequest)
		return
	}

	email, ok := params["email"]
	if !ok || email == "" {
		badRequestMissing(w, "email")
		return
	}

	action := params["action"]
	if action == "" {
		err = h.assignments.Enqueue(r.Context(), stationID, email, params["displayName"])
	} else {
		err = h.assignments.Advance(r.Context(), stationID, email, action)
	}
	if err != nil {
		log.Errorf("Error [AssignmentService] station %s action %q: %s", stationID, action, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/next/"+stationID, http.StatusSeeOther)
}

// ResetStation handles GET /reset/{id}, the administrative escape hatch.
// Player flags are left untouched on purpose; see AssignmentService.Reset.
func (h *Handler) ResetStation(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "stationID")

	if err := h.assignments.Reset(r.Context(), stationID); err != nil {
		log.Errorf("Error [AssignmentService.Reset] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	fmt.Fprint(w, "OK")
}

// StationScore handles POST /score/{id}: a station posting its player's
// final score.
func (h *Handler) StationScore(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "stationID")

	params, err := requestParams(r)
	if err != nil {
		http.Error(w, "Bad request: unreadable body", http.StatusBadRequest)
		return
	}

	email, ok := params["email"]
	if !ok || email == "" {
		badRequestMissing(w, "email")
		return
	}

	score, err := strconv.Atoi(params["score"])
	if err != nil {
		http.Error(w, "Bad request: Missing score (must be integer)", http.StatusBadRequest)
		return
	}

	// the capture replays against POST /scores, so only payloads that
	// surface accepts may enter the outbox
	displayName, ok := params["displayName"]
	if !ok || displayName == "" {
		badRequestMissing(w, "displayName")
		return
	}

	if err := h.scores.Record(r.Context(), stationID, email, displayName, score); err != nil {
		log.Errorf("Error [ScoreService.Record] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	fmt.Fprint(w, "Ok")
}

// RegisterPlayer handles POST /players, the signup write.
func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	params, err := requestParams(r)
	if err != nil {
		http.Error(w, "Bad request: unreadable body", http.StatusBadRequest)
		return
	}

	for _, field := range []string{"email", "firstName", "lastName", "displayName", "phone"} {
		if params[field] == "" {
			badRequestMissing(w, field)
			return
		}
	}

	player := &models.Player{
		Email:       params["email"],
		FirstName:   params["firstName"],
		LastName:    params["lastName"],
		DisplayName: params["displayName"],
		Phone:       params["phone"],
		Hand:        params["hand"],
	}

	if err := h.players.Register(r.Context(), player); err != nil {
		log.Errorf("Error [PlayerService.Register] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	fmt.Fprint(w, "OK")
}

// ListPlayers handles GET /players.
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.List(r.Context())
	if err != nil {
		log.Errorf("Error [PlayerService.List] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	list := []comm.LobbyPlayer{}
	for _, player := range players {
		list = append(list, comm.LobbyPlayer{
			Email:       player.Email,
			DisplayName: player.DisplayName,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"players": list}); err != nil {
		log.Errorf("Failed to encode players: %v", err)
	}
}

// IngestScore handles POST /scores, the surface a replicated score entry
// lands on when this node runs as the upstream. No outbox capture here,
// otherwise replicated writes would re-enter the queue.
func (h *Handler) IngestScore(w http.ResponseWriter, r *http.Request) {
	params, err := requestParams(r)
	if err != nil {
		http.Error(w, "Bad request: unreadable body", http.StatusBadRequest)
		return
	}

	if params["email"] == "" {
		badRequestMissing(w, "email")
		return
	}
	score, err := strconv.Atoi(params["score"])
	if err != nil {
		http.Error(w, "Bad request: Missing score (must be integer)", http.StatusBadRequest)
		return
	}
	if params["displayName"] == "" {
		badRequestMissing(w, "displayName")
		return
	}

	if err := h.scores.Ingest(r.Context(), params["email"], params["displayName"], score); err != nil {
		log.Errorf("Error [ScoreService.Ingest] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	fmt.Fprint(w, "Ok")
}

type scoreView struct {
	Time        string `json:"time"`
	Score       int    `json:"score"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// ListScores handles GET /scores; the row time comes from the ObjectID's
// embedded creation time.
func (h *Handler) ListScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.scores.List(r.Context())
	if err != nil {
		log.Errorf("Error [ScoreService.List] %s", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	list := []scoreView{}
	for _, score := range scores {
		list = append(list, scoreView{
			Time:        score.ID.Timestamp().UTC().Format(time.RFC3339),
			Score:       score.Score,
			DisplayName: score.DisplayName,
			Email:       score.Email,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"scores": list}); err != nil {
		log.Errorf("Failed to encode scores: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "kiosk service is running at port " + os.Getenv("KIOSK_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode health response: %v", err)
	}
}
