package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rankkit/boards"
	"rankkit/core"
)

// SetEntryRequest is the body of PUT /boards/{board}/entries/{id}.
type SetEntryRequest struct {
	Score   float64         `json:"score"`
	Payload json.RawMessage `json:"payload"`
}

// EntryResponse is returned by GET /boards/{board}/entries/{id}.
type EntryResponse struct {
	Entry   core.Ranked   `json:"entry"`
	Repairs []core.Repair `json:"repairs,omitempty"`
}

// RankResponse is returned by GET /boards/{board}/entries/{id}/rank.
type RankResponse struct {
	ID      string        `json:"id"`
	Rank    int64         `json:"rank"`
	Repairs []core.Repair `json:"repairs,omitempty"`
}

// EntriesResponse carries a list of ranked entries.
type EntriesResponse struct {
	Board   string        `json:"board"`
	Season  string        `json:"season,omitempty"`
	Entries []core.Ranked `json:"entries"`
	Repairs []core.Repair `json:"repairs,omitempty"`
}

type handlers struct {
	reg           *boards.Registry
	healthTimeout time.Duration
}

func (h *handlers) board(w http.ResponseWriter, r *http.Request) (boards.Board, bool) {
	b, err := h.reg.Get(chi.URLParam(r, "board"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return b, true
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.healthTimeout)
	defer cancel()

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{
			"storage": "ok",
		},
		"boards": h.reg.Names(),
	}
	code := http.StatusOK
	if err := h.reg.Ping(ctx); err != nil {
		code = http.StatusServiceUnavailable
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func (h *handlers) listBoards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"boards": h.reg.Names()})
}

func (h *handlers) setEntry(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	var req SetEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "body must be {\"score\": number, \"payload\": any}", nil)
		return
	}
	var payload any
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", err.Error(), nil)
			return
		}
	}
	e := core.Entry{ID: chi.URLParam(r, "id"), Score: req.Score, Payload: payload}
	if err := b.Set(r.Context(), e); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h *handlers) getEntry(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	res, err := b.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if res.Entry == nil {
		writeError(w, http.StatusNotFound, "entry_not_found", "no ranked entry "+strconv.Quote(id), res.Repairs)
		return
	}
	writeJSON(w, EntryResponse{Entry: *res.Entry, Repairs: res.Repairs})
}

func (h *handlers) deleteEntry(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h *handlers) rank(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	res, err := b.Rank(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, RankResponse{ID: id, Rank: res.Rank, Repairs: res.Repairs})
}

func (h *handlers) all(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	res, err := b.All(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, EntriesResponse{Board: b.Name(), Entries: res.Entries, Repairs: res.Repairs})
}

func parseBound(r *http.Request, name string, def int64) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func (h *handlers) rangeEntries(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	start, err := parseBound(r, "start", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_range", "start must be an integer", nil)
		return
	}
	stop, err := parseBound(r, "stop", b.MaxNum()-1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_range", "stop must be an integer", nil)
		return
	}
	res, err := b.Range(r.Context(), start, stop)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, EntriesResponse{Board: b.Name(), Entries: res.Entries, Repairs: res.Repairs})
}

func (h *handlers) save(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	entries, err := b.Save(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, EntriesResponse{Board: b.Name(), Entries: entries})
}

func (h *handlers) archive(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	var (
		entries []core.Ranked
		err     error
	)
	season := r.URL.Query().Get("season")
	if season != "" {
		sb, serr := h.reg.Seasonal(b.Name())
		if serr != nil {
			writeDomainError(w, serr)
			return
		}
		entries, err = sb.LoadSeason(r.Context(), season)
	} else {
		entries, err = b.Load(r.Context())
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		writeError(w, http.StatusNotFound, "archive_not_found", "no snapshot saved", nil)
		return
	}
	writeJSON(w, EntriesResponse{Board: b.Name(), Season: season, Entries: entries})
}

func (h *handlers) clean(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.Clean(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h *handlers) rotate(w http.ResponseWriter, r *http.Request) {
	sb, err := h.reg.Seasonal(chi.URLParam(r, "board"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	season := r.URL.Query().Get("season")
	if season == "" {
		if season, err = sb.Season(r.Context()); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	entries, err := sb.Rotate(r.Context(), season)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, EntriesResponse{Board: sb.Name(), Season: season, Entries: entries})
}

func (h *handlers) season(w http.ResponseWriter, r *http.Request) {
	sb, err := h.reg.Seasonal(chi.URLParam(r, "board"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	season, err := sb.Season(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"board": sb.Name(), "season": season})
}
