package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/bloomscroll/bloomfeed/curation"
	"github.com/bloomscroll/bloomfeed/logging"
	"github.com/bloomscroll/bloomfeed/vector"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// handleFeed serves one curated page.
//
//	GET /api/v1/feed?viewer_id=...&page=1&limit=10&recent=id1,id2
//
// "recent" is the client-held recent-read list; context stays
// per-device unless the client chooses to sync it via the interactions
// API.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	viewerID := r.URL.Query().Get("viewer_id")
	if viewerID == "" {
		writeError(w, http.StatusBadRequest, "viewer_id is required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var recent []string
	if raw := r.URL.Query().Get("recent"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				recent = append(recent, id)
			}
		}
	}

	feed, err := s.engine.GenerateFeed(r.Context(), curation.FeedRequest{
		ViewerID:      viewerID,
		RecentReadIDs: recent,
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		logging.Error().Err(err).Str("viewer_id", viewerID).Msg("feed generation failed")
		writeError(w, http.StatusInternalServerError, "feed generation failed")
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

// handleTrack records one interaction. Reads and views count against
// the day's quota; skips and saves are acknowledged but not recorded.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	day := curation.DayKey(s.now(), s.loc)

	counted := req.Action == "read" || req.Action == "view"
	if counted {
		if err := s.quotas.RecordRead(r.Context(), req.ViewerID, req.CardID, day); err != nil {
			logging.Error().Err(err).Str("viewer_id", req.ViewerID).Msg("record read failed")
			writeError(w, http.StatusInternalServerError, "failed to record interaction")
			return
		}
	}

	state, err := s.quotas.Get(r.Context(), req.ViewerID, day)
	if err != nil {
		logging.Warn().Err(err).Str("viewer_id", req.ViewerID).Msg("quota readback failed")
	}

	writeJSON(w, http.StatusOK, TrackResponse{
		Tracked:        counted,
		TotalReadToday: state.ReadCount,
	})
}

// handleRecentReads returns the viewer's most recent reads, newest
// first, for clients that want server-held context.
func (s *Server) handleRecentReads(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewerID")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = curation.ContextWindow
	}

	ids, err := s.quotas.RecentReads(r.Context(), viewerID, limit)
	if err != nil {
		logging.Error().Err(err).Str("viewer_id", viewerID).Msg("recent reads query failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch recent reads")
		return
	}

	writeJSON(w, http.StatusOK, RecentReadsResponse{
		ViewerID:      viewerID,
		RecentCardIDs: ids,
		Count:         len(ids),
	})
}

// handleCardCreate ingests one card: validate, embed, store.
func (s *Server) handleCardCreate(w http.ResponseWriter, r *http.Request) {
	var req CardCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := s.ingestor.Ingest(r.Context(), req.toCard())
	if err != nil {
		logging.Error().Err(err).Str("title", req.Title).Msg("card ingestion failed")
		writeError(w, http.StatusInternalServerError, "card ingestion failed")
		return
	}

	// Don't echo the raw embedding back.
	c.Embedding = nil
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleCardGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := s.cards.Get(r.Context(), id)
	if errors.Is(err, vector.ErrNotFound) {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("card_id", id).Msg("card lookup failed")
		writeError(w, http.StatusInternalServerError, "card lookup failed")
		return
	}

	c.Embedding = nil
	writeJSON(w, http.StatusOK, c)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encode response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
