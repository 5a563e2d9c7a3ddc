package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/techexlab/pois/internal/eventlog"
)

// ownerChannels resolves the channel scoping for non-admin callers: nil
// means unrestricted (admins see everything).
func (s *Server) ownerChannels(r *http.Request) []string {
	if roleFromContext(r.Context()) == "admin" {
		return nil
	}
	// Non-admin scoping by owned channel is resolved via the store's
	// owner_id column; callers without an owned channel see nothing.
	userID, _ := r.Context().Value(ctxKeyUserID).(string)
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return []string{}
	}
	channels, err := s.store.ListChannels(r.Context(), &id)
	if err != nil {
		return []string{}
	}
	names := make([]string, len(channels))
	for i, c := range channels {
		names[i] = c.Name
	}
	return names
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	filters := eventlog.Filters{
		ChannelName: r.URL.Query().Get("channel"),
		Action:      r.URL.Query().Get("action"),
		Since:       r.URL.Query().Get("since"),
	}
	recs, err := s.events.Recent(r.Context(), limit, offset, filters, s.ownerChannels(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	rec, err := s.events.Detail(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleEventStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.events.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
