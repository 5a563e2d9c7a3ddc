package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/techexlab/pois/internal/pipeline"
)

func (s *Server) handleESAM(w http.ResponseWriter, r *http.Request) {
	s.serveESAM(w, r, channelHint(r, ""))
}

func (s *Server) handleESAMChannel(w http.ResponseWriter, r *http.Request) {
	s.serveESAM(w, r, channelHint(r, chi.URLParam(r, "name")))
}

// channelHint resolves the channel name by path, query, then header, the
// priority order the decision pipeline expects to see already collapsed
// into one value.
func channelHint(r *http.Request, pathValue string) string {
	if pathValue != "" {
		return pathValue
	}
	if q := r.URL.Query().Get("channel"); q != "" {
		return q
	}
	return r.Header.Get("X-POIS-Channel")
}

func (s *Server) serveESAM(w http.ResponseWriter, r *http.Request, hint string) {
	req := pipeline.Request{
		Body:        r.Body,
		ChannelHint: hint,
		SourceIP:    r.RemoteAddr,
		UserAgent:   r.UserAgent(),
		RequestSize: int(r.ContentLength),
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.deadline)
	defer cancel()

	res, err := s.pipeline.Process(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = pipeline.ErrDeadlineExceeded
		}
		status, message := esamErrorStatus(err)
		if s.metrics != nil {
			s.metrics.RequestsTotal.WithLabelValues("noop", strconv.Itoa(status)).Inc()
		}
		writeError(w, status, message)
		return
	}

	if s.metrics != nil {
		action := "noop"
		if res.MatchedRuleID != nil {
			action = "matched"
		}
		s.metrics.RequestsTotal.WithLabelValues(action, strconv.Itoa(res.HTTPStatus)).Inc()
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(res.HTTPStatus)
	_, _ = w.Write([]byte(res.NotificationXML))
}

func esamErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrParseESAM):
		return http.StatusBadRequest, "malformed ESAM request"
	case errors.Is(err, pipeline.ErrUnknownChannel):
		return http.StatusNotFound, "channel not found or disabled"
	case errors.Is(err, pipeline.ErrDeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline exceeded"
	case errors.Is(err, pipeline.ErrStore):
		return http.StatusInternalServerError, "internal store error"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
