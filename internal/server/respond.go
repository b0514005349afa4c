package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/abhisek/studypod/internal/course"
	"github.com/abhisek/studypod/internal/gateway"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(log *zap.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	writeJSON(s.log, w, status, v)
}

// fail writes err as {"error": msg} with the status its type maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status >= 500 {
		s.log.Error("request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError && s.opts.Production && !isConfiguration(err) {
			msg = "internal server error"
		}
	}
	s.respond(w, status, errorBody{Error: msg})
}

// classify maps error types to HTTP statuses: validation 400, missing
// configuration 500, not found 404, upstream failure 502.
func classify(err error) (int, string) {
	var (
		ve  *gateway.ValidationError
		ce  *gateway.ConfigurationError
		nf  *course.NotFoundError
		ge  *gateway.GatewayError
		mbe *http.MaxBytesError
		se  *json.SyntaxError
		ute *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.As(err, &se), errors.As(err, &ute), errors.Is(err, errEmptyBody):
		return http.StatusBadRequest, "invalid request body"
	case errors.As(err, &ce):
		return http.StatusInternalServerError, ce.Error()
	case errors.As(err, &nf):
		return http.StatusNotFound, nf.Error()
	case errors.As(err, &ge):
		return http.StatusBadGateway, ge.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func isConfiguration(err error) bool {
	var ce *gateway.ConfigurationError
	return errors.As(err, &ce)
}
