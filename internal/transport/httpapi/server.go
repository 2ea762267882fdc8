// Package httpapi exposes the engine over JSON/HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/xtding233/loto-backend/internal/engine"
	"github.com/xtding233/loto-backend/internal/metrics"
)

// maxBody bounds JSON request bodies.
const maxBody = 1 << 20

type errResp struct {
	Err string `json:"err"`
}

// Server holds the HTTP handlers.
type Server struct {
	engine  *engine.Engine
	metrics *metrics.Metrics
	log     *logrus.Entry
}

func New(e *engine.Engine, m *metrics.Metrics, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{engine: e, metrics: m, log: log.WithField("component", "http")}
}

// Router registers every route.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metrics.InstrumentHandler)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/stats/frequency", s.handleFrequency).Methods(http.MethodGet)
	r.HandleFunc("/stats/gaps", s.handleGaps).Methods(http.MethodGet)
	r.HandleFunc("/stats/combos", s.handleCombos).Methods(http.MethodGet)
	r.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/generate/batch", s.handleGenerateBatch).Methods(http.MethodPost)
	r.HandleFunc("/suggest", s.handleSuggest).Methods(http.MethodGet)
	r.HandleFunc("/sample", s.handleSample).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	r.HandleFunc("/latest", s.handleLatest).Methods(http.MethodGet)
	r.HandleFunc("/price", s.handlePrice).Methods(http.MethodGet)
	r.HandleFunc("/tickets", s.handleCreateTicket).Methods(http.MethodPost)
	r.HandleFunc("/tickets", s.handleListTickets).Methods(http.MethodGet)
	r.HandleFunc("/tickets/{id}", s.handleGetTicket).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
}

// writeError maps engine error kinds onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch engine.Classify(err) {
	case engine.KindInvalid:
		status = http.StatusBadRequest
	case engine.KindNotFound:
		status = http.StatusNotFound
	case engine.KindUnavailable:
		status = http.StatusServiceUnavailable
	case engine.KindUpstream:
		status = http.StatusBadGateway
	case engine.KindTimeout:
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeJSON(w, status, errResp{Err: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(engine.ErrInvalidArgument, err)
	}
	return nil
}
