package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/xtding233/loto-backend/internal/config"
	"github.com/xtding233/loto-backend/internal/engine"
)

type healthResp struct {
	Status   string    `json:"status"`
	Draws    int       `json:"draws"`
	Rejected int       `json:"rejected"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rep, at := s.engine.LoadReport()
	writeJSON(w, http.StatusOK, healthResp{
		Status:   "ok",
		Draws:    s.engine.History().Len(),
		Rejected: len(rep.Rejected),
		Source:   rep.Source,
		LoadedAt: at,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Summary())
}

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	window, _, msg := parseInt(r, "window")
	if msg != "" {
		badRequest(w, msg)
		return
	}
	ft, err := s.engine.Frequency(window)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ft)
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Gaps().ByCurrent())
}

func (s *Server) handleCombos(w http.ResponseWriter, r *http.Request) {
	sizes, _, msg := parseIntList(r, "sizes")
	if msg != "" {
		badRequest(w, msg)
		return
	}
	top, ok, msg := parseInt(r, "top")
	if msg != "" {
		badRequest(w, msg)
		return
	}
	if !ok {
		top = 10
	}
	combos, err := s.engine.Combinations(sizes, top)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, combos)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	o, msg := overrides(r)
	if msg != "" {
		badRequest(w, msg)
		return
	}
	res, err := s.engine.Generate(o)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	size, _, msg := parseInt(r, "size")
	if msg != "" {
		badRequest(w, msg)
		return
	}
	g, err := s.engine.Suggest(size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// batchReq maps game size to quantity; the optional fields tune the generator.
type batchReq struct {
	Quantities map[int]int `json:"quantities"`
	Seed       *uint64     `json:"seed,omitempty"`
	Window     *int        `json:"window,omitempty"`
	AvoidLast  *bool       `json:"avoid_last,omitempty"`
	BalanceSum *bool       `json:"balance_sum,omitempty"`
	TargetSum  *int        `json:"target_sum,omitempty"`
}

func (s *Server) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchReq
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.engine.GenerateBatch(req.Quantities, config.Overrides{
		Seed:            req.Seed,
		FrequencyWindow: req.Window,
		AvoidLastDraw:   req.AvoidLast,
		BalanceSum:      req.BalanceSum,
		TargetSum:       req.TargetSum,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	o, msg := overrides(r)
	if msg != "" {
		badRequest(w, msg)
		return
	}
	rep, err := s.engine.Sample(r.Context(), o)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type evaluateReq struct {
	Games [][]int `json:"games"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateReq
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	recs, err := s.engine.Evaluate(req.Games)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Latest(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	sizes, ok, msg := parseIntList(r, "sizes")
	if !ok {
		if msg == "" {
			msg = "missing param sizes"
		}
		badRequest(w, msg)
		return
	}
	participants, ok, msg := parseInt(r, "participants")
	if msg != "" {
		badRequest(w, msg)
		return
	}
	if !ok {
		participants = 1
	}
	q, err := s.engine.Price(sizes, participants)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req engine.TicketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.engine.SaveTicket(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	limit, _, msg := parseInt(r, "limit")
	if msg != "" {
		badRequest(w, msg)
		return
	}
	ts, err := s.engine.Tickets(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := s.engine.Ticket(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
