// Package httpapi is the JSON HTTP surface over pkg/supervisor: health,
// move, move-status, and hint. It owns request/response marshaling and the
// translation of apperr codes to HTTP status codes; all chess/engine logic
// lives in pkg/supervisor.
package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/arrowgate/chessd/pkg/apperr"
	"github.com/arrowgate/chessd/pkg/supervisor"
	"github.com/seekerror/logw"
)

// Server adapts a *supervisor.Supervisor to an http.Handler.
type Server struct {
	sup *supervisor.Supervisor
	mux *http.ServeMux
}

// New builds a Server with its routes registered. The Server sets no request
// deadline of its own; how long a move or hint request may take is bounded
// by the supervisor's bestmove-wait deadline.
func New(sup *supervisor.Supervisor) *Server {
	s := &Server{sup: sup, mux: http.NewServeMux()}
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/move", s.handleMove)
	s.mux.HandleFunc("/api/move/status/", s.handleStatus)
	s.mux.HandleFunc("/api/hint", s.handleHint)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	OK bool `json:"ok"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true})
}

type moveRequestBody struct {
	FEN        string          `json:"fen"`
	MovesUCI   json.RawMessage `json:"moves_uci"`
	Skill      string          `json:"skill"`
	MovetimeMS json.RawMessage `json:"movetime_ms"`
	Depth      int             `json:"depth"`
	HashMB     int             `json:"hash_mb"`
}

// parseMovesUCI accepts an absent field or a JSON array of strings;
// anything else (a string, a number, an object) is INVALID_MOVES_UCI.
func parseMovesUCI(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v []string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, apperr.InvalidMovesUCIError()
	}
	return v, nil
}

// parseMovetimeMS accepts an absent field or a positive JSON integer;
// zero, negative, or non-integer values are INVALID_MOVETIME.
func parseMovetimeMS(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil || v <= 0 {
		return 0, apperr.InvalidMovetimeError()
	}
	return v, nil
}

type scoreBody struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

type moveResponseBody struct {
	UCI      *string    `json:"uci"`
	Terminal bool       `json:"terminal"`
	Reason   *string    `json:"reason"`
	Depth    *int       `json:"depth"`
	Score    *scoreBody `json:"score"`
	PV       string     `json:"pv"`
	Bookhit  bool       `json:"bookhit"`
	Timeout  bool       `json:"timeout"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, apperr.EngineErrorf("method %v not allowed", r.Method))
		return
	}

	var body moveRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.MissingFENError())
		return
	}
	if body.FEN == "" {
		writeError(w, apperr.MissingFENError())
		return
	}
	movesUCI, err := parseMovesUCI(body.MovesUCI)
	if err != nil {
		writeError(w, err)
		return
	}
	movetimeMS, err := parseMovetimeMS(body.MovetimeMS)
	if err != nil {
		writeError(w, err)
		return
	}

	requestID := requestIDFrom(r)
	ctx := r.Context()
	logw.Infof(ctx, "POST /api/move %v: fen=%q moves=%v skill=%v", requestID, body.FEN, movesUCI, body.Skill)

	res, err := s.sup.Move(ctx, requestID, supervisor.MoveRequest{
		FEN:        body.FEN,
		MovesUCI:   movesUCI,
		Skill:      body.Skill,
		MovetimeMS: movetimeMS,
		Depth:      body.Depth,
		HashMB:     body.HashMB,
	})
	if err != nil {
		logw.Warningf(ctx, "move request %v failed: %v", requestID, err)
		writeError(w, err)
		return
	}

	w.Header().Set("x-request-id", requestID)
	writeJSON(w, http.StatusOK, moveResultToBody(res))
}

func moveResultToBody(res supervisor.MoveResult) moveResponseBody {
	resp := moveResponseBody{PV: res.PV, Bookhit: res.Bookhit, Timeout: res.Timeout}
	if res.Timeout {
		return resp
	}
	resp.UCI = res.UCI
	resp.Terminal = res.Terminal
	if res.Terminal {
		reason := res.Reason
		resp.Reason = &reason
	}
	resp.Depth = res.Depth
	if res.Score != nil {
		resp.Score = &scoreBody{Type: res.Score.Type, Value: res.Score.Value}
	}
	return resp
}

type statusResponseBody struct {
	ID         string     `json:"id"`
	Active     bool       `json:"active"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	LastInfoAt *time.Time `json:"last_info_at"`
	Depth      *int       `json:"depth"`
	Score      *scoreBody `json:"score"`
	PV         string     `json:"pv"`
	BestMove   *string    `json:"bestmove"`
	Terminal   bool       `json:"terminal"`
	Reason     *string    `json:"reason"`
	Error      *string    `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, apperr.EngineErrorf("method %v not allowed", r.Method))
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/move/status/")
	if id == "" {
		writeError(w, apperr.UnknownRequestIDError(id))
		return
	}

	st, err := s.sup.Status(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusToBody(st))
}

func statusToBody(st supervisor.RequestState) statusResponseBody {
	resp := statusResponseBody{
		ID:        st.ID,
		Active:    st.Active,
		StartedAt: st.StartedAt,
		PV:        st.LastInfo.PV,
		Terminal:  st.Terminal,
	}
	if !st.FinishedAt.IsZero() {
		t := st.FinishedAt
		resp.FinishedAt = &t
	}
	if !st.LastInfoAt.IsZero() {
		t := st.LastInfoAt
		resp.LastInfoAt = &t
	}
	if st.LastInfo.Depth > 0 {
		d := st.LastInfo.Depth
		resp.Depth = &d
	}
	if st.LastInfo.Score.Type != "" {
		resp.Score = &scoreBody{Type: st.LastInfo.Score.Type, Value: st.LastInfo.Score.Value}
	}
	if st.BestMove != "" && st.BestMove != "0000" {
		bm := st.BestMove
		resp.BestMove = &bm
	}
	if st.Terminal {
		reason := st.Reason
		resp.Reason = &reason
	}
	if st.Error != "" {
		e := st.Error
		resp.Error = &e
	}
	return resp
}

type hintRequestBody struct {
	FEN        string          `json:"fen"`
	MovesUCI   json.RawMessage `json:"moves_uci"`
	MultiPV    int             `json:"multipv"`
	MovetimeMS int             `json:"movetime_ms"`
}

type hintLineBody struct {
	UCI     string   `json:"uci"`
	ScoreCp int      `json:"scoreCp"`
	PVMoves []string `json:"pvMoves"`
}

type hintResponseBody struct {
	Best    *string        `json:"best"`
	Lines   []hintLineBody `json:"lines"`
	Timeout bool           `json:"timeout,omitempty"`
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, apperr.EngineErrorf("method %v not allowed", r.Method))
		return
	}

	var body hintRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.MissingFENError())
		return
	}
	if body.FEN == "" {
		writeError(w, apperr.MissingFENError())
		return
	}
	movesUCI, err := parseMovesUCI(body.MovesUCI)
	if err != nil {
		writeError(w, err)
		return
	}

	requestID := requestIDFrom(r)
	ctx := r.Context()
	logw.Infof(ctx, "POST /api/hint %v: fen=%q multipv=%v", requestID, body.FEN, body.MultiPV)

	res, err := s.sup.Hint(ctx, supervisor.HintRequest{
		FEN:        body.FEN,
		MovesUCI:   movesUCI,
		MultiPV:    body.MultiPV,
		MovetimeMS: body.MovetimeMS,
	})
	if err != nil {
		logw.Warningf(ctx, "hint request failed: %v", err)
		writeError(w, err)
		return
	}

	resp := hintResponseBody{Best: res.Best, Timeout: res.Timeout}
	for _, l := range res.Lines {
		resp.Lines = append(resp.Lines, hintLineBody{UCI: l.UCI, ScoreCp: l.ScoreCp, PVMoves: l.PVMoves})
	}
	writeJSON(w, http.StatusOK, resp)
}

// requestIDFrom adopts the caller's x-request-id header or generates one.
func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get("x-request-id"); id != "" {
		return id
	}
	return generateRequestID()
}

func generateRequestID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "req-unknown"
	}
	return "req-" + hex.EncodeToString(buf[:])
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	if ae, ok := err.(*apperr.Error); ok {
		writeJSON(w, ae.Status, errorBody{Code: string(ae.Code), Message: ae.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Code: string(apperr.EngineError), Message: err.Error()})
}
