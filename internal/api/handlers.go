package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/clouxart/breathe/internal/breath"
	"github.com/clouxart/breathe/internal/pattern"
)

// JSONResponse writes payload as JSON with the given status.
func JSONResponse(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// ErrorResponse writes {"error": "..."} with the given status.
func ErrorResponse(w http.ResponseWriter, status int, err error) {
	JSONResponse(w, status, map[string]string{"error": err.Error()})
}

// engineError maps engine errors to a status code.
func engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, breath.ErrAlreadyRunning), errors.Is(err, breath.ErrNotRunning):
		ErrorResponse(w, http.StatusConflict, err)
	case errors.Is(err, pattern.ErrEmptyPattern), errors.Is(err, pattern.ErrInvalidDuration):
		ErrorResponse(w, http.StatusBadRequest, err)
	default:
		ErrorResponse(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Start(); err != nil {
		engineError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.Stop()
	if err != nil {
		engineError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, summary)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Pause(); err != nil {
		engineError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Resume(); err != nil {
		engineError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, s.engine.Snapshot())
}

// PatternRequest selects a pattern by library index, by name, or by giving
// custom durations in the "4-7-8-0" form.
type PatternRequest struct {
	Index   *int   `json:"index,omitempty"`
	Name    string `json:"name,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

func (s *Server) handleSetPattern(w http.ResponseWriter, r *http.Request) {
	var req PatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	ctx := r.Context()
	lib := s.currentLibrary()
	custom := s.prefs.Load(ctx).Custom

	var index int
	switch {
	case req.Pattern != "":
		p, err := pattern.Parse(req.Pattern)
		if err != nil {
			ErrorResponse(w, http.StatusBadRequest, err)
			return
		}
		if err := s.prefs.SetCustom(ctx, p); err != nil {
			engineError(w, err)
			return
		}
		custom, index = p, pattern.CustomIndex
	case req.Name != "":
		i, ok := lib.Find(req.Name)
		if !ok {
			ErrorResponse(w, http.StatusNotFound, fmt.Errorf("unknown pattern %q", req.Name))
			return
		}
		index = i
	case req.Index != nil:
		if *req.Index < 0 || *req.Index >= lib.Len() {
			ErrorResponse(w, http.StatusBadRequest, fmt.Errorf("pattern index %d out of range [0, %d)", *req.Index, lib.Len()))
			return
		}
		index = *req.Index
	default:
		ErrorResponse(w, http.StatusBadRequest, errors.New("one of index, name or pattern is required"))
		return
	}

	p := lib.Resolve(index, custom)
	if err := s.engine.SetPattern(p); err != nil {
		engineError(w, err)
		return
	}
	if err := s.prefs.SetPattern(ctx, index); err != nil {
		s.logger.Errorf("save pattern index %d: %v", index, err)
	}
	JSONResponse(w, http.StatusOK, s.engine.Snapshot())
}

// PatternInfo describes one selectable pattern.
type PatternInfo struct {
	Index    int             `json:"index"`
	Pattern  pattern.Pattern `json:"pattern"`
	Timing   string          `json:"timing"`
	Selected bool            `json:"selected"`
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	p := s.prefs.Load(r.Context())
	all := s.currentLibrary().All(p.Custom)

	out := make([]PatternInfo, 0, len(all))
	for i, pat := range all {
		out = append(out, PatternInfo{
			Index:    i,
			Pattern:  pat,
			Timing:   pat.String(),
			Selected: i == p.PatternIndex,
		})
	}
	JSONResponse(w, http.StatusOK, out)
}

// Stats is the response body of /stats.
type Stats struct {
	TotalBreaths   int `json:"total_breaths"`
	SessionBreaths int `json:"session_breaths"`
	SessionSeconds int `json:"session_seconds"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	total, err := s.prefs.TotalBreaths(r.Context())
	if err != nil {
		ErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	snap := s.engine.Snapshot()
	JSONResponse(w, http.StatusOK, Stats{
		TotalBreaths:   total,
		SessionBreaths: snap.Cycles,
		SessionSeconds: snap.SessionSeconds,
	})
}

func (s *Server) handleResetStats(w http.ResponseWriter, r *http.Request) {
	if err := s.prefs.ResetBreaths(r.Context()); err != nil {
		ErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	JSONResponse(w, http.StatusOK, Stats{})
}
