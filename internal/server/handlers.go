package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/weekplan/internal/catalog"
	"github.com/abhisek/weekplan/internal/editor"
	"github.com/abhisek/weekplan/internal/persist"
	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/slotgrid"
)

// intentRequest is the body of POST /intents.
type intentRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type errorResponse struct {
	Error  string         `json:"error"`
	Notice *editor.Notice `json:"notice,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filters{
		Muscle:    q.Get("muscle"),
		Equipment: q.Get("equipment"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		f.Limit = n
	}
	res, err := s.catalog.Search(r.Context(), q.Get("q"), f)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if res == nil {
		res = []catalog.ExerciseSummary{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCatalogGet(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.catalog.Get(chi.URLParam(r, "ref"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "exercise not found"})
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

// editorFor resolves the plan editor of the request, writing the error
// response when it cannot.
func (s *Server) editorFor(w http.ResponseWriter, r *http.Request) (*editor.Editor, bool) {
	id := chi.URLParam(r, "planID")
	ed, err := s.editors.Get(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, plan.ErrNotFound) {
			status = http.StatusNotFound
		} else {
			s.log.Error("open plan", "plan", id, "error", err)
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return nil, false
	}
	return ed, true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ed.GetState())
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ed.GetState().Alerts)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ed.GetState().History)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ed.GetState().Sync)
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	in, err := editor.DecodeIntent(req.Type, req.Payload)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.dispatch(w, r, in)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, editor.Undo{})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, editor.Redo{})
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, in editor.Intent) {
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	out, err := ed.Dispatch(r.Context(), in)
	if err != nil {
		writeJSON(w, intentStatus(err), errorResponse{Error: err.Error(), Notice: out.Notice})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFor(w, r)
	if !ok {
		return
	}
	if err := ed.Flush(r.Context()); err != nil {
		writeJSON(w, intentStatus(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ed.GetState().Sync)
}

// intentStatus maps dispatch errors to HTTP status codes.
func intentStatus(err error) int {
	var (
		move       *slotgrid.InvalidMoveError
		conflict   *slotgrid.ConflictError
		transition *slotgrid.InvalidTransitionError
		save       *persist.SaveError
	)
	switch {
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &move), errors.As(err, &transition), errors.Is(err, editor.ErrNotFixable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, editor.ErrAlertNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrNoPersistence):
		return http.StatusNotImplemented
	case errors.As(err, &save):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
