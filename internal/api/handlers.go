package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/gate"
	"github.com/kiotasks/jeep/internal/logging"
	"github.com/kiotasks/jeep/internal/store"
	"github.com/kiotasks/jeep/internal/task"
)

// #region health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: s.sessions.count(),
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
	})
}

// #endregion health

// #region catalog
func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	level := 0
	if v := r.URL.Query().Get("level"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, fmt.Sprintf("level %q: must be a non-negative integer", v))
			return
		}
		level = n
	}
	s.writeJSON(w, http.StatusOK, ParametersResponse{
		TaskID:     "jeep" + strconv.Itoa(level),
		Level:      task.LevelFor(level),
		Parameters: eval.Parameters(),
	})
}

// handleManifest resolves the preload manifest through the host when one is
// configured, otherwise it serves the bundled paths.
func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	if s.config.Resolver == nil {
		s.writeJSON(w, http.StatusOK, ManifestResponse{Resources: task.PreloadManifest()})
		return
	}
	resources, err := task.ResolveManifest(r.Context(), s.config.Resolver)
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, ErrTypeUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ManifestResponse{Resources: resources})
}

// #endregion catalog

// #region sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	opts := []task.Option{task.WithGateConfig(s.config.GateConfig)}
	if s.config.Reporter != nil {
		opts = append(opts, task.WithReporter(s.config.Reporter))
	}
	tk, err := task.New(task.Settings{Level: req.Level}, append(opts, task.WithLogger(s.logger))...)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, err.Error())
		return
	}

	sess, err := s.sessions.add(tk)
	if err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, ErrTypeUnavailable, err.Error())
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if req.Resume {
		saved, err := s.store.GetCurrent(tk.ID())
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			_ = s.sessions.remove(sess.id)
			s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, err.Error())
			return
		default:
			d, err := tk.Apply(r.Context(), task.Edit{Op: task.OpLoad, Value: len(saved.Steps), Solution: saved.Steps})
			if err != nil {
				_ = s.sessions.remove(sess.id)
				s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, err.Error())
				return
			}
			s.logEdit(sess, task.OpLoad, len(saved.Steps), d)
		}
	}

	s.logger.Info("session created", "session", sess.id, "task", tk.ID(), "resume", req.Resume)
	s.writeJSON(w, http.StatusCreated, SessionResponse{ID: sess.id, View: tk.View()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		s.writeJSON(w, http.StatusOK, SessionResponse{ID: sess.id, View: sess.task.View()})
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.remove(id); err != nil {
		s.writeError(w, r, http.StatusNotFound, ErrTypeNotFound, err.Error())
		return
	}
	s.logger.Info("session closed", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

// #endregion sessions

// #region edits
func (s *Server) handleFuel(w http.ResponseWriter, r *http.Request) {
	var req FuelRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.edit(w, r, task.Edit{Op: task.OpFuel, Value: *req.Amount})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.edit(w, r, task.Edit{Op: task.OpMove, Value: *req.Position})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.edit(w, r, task.Edit{Op: task.OpSelect, Value: *req.Index})
}

func (s *Server) handlePutSolution(w http.ResponseWriter, r *http.Request) {
	var req SolutionRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.edit(w, r, task.Edit{Op: task.OpLoad, Value: len(req.Solution), Solution: req.Solution})
}

// edit applies e to the session of the request. Rejected edits answer 422
// with the decision and the unchanged view.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, e task.Edit) {
	s.withSession(w, r, func(sess *session) {
		d, err := sess.task.Apply(r.Context(), e)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, err.Error())
			return
		}
		s.logEdit(sess, e.Op, e.Value, d)

		status := http.StatusOK
		if !d.Committed() {
			status = http.StatusUnprocessableEntity
		}
		s.writeJSON(w, status, EditResponse{Decision: d, View: sess.task.View()})
	})
}

// #endregion edits

// #region solutions
func (s *Server) handleGetSolution(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		s.writeJSON(w, http.StatusOK, SolutionResponse{
			TaskID:   sess.task.ID(),
			Solution: sess.task.Solution(),
			Result:   sess.task.Result(),
		})
	})
}

// handleSave stores the session solution as a new version on top of the
// active version of the task.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		tk := sess.task
		rec := store.SolutionRecord{
			TaskID: tk.ID(),
			Level:  tk.Level(),
			Steps:  tk.Solution(),
			Scores: tk.Result(),
		}
		parent, err := s.store.GetCurrent(tk.ID())
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, err.Error())
			return
		default:
			rec.ParentID = parent.VersionID
		}

		saved, err := s.store.Commit(rec)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, err.Error())
			return
		}
		s.logger.Info("solution saved", "session", sess.id, "task", saved.TaskID, "version", saved.VersionID)
		s.writeJSON(w, http.StatusCreated, SaveResponse{
			VersionID: saved.VersionID,
			ParentID:  saved.ParentID,
			TaskID:    saved.TaskID,
			Result:    saved.Scores,
			Eval:      eval.NewEvalHarness(s.config.Goals(saved.Level)).Run(saved.Scores),
		})
	})
}

// #endregion solutions

// #region helpers
// withSession runs fn holding the lock of the session named in the URL.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session)) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, ErrTypeNotFound, err.Error())
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
}

// decode reads and validates a JSON body into v. It writes the error
// response and returns false when the body is unusable.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, fmt.Sprintf("decode body: %v", err))
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, err.Error())
		return false
	}
	return true
}

// logEdit writes an edit_log row. Failures are logged and never fail the edit.
func (s *Server) logEdit(sess *session, op string, value int, d gate.GateDecision) {
	if err := logging.LogEdit(s.store.DB(), sess.task.EditEntry(sess.id, op, value, d)); err != nil {
		s.logger.Warn("edit log failed", "session", sess.id, "error", err)
	}
}

// #endregion helpers
