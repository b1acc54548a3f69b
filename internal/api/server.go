// Package api is the HTTP driver of the engine. Routes are served by chi;
// callers are identified by internal/auth.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/abhisek/coursiz/internal/auth"
	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/engine"
	"github.com/abhisek/coursiz/internal/logger"
	"github.com/abhisek/coursiz/internal/quiz"
	"github.com/abhisek/coursiz/internal/sequencer"
)

// Options configures a Server.
type Options struct {
	CORSOrigins []string

	// DevTokens enables POST /auth/token, which issues a token for any
	// learner id. Only for local development.
	DevTokens bool
}

// Server serves the engine over HTTP.
type Server struct {
	eng  *engine.Engine
	auth *auth.Service
	reg  *registry
	log  *logger.Logger
	opts Options
}

// New returns a Server.
func New(eng *engine.Engine, authSvc *auth.Service, log *logger.Logger, opts Options) *Server {
	return &Server{
		eng:  eng,
		auth: authSvc,
		reg:  newRegistry(log),
		log:  log,
		opts: opts,
	}
}

// Close cancels every live session's pending advance.
func (s *Server) Close() {
	s.reg.closeAll()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(s.requestLog)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", auth.GuestHeader},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Post("/auth/guest", s.handleGuest)
	if s.opts.DevTokens {
		r.Post("/auth/token", s.handleToken)
	}

	r.Route("/api", func(ar chi.Router) {
		ar.Use(auth.Middleware(s.auth))

		ar.Get("/catalog", s.handleCatalog)
		ar.Post("/lessons/{lessonID}/sessions", s.handleStartLesson)
		ar.Post("/quizzes/{lessonID}/sessions", s.handleStartQuiz)

		ar.Get("/sessions/{sessionID}", s.handleGetSession)
		ar.Post("/sessions/{sessionID}/submit", s.handleSubmit)
		ar.Post("/sessions/{sessionID}/continue", s.handleContinue)
		ar.Delete("/sessions/{sessionID}", s.handleDeleteSession)
		ar.Post("/quizzes/sessions/{sessionID}/answer", s.handleSubmit)
	})
	return r
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string `json:"error"`
	Signup bool   `json:"signup,omitempty"`
}

// writeError maps engine and session errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Error: err.Error()}
	switch {
	case errors.Is(err, engine.ErrSignupRequired):
		status, body.Signup = http.StatusForbidden, true
	case errors.Is(err, engine.ErrLocked):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrUnknownLesson):
		status = http.StatusNotFound
	case errors.Is(err, cards.ErrIncomplete), errors.Is(err, cards.ErrWrongAnswerType):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrWrongKind),
		errors.Is(err, cards.ErrCardLocked),
		errors.Is(err, sequencer.ErrCannotContinue),
		errors.Is(err, sequencer.ErrFinished),
		errors.Is(err, sequencer.ErrClosed),
		errors.Is(err, quiz.ErrLockedIn),
		errors.Is(err, quiz.ErrAlreadyCompleted),
		errors.Is(err, quiz.ErrFinished),
		errors.Is(err, quiz.ErrClosed):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, body)
}

func learner(id auth.Identity) engine.Learner {
	return engine.Learner{ID: id.ID, Guest: id.Guest}
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"guest_id": uuid.NewString()})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LearnerID string `json:"learner_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LearnerID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "learner_id required"})
		return
	}
	tok, err := s.auth.Issue(req.LearnerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": tok})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, s.eng.Snapshot(r.Context(), learner(id)))
}

func (s *Server) handleStartLesson(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	sess, err := s.eng.StartLesson(r.Context(), learner(id), chi.URLParam(r, "lessonID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	e := &entry{owner: id, lesson: sess}
	s.reg.add(e)
	writeJSON(w, http.StatusCreated, e.view())
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	sess, err := s.eng.StartQuiz(r.Context(), learner(id), chi.URLParam(r, "lessonID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	e := &entry{owner: id, quiz: sess}
	s.reg.add(e)
	writeJSON(w, http.StatusCreated, e.view())
}

// session looks up the caller's session or writes 404.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	id, _ := auth.FromContext(r.Context())
	e, ok := s.reg.get(chi.URLParam(r, "sessionID"), id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "session not found"})
		return nil, false
	}
	return e, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.session(w, r)
	if !ok {
		return
	}
	// A pending advance whose timer hasn't fired yet is applied here.
	s.reg.tick(e)
	writeJSON(w, http.StatusOK, e.view())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	e, ok := s.session(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json"})
		return
	}

	if e.lesson != nil {
		v, ok := e.lesson.Active()
		if !ok {
			s.writeError(w, sequencer.ErrFinished)
			return
		}
		a, err := req.toAnswer(v.Card)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if _, err := e.lesson.Submit(r.Context(), a); err != nil {
			s.writeError(w, err)
			return
		}
		if due, ok := e.lesson.AutoAdvanceAt(); ok {
			s.reg.arm(e, due)
		}
		writeJSON(w, http.StatusOK, e.view())
		return
	}

	q, ok := e.quiz.Current()
	if !ok {
		s.writeError(w, quizClosedReason(e.quiz))
		return
	}
	a, err := req.toAnswer(q.Card)
	if err != nil {
		s.writeError(w, err)
		return
	}
	_, due, err := e.quiz.Submit(r.Context(), a)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.reg.arm(e, due)
	writeJSON(w, http.StatusOK, e.view())
}

func quizClosedReason(q *quiz.Session) error {
	if q.State() == quiz.StateAlreadyCompleted {
		return quiz.ErrAlreadyCompleted
	}
	return quiz.ErrFinished
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	e, ok := s.session(w, r)
	if !ok {
		return
	}
	if e.lesson == nil {
		writeJSON(w, http.StatusConflict, errorBody{Error: "quizzes advance on their own"})
		return
	}
	// A finished lesson whose result failed to record still returns its
	// outcome; the error is carried in the view.
	if out, err := e.lesson.Continue(r.Context()); err != nil && out == nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.view())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if !s.reg.remove(chi.URLParam(r, "sessionID"), id) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
