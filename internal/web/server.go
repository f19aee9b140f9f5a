// Package web serves the browser interface of the chat front end.
//
// Routes:
//   - GET  /                 - The page
//   - POST /credential/test  - Check the submitted API key
//   - POST /chat             - Send a message and/or image
//   - POST /chat/clear       - Clear the conversation
//   - GET  /chat/export      - Download the conversation as Markdown
//   - POST /analyze          - Analyze an image
//   - GET  /healthz          - Health check
//   - GET  /metrics          - Prometheus metrics
//
// Every POST route takes the page's single multipart form and answers by re-rendering the page.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cchalm/multimodal-chat/internal/chat"
)

const (
	sessionCookie = "mmchat_session"

	// Form fields
	fieldCredential    = "api_key"
	fieldMessage       = "message"
	fieldExample       = "example"
	fieldImage         = "image"
	fieldAnalysisImage = "analysis_image"

	defaultMaxUploadBytes = 10 << 20
	// multipartMemory is how much of an upload is held in memory before spilling to disk
	multipartMemory = 8 << 20

	rateLimitedNotice = "⚠️ Too many requests. Please wait a moment and try again."
	uploadTooLarge    = "⚠️ The upload is too large."
	uploadFailed      = "⚠️ The uploaded file could not be read. Please try again."
	badFormNotice     = "⚠️ The form could not be read."
)

// Examples are the prompts offered under the chat input
var Examples = []string{
	"Explain artificial intelligence in simple terms",
	"Write a creative short story about space",
	"What are the key differences between Python and JavaScript?",
}

//go:embed templates/*.tmpl
var templateFS embed.FS

// Service is the set of user actions the page drives
type Service interface {
	Chat(ctx context.Context, credential string, in chat.Input, transcript chat.Transcript) chat.Transcript
	Analyze(ctx context.Context, credential string, image []byte) string
	TestCredential(ctx context.Context, credential string) string
}

type Options struct {
	MaxUploadBytes int64
	// Metrics serves GET /metrics if set
	Metrics http.Handler
	// OnRateLimited is called whenever a request is refused by the session rate limit
	OnRateLimited func()
}

type Server struct {
	service  Service
	sessions *chat.SessionStore
	opts     Options
	logger   zerolog.Logger
	page     *template.Template
	markdown *markdownRenderer
}

func NewServer(service Service, sessions *chat.SessionStore, logger zerolog.Logger, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.OnRateLimited == nil {
		opts.OnRateLimited = func() {}
	}
	s := &Server{
		service:  service,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
		markdown: newMarkdownRenderer(),
	}
	s.page = template.Must(template.New("index.html.tmpl").
		Funcs(template.FuncMap{"markdown": s.markdown.Render}).
		ParseFS(templateFS, "templates/index.html.tmpl"))
	return s
}

// Handler returns the routes of the server wrapped in request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /credential/test", s.handleTestCredential)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/clear", s.handleClear)
	mux.HandleFunc("GET /chat/export", s.handleExport)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}
	return s.logRequests(mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var state chat.State
	if session, ok := s.existingSession(r); ok {
		state = session.Snapshot()
	}
	s.render(w, http.StatusOK, state, "", "")
}

func (s *Server) handleTestCredential(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, true, func(f *form, st *chat.State) {
		st.KeyStatus = s.service.TestCredential(r.Context(), f.credential)
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, true, func(f *form, st *chat.State) {
		s.chat(r.Context(), f, st)
	})
}

func (s *Server) chat(ctx context.Context, f *form, st *chat.State) {
	image, err := f.file(fieldImage)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read chat image")
		st.Transcript = chat.Render(f.message(), true, uploadFailed, true, st.Transcript)
		return
	}
	in := chat.Input{Message: f.message(), Image: image}
	st.Transcript = s.service.Chat(ctx, f.credential, in, st.Transcript)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, false, func(_ *form, st *chat.State) {
		st.Transcript = st.Transcript.Clear()
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var transcript chat.Transcript
	if session, ok := s.existingSession(r); ok {
		transcript = session.Snapshot().Transcript
	}
	md, err := transcript.ToMarkdown(time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to export transcript")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="conversation.md"`)
	_, _ = io.WriteString(w, md)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, true, func(f *form, st *chat.State) {
		s.analyze(r.Context(), f, st)
	})
}

func (s *Server) analyze(ctx context.Context, f *form, st *chat.State) {
	image, err := f.file(fieldAnalysisImage)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read analysis image")
		st.Analysis = uploadFailed
		return
	}
	st.Analysis = s.service.Analyze(ctx, f.credential, image)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// action parses the form, applies fn to the session state and re-renders the page. Actions that reach the provider
// are subject to the session's rate limit.
func (s *Server) action(w http.ResponseWriter, r *http.Request, limited bool, fn func(f *form, st *chat.State)) {
	session := s.session(w, r)

	f, err := s.parseForm(w, r)
	if err != nil {
		status, notice := http.StatusBadRequest, badFormNotice
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status, notice = http.StatusRequestEntityTooLarge, uploadTooLarge
		}
		s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to parse form")
		s.render(w, status, session.Snapshot(), "", notice)
		return
	}
	defer f.cleanup()

	if limited && !session.Allow() {
		s.opts.OnRateLimited()
		s.logger.Warn().Str("session", shortID(session.ID)).Str("path", r.URL.Path).Msg("Session rate limited")
		s.render(w, http.StatusTooManyRequests, session.Snapshot(), f.credential, rateLimitedNotice)
		return
	}

	var state chat.State
	session.Do(func(st *chat.State) {
		fn(f, st)
		state = *st
	})
	s.render(w, http.StatusOK, state, f.credential, "")
}

// existingSession returns the caller's live session, if any. Read-only pages never start a session.
func (s *Server) existingSession(r *http.Request) (*chat.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	return s.sessions.Lookup(c.Value)
}

// session returns the caller's session, starting a new one and setting its cookie if needed
func (s *Server) session(w http.ResponseWriter, r *http.Request) *chat.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	session, created := s.sessions.Get(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    session.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return session
}

type form struct {
	r          *http.Request
	credential string
	open       func(field string) (multipart.File, *multipart.FileHeader, error)
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (*form, error) {
	if r.ContentLength > s.opts.MaxUploadBytes {
		return nil, &http.MaxBytesError{Limit: s.opts.MaxUploadBytes}
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	err := r.ParseMultipartForm(multipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	return &form{r: r, credential: strings.TrimSpace(r.FormValue(fieldCredential)), open: r.FormFile}, nil
}

// message is the chat text. An example button, when pressed, supplies the message instead of the text box.
func (f *form) message() string {
	if example := f.r.FormValue(fieldExample); example != "" {
		return example
	}
	return f.r.FormValue(fieldMessage)
}

// file returns the contents of an uploaded file, or nil if none was uploaded
func (f *form) file(field string) ([]byte, error) {
	file, _, err := f.open(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (f *form) cleanup() {
	if f.r.MultipartForm != nil {
		_ = f.r.MultipartForm.RemoveAll()
	}
}

type turnView struct {
	Label  string
	Output string
	Failed bool
}

type pageData struct {
	Credential string
	KeyStatus  string
	Turns      []turnView
	Analysis   string
	Notice     string
	Examples   []string
}

func (s *Server) render(w http.ResponseWriter, status int, state chat.State, credential string, notice string) {
	data := pageData{
		Credential: credential,
		KeyStatus:  state.KeyStatus,
		Analysis:   state.Analysis,
		Notice:     notice,
		Examples:   Examples,
	}
	for _, turn := range state.Transcript.Turns() {
		data.Turns = append(data.Turns, turnView{Label: turn.Label(), Output: turn.Output, Failed: turn.Failed})
	}

	var buf strings.Builder
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, buf.String())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// logRequests logs the method, path, status and duration of every request. Form contents are never logged.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
