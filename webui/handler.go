package webui

import (
	"context"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/session"
)

// SessionCookie names the cookie carrying the visitor's session id.
const SessionCookie = "supportmesh_session"

// EmptyQueryWarning is shown when the visitor sends a blank message.
const EmptyQueryWarning = "Please enter a question before sending."

// Asker answers a query.
type Asker interface {
	Ask(ctx context.Context, query string) (string, error)
}

// Options configures the Handler.
type Options struct {
	Title string
	// Reviewer enables the code review page at /code.
	Reviewer Reviewer
	Logger   logging.Logger
}

// Handler serves the chat page.
type Handler struct {
	router   *mux.Router
	backend  Asker
	sessions session.Store
	reviewer Reviewer
	title    string
	logger   logging.Logger
}

// NewHandler creates a Handler sending queries to backend and keeping
// transcripts in sessions.
func NewHandler(backend Asker, sessions session.Store, optFns ...func(o *Options)) *Handler {
	opts := Options{Title: "AI Customer Support Chatbot"}

	for _, fn := range optFns {
		fn(&opts)
	}

	h := &Handler{
		router:   mux.NewRouter(),
		backend:  backend,
		sessions: sessions,
		reviewer: opts.Reviewer,
		title:    opts.Title,
		logger:   logging.OrNoOp(opts.Logger),
	}

	h.router.HandleFunc("/", h.handleIndex).Methods(http.MethodGet)
	h.router.HandleFunc("/send", h.handleSend).Methods(http.MethodPost)
	if h.reviewer != nil {
		h.router.HandleFunc("/code", h.handleCodePage).Methods(http.MethodGet)
		h.router.HandleFunc("/code", h.handleCodeReview).Methods(http.MethodPost)
	}

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.router.ServeHTTP(w, r) }

type pageData struct {
	Title       string
	Turns       []session.Turn
	Warning     string
	CodeEnabled bool
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.sessionID(w, r), "")
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	query := strings.TrimSpace(r.PostForm.Get("query"))
	if query == "" {
		h.render(w, id, EmptyQueryWarning)
		return
	}

	if err := h.sessions.Append(id, session.Turn{Role: session.RoleUser, Text: query}); err != nil {
		h.fail(w, err)
		return
	}

	answer, err := h.backend.Ask(r.Context(), query)
	if err != nil {
		h.logger.Warn("webui.backend.error", "session", id, "error", err.Error())
		answer = FallbackResponse
	}

	if err := h.sessions.Append(id, session.Turn{Role: session.RoleAssistant, Text: answer}); err != nil {
		h.fail(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, id, warning string) {
	turns, err := h.sessions.Transcript(id)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, pageData{
		Title:       h.title,
		Turns:       turns,
		Warning:     warning,
		CodeEnabled: h.reviewer != nil,
	}); err != nil {
		h.logger.Error("webui.render.error", "error", err.Error())
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("webui.session.error", "error", err.Error())
	http.Error(w, "session unavailable", http.StatusInternalServerError)
}

// sessionID returns the visitor's session id, issuing a new cookie when
// none is present.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; }
.turn { padding: .5rem 1rem; margin: .5rem 0; border-radius: .5rem; white-space: pre-wrap; }
.user { background: #eef; }
.assistant { background: #efe; }
.warning { background: #fec; padding: .5rem 1rem; }
form { display: flex; gap: .5rem; }
input[name=query] { flex: 1; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .CodeEnabled}}<p><a href="/code">Code Explainer &amp; Debugger</a></p>{{end}}
{{if .Warning}}<div class="warning">{{.Warning}}</div>{{end}}
{{range .Turns}}<div class="turn {{.Role}}"><strong>{{if eq .Role "assistant"}}AI{{else}}You{{end}}</strong>
{{.Text}}</div>
{{end}}
<form method="post" action="/send">
<input name="query" placeholder="Type your question here..." autofocus>
<button type="submit">Send</button>
</form>
</body>
</html>
`))
