package webui

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/hupe1980/supportmesh/codeassist"
)

// Code page texts.
const (
	CodeTitle         = "AI Code Explainer & Debugger"
	EmptyCodeWarning  = "Please upload a file or enter code before clicking 'Send'."
	CodeReviewFailure = "Sorry, the code could not be reviewed. Please try again."
)

const maxUploadMemory = 10 << 20

// Reviewer produces a code review report. codeassist.Expert satisfies it.
type Reviewer interface {
	Review(ctx context.Context, code string) (*codeassist.Report, error)
}

type codePageData struct {
	Title   string
	Code    string
	Warning string
	Report  *codeassist.Report
}

func (h *Handler) handleCodePage(w http.ResponseWriter, _ *http.Request) {
	h.renderCode(w, codePageData{})
}

// handleCodeReview reviews an uploaded file or, without one, the pasted
// code. The result is rendered directly; nothing is kept between requests.
func (h *Handler) handleCodeReview(w http.ResponseWriter, r *http.Request) {
	code, err := readCode(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(code) == "" {
		h.renderCode(w, codePageData{Warning: EmptyCodeWarning})
		return
	}

	report, err := h.reviewer.Review(r.Context(), code)
	if err != nil {
		h.logger.Warn("webui.code.review_error", "error", err.Error())
		h.renderCode(w, codePageData{Code: code, Warning: CodeReviewFailure})
		return
	}

	h.renderCode(w, codePageData{Code: code, Report: report})
}

func readCode(r *http.Request) (string, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return "", err
	}

	f, _, err := r.FormFile("file")
	if err == nil {
		defer f.Close()

		b, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(string(b)) != "" {
			return string(b), nil
		}
	}

	return r.FormValue("code"), nil
}

func (h *Handler) renderCode(w http.ResponseWriter, data codePageData) {
	data.Title = CodeTitle
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := codeTemplate.Execute(w, data); err != nil {
		h.logger.Error("webui.render.error", "error", err.Error())
	}
}

var codeTemplate = template.Must(template.New("code").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 56rem; margin: 2rem auto; }
textarea { width: 100%; height: 14rem; font-family: monospace; }
pre { background: #f6f6f6; padding: .5rem 1rem; white-space: pre-wrap; }
.warning { background: #fec; padding: .5rem 1rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Upload a Python file or paste your code below to get explanations and debugging insights. <a href="/">Back to chat</a></p>
{{if .Warning}}<div class="warning">{{.Warning}}</div>{{end}}
<form method="post" action="/code" enctype="multipart/form-data">
<p><label>Upload a Python file <input type="file" name="file" accept=".py"></label></p>
<p><label>Or paste your Python code here:<br><textarea name="code">{{.Code}}</textarea></label></p>
<button type="submit">Send</button>
</form>
{{with .Report}}
<h2>Code Explanation</h2>
<pre>{{.Explanation}}</pre>
<h2>Debugging &amp; Error Analysis</h2>
<pre>{{.Lint}}</pre>
<h2>Optimization Suggestions</h2>
<pre>{{.Optimization}}</pre>
{{end}}
</body>
</html>
`))
