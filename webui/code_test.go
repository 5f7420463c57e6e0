package webui

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hupe1980/supportmesh/codeassist"
	"github.com/hupe1980/supportmesh/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewFunc func(ctx context.Context, code string) (*codeassist.Report, error)

func (f reviewFunc) Review(ctx context.Context, code string) (*codeassist.Report, error) {
	return f(ctx, code)
}

func codeHandler(reviewed *[]string, err error) *Handler {
	return NewHandler(askFunc(nil), session.NewInMemoryStore(), func(o *Options) {
		o.Reviewer = reviewFunc(func(_ context.Context, code string) (*codeassist.Report, error) {
			*reviewed = append(*reviewed, code)
			if err != nil {
				return nil, err
			}
			return &codeassist.Report{
				Explanation:  "Adds two numbers.",
				Lint:         codeassist.NoIssuesFound,
				Optimization: "Already optimal.",
			}, nil
		})
	})
}

func postCode(h http.Handler, code string) *httptest.ResponseRecorder {
	form := url.Values{"code": {code}}
	req := httptest.NewRequest(http.MethodPost, "/code", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCodePage_ReviewsPastedCode(t *testing.T) {
	var reviewed []string
	h := codeHandler(&reviewed, nil)

	rec := postCode(h, "def add(a, b): return a + b")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"def add(a, b): return a + b"}, reviewed)
	body := rec.Body.String()
	assert.Contains(t, body, "Code Explanation")
	assert.Contains(t, body, "Adds two numbers.")
	assert.Contains(t, body, "Debugging &amp; Error Analysis")
	assert.Contains(t, body, codeassist.NoIssuesFound)
	assert.Contains(t, body, "Optimization Suggestions")
	assert.Contains(t, body, "Already optimal.")
}

func TestCodePage_UploadedFileWins(t *testing.T) {
	var reviewed []string
	h := codeHandler(&reviewed, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "calc.py")
	require.NoError(t, err)
	_, err = fw.Write([]byte("print(1 + 1)\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("code", "ignored"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/code", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"print(1 + 1)\n"}, reviewed)
}

func TestCodePage_EmptyCodeWarns(t *testing.T) {
	var reviewed []string
	h := codeHandler(&reviewed, nil)

	rec := postCode(h, "   \n")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please upload a file or enter code")
	assert.NotContains(t, rec.Body.String(), "Code Explanation")
	assert.Empty(t, reviewed)
}

func TestCodePage_ReviewError(t *testing.T) {
	var reviewed []string
	h := codeHandler(&reviewed, errors.New("model down"))

	rec := postCode(h, "x = 1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "the code could not be reviewed")
	assert.NotContains(t, rec.Body.String(), "model down")
}

func TestCodePage_DisabledWithoutReviewer(t *testing.T) {
	h := NewHandler(askFunc(nil), session.NewInMemoryStore())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/code", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, rec.Body.String(), `href="/code"`)
}

func TestCodePage_LinkedFromChat(t *testing.T) {
	var reviewed []string
	h := codeHandler(&reviewed, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), `href="/code"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/code", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="code"`)
}
