package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Ask(t *testing.T) {
	var gotQuery string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotQuery = body["query"]
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"response":"Order ID: ORD-1, Status: Shipped."}`))
	}))
	defer api.Close()

	got, err := NewClient(api.URL+"/chat/").Ask(context.Background(), "Where is ORD-1?")
	require.NoError(t, err)
	assert.Equal(t, "Order ID: ORD-1, Status: Shipped.", got)
	assert.Equal(t, "Where is ORD-1?", gotQuery)
}

func TestClient_FallbackWithoutResponseField(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer api.Close()

	got, err := NewClient(api.URL).Ask(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, FallbackResponse, got)
}

func TestClient_Errors(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer api.Close()

	_, err := NewClient(api.URL).Ask(context.Background(), "hi")
	assert.Error(t, err)

	api.Close()
	_, err = NewClient(api.URL).Ask(context.Background(), "hi")
	assert.Error(t, err)
}
