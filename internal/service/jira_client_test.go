package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promo-data/internal/config"
)

func TestJiraClient_Reporter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bot" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/rest/api/2/issue/RDC-1":
			assert.Equal(t, "reporter,summary", r.URL.Query().Get("fields"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"key":"RDC-1","fields":{"summary":"x","reporter":{"displayName":"Pat Lee"}}}`))
		case "/rest/api/2/issue/RDC-2":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"key":"RDC-2","fields":{"summary":"x"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewJiraClient(config.JiraConfig{BaseURL: srv.URL, User: "bot", Token: "secret"}, nil)
	ctx := context.Background()

	name, err := c.Reporter(ctx, " RDC-1 ")
	require.NoError(t, err)
	assert.Equal(t, "Pat Lee", name)

	_, err = c.Reporter(ctx, "RDC-2")
	assert.Error(t, err)
	_, err = c.Reporter(ctx, "RDC-404")
	assert.Error(t, err)
	_, err = c.Reporter(ctx, "")
	assert.Error(t, err)
}
