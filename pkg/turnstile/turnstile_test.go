package turnstile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "secret-key", req["secret"])
		assert.Equal(t, "1.2.3.4", req["remoteip"])

		if req["response"] == "good-token" {
			json.NewEncoder(w).Encode(map[string]any{"success": true})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error-codes": []string{"invalid-input-response"}})
	}))
	defer srv.Close()

	cli := NewClient("secret-key", WithEndpoint(srv.URL))

	ok, err := cli.Verify(context.Background(), "good-token", "1.2.3.4")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = cli.Verify(context.Background(), "bad-token", "1.2.3.4")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	srv.Close() // closed on purpose

	cli := NewClient("secret-key", WithEndpoint(srv.URL))
	ok, err := cli.Verify(context.Background(), "token", "1.2.3.4")
	assert.Error(t, err)
	assert.False(t, ok)
}
