package twitchapi

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldObservationLog/NeuroTools/testutil"
)

func TestTokenSource_GetCached(t *testing.T) {
	srv := testutil.NewMockTwitchServer(t)
	srv.MockOAuthTokenResponse("test-token-123", 3600)
	ts := &TokenSource{ClientID: "test-client", ClientSecret: "test-secret", TokenURL: srv.TokenURL()}

	ctx := context.Background()
	token1, err := ts.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test-token-123", token1)

	token2, err := ts.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, token1, token2)
	assert.Equal(t, 1, srv.Hits("/oauth2/token"))
}

func TestTokenSource_SendsClientCredentials(t *testing.T) {
	srv := testutil.NewMockTwitchServer(t)
	srv.Handle("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "c", r.PostForm.Get("client_id"))
		assert.Equal(t, "s", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ok","expires_in":3600,"token_type":"bearer"}`))
	})
	ts := &TokenSource{ClientID: "c", ClientSecret: "s", TokenURL: srv.TokenURL()}
	tok, err := ts.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", tok)
}

func TestTokenSource_RefreshNearExpiry(t *testing.T) {
	srv := testutil.NewMockTwitchServer(t)
	// Inside the one minute buffer, so every Get refreshes.
	srv.MockOAuthTokenResponse("short", 30)
	ts := &TokenSource{ClientID: "c", ClientSecret: "s", TokenURL: srv.TokenURL()}
	for i := 0; i < 2; i++ {
		_, err := ts.Get(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, srv.Hits("/oauth2/token"))
}

func TestTokenSource_Invalidate(t *testing.T) {
	srv := testutil.NewMockTwitchServer(t)
	srv.MockOAuthTokenResponse("tok", 3600)
	ts := &TokenSource{ClientID: "c", ClientSecret: "s", TokenURL: srv.TokenURL()}
	_, err := ts.Get(context.Background())
	require.NoError(t, err)
	ts.Invalidate()
	_, err = ts.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits("/oauth2/token"))
}

func TestTokenSource_GetMissingCredentials(t *testing.T) {
	_, err := (&TokenSource{}).Get(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestTokenSource_GetCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&TokenSource{ClientID: "c", ClientSecret: "s"}).Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenSource_GetServerError(t *testing.T) {
	srv := testutil.NewMockTwitchServer(t)
	srv.Handle("/oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid client", http.StatusBadRequest)
	})
	ts := &TokenSource{ClientID: "c", ClientSecret: "s", TokenURL: srv.TokenURL()}
	_, err := ts.Get(context.Background())
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.StatusCode)
	assert.Contains(t, ae.Body, "invalid client")
	assert.Equal(t, 1, srv.Hits("/oauth2/token"))
}

func TestTokenSource_GetEmptyToken(t *testing.T) {
	srv := testutil.NewMockTwitchServer(t)
	srv.MockOAuthTokenResponse("", 3600)
	ts := &TokenSource{ClientID: "c", ClientSecret: "s", TokenURL: srv.TokenURL()}
	_, err := ts.Get(context.Background())
	assert.ErrorContains(t, err, "access_token")
}

func TestTokenSource_ConcurrentAccess(t *testing.T) {
	srv := testutil.NewMockTwitchServer(t)
	srv.MockOAuthTokenResponse("shared", 3600)
	ts := &TokenSource{ClientID: "c", ClientSecret: "s", TokenURL: srv.TokenURL()}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := ts.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "shared", tok)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, srv.Hits("/oauth2/token"))
}
