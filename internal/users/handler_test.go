package users_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/auth"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/middleware"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/models"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/users"
)

// fakeGuard is an in-memory users.LoginGuard.
type fakeGuard struct {
	failures map[string]int
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{failures: make(map[string]int)}
}

func (g *fakeGuard) Blocked(_ context.Context, email string) (bool, error) {
	return g.failures[email] >= auth.LoginAttemptLimit, nil
}

func (g *fakeGuard) RecordFailure(_ context.Context, email string) error {
	g.failures[email]++
	return nil
}

func (g *fakeGuard) Reset(_ context.Context, email string) error {
	delete(g.failures, email)
	return nil
}

// newTestRouter wires handlers the same way cmd/server does, minus the
// external stores.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-key", "HS256", 15*time.Minute)
	require.NoError(t, err)

	h := users.NewHandler(
		users.NewService(newFakeStore(), auth.NewBcryptHasher()),
		tokens,
		newFakeGuard(),
	)

	r := chi.NewRouter()
	r.Use(middleware.Authorize(tokens))
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/me", h.Me)
		r.Get("/", h.List)
		r.Get("/{user_id}", h.Get)
		r.Put("/{user_id}", h.Update)
		r.Delete("/{user_id}", h.Delete)
		r.Get("/{user_id}/watchlist", h.GetWatchlist)
		r.Put("/{user_id}/watchlist", h.ReplaceWatchlist)
		r.Post("/{user_id}/watchlist/{symbol}", h.AddToWatchlist)
		r.Delete("/{user_id}/watchlist/{symbol}", h.RemoveFromWatchlist)
		r.Put("/{user_id}/preferences", h.UpdatePreferences)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginMeFlow(t *testing.T) {
	router := newTestRouter(t)

	// Register.
	rec := doJSON(t, router, http.MethodPost, "/users/register", "", models.RegisterRequest{
		Email:    "a@x.com",
		Password: "longenough1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "a@x.com", created.Email)
	require.Empty(t, created.Watchlist)
	require.NotContains(t, rec.Body.String(), "password")

	// Login.
	rec = doJSON(t, router, http.MethodPost, "/users/login", "", models.LoginRequest{
		Email:    "a@x.com",
		Password: "longenough1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var tok models.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.Equal(t, "bearer", tok.TokenType)
	require.Equal(t, int64(15*60), tok.ExpiresIn)
	require.NotEmpty(t, tok.AccessToken)

	// Me.
	rec = doJSON(t, router, http.MethodGet, "/users/me", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "a@x.com", me.Email)
	require.Equal(t, created.ID, me.ID)

	// Tampered token: flip one signature character. Not the final one,
	// whose low bits are discarded by base64 decoding.
	tampered := []byte(tok.AccessToken)
	i := len(tampered) - 2
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}
	rec = doJSON(t, router, http.MethodGet, "/users/me", string(tampered), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid token")
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)

	t.Run("short password", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/users/register", "", models.RegisterRequest{
			Email: "a@x.com", Password: "short",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad email", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/users/register", "", models.RegisterRequest{
			Email: "nope", Password: "longenough1",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		req := models.RegisterRequest{Email: "dup@x.com", Password: "longenough1"}
		rec := doJSON(t, router, http.MethodPost, "/users/register", "", req)
		require.Equal(t, http.StatusCreated, rec.Code)
		rec = doJSON(t, router, http.MethodPost, "/users/register", "", req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "email already exists")
	})

	t.Run("oversized watchlist", func(t *testing.T) {
		symbols := make([]string, users.MaxWatchlistSize+1)
		for i := range symbols {
			symbols[i] = fmt.Sprintf("S%d", i)
		}
		rec := doJSON(t, router, http.MethodPost, "/users/register", "", models.RegisterRequest{
			Email: "big@x.com", Password: "longenough1", Watchlist: symbols,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginLockout(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/users/register", "", models.RegisterRequest{
		Email: "a@x.com", Password: "longenough1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	bad := models.LoginRequest{Email: "a@x.com", Password: "wrongpassword"}
	for i := 0; i < auth.LoginAttemptLimit; i++ {
		rec = doJSON(t, router, http.MethodPost, "/users/login", "", bad)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	// Further attempts are refused even with the right password.
	rec = doJSON(t, router, http.MethodPost, "/users/login", "", models.LoginRequest{
		Email: "a@x.com", Password: "longenough1",
	})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestProfileRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/users/register", "", models.RegisterRequest{
		Email: "a@x.com", Password: "longenough1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPost, "/users/login", "", models.LoginRequest{
		Email: "a@x.com", Password: "longenough1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var tok models.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))

	id := created.ID.Hex()
	token := tok.AccessToken

	t.Run("requires token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/users/"+id, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "missing authorization header")
	})

	t.Run("watchlist add and get", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/users/"+id+"/watchlist/aapl", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodGet, "/users/"+id+"/watchlist", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `["AAPL"]`, strings.TrimSpace(rec.Body.String()))
	})

	t.Run("watchlist replace cap", func(t *testing.T) {
		symbols := make([]string, users.MaxWatchlistSize+1)
		for i := range symbols {
			symbols[i] = fmt.Sprintf("S%d", i)
		}
		rec := doJSON(t, router, http.MethodPut, "/users/"+id+"/watchlist", token,
			models.WatchlistUpdate{Watchlist: symbols})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("partial update leaves email", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, "/users/"+id, token,
			map[string]any{"name": "Bob"})
		require.Equal(t, http.StatusOK, rec.Code)

		var got models.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, "Bob", got.Name)
		require.Equal(t, "a@x.com", got.Email)
	})

	t.Run("preferences partial", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, "/users/"+id+"/preferences", token,
			map[string]any{"news_updates": true})
		require.Equal(t, http.StatusOK, rec.Code)

		var got models.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.True(t, got.NotificationSettings.NewsUpdates)
		require.True(t, got.NotificationSettings.EmailNotifications)
	})

	t.Run("unknown user is 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/users/000000000000000000000000", token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete then me is stale", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, "/users/"+id, token, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, router, http.MethodGet, "/users/me", token, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
