package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/auth"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/middleware"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/models"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/store"
)

// MaxWatchlistSize caps wholesale watchlist replacement. Enforced here,
// at the validation boundary, not in the service.
const MaxWatchlistSize = 50

// LoginGuard is the failed-login limiter surface. *auth.LoginLimiter
// satisfies it.
type LoginGuard interface {
	Blocked(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// Handler holds user-related HTTP handlers.
type Handler struct {
	service *Service
	tokens  *auth.TokenService
	guard   LoginGuard
}

func NewHandler(service *Service, tokens *auth.TokenService, guard LoginGuard) *Handler {
	return &Handler{service: service, tokens: tokens, guard: guard}
}

// Register creates a new user account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if !strings.Contains(req.Email, "@") {
		http.Error(w, `{"error":"a valid email is required"}`, http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 || len(req.Password) > 100 {
		http.Error(w, `{"error":"password must be between 8 and 100 characters"}`, http.StatusBadRequest)
		return
	}
	if len(req.Watchlist) > MaxWatchlistSize {
		http.Error(w, `{"error":"watchlist cannot exceed 50 symbols"}`, http.StatusBadRequest)
		return
	}

	user, err := h.service.Create(r.Context(), req)
	if errors.Is(err, store.ErrDuplicateEmail) {
		http.Error(w, `{"error":"email already exists"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login authenticates a user and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	blocked, err := h.guard.Blocked(r.Context(), req.Email)
	if err == nil && blocked {
		http.Error(w, `{"error":"too many failed login attempts, try again later"}`, http.StatusTooManyRequests)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		_ = h.guard.RecordFailure(r.Context(), req.Email)
		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, `{"error":"incorrect email or password"}`, http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	_ = h.guard.Reset(r.Context(), req.Email)

	token, err := h.tokens.Issue(user)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	})
}

// Me returns the authenticated user's current record. A token whose
// subject no longer exists in the store is treated as stale.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.service.Get(r.Context(), ident.ID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"account no longer exists"}`, http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// List returns users with skip/limit pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r, 100)
	users, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get returns a user by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "user_id"))
	if h.respondUser(w, err) {
		writeJSON(w, http.StatusOK, user)
	}
}

// Update applies a partial update to a user.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var upd models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if upd.Password != nil && (len(*upd.Password) < 8 || len(*upd.Password) > 100) {
		http.Error(w, `{"error":"password must be between 8 and 100 characters"}`, http.StatusBadRequest)
		return
	}
	if len(upd.Watchlist) > MaxWatchlistSize {
		http.Error(w, `{"error":"watchlist cannot exceed 50 symbols"}`, http.StatusBadRequest)
		return
	}

	user, err := h.service.Update(r.Context(), chi.URLParam(r, "user_id"), upd)
	if errors.Is(err, store.ErrDuplicateEmail) {
		http.Error(w, `{"error":"email already exists"}`, http.StatusBadRequest)
		return
	}
	if h.respondUser(w, err) {
		writeJSON(w, http.StatusOK, user)
	}
}

// Delete removes a user.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "user_id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetWatchlist returns just the user's watchlist.
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "user_id"))
	if h.respondUser(w, err) {
		writeJSON(w, http.StatusOK, user.Watchlist)
	}
}

// ReplaceWatchlist overwrites the user's watchlist wholesale.
func (h *Handler) ReplaceWatchlist(w http.ResponseWriter, r *http.Request) {
	var upd models.WatchlistUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if len(upd.Watchlist) > MaxWatchlistSize {
		http.Error(w, `{"error":"watchlist cannot exceed 50 symbols"}`, http.StatusBadRequest)
		return
	}

	user, err := h.service.ReplaceWatchlist(r.Context(), chi.URLParam(r, "user_id"), upd.Watchlist)
	if h.respondUser(w, err) {
		writeJSON(w, http.StatusOK, user)
	}
}

// AddToWatchlist adds a symbol to the user's watchlist.
func (h *Handler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.AddToWatchlist(
		r.Context(), chi.URLParam(r, "user_id"), chi.URLParam(r, "symbol"),
	)
	if h.respondUser(w, err) {
		writeJSON(w, http.StatusOK, user)
	}
}

// RemoveFromWatchlist removes a symbol from the user's watchlist.
func (h *Handler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.RemoveFromWatchlist(
		r.Context(), chi.URLParam(r, "user_id"), chi.URLParam(r, "symbol"),
	)
	if h.respondUser(w, err) {
		writeJSON(w, http.StatusOK, user)
	}
}

// UpdatePreferences updates preferred sectors and notification toggles.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var upd models.PreferencesUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdatePreferences(r.Context(), chi.URLParam(r, "user_id"), upd)
	if h.respondUser(w, err) {
		writeJSON(w, http.StatusOK, user)
	}
}

// respondUser writes the common not-found/internal error responses and
// reports whether the caller should write the success body.
func (h *Handler) respondUser(w http.ResponseWriter, err error) bool {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return false
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func pagination(r *http.Request, defaultLimit int64) (skip, limit int64) {
	limit = defaultLimit
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			limit = n
		}
	}
	return skip, limit
}
