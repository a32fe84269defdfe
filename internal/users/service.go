package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/auth"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/models"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/store"
)

// ErrInvalidCredentials covers every authentication failure: unknown
// email, wrong password, deactivated account. Callers cannot tell them
// apart, which keeps account enumeration off the table.
var ErrInvalidCredentials = errors.New("users: invalid credentials")

// Store is the persistence surface the service needs. *store.UserStore
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	Insert(ctx context.Context, u *models.User) (string, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, skip, limit int64) ([]models.User, error)
	Replace(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
}

// Service implements user account and profile operations.
type Service struct {
	store  Store
	hasher auth.Hasher
}

func NewService(st Store, hasher auth.Hasher) *Service {
	return &Service{store: st, hasher: hasher}
}

// Create registers a new account. The email must not already be taken;
// watchlist and preferred sectors default to empty.
func (s *Service) Create(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if _, err := s.store.GetByEmail(ctx, req.Email); err == nil {
		return nil, store.ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Email:                req.Email,
		Password:             hashed,
		Name:                 req.Name,
		IsActive:             true,
		Watchlist:            NormalizeWatchlist(req.Watchlist),
		PreferredSectors:     req.PreferredSectors,
		NotificationSettings: models.DefaultNotificationSettings(),
	}
	if u.PreferredSectors == nil {
		u.PreferredSectors = []string{}
	}

	if _, err := s.store.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks credentials and, on success, stamps last_login.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, u.Password) || !u.IsActive {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	u.LastLogin = &now
	if err := s.store.Replace(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, skip, limit int64) ([]models.User, error) {
	return s.store.List(ctx, skip, limit)
}

// Update applies a partial update: only fields present in the request
// change. A supplied password is re-hashed before storage.
func (s *Service) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Password != nil {
		hashed, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.Password = hashed
	}
	if upd.Watchlist != nil {
		u.Watchlist = NormalizeWatchlist(upd.Watchlist)
	}
	if upd.PreferredSectors != nil {
		u.PreferredSectors = upd.PreferredSectors
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}

	if err := s.store.Replace(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// ReplaceWatchlist overwrites the watchlist wholesale. The 50-entry cap
// is enforced at the handler's validation boundary, not here.
func (s *Service) ReplaceWatchlist(ctx context.Context, id string, symbols []string) (*models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Watchlist = NormalizeWatchlist(symbols)
	if err := s.store.Replace(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// AddToWatchlist is idempotent: adding a symbol already present leaves
// the watchlist unchanged.
func (s *Service) AddToWatchlist(ctx context.Context, id, symbol string) (*models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sym := strings.ToUpper(symbol)
	for _, have := range u.Watchlist {
		if have == sym {
			return u, nil
		}
	}
	u.Watchlist = append(u.Watchlist, sym)
	if err := s.store.Replace(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// RemoveFromWatchlist is a no-op if the symbol is absent.
func (s *Service) RemoveFromWatchlist(ctx context.Context, id, symbol string) (*models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sym := strings.ToUpper(symbol)
	for i, have := range u.Watchlist {
		if have == sym {
			u.Watchlist = append(u.Watchlist[:i], u.Watchlist[i+1:]...)
			if err := s.store.Replace(ctx, u); err != nil {
				return nil, err
			}
			return u, nil
		}
	}
	return u, nil
}

// UpdatePreferences updates each sub-field independently; absent fields
// stay untouched.
func (s *Service) UpdatePreferences(ctx context.Context, id string, upd models.PreferencesUpdate) (*models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.PreferredSectors != nil {
		u.PreferredSectors = upd.PreferredSectors
	}
	if upd.EmailNotifications != nil {
		u.NotificationSettings.EmailNotifications = *upd.EmailNotifications
	}
	if upd.PriceAlerts != nil {
		u.NotificationSettings.PriceAlerts = *upd.PriceAlerts
	}
	if upd.NewsUpdates != nil {
		u.NotificationSettings.NewsUpdates = *upd.NewsUpdates
	}

	if err := s.store.Replace(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// NormalizeWatchlist uppercases symbols and drops duplicates, keeping
// first-seen order. Never returns nil.
func NormalizeWatchlist(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}
