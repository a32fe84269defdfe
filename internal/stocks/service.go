package stocks

import (
	"context"
	"strings"

	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/models"
)

// Store is the persistence surface the service needs. *store.StockStore
// satisfies it.
type Store interface {
	Insert(ctx context.Context, st *models.Stock) (string, error)
	GetByID(ctx context.Context, id string) (*models.Stock, error)
	List(ctx context.Context, skip, limit int64) ([]models.Stock, error)
	Replace(ctx context.Context, st *models.Stock) error
	Delete(ctx context.Context, id string) error
}

// Service implements stock catalog CRUD.
type Service struct {
	store Store
}

func NewService(st Store) *Service {
	return &Service{store: st}
}

func (s *Service) Create(ctx context.Context, req models.StockCreate) (*models.Stock, error) {
	st := &models.Stock{
		Symbol:        strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Name:          req.Name,
		Price:         req.Price,
		ChangePercent: req.ChangePercent,
		Volume:        req.Volume,
		MarketCap:     req.MarketCap,
		Sector:        req.Sector,
	}
	if _, err := s.store.Insert(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Stock, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, skip, limit int64) ([]models.Stock, error) {
	return s.store.List(ctx, skip, limit)
}

// Update applies a partial update: only fields present in the request
// change.
func (s *Service) Update(ctx context.Context, id string, upd models.StockUpdate) (*models.Stock, error) {
	st, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Symbol != nil {
		st.Symbol = strings.ToUpper(strings.TrimSpace(*upd.Symbol))
	}
	if upd.Name != nil {
		st.Name = *upd.Name
	}
	if upd.Price != nil {
		st.Price = *upd.Price
	}
	if upd.ChangePercent != nil {
		st.ChangePercent = upd.ChangePercent
	}
	if upd.Volume != nil {
		st.Volume = upd.Volume
	}
	if upd.MarketCap != nil {
		st.MarketCap = upd.MarketCap
	}
	if upd.Sector != nil {
		st.Sector = *upd.Sector
	}

	if err := s.store.Replace(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
