package stocks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/models"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/stocks"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/store"
)

type fakeStore struct {
	docs map[string]models.Stock
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]models.Stock)}
}

func (f *fakeStore) Insert(_ context.Context, st *models.Stock) (string, error) {
	for _, have := range f.docs {
		if have.Symbol == st.Symbol {
			return "", store.ErrDuplicateSymbol
		}
	}
	st.ID = primitive.NewObjectID()
	f.docs[st.ID.Hex()] = *st
	return st.ID.Hex(), nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.Stock, error) {
	st, ok := f.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &st, nil
}

func (f *fakeStore) List(_ context.Context, skip, limit int64) ([]models.Stock, error) {
	out := []models.Stock{}
	var i int64
	for _, st := range f.docs {
		if i >= skip && int64(len(out)) < limit {
			out = append(out, st)
		}
		i++
	}
	return out, nil
}

func (f *fakeStore) Replace(_ context.Context, st *models.Stock) error {
	if _, ok := f.docs[st.ID.Hex()]; !ok {
		return store.ErrNotFound
	}
	f.docs[st.ID.Hex()] = *st
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func TestStockCRUD(t *testing.T) {
	ctx := context.Background()
	svc := stocks.NewService(newFakeStore())

	st, err := svc.Create(ctx, models.StockCreate{
		Symbol: "aapl",
		Name:   "Apple Inc.",
		Price:  190.5,
		Sector: "Technology",
	})
	require.NoError(t, err)
	require.Equal(t, "AAPL", st.Symbol)

	t.Run("duplicate symbol rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, models.StockCreate{
			Symbol: "AAPL", Name: "Apple clone", Price: 1,
		})
		require.ErrorIs(t, err, store.ErrDuplicateSymbol)
	})

	t.Run("partial update", func(t *testing.T) {
		price := 200.0
		got, err := svc.Update(ctx, st.ID.Hex(), models.StockUpdate{Price: &price})
		require.NoError(t, err)
		require.Equal(t, 200.0, got.Price)
		require.Equal(t, "AAPL", got.Symbol)
		require.Equal(t, "Apple Inc.", got.Name)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := svc.Get(ctx, primitive.NewObjectID().Hex())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, st.ID.Hex()))
		_, err := svc.Get(ctx, st.ID.Hex())
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
