package checkout

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"regexp"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/storefront/internal/apperr"
	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/observability"
	"github.com/hongminglow/storefront/internal/storage"
	"github.com/hongminglow/storefront/internal/storage/memory"
)

type fixedBank string

func (f fixedBank) NewReference() string { return string(f) }

func ptr[T any](v T) *T { return &v }

func seed(t *testing.T, store *memory.Store, products ...models.Product) []models.Product {
	t.Helper()
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		created, err := store.CreateProduct(context.Background(), p)
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func stockOf(t *testing.T, store *memory.Store, id int64) int {
	t.Helper()
	p, err := store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCheckoutDeductsStockAndPricesFromServer(t *testing.T) {
	store := memory.New()
	p := seed(t, store, models.Product{Name: "Whey", Price: 1000, Stock: 2})[0]
	svc := NewService(store, fixedBank("BCA - 1234567890"), nil, nil)

	receipt, err := svc.Execute(context.Background(), Input{Lines: []Line{{ProductID: p.ID, Quantity: 2}}})
	require.NoError(t, err)

	assert.Equal(t, int64(2000), receipt.Total)
	assert.Equal(t, "BCA - 1234567890", receipt.BankAccount)
	assert.Equal(t, 0, stockOf(t, store, p.ID))

	orders := store.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, receipt.OrderID, orders[0].ID)
	assert.Equal(t, int64(2000), orders[0].TotalAmount)
	assert.Nil(t, orders[0].UserID)
}

func TestCheckoutInsufficientStockLeavesStockUntouched(t *testing.T) {
	store := memory.New()
	p := seed(t, store, models.Product{Name: "Whey", Price: 1000, Stock: 1})[0]
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Execute(context.Background(), Input{Lines: []Line{{ProductID: p.ID, Quantity: 5}}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, apperr.Message(err), "remaining 1")
	assert.Equal(t, 1, stockOf(t, store, p.ID))
	assert.Empty(t, store.Orders())
}

func TestCheckoutRejectsWholeCartWhenOneLineIsShort(t *testing.T) {
	store := memory.New()
	ps := seed(t, store,
		models.Product{Name: "Whey", Price: 1000, Stock: 10},
		models.Product{Name: "Creatine", Price: 500, Stock: 1},
	)
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Execute(context.Background(), Input{Lines: []Line{
		{ProductID: ps[0].ID, Quantity: 3},
		{ProductID: ps[1].ID, Quantity: 2},
	}})
	require.Error(t, err)
	assert.Equal(t, 10, stockOf(t, store, ps[0].ID))
	assert.Equal(t, 1, stockOf(t, store, ps[1].ID))
}

func TestCheckoutIgnoresClientPrice(t *testing.T) {
	store := memory.New()
	ps := seed(t, store,
		models.Product{Name: "Whey", Price: 1000, Stock: 5},
		models.Product{Name: "Shaker", Price: 250, Stock: 5},
	)
	svc := NewService(store, nil, nil, nil)

	receipt, err := svc.Execute(context.Background(), Input{Lines: []Line{
		{ProductID: ps[0].ID, Quantity: 2, ClientPrice: ptr(int64(1))},
		{ProductID: ps[1].ID, Quantity: 3, ClientPrice: ptr(int64(0))},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(2*1000+3*250), receipt.Total)
}

func TestCheckoutExistenceIsCheckedBeforeStock(t *testing.T) {
	store := memory.New()
	p := seed(t, store, models.Product{Name: "Whey", Price: 1000, Stock: 1})[0]
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Execute(context.Background(), Input{Lines: []Line{
		{ProductID: p.ID, Quantity: 9},
		{ProductID: 999, Name: "Ghost Bar", Quantity: 1},
	}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Contains(t, apperr.Message(err), "Ghost Bar")
	assert.Equal(t, 1, stockOf(t, store, p.ID))
}

func TestCheckoutMergesRepeatedProducts(t *testing.T) {
	store := memory.New()
	p := seed(t, store, models.Product{Name: "Whey", Price: 100, Stock: 1})[0]
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Execute(context.Background(), Input{Lines: []Line{
		{ProductID: p.ID, Quantity: 1},
		{ProductID: p.ID, Quantity: 1},
	}})
	require.Error(t, err)
	assert.Equal(t, 1, stockOf(t, store, p.ID))
}

func TestCheckoutRejectsOverflowingMergedQuantity(t *testing.T) {
	store := memory.New()
	p := seed(t, store, models.Product{Name: "Whey", Price: 1000, Stock: 1})[0]
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Execute(context.Background(), Input{Lines: []Line{
		{ProductID: p.ID, Quantity: math.MaxInt},
		{ProductID: p.ID, Quantity: math.MaxInt},
	}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, 1, stockOf(t, store, p.ID))
	assert.Empty(t, store.Orders())
}

func TestCheckoutRejectsOverflowingTotal(t *testing.T) {
	cases := map[string][]models.Product{
		"price times quantity": {{Name: "Gold Bar", Price: math.MaxInt64/2 + 1, Stock: 2}},
		"sum of lines": {
			{Name: "Gold Bar", Price: math.MaxInt64 - 1, Stock: 1},
			{Name: "Shaker", Price: 10, Stock: 1},
		},
	}
	for name, products := range cases {
		t.Run(name, func(t *testing.T) {
			store := memory.New()
			seeded := seed(t, store, products...)
			svc := NewService(store, nil, nil, nil)

			lines := make([]Line, 0, len(seeded))
			for _, p := range seeded {
				lines = append(lines, Line{ProductID: p.ID, Quantity: p.Stock})
			}
			_, err := svc.Execute(context.Background(), Input{Lines: lines})
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, "cart total is too large", apperr.Message(err))
			for _, p := range seeded {
				assert.Equal(t, p.Stock, stockOf(t, store, p.ID))
			}
			assert.Empty(t, store.Orders())
		})
	}
}

func TestCheckoutQuantityBeyondInt32IsInsufficientStock(t *testing.T) {
	store := memory.New()
	p := seed(t, store, models.Product{Name: "Whey", Price: 1, Stock: math.MaxInt32})[0]
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Execute(context.Background(), Input{Lines: []Line{{ProductID: p.ID, Quantity: math.MaxInt32 + 1}}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, math.MaxInt32, stockOf(t, store, p.ID))
}

type countingStore struct {
	calls int
	err   error
}

func (c *countingStore) Checkout(context.Context, []int64, storage.PlanFunc) (models.Order, error) {
	c.calls++
	return models.Order{}, c.err
}

func TestCheckoutRejectsMalformedCartBeforeAnyRead(t *testing.T) {
	cases := map[string][]Line{
		"empty":         nil,
		"zero quantity": {{ProductID: 1, Quantity: 0}},
		"negative qty":  {{ProductID: 1, Quantity: -2}},
		"bad id":        {{ProductID: 0, Quantity: 1}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			store := &countingStore{}
			svc := NewService(store, nil, nil, nil)
			_, err := svc.Execute(context.Background(), Input{Lines: lines})
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Zero(t, store.calls)
		})
	}
}

func TestCheckoutSurfacesStoreFailure(t *testing.T) {
	store := &countingStore{err: errors.New("connection reset by peer")}
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Execute(context.Background(), Input{Lines: []Line{{ProductID: 1, Quantity: 1}}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindStore, apperr.KindOf(err))
	assert.Equal(t, "connection reset by peer", apperr.Message(err))
}

func TestCheckoutStockGuardFailureIsValidation(t *testing.T) {
	store := &countingStore{err: storage.ErrInsufficientStock}
	svc := NewService(store, nil, nil, nil)

	_, err := svc.Execute(context.Background(), Input{Lines: []Line{{ProductID: 1, Quantity: 1}}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCheckoutRecordsUserAndMetrics(t *testing.T) {
	store := memory.New()
	p := seed(t, store, models.Product{Name: "Whey", Price: 10, Stock: 4})[0]
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	svc := NewService(store, nil, nil, metrics)

	_, err := svc.Execute(context.Background(), Input{UserID: ptr("9f0c2c8e-0000-4000-8000-000000000001"), Lines: []Line{{ProductID: p.ID, Quantity: 3}}})
	require.NoError(t, err)
	_, err = svc.Execute(context.Background(), Input{Lines: []Line{{ProductID: p.ID, Quantity: 3}}})
	require.Error(t, err)

	orders := store.Orders()
	require.Len(t, orders, 1)
	require.NotNil(t, orders[0].UserID)
	assert.Equal(t, "9f0c2c8e-0000-4000-8000-000000000001", *orders[0].UserID)

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.StockUnitsSold))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.UsecaseRequests.WithLabelValues("checkout", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.UsecaseRequests.WithLabelValues("checkout", "error")))
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	store := memory.New()
	p := seed(t, store, models.Product{Name: "Limited", Price: 10, Stock: 5})[0]
	svc := NewService(store, nil, nil, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Execute(context.Background(), Input{Lines: []Line{{ProductID: p.ID, Quantity: 1}}}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, stockOf(t, store, p.ID))
	assert.Len(t, store.Orders(), 5)
}

// Randomised carts against a small catalog: a cart either commits exactly, or changes nothing.
func TestCheckoutAllOrNothingProperty(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 11))
	for iter := 0; iter < 200; iter++ {
		store := memory.New()
		catalog := seed(t, store,
			models.Product{Name: "A", Price: int64(rnd.IntN(5000)), Stock: rnd.IntN(6)},
			models.Product{Name: "B", Price: int64(rnd.IntN(5000)), Stock: rnd.IntN(6)},
			models.Product{Name: "C", Price: int64(rnd.IntN(5000)), Stock: rnd.IntN(6)},
		)
		before := map[int64]models.Product{}
		for _, p := range catalog {
			before[p.ID] = p
		}

		var lines []Line
		for _, idx := range rnd.Perm(len(catalog))[:1+rnd.IntN(len(catalog))] {
			lines = append(lines, Line{ProductID: catalog[idx].ID, Quantity: 1 + rnd.IntN(6), ClientPrice: ptr(int64(1))})
		}

		fits := true
		var want int64
		for _, l := range lines {
			p := before[l.ProductID]
			if l.Quantity > p.Stock {
				fits = false
			}
			want += p.Price * int64(l.Quantity)
		}

		receipt, err := NewService(store, nil, nil, nil).Execute(context.Background(), Input{Lines: lines})
		if fits {
			require.NoError(t, err, "iteration %d", iter)
			assert.Equal(t, want, receipt.Total)
		} else {
			require.Error(t, err, "iteration %d", iter)
		}

		bought := map[int64]int{}
		if fits {
			for _, l := range lines {
				bought[l.ProductID] = l.Quantity
			}
		}
		for id, p := range before {
			assert.Equal(t, p.Stock-bought[id], stockOf(t, store, id), "iteration %d product %d", iter, id)
		}
	}
}

func TestRandomBankReferenceFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^(BCA|BNI|BRI|Mandiri|CIMB) - [1-9][0-9]{9}$`)
	gen := NewSeededBankReference(1, 2)
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		ref := gen.NewReference()
		require.Regexp(t, pattern, ref)
		seen[ref[:len(ref)-13]] = true
	}
	assert.Len(t, seen, len(Banks))
}
