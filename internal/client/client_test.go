package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/storefront/internal/auth"
	"github.com/hongminglow/storefront/internal/cart"
	"github.com/hongminglow/storefront/internal/config"
	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/server"
	"github.com/hongminglow/storefront/internal/storage/memory"
)

func newServer(t *testing.T) (*Client, *memory.Store) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Seed(context.Background()))
	cfg := config.Config{
		JWTSecret:   "test-secret",
		JWTIssuer:   "storefront",
		JWTTTL:      time.Hour,
		CORSOrigins: []string{"*"},
		AdminEmails: []string{"admin@example.com"},
	}
	ts := httptest.NewServer(server.NewHandler(cfg, store, nil, server.WithAuthOptions(auth.WithBcryptCost(bcrypt.MinCost))))
	t.Cleanup(ts.Close)
	return New(ts.URL + "/"), store
}

func TestBrowseAddAndCheckout(t *testing.T) {
	ctx := context.Background()
	c, store := newServer(t)

	products, err := c.ListProducts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, products)
	target := products[0]

	crt := cart.New()
	require.NoError(t, crt.Add(target))
	require.NoError(t, crt.Add(target))

	receipt, err := c.Checkout(ctx, crt)
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, target.Price*2, receipt.Total)
	assert.Regexp(t, `^[A-Za-z]+ - \d{10}$`, receipt.BankAccount)
	assert.Zero(t, crt.Len())

	after, err := c.GetProduct(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.Stock-2, after.Stock)
	assert.Len(t, store.Orders(), 1)
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	c, store := newServer(t)
	products, err := c.ListProducts(ctx)
	require.NoError(t, err)

	stale := products[0]
	stale.Stock = 1000
	crt := cart.New()
	require.NoError(t, crt.Add(stale))
	crt.SetQuantity(stale.ID, 999)

	_, err = c.Checkout(ctx, crt)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, 1, crt.Len())
	assert.Empty(t, store.Orders())
}

func TestAdminSession(t *testing.T) {
	ctx := context.Background()
	c, _ := newServer(t)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, me.Role)

	_, err = c.SignUp(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	signed, err := c.SignIn(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, signed.Role)
	assert.Equal(t, signed.Token, c.Token())

	price, stock := int64(99000), 4
	created, err := c.CreateProduct(ctx, models.ProductInput{Name: "Gym Towel", Price: &price, Stock: &stock})
	require.NoError(t, err)

	stock = 7
	updated, err := c.UpdateProduct(ctx, created.ID, models.ProductInput{Name: "Gym Towel", Price: &price, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)

	require.NoError(t, c.DeleteProduct(ctx, created.ID))
	_, err = c.GetProduct(ctx, created.ID)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	require.NoError(t, c.SignOut(ctx))
	assert.Empty(t, c.Token())
	_, err = c.CreateProduct(ctx, models.ProductInput{Name: "Nope", Price: &price, Stock: &stock})
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}
