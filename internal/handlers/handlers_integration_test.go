package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"storefront/internal/database"
	"storefront/internal/gateway"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCharger approves every token except the ones mapped to an error.
type fakeCharger struct {
	mu       sync.Mutex
	requests []gateway.ChargeRequest
	failures map[string]error
}

func (f *fakeCharger) CreateCharge(_ context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err, ok := f.failures[req.Token]; ok {
		return nil, err
	}
	return &gateway.Charge{ID: fmt.Sprintf("ch_%d", len(f.requests)), Amount: req.Amount}, nil
}

type testApp struct {
	app     *fiber.App
	auth    *services.AuthService
	charger *fakeCharger
}

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(database.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	itemRepo := repositories.NewGORMItemRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	charger := &fakeCharger{failures: map[string]error{
		"tok_chargeDeclined": &gateway.Error{Kind: gateway.CardDeclined, Message: "Your card was declined."},
	}}
	locks := services.NewUserLocks()
	authService := services.NewAuthService(userRepo, "test_jwt_secret")
	itemService := services.NewItemService(itemRepo, nil)
	cartService := services.NewCartService(itemRepo, cartRepo, locks)
	checkoutService := services.NewCheckoutService(cartRepo, orderRepo, nil, locks)
	paymentService := services.NewPaymentService(cartRepo, orderRepo, map[models.PaymentOption]gateway.Charger{
		models.PaymentOptionStripe: charger,
	}, nil, locks)
	orderService := services.NewOrderService(orderRepo)

	for _, item := range []models.Item{
		{Title: "Shirt", Slug: "shirt", Price: decimal.RequireFromString("19.99"), Category: models.CategoryShirt, Label: models.LabelPrimary},
		{Title: "Jacket", Slug: "jacket", Price: decimal.RequireFromString("80.00"), DiscountPrice: decimal.NewNullDecimal(decimal.RequireFromString("60.00")), Category: models.CategoryOutwear, Label: models.LabelDanger},
	} {
		require.NoError(t, itemService.CreateItem(context.Background(), &item))
	}

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	auth := middleware.AuthRequired(authService)

	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handlers.NewItemHandler(itemService).RegisterRoutes(apiV1)
	handlers.NewCartHandler(cartService).RegisterRoutes(apiV1, auth)
	handlers.NewCheckoutHandler(checkoutService).RegisterRoutes(apiV1, auth)
	handlers.NewPaymentHandler(paymentService).RegisterRoutes(apiV1, auth)
	handlers.NewOrderHandler(orderService).RegisterRoutes(apiV1, auth)

	return &testApp{app: app, auth: authService, charger: charger}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	} else if len(raw) > 0 {
		out["raw"] = string(raw)
	}
	return resp.StatusCode, out
}

func (a *testApp) login(t *testing.T, username string) string {
	t.Helper()
	status, _ := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestAuthRegisterAndLogin(t *testing.T) {
	a := setupApp(t)
	token := a.login(t, "testuser")

	// duplicate registration
	status, _ := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "testuser",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, body := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "errors")

	status, _ = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "testuser", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	claims, err := a.auth.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims["username"])
}

func TestCatalogIsPublic(t *testing.T) {
	a := setupApp(t)

	status, body := a.do(t, http.MethodGet, "/api/v1/items?page=1", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["total"])

	status, body = a.do(t, http.MethodGet, "/api/v1/items/search?q=jack", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, body = a.do(t, http.MethodGet, "/api/v1/items/shirt", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "shirt", body["slug"])

	status, _ = a.do(t, http.MethodGet, "/api/v1/items/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCartRequiresAuth(t *testing.T) {
	a := setupApp(t)
	status, _ := a.do(t, http.MethodPost, "/api/v1/cart/shirt", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = a.do(t, http.MethodGet, "/api/v1/order-summary", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCartFlow(t *testing.T) {
	a := setupApp(t)
	token := a.login(t, "shopper")

	status, body := a.do(t, http.MethodGet, "/api/v1/order-summary", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "You do not have an active order", body["message"])
	assert.Equal(t, "/", body["redirect"])

	status, body = a.do(t, http.MethodPost, "/api/v1/cart/shirt", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "This item was added to your cart.", body["message"])
	assert.Equal(t, "/items/shirt", body["redirect"])

	status, body = a.do(t, http.MethodPost, "/api/v1/cart/shirt/single", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "This item quantity was updated.", body["message"])
	assert.Equal(t, "/order-summary", body["redirect"])

	status, body = a.do(t, http.MethodPost, "/api/v1/cart/jacket", token, nil)
	require.Equal(t, http.StatusOK, status)

	_, body = a.do(t, http.MethodGet, "/api/v1/order-summary", token, nil)
	assert.Equal(t, "99.98", body["total"])
	assert.Equal(t, "cart", body["state"])

	status, body = a.do(t, http.MethodDelete, "/api/v1/cart/shirt/single", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "This item quantity was updated.", body["message"])

	status, body = a.do(t, http.MethodDelete, "/api/v1/cart/jacket", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "This item was removed from your cart.", body["message"])
	assert.Equal(t, "/items/jacket", body["redirect"])

	status, body = a.do(t, http.MethodDelete, "/api/v1/cart/jacket", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "This item was not in your cart", body["message"])

	_, body = a.do(t, http.MethodGet, "/api/v1/order-summary", token, nil)
	assert.Equal(t, "19.99", body["total"])

	status, _ = a.do(t, http.MethodPost, "/api/v1/cart/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCheckoutAndPayment(t *testing.T) {
	a := setupApp(t)
	token := a.login(t, "buyer")

	status, body := a.do(t, http.MethodPost, "/api/v1/checkout", token, map[string]string{
		"street_address": "1 Main St", "country": "US", "zip": "94107", "payment_option": "stripe",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "You do not have an active order", body["message"])

	a.do(t, http.MethodPost, "/api/v1/cart/shirt", token, nil)

	status, body = a.do(t, http.MethodPost, "/api/v1/checkout", token, map[string]string{
		"street_address": "1 Main St", "country": "US", "zip": "bad zip!", "payment_option": "stripe",
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Failed checkout", body["message"])
	errs, _ := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "Zip")

	_, body = a.do(t, http.MethodGet, "/api/v1/order-summary", token, nil)
	assert.Equal(t, "cart", body["state"])

	status, body = a.do(t, http.MethodPost, "/api/v1/checkout", token, map[string]string{
		"street_address": "1 Main St", "country": "US", "zip": "94107", "payment_option": "stripe",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/payment/stripe", body["redirect"])

	status, body = a.do(t, http.MethodGet, "/api/v1/payment/stripe", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "19.99", body["total"])
	assert.Equal(t, true, body["available"])

	status, body = a.do(t, http.MethodPost, "/api/v1/payment/stripe", token, map[string]string{"stripeToken": "tok_chargeDeclined"})
	require.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "Your card was declined.", body["message"])
	assert.Equal(t, "CardDeclined", body["kind"])

	status, body = a.do(t, http.MethodPost, "/api/v1/payment/paypal", token, map[string]string{"stripeToken": "tok_visa"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "This payment option is not available", body["message"])

	status, _ = a.do(t, http.MethodPost, "/api/v1/payment/cash", token, map[string]string{"stripeToken": "tok_visa"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, http.MethodPost, "/api/v1/payment/stripe", token, map[string]string{"stripeToken": "tok_visa"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Your order was successful!", body["message"])

	require.Len(t, a.charger.requests, 2)
	assert.Equal(t, int64(1999), a.charger.requests[1].Amount)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var orders []models.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.True(t, orders[0].Ordered)
	require.NotNil(t, orders[0].Payment)
	assert.Equal(t, "19.99", orders[0].Payment.Amount.StringFixed(2))

	status, body = a.do(t, http.MethodGet, "/api/v1/orders/"+orders[0].ID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, orders[0].ID, body["id"])

	status, _ = a.do(t, http.MethodGet, "/api/v1/orders/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	_, body = a.do(t, http.MethodGet, "/api/v1/order-summary", token, nil)
	assert.Equal(t, "You do not have an active order", body["message"])
}
