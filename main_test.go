package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/gateway"
	"storefront/internal/models"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestApplication(t *testing.T) *application {
	t.Helper()
	a := newApplication(memoryStores(), "test_jwt_secret", map[models.PaymentOption]gateway.Charger{}, nil, nil, "none")
	seedItems(context.Background(), a.items, discardLogger())
	return a
}

func TestHealth(t *testing.T) {
	app := newApp(newTestApplication(t), discardLogger())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "none", body["events"])
}

func TestSeededCatalog(t *testing.T) {
	a := newTestApplication(t)
	// seeding twice leaves the catalog unchanged
	seedItems(context.Background(), a.items, discardLogger())
	app := newApp(a, discardLogger())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/items", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Total int64         `json:"total"`
		Items []models.Item `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, int64(4), page.Total)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	app := newApp(newTestApplication(t), discardLogger())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "error", body["level"])
}

func TestPaymentWithoutProcessorIsUnavailable(t *testing.T) {
	app := newApp(newTestApplication(t), discardLogger())

	post := func(path, token string, body interface{}) *http.Response {
		b, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := post("/api/v1/auth/register", "", map[string]string{"username": "alice", "email": "alice@example.com", "password": "password123"})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post("/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "password123"})
	var login map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)

	resp = post("/api/v1/cart/classic-tee", token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post("/api/v1/payment/stripe", token, map[string]string{"stripeToken": "tok_visa"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogEvent_AlertsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := logEvent(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, handler(amqp.Delivery{RoutingKey: "order.paid", Body: []byte(`{}`)}))
	require.NoError(t, handler(amqp.Delivery{RoutingKey: "alert.payment_unrecorded", Body: []byte(`{}`)}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"level":"INFO"`)
	assert.Contains(t, string(lines[1]), `"level":"ERROR"`)
}
