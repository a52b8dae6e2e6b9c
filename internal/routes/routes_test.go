package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/auth"
	"github.com/01moynul/zemmon-store/internal/cart"
	"github.com/01moynul/zemmon-store/internal/handlers"
	"github.com/01moynul/zemmon-store/internal/models"
	"github.com/01moynul/zemmon-store/internal/orders"
	"github.com/01moynul/zemmon-store/internal/orders/mocks"
	"github.com/01moynul/zemmon-store/internal/store/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	t       *testing.T
	router  *gin.Engine
	gateway *mocks.MockGateway
	user    string
	admin   string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	mem := memstore.New()
	require.NoError(t, mem.UpsertProduct(context.Background(), &models.Product{
		ID: "A", Name: "Product A", Category: "Men", Price: decimal.NewFromInt(10),
		Images: []string{"a.jpg"}, Sizes: []string{"S", "M"}, BestSeller: true,
	}))

	gateway := mocks.NewMockGateway(gomock.NewController(t))
	log := zap.NewNop()
	h := &handlers.Handlers{
		Cart: cart.NewService(mem, mem, log),
		Orders: orders.NewService(mem, mem, gateway, orders.Config{
			DeliveryFee: decimal.NewFromInt(10),
			Currency:    "ETB",
		}, log),
		Catalog: mem,
		Log:     log,
	}

	tokens := auth.NewTokenManager("test-secret")
	user, err := tokens.GenerateToken(auth.Principal{ID: "alice", Role: auth.RoleUser}, time.Hour)
	require.NoError(t, err)
	admin, err := tokens.GenerateToken(auth.Principal{ID: "root", Role: auth.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	return &api{
		t:       t,
		router:  SetupRouter(h, tokens, log, []string{"http://localhost:3000"}),
		gateway: gateway,
		user:    user,
		admin:   admin,
	}
}

func (a *api) call(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]json.RawMessage
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

var deliveryJSON = map[string]string{
	"firstName": "Abebe", "lastName": "Kebede", "email": "abebe@example.com",
	"address": "Bole Road 1", "city": "Addis Ababa", "state": "AA",
	"zipCode": "1000", "country": "Ethiopia", "phone": "+251911000000",
}

func TestPing(t *testing.T) {
	a := newAPI(t)
	w, _ := a.call(http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProducts(t *testing.T) {
	a := newAPI(t)

	w, body := a.call(http.MethodGet, "/api/products?category=Men&bestSeller=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Product](t, body["products"]), 1)

	w, _ = a.call(http.MethodGet, "/api/products?bestSeller=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = a.call(http.MethodGet, "/api/products/A", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Product A", decode[models.Product](t, body["product"]).Name)

	w, _ = a.call(http.MethodGet, "/api/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartRequiresLogin(t *testing.T) {
	a := newAPI(t)
	w, body := a.call(http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "false", string(body["success"]))
}

func TestCartFlow(t *testing.T) {
	a := newAPI(t)

	w, body := a.call(http.MethodPost, "/api/cart/items", a.user, map[string]string{"productId": "A", "size": "m"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[models.CartView](t, body["cart"])
	require.Len(t, view.Items, 1)
	assert.Equal(t, "M", view.Items[0].Size)

	w, _ = a.call(http.MethodPost, "/api/cart/items", a.user, map[string]string{"productId": "A", "size": "M"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = a.call(http.MethodPut, "/api/cart/items", a.user, `{"productId":"A","size":"M","quantity":"3"}`)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[models.CartView](t, body["cart"])
	assert.True(t, view.Subtotal.Equal(decimal.NewFromInt(30)))

	w, _ = a.call(http.MethodPut, "/api/cart/items", a.user, `{"productId":"A","size":"M","quantity":"lots"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.call(http.MethodPut, "/api/cart/items", a.user, `{"productId":"A","size":"M","quantity":0}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = a.call(http.MethodGet, "/api/cart", a.user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.CartView](t, body["cart"]).Items)

	w, _ = a.call(http.MethodPost, "/api/cart/items", a.user, map[string]string{"productId": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderLifecycle(t *testing.T) {
	a := newAPI(t)

	order := map[string]any{
		"deliveryInfo":  deliveryJSON,
		"paymentMethod": "Cash on Delivery",
		"items":         []map[string]any{{"productId": "A", "size": "M", "quantity": 2, "price": 10}},
	}
	w, body := a.call(http.MethodPost, "/api/orders", a.user, order)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[models.Order](t, body["order"])
	assert.True(t, placed.Subtotal.Equal(decimal.NewFromInt(20)))
	assert.True(t, placed.Total.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, models.OrderStatusPending, placed.Status)

	w, body = a.call(http.MethodGet, "/api/orders", a.user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Order](t, body["orders"]), 1)

	w, _ = a.call(http.MethodPut, "/api/admin/orders/"+placed.ID+"/status", a.user, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = a.call(http.MethodPut, "/api/admin/orders/"+placed.ID+"/status", a.admin, map[string]string{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.call(http.MethodPut, "/api/admin/orders/"+placed.ID+"/status", a.admin, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = a.call(http.MethodGet, "/api/orders/"+placed.ID+"/status", a.user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"shipped"`, string(body["status"]))

	w, body = a.call(http.MethodPut, "/api/admin/orders/"+placed.ID+"/items/status", a.admin,
		map[string]string{"productId": "A", "size": "m", "status": "delivered"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ItemStatusDelivered, decode[models.Order](t, body["order"]).Items[0].Status)

	w, _ = a.call(http.MethodPut, "/api/admin/orders/"+placed.ID+"/items/status", a.admin,
		map[string]string{"productId": "A", "size": "XL", "status": "delivered"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = a.call(http.MethodGet, "/api/admin/orders", a.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Order](t, body["orders"]), 1)

	w, _ = a.call(http.MethodGet, "/api/orders/missing", a.user, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	a := newAPI(t)

	w, body := a.call(http.MethodPost, "/api/orders", a.user, map[string]any{
		"deliveryInfo":  deliveryJSON,
		"paymentMethod": "Cash on Delivery",
		"items":         []any{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `"Cart is empty"`, string(body["message"]))

	w, _ = a.call(http.MethodPost, "/api/orders", a.user, `{"items": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnlinePaymentFlow(t *testing.T) {
	a := newAPI(t)

	a.gateway.EXPECT().Initiate(gomock.Any(), gomock.Any()).Return("https://checkout.test/abc", nil)
	w, body := a.call(http.MethodPost, "/api/orders", a.user, map[string]any{
		"deliveryInfo":  deliveryJSON,
		"paymentMethod": "Online Payment",
		"items":         []map[string]any{{"productId": "A", "size": "M", "quantity": 1, "price": "10.00"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, `"https://checkout.test/abc"`, string(body["paymentUrl"]))
	placed := decode[models.Order](t, body["order"])
	assert.Equal(t, models.OrderStatusPaymentPending, placed.Status)

	// Forged success: the gateway does not confirm it.
	a.gateway.EXPECT().Verify(gomock.Any(), placed.ID).Return(models.PaymentStatusFailed, nil)
	w, body = a.call(http.MethodGet, "/api/payment/callback?tx_ref="+placed.ID+"&status=success", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"payment_failed"`, string(body["status"]))

	a.gateway.EXPECT().Initiate(gomock.Any(), gomock.Any()).Return("https://checkout.test/retry", nil)
	w, _ = a.call(http.MethodPost, "/api/orders/"+placed.ID+"/pay", a.user, nil)
	require.Equal(t, http.StatusOK, w.Code)

	a.gateway.EXPECT().Verify(gomock.Any(), placed.ID).Return(models.PaymentStatusSuccess, nil)
	w, body = a.call(http.MethodGet, "/api/payment/callback?trx_ref="+placed.ID+"&status=success", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"paid"`, string(body["status"]))

	w, _ = a.call(http.MethodGet, "/api/payment/callback", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnlineOrderSurvivesGatewayOutage(t *testing.T) {
	a := newAPI(t)

	a.gateway.EXPECT().Initiate(gomock.Any(), gomock.Any()).Return("", errors.New("gateway timeout"))
	w, body := a.call(http.MethodPost, "/api/orders", a.user, map[string]any{
		"deliveryInfo":  deliveryJSON,
		"paymentMethod": "Online Payment",
		"items":         []map[string]any{{"productId": "A", "size": "M", "quantity": 1, "price": 10}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, `"Payment initialization failed"`, string(body["paymentError"]))
	assert.NotContains(t, body, "paymentUrl")
	placed := decode[models.Order](t, body["order"])
	require.NotEmpty(t, placed.ID)

	a.gateway.EXPECT().Initiate(gomock.Any(), gomock.Any()).Return("https://checkout.test/again", nil)
	w, body = a.call(http.MethodPost, "/api/orders/"+placed.ID+"/pay", a.user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"https://checkout.test/again"`, string(body["paymentUrl"]))
}

func TestPlaceOrderRejectsSubCentPrice(t *testing.T) {
	a := newAPI(t)

	w, _ := a.call(http.MethodPost, "/api/orders", a.user, map[string]any{
		"deliveryInfo":  deliveryJSON,
		"paymentMethod": "Cash on Delivery",
		"items":         []map[string]any{{"productId": "A", "size": "M", "quantity": 3, "price": "0.335"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := a.call(http.MethodGet, "/api/orders", a.user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Order](t, body["orders"]))
}

func TestCORSPreflight(t *testing.T) {
	a := newAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
