package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/checkout"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/pricing"
)

func TestValidateStockSendsItemsAndDecodesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/checkout/validate-stock", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var payload struct {
			Items []struct {
				ProductID     string `json:"productId"`
				Quantity      int    `json:"quantity"`
				SelectedSize  string `json:"selectedSize"`
				SelectedColor string `json:"selectedColor"`
			} `json:"items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Items, 1)
		assert.Equal(t, "p1", payload.Items[0].ProductID)
		assert.Equal(t, "M", payload.Items[0].SelectedSize)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"valid":     false,
			"message":   "Product is out of stock",
			"messageAr": "المنتج غير متوفر",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.ValidateStock(context.Background(), []pricing.CartItem{
		{ProductID: "p1", Quantity: 2, SelectedSize: "M"},
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "المنتج غير متوفر", result.Message.In("ar"))
}

func TestValidateCouponDecodesCoupon(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/checkout/validate-coupon", r.URL.Path)

		var payload struct {
			Code        string  `json:"code"`
			OrderAmount float64 `json:"orderAmount"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "SAVE20", payload.Code)
		assert.Equal(t, 500.0, payload.OrderAmount)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"valid": true,
			"coupon": map[string]interface{}{
				"code":          "SAVE20",
				"discountType":  "PERCENTAGE",
				"discountValue": 20,
				"maxDiscount":   80,
			},
			"discount": 80,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.ValidateCoupon(context.Background(), "SAVE20", 500)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.NotNil(t, result.Coupon)
	assert.Equal(t, "PERCENTAGE", result.Coupon.DiscountType)
	require.NotNil(t, result.Coupon.MaxDiscount)
	assert.Equal(t, 80.0, *result.Coupon.MaxDiscount)
	assert.Equal(t, 80.0, result.Discount)
}

func TestValidateCouponRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"valid":   false,
			"error":   "Coupon has expired",
			"errorAr": "انتهت صلاحية الكوبون",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.ValidateCoupon(context.Background(), "OLD", 500)
	require.NoError(t, err, "an explicit rejection is not a transport error")
	assert.False(t, result.Valid)
	assert.Nil(t, result.Coupon)
	assert.Equal(t, "Coupon has expired", result.Error.En)
}

func TestValidateCouponServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ValidateCoupon(context.Background(), "SAVE20", 500)
	require.Error(t, err)
}

func TestUploadProofDBStorageShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/checkout/upload-payment-proof", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "proof.png", header.Filename)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"paymentProof": map[string]string{
				"data":        "aGVsbG8=",
				"contentType": "image/png",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	upload, err := client.UploadProof(context.Background(), "proof.png", "image/png", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", upload.Data)
	assert.Equal(t, "image/png", upload.ContentType)
	assert.Empty(t, upload.URL)
}

func TestUploadProofLegacyURLShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"url": "/uploads/payment-proofs/abc.png"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	upload, err := client.UploadProof(context.Background(), "proof.png", "image/png", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/payment-proofs/abc.png", upload.URL)
}

func TestUploadProofRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.UploadProof(context.Background(), "proof.png", "image/png", []byte("hello"))
	require.Error(t, err)
}

func TestFetchCSRFTokenStoresTokenAndCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/csrf-token", handlers.IssueCSRFToken())
	server := httptest.NewServer(router)
	defer server.Close()

	client := NewClient(server.URL)
	token, err := client.FetchCSRFToken(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, token, client.CSRFToken)

	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)
	cookies := client.HTTPClient.Jar.Cookies(serverURL)
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.CSRFCookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
}

func TestUploadProofPassesDoubleSubmitCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/csrf-token", handlers.IssueCSRFToken())
	router.POST("/api/checkout/upload-payment-proof",
		middleware.CSRF(), handlers.UploadPaymentProof(nil, "disk", t.TempDir()))
	server := httptest.NewServer(router)
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchCSRFToken(context.Background())
	require.NoError(t, err)

	upload, err := client.UploadProof(context.Background(), "proof.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.URL, "/uploads/payment-proofs/"), "unexpected url %q", upload.URL)
}

func TestUploadProofWithoutFetchedTokenIsRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/checkout/upload-payment-proof",
		middleware.CSRF(), handlers.UploadPaymentProof(nil, "disk", t.TempDir()))
	server := httptest.NewServer(router)
	defer server.Close()

	// A header alone cannot satisfy the double-submit check; the cookie from
	// /api/csrf-token must travel with it.
	client := NewClient(server.URL)
	client.CSRFToken = "forged"
	_, err := client.UploadProof(context.Background(), "proof.png", "image/png", []byte("png-bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSubmitOrderSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/checkout/create-order", r.URL.Path)
		assert.Equal(t, "csrf-123", r.Header.Get("X-CSRF-Token"))

		var req checkout.OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "csrf-123", req.CSRFToken)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"orderId":     "65ab",
			"orderNumber": "ORD-20260831-1A2B3C4D",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.CSRFToken = "csrf-123"
	receipt, err := client.SubmitOrder(context.Background(), checkout.OrderRequest{CSRFToken: "csrf-123"})
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260831-1A2B3C4D", receipt.OrderNumber)
}

func TestSubmitOrderStockConflictByCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"code":  "OUT_OF_STOCK",
			"error": "Insufficient stock for Classic Tee",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SubmitOrder(context.Background(), checkout.OrderRequest{})
	require.ErrorIs(t, err, checkout.ErrStockConflict)
}

func TestSubmitOrderStockConflictByKeyword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Not enough stock remaining",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SubmitOrder(context.Background(), checkout.OrderRequest{})
	require.ErrorIs(t, err, checkout.ErrStockConflict)
}

func TestSubmitOrderGenericRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid CSRF token"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SubmitOrder(context.Background(), checkout.OrderRequest{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, checkout.ErrStockConflict)
	assert.Contains(t, err.Error(), "Invalid CSRF token")
}

func TestSettingsServiceCachesFirstFetch(t *testing.T) {
	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"storeSettings": map[string]interface{}{
				"storeName":     "Hereve",
				"shippingPrice": 50,
			},
		})
	}))
	defer server.Close()

	service := NewSettingsService(NewClient(server.URL), 0)

	first, err := service.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50.0, first.ShippingPrice)

	_, err = service.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

func TestSettingsServiceRefreshReplacesCache(t *testing.T) {
	var price atomic.Value
	price.Store(50.0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"storeSettings": map[string]interface{}{"shippingPrice": price.Load()},
		})
	}))
	defer server.Close()

	service := NewSettingsService(NewClient(server.URL), 0)
	_, err := service.Get(context.Background())
	require.NoError(t, err)

	price.Store(75.0)
	updated, err := service.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 75.0, updated.ShippingPrice)

	cached, err := service.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 75.0, cached.ShippingPrice)
}

func TestSettingsServicePollingLoop(t *testing.T) {
	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"storeSettings": map[string]interface{}{"shippingPrice": 50},
		})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service := NewSettingsService(NewClient(server.URL), 15*time.Millisecond)
	service.Start(ctx)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fetches) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	time.Sleep(30 * time.Millisecond)
	settled := atomic.LoadInt32(&fetches)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, atomic.LoadInt32(&fetches), "loop must stop on cancel")
}
