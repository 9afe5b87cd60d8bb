package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"storefront/internal/checkout"
	"storefront/internal/pricing"
)

// Client talks to the storefront REST API. It implements the checkout
// engine's StockValidator, CouponValidator, ProofUploader and OrderSubmitter
// ports. BearerToken and CSRFToken are attached to authenticated requests;
// the HTTP client keeps a cookie jar so the csrf_token cookie set by the
// server travels back on state-changing calls (double-submit).
type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	BearerToken string
	CSRFToken   string
}

func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Jar:     jar,
		},
	}
}

// FetchCSRFToken requests a fresh token from GET /api/csrf-token and stores
// it on the client. The matching cookie lands in the jar, so subsequent
// uploads and order submissions pass the double-submit check. Call it once
// before the checkout flow and again after a session-expired rejection.
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/csrf-token", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("csrf token fetch failed: %s", resp.Status)
	}

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.CSRFToken == "" {
		return "", fmt.Errorf("csrf token response missing token")
	}

	c.CSRFToken = body.CSRFToken
	return body.CSRFToken, nil
}

type stockItemPayload struct {
	ProductID     string `json:"productId"`
	Quantity      int    `json:"quantity"`
	SelectedSize  string `json:"selectedSize,omitempty"`
	SelectedColor string `json:"selectedColor,omitempty"`
}

type stockResponse struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message"`
	MessageAr string `json:"messageAr"`
}

// ValidateStock checks every cart line against the server.
func (c *Client) ValidateStock(ctx context.Context, items []pricing.CartItem) (checkout.StockResult, error) {
	payload := struct {
		Items []stockItemPayload `json:"items"`
	}{Items: make([]stockItemPayload, 0, len(items))}

	for _, item := range items {
		payload.Items = append(payload.Items, stockItemPayload{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			SelectedSize:  item.SelectedSize,
			SelectedColor: item.SelectedColor,
		})
	}

	var resp stockResponse
	if err := c.postJSON(ctx, "/api/checkout/validate-stock", payload, &resp); err != nil {
		return checkout.StockResult{}, err
	}

	return checkout.StockResult{
		Valid:   resp.Valid,
		Message: checkout.Message{En: resp.Message, Ar: resp.MessageAr},
	}, nil
}

type couponPayload struct {
	Code        string  `json:"code"`
	OrderAmount float64 `json:"orderAmount"`
}

type couponResponse struct {
	Valid  bool `json:"valid"`
	Coupon *struct {
		Code          string   `json:"code"`
		DiscountType  string   `json:"discountType"`
		DiscountValue float64  `json:"discountValue"`
		MaxDiscount   *float64 `json:"maxDiscount"`
	} `json:"coupon"`
	Discount float64 `json:"discount"`
	Error    string  `json:"error"`
	ErrorAr  string  `json:"errorAr"`
}

// ValidateCoupon validates a code against the current order amount.
func (c *Client) ValidateCoupon(ctx context.Context, code string, orderAmount float64) (checkout.CouponResult, error) {
	var resp couponResponse
	err := c.postJSON(ctx, "/api/checkout/validate-coupon", couponPayload{Code: code, OrderAmount: orderAmount}, &resp)
	if err != nil {
		return checkout.CouponResult{}, err
	}

	result := checkout.CouponResult{
		Valid:    resp.Valid,
		Discount: resp.Discount,
		Error:    checkout.Message{En: resp.Error, Ar: resp.ErrorAr},
	}
	if resp.Coupon != nil {
		result.Coupon = &pricing.Coupon{
			Code:           resp.Coupon.Code,
			DiscountType:   resp.Coupon.DiscountType,
			DiscountValue:  resp.Coupon.DiscountValue,
			MaxDiscount:    resp.Coupon.MaxDiscount,
			DiscountAmount: resp.Discount,
		}
	}
	return result, nil
}

type proofResponse struct {
	PaymentProof *struct {
		Data        string `json:"data"`
		ContentType string `json:"contentType"`
	} `json:"paymentProof"`
	URL string `json:"url"`
}

// UploadProof performs the multipart payment-proof upload. Both response
// shapes are accepted: the paymentProof object and the legacy url form.
func (c *Client) UploadProof(ctx context.Context, filename, contentType string, data []byte) (checkout.ProofUpload, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return checkout.ProofUpload{}, err
	}
	if _, err := part.Write(data); err != nil {
		return checkout.ProofUpload{}, err
	}
	if err := writer.Close(); err != nil {
		return checkout.ProofUpload{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/checkout/upload-payment-proof", &body)
	if err != nil {
		return checkout.ProofUpload{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuthHeaders(req)

	httpResp, err := c.HTTPClient.Do(req)
	if err != nil {
		return checkout.ProofUpload{}, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return checkout.ProofUpload{}, fmt.Errorf("upload failed: %s", httpResp.Status)
	}

	var resp proofResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return checkout.ProofUpload{}, err
	}

	if resp.PaymentProof != nil {
		if _, err := base64.StdEncoding.DecodeString(resp.PaymentProof.Data); err != nil {
			return checkout.ProofUpload{}, fmt.Errorf("invalid payment proof payload: %w", err)
		}
		return checkout.ProofUpload{
			Data:        resp.PaymentProof.Data,
			ContentType: resp.PaymentProof.ContentType,
		}, nil
	}
	if resp.URL != "" {
		return checkout.ProofUpload{URL: resp.URL}, nil
	}
	return checkout.ProofUpload{}, fmt.Errorf("upload response missing payment proof")
}

type orderResponse struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Code        string `json:"code"`
	Error       string `json:"error"`
	Message     string `json:"message"`
	Details     string `json:"details"`
}

// SubmitOrder posts the assembled order. A stock-conflict rejection is
// surfaced as checkout.ErrStockConflict.
func (c *Client) SubmitOrder(ctx context.Context, order checkout.OrderRequest) (checkout.OrderReceipt, error) {
	raw, err := json.Marshal(order)
	if err != nil {
		return checkout.OrderReceipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/checkout/create-order", bytes.NewReader(raw))
	if err != nil {
		return checkout.OrderReceipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	httpResp, err := c.HTTPClient.Do(req)
	if err != nil {
		return checkout.OrderReceipt{}, err
	}
	defer httpResp.Body.Close()

	var resp orderResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil && err != io.EOF {
		return checkout.OrderReceipt{}, err
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode <= 299 {
		return checkout.OrderReceipt{OrderID: resp.OrderID, OrderNumber: resp.OrderNumber}, nil
	}

	if httpResp.StatusCode == http.StatusBadRequest && isStockConflict(resp) {
		return checkout.OrderReceipt{}, fmt.Errorf("%w: %s", checkout.ErrStockConflict, firstNonEmpty(resp.Error, resp.Message))
	}

	msg := firstNonEmpty(resp.Message, resp.Details, resp.Error, httpResp.Status)
	return checkout.OrderReceipt{}, fmt.Errorf("order rejected: %s", msg)
}

func isStockConflict(resp orderResponse) bool {
	if resp.Code == "OUT_OF_STOCK" {
		return true
	}
	combined := strings.ToLower(resp.Error + " " + resp.Message)
	return strings.Contains(combined, "stock") || strings.Contains(combined, "مخزون")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	if c.CSRFToken != "" {
		req.Header.Set("X-CSRF-Token", c.CSRFToken)
	}
}
