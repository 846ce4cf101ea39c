package telrControllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/config"
	orderControllers "github.com/freshcatch/seafood-api/controllers/order"
	"github.com/freshcatch/seafood-api/middleware"
	"github.com/freshcatch/seafood-api/models"
)

var errNotConfigured = errors.New("telr configuration missing")

// TelrPaymentResponse represents Telr response
type TelrPaymentResponse struct {
	Order struct {
		Ref string `json:"ref"`
		URL string `json:"url"`
	} `json:"order"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// PaymentRequest is what Telr needs to open a hosted payment page.
type PaymentRequest struct {
	CartID      string
	Amount      string
	Currency    string
	Description string
	Name        string
	Email       string
	Phone       string
	Address     models.ShippingAddress
}

// Client talks to the Telr order API.
type Client struct {
	storeID   int
	authKey   string
	endpoint  string
	testMode  int
	returnURL string
	http      *http.Client
}

// NewClient reads the Telr settings. Sandbox and dev modes run live
// endpoints in test mode.
func NewClient(cfg *config.Config) *Client {
	storeID, _ := strconv.Atoi(cfg.TelrStoreID)
	c := &Client{
		storeID:   storeID,
		authKey:   cfg.TelrAuthKey,
		endpoint:  cfg.TelrEndpointURL,
		returnURL: strings.TrimRight(cfg.TelrReturnURL, "/"),
		http:      &http.Client{Timeout: 15 * time.Second},
	}
	if mode := strings.ToLower(cfg.TelrMode); mode == "sandbox" || mode == "dev" {
		c.testMode = 1
	}
	return c
}

func (c *Client) Configured() bool {
	return c.storeID != 0 && c.authKey != "" && c.endpoint != ""
}

// CreatePayment sends request to Telr and returns payment URL & order reference
func (c *Client) CreatePayment(ctx context.Context, p PaymentRequest) (string, string, error) {
	if !c.Configured() {
		return "", "", errNotConfigured
	}

	payload := map[string]interface{}{
		"method":  "create",
		"store":   c.storeID,
		"authkey": c.authKey,
		"order": map[string]interface{}{
			"cartid":      p.CartID,
			"test":        c.testMode,
			"amount":      p.Amount,
			"currency":    p.Currency,
			"description": p.Description,
		},
		"customer": map[string]interface{}{
			"name":  p.Name,
			"email": p.Email,
			"phone": p.Phone,
			"address": map[string]string{
				"line1":    p.Address.StreetAddress,
				"line2":    p.Address.Apartment,
				"city":     p.Address.City,
				"region":   p.Address.State,
				"postcode": p.Address.ZipCode,
			},
		},
		"return": map[string]string{
			"authorised": c.returnURL + "/authorised",
			"declined":   c.returnURL + "/declined",
			"cancelled":  c.returnURL + "/cancelled",
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to reach Telr: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("telr API error (%d): %s", resp.StatusCode, string(body))
	}

	var telrResp TelrPaymentResponse
	if err := json.Unmarshal(body, &telrResp); err != nil {
		return "", "", fmt.Errorf("failed to parse Telr response: %w", err)
	}
	if telrResp.Error != nil {
		return "", "", fmt.Errorf("telr error: %s", telrResp.Error.Message)
	}
	if telrResp.Order.URL == "" {
		return "", "", errors.New("telr returned empty payment URL")
	}

	return telrResp.Order.URL, telrResp.Order.Ref, nil
}

type Handler struct {
	db       *gorm.DB
	client   *Client
	orders   *orderControllers.Handler
	currency string
	log      *zap.Logger
}

func NewHandler(db *gorm.DB, client *Client, orders *orderControllers.Handler, currency string, log *zap.Logger) *Handler {
	return &Handler{db: db, client: client, orders: orders, currency: currency, log: log}
}

// POST /payment/place opens a hosted payment for one of the caller's unpaid
// orders.
func (h *Handler) PaymentRequestHandler(c *gin.Context) {
	var input struct {
		OrderRef string `json:"order_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var order models.Order
	err := h.db.Preload("User").
		Where("order_ref = ? AND user_id = ?", input.OrderRef, middleware.UserID(c)).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch order"})
		return
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "order is already paid"})
		return
	}

	req := PaymentRequest{
		CartID:      order.OrderRef,
		Amount:      order.Total.StringFixed(2),
		Currency:    h.currency,
		Description: "Order " + order.OrderRef,
		Name:        order.Address.RecipientName,
		Phone:       order.Address.Phone,
		Address:     order.Address,
	}
	if order.User != nil {
		req.Email = order.User.Email
	}

	paymentURL, telrRef, err := h.client.CreatePayment(c.Request.Context(), req)
	if errors.Is(err, errNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "card payments are not available"})
		return
	}
	if err != nil {
		h.log.Error("telr payment create failed", zap.String("order_ref", order.OrderRef), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Model(&order).Updates(map[string]any{"payment_method": "card", "payment_ref": telrRef}).Error; err != nil {
		h.log.Warn("payment ref not stored", zap.String("order_ref", order.OrderRef), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_url": paymentURL,
		"order_ref":   order.OrderRef,
	})
}

// POST /payment/webhook. The signature is checked by middleware first.
func (h *Handler) TelrWebhookHandler(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse form"})
		return
	}

	cartID := c.PostForm("tran_cartid")
	tranStatus := c.PostForm("tran_status") // "A" = approved
	if cartID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tran_cartid"})
		return
	}

	log := h.log.With(zap.String("order_ref", cartID), zap.String("tran_status", tranStatus))
	if tranStatus != "A" {
		log.Info("telr payment not approved")
		c.JSON(http.StatusOK, gin.H{"message": "Payment not successful"})
		return
	}

	order, err := orderControllers.MarkPaid(c.Request.Context(), h.db, cartID, c.PostForm("tran_ref"))
	if errors.Is(err, orderControllers.ErrOrderNotFound) {
		log.Warn("telr webhook for unknown order")
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		log.Error("failed to mark order paid", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
		return
	}

	log.Info("order paid")
	var fresh models.Order
	if err := h.db.Preload("Items").First(&fresh, "id = ?", order.ID).Error; err == nil {
		h.orders.Broadcast(orderControllers.EventOrderStatus, fresh)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment recorded"})
}
