package orderControllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freshcatch/seafood-api/cart"
	"github.com/freshcatch/seafood-api/middleware"
	"github.com/freshcatch/seafood-api/models"
	"github.com/freshcatch/seafood-api/notify"
)

var (
	ErrNoLines           = errors.New("no cart lines selected")
	ErrLineNotFound      = errors.New("cart line not found")
	ErrAddressNotFound   = errors.New("address not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotFound     = errors.New("order not found")
	ErrPaymentMethod     = errors.New("payment method must be card or cod")
)

// -------- Request Structs --------

type PlaceOrderRequest struct {
	LineIDs       []string `json:"line_ids" binding:"required"`
	AddressID     string   `json:"address_id" binding:"required"`
	PaymentMethod string   `json:"payment_method"`
	Notes         string   `json:"notes"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// -------- Core Logic --------

// PlaceOrder turns the selected cart lines of a user into an order. Stock is
// locked and deducted, the address is copied, and the lines leave the cart,
// all in one transaction.
func PlaceOrder(ctx context.Context, db *gorm.DB, userID string, req PlaceOrderRequest, shipping cart.Shipping) (models.Order, error) {
	ids := uniqueIDs(req.LineIDs)
	if len(ids) == 0 {
		return models.Order{}, ErrNoLines
	}
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = "cod"
	}
	if method != "cod" && method != "card" {
		return models.Order{}, ErrPaymentMethod
	}

	var order models.Order
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var address models.Address
		if err := tx.First(&address, "id = ? AND user_id = ?", req.AddressID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAddressNotFound
			}
			return err
		}

		var items []models.CartItem
		if err := tx.Where("user_id = ? AND id IN ?", userID, ids).
			Order("created_at ASC, id ASC").
			Find(&items).Error; err != nil {
			return err
		}
		if len(items) != len(ids) {
			return ErrLineNotFound
		}

		lines := make([]cart.Line, 0, len(items))
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			var product models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, "id = ?", item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrLineNotFound
				}
				return err
			}
			if product.Stock < item.Quantity {
				return fmt.Errorf("%w for product: %s", ErrInsufficientStock, product.Name)
			}

			if err := tx.Model(&product).Updates(map[string]any{
				"stock":      gorm.Expr("stock - ?", item.Quantity),
				"sold_count": gorm.Expr("sold_count + ?", item.Quantity),
			}).Error; err != nil {
				return err
			}

			lines = append(lines, cart.Line{ID: item.ID, ProductID: product.ID, Quantity: item.Quantity, Product: product.CartProduct()})
			orderItems = append(orderItems, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Unit:        product.Unit,
				UnitPrice:   product.DiscountedPrice,
				Quantity:    item.Quantity,
			})
		}

		amounts := shipping.Price(lines, cart.SelectionOf(ids...))
		order = models.Order{
			UserID:        userID,
			AddressID:     address.ID,
			Address:       address.Snapshot(),
			Items:         orderItems,
			Subtotal:      amounts.Subtotal,
			ShippingFee:   amounts.ShippingFee,
			Total:         amounts.Total,
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusUnpaid,
			PaymentMethod: method,
			Notes:         strings.TrimSpace(req.Notes),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ? AND id IN ?", userID, ids).Delete(&models.CartItem{}).Error
	})
	return order, err
}

// MarkPaid records a successful payment for the order with ref and confirms
// it. Paying an already paid order changes nothing.
func MarkPaid(ctx context.Context, db *gorm.DB, orderRef, paymentRef string) (models.Order, error) {
	var order models.Order
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "order_ref = ?", orderRef).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.PaymentStatus == models.PaymentStatusPaid {
			return nil
		}

		updates := map[string]any{"payment_status": models.PaymentStatusPaid, "payment_ref": paymentRef}
		if order.Status == models.OrderStatusPending {
			updates["status"] = models.OrderStatusConfirmed
		}
		return tx.Model(&order).Updates(updates).Error
	})
	return order, err
}

func uniqueIDs(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, id := range in {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// -------- Handlers --------

type Handler struct {
	db       *gorm.DB
	shipping cart.Shipping
	mailer   *notify.Mailer
	hub      *Hub
	log      *zap.Logger
}

func NewHandler(db *gorm.DB, shipping cart.Shipping, mailer *notify.Mailer, hub *Hub, log *zap.Logger) *Handler {
	return &Handler{db: db, shipping: shipping, mailer: mailer, hub: hub, log: log}
}

// POST /user/orders
func (h *Handler) PlaceOrderHandler(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	order, err := PlaceOrder(c.Request.Context(), h.db, userID, req, h.shipping)
	switch {
	case errors.Is(err, ErrNoLines), errors.Is(err, ErrPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrLineNotFound), errors.Is(err, ErrAddressNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.log.Error("place order failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to place order"})
		return
	}

	h.log.Info("order placed",
		zap.String("order_ref", order.OrderRef),
		zap.String("user_id", userID),
		zap.String("total", order.Total.StringFixed(2)),
	)
	h.hub.Broadcast(Event{Type: EventOrderCreated, Order: order})
	h.notify(order, h.mailer.SendOrderConfirmation)

	c.JSON(http.StatusCreated, order)
}

// GET /user/orders lists the caller's orders. Suppliers see every order.
func (h *Handler) ListOrders(c *gin.Context) {
	query := h.db.Preload("Items").Order("created_at DESC")
	if c.GetString(middleware.RoleKey) != string(models.RoleSupplier) {
		query = query.Where("user_id = ?", middleware.UserID(c))
	} else if status := c.Query("status"); status != "" {
		st, err := models.ParseOrderStatus(status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		query = query.Where("status = ?", st)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GET /user/orders/:orderID takes an id or an order_ref.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.loadOrder(c.Param("orderID"))
	if errors.Is(err, ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch order"})
		return
	}

	// other users' orders are hidden, not forbidden
	if order.UserID != middleware.UserID(c) && c.GetString(middleware.RoleKey) != string(models.RoleSupplier) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// PUT /user/orders/:orderID/status is for suppliers. Any status may follow
// any other.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	newStatus, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID := c.Param("orderID")
	res := h.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", newStatus)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order status"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	if order, err := h.loadOrder(orderID); err == nil {
		h.hub.Broadcast(Event{Type: EventOrderStatus, Order: order})
		h.notify(order, h.mailer.SendStatusUpdate)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully", "status": newStatus})
}

// PUT /admin/orders/:orderID/payment-status
func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	newStatus, err := models.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.db.Model(&models.Order{}).Where("id = ?", c.Param("orderID")).Update("payment_status", newStatus)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update payment status"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated successfully", "payment_status": newStatus})
}

// Broadcast lets other handlers, such as the payment webhook, publish order
// events.
func (h *Handler) Broadcast(eventType string, order models.Order) {
	h.hub.Broadcast(Event{Type: eventType, Order: order})
}

func (h *Handler) loadOrder(id string) (models.Order, error) {
	var order models.Order
	err := h.db.
		Preload("User").
		Preload("Items").
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Items.Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("is_primary DESC, sort_order ASC") }).
		Where("id = ? OR order_ref = ?", id, id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return order, ErrOrderNotFound
	}
	return order, err
}

// notify mails the order owner without holding up the response.
func (h *Handler) notify(order models.Order, send func(string, models.Order) error) {
	var user models.User
	if err := h.db.Select("email").First(&user, "id = ?", order.UserID).Error; err != nil || user.Email == "" {
		h.log.Warn("order mail skipped, no recipient", zap.String("order_ref", order.OrderRef))
		return
	}
	go func() {
		if err := send(user.Email, order); err != nil {
			h.log.Error("order mail failed", zap.String("order_ref", order.OrderRef), zap.Error(err))
		}
	}()
}
