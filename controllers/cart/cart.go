package cartControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/freshcatch/seafood-api/cart"
	"github.com/freshcatch/seafood-api/middleware"
	"github.com/freshcatch/seafood-api/repository"
)

type CartItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type QuantityInput struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type QuoteInput struct {
	LineIDs []string `json:"line_ids" binding:"required"`
}

// Pricing is what a quote needs beyond the lines.
type Pricing struct {
	Shipping cart.Shipping
	Currency string
}

type Handler struct {
	repo    *repository.CartRepository
	pricing Pricing
	log     *zap.Logger
}

func NewHandler(repo *repository.CartRepository, pricing Pricing, log *zap.Logger) *Handler {
	return &Handler{repo: repo, pricing: pricing, log: log}
}

// GET /user/cart
func (h *Handler) GetUserCart(c *gin.Context) {
	userID := middleware.UserID(c)
	lines, err := h.repo.ListLines(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"lines":   lines,
		"total":   cart.Total(lines, cart.SelectionOf(ids...)),
	})
}

// POST /user/cart
func (h *Handler) AddCartItem(c *gin.Context) {
	var input CartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	line, err := h.repo.AddProduct(c.Request.Context(), middleware.UserID(c), input.ProductID, input.Quantity)
	if errors.Is(err, repository.ErrProductNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product does not exist"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

// PATCH /user/cart/:line_id
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var input QuantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	lineID := c.Param("line_id")
	quantity := cart.ClampQuantity(*input.Quantity)
	if err := h.repo.SetQuantity(c.Request.Context(), middleware.UserID(c), lineID, quantity); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": lineID, "quantity": quantity})
}

// DELETE /user/cart/:line_id
func (h *Handler) DeleteCartItem(c *gin.Context) {
	if err := h.repo.DeleteLine(c.Request.Context(), middleware.UserID(c), c.Param("line_id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item deleted"})
}

// DELETE /user/cart
func (h *Handler) ClearUserCart(c *gin.Context) {
	if err := h.repo.Clear(c.Request.Context(), middleware.UserID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// POST /user/cart/quote prices a selection of lines the way checkout will.
func (h *Handler) QuoteCart(c *gin.Context) {
	var input QuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	lines, err := h.repo.ListLines(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	selected := cart.SelectionOf(input.LineIDs...)
	known := make(map[string]bool, len(lines))
	for _, l := range lines {
		known[l.ID] = true
	}
	for id := range selected {
		if !known[id] {
			h.fail(c, cart.NotFound("quote", id))
			return
		}
	}

	quote := h.pricing.Shipping.Price(lines, selected)
	c.JSON(http.StatusOK, gin.H{
		"line_ids":     input.LineIDs,
		"subtotal":     quote.Subtotal,
		"shipping_fee": quote.ShippingFee,
		"total":        quote.Total,
		"currency":     h.pricing.Currency,
	})
}

// GET /admin/user-cart/:user_id
func (h *Handler) GetAdminUserCart(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	lines, err := h.repo.ListLines(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "lines": lines})
}

// fail maps cart error kinds onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	switch cart.KindOf(err) {
	case cart.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
	case cart.KindNotAuthenticated:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	default:
		h.log.Error("cart request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process cart"})
	}
}
