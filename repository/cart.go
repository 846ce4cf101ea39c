// Package repository implements cart.Repository over gorm.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/cart"
	"github.com/freshcatch/seafood-api/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	errOtherUser       = errors.New("cart belongs to another user")
)

// CartRepository stores cart lines in the cart_items table. Every method is
// scoped by user id so a user only ever touches their own lines.
type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// ListLines returns the user's lines joined to product and images, oldest
// first. Lines whose product was deleted are left out.
func (r *CartRepository) ListLines(ctx context.Context, userID string) ([]cart.Line, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product.Images").
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, cart.RequestFailed("list lines", err)
	}

	lines := make([]cart.Line, 0, len(items))
	for _, item := range items {
		if item.Product.ID == "" {
			continue
		}
		lines = append(lines, item.Line())
	}
	return lines, nil
}

// GetLine returns one line of the user.
func (r *CartRepository) GetLine(ctx context.Context, userID, lineID string) (cart.Line, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product.Images").
		Where("id = ? AND user_id = ?", lineID, userID).
		First(&item).Error
	if err != nil {
		return cart.Line{}, mapErr("get line", lineID, err)
	}
	if item.Product.ID == "" {
		return cart.Line{}, cart.NotFound("get line", lineID)
	}
	return item.Line(), nil
}

// AddProduct puts quantity units of a product in the cart, adding to the
// existing line for that product if there is one.
func (r *CartRepository) AddProduct(ctx context.Context, userID, productID string, quantity int) (cart.Line, error) {
	quantity = cart.ClampQuantity(quantity)
	var lineID string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		var item models.CartItem
		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
			if err := tx.Omit("Product").Create(&item).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&item).Updates(map[string]any{
				"quantity":   item.Quantity + quantity,
				"updated_at": time.Now(),
			}).Error; err != nil {
				return err
			}
		}
		lineID = item.ID
		return nil
	})
	if errors.Is(err, ErrProductNotFound) {
		return cart.Line{}, err
	}
	if err != nil {
		return cart.Line{}, cart.RequestFailed("add product", err)
	}
	return r.GetLine(ctx, userID, lineID)
}

// SetQuantity stores quantity, clamped to at least 1, on the user's line.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", lineID, userID).
		Updates(map[string]any{"quantity": cart.ClampQuantity(quantity), "updated_at": time.Now()})
	if res.Error != nil {
		return cart.RequestFailed("update quantity", res.Error)
	}
	if res.RowsAffected == 0 {
		return cart.NotFound("update quantity", lineID)
	}
	return nil
}

// DeleteLine removes the user's line. A missing line is NotFound.
func (r *CartRepository) DeleteLine(ctx context.Context, userID, lineID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return cart.RequestFailed("delete line", res.Error)
	}
	if res.RowsAffected == 0 {
		return cart.NotFound("delete line", lineID)
	}
	return nil
}

// Clear removes every line of the user.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return cart.RequestFailed("clear cart", err)
	}
	return nil
}

// ForUser binds the repository to one user, giving the cart.Repository a
// Model needs. Reads for any other user are refused.
func (r *CartRepository) ForUser(userID string) cart.Repository {
	return userCart{repo: r, userID: userID}
}

type userCart struct {
	repo   *CartRepository
	userID string
}

func (u userCart) ListLines(ctx context.Context, userID string) ([]cart.Line, error) {
	if userID != u.userID {
		return nil, cart.RequestFailed("list lines", errOtherUser)
	}
	return u.repo.ListLines(ctx, userID)
}

func (u userCart) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	return u.repo.SetQuantity(ctx, u.userID, lineID, quantity)
}

func (u userCart) DeleteLine(ctx context.Context, lineID string) error {
	return u.repo.DeleteLine(ctx, u.userID, lineID)
}

func mapErr(op, lineID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart.NotFound(op, lineID)
	}
	return cart.RequestFailed(op, fmt.Errorf("line %s: %w", lineID, err))
}
