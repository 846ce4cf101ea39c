package productcontroller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/models"
	"github.com/freshcatch/seafood-api/storage"
)

// UpdateProduct changes the fields present in the form. Uploaded images are
// appended after the existing ones.
func UpdateProduct(db *gorm.DB, store storage.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var product models.Product
		if err := db.WithContext(ctx).Preload("Images").First(&product, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
			}
			return
		}

		updates := map[string]any{}
		if v := strings.TrimSpace(c.PostForm("name")); v != "" {
			updates["name"] = v
		}
		if v := strings.TrimSpace(c.PostForm("description")); v != "" {
			updates["description"] = v
		}
		if v := strings.TrimSpace(c.PostForm("origin")); v != "" {
			updates["origin"] = v
		}
		if v := c.PostForm("unit"); v != "" {
			if !models.ValidUnit(v) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid unit"})
				return
			}
			updates["unit"] = v
		}
		if v := c.PostForm("stock"); v != "" {
			stock, err := strconv.Atoi(v)
			if err != nil || stock < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Stock must be 0 or more"})
				return
			}
			updates["stock"] = stock
		}
		if v := c.PostForm("category_id"); v != "" {
			var count int64
			if err := db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", v).Count(&count).Error; err != nil || count == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
				return
			}
			updates["category_id"] = v
		}

		price, discounted := product.Price, product.DiscountedPrice
		if v := c.PostForm("price"); v != "" {
			p, err := decimal.NewFromString(v)
			if err != nil || !p.IsPositive() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be greater than 0"})
				return
			}
			// a new list price without a new discount ends the sale
			if c.PostForm("discounted_price") == "" {
				discounted = p
			}
			price = p
		}
		if v := c.PostForm("discounted_price"); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil || !d.IsPositive() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Discounted price must be greater than 0"})
				return
			}
			discounted = d
		}
		if discounted.GreaterThan(price) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Discounted price cannot exceed price"})
			return
		}
		if !price.Equal(product.Price) {
			updates["price"] = price.Round(2)
		}
		if !discounted.Equal(product.DiscountedPrice) {
			updates["discounted_price"] = discounted.Round(2)
		}

		var images []models.ProductImage
		if mf, err := c.MultipartForm(); err == nil && len(mf.File["images"]) > 0 {
			for _, fh := range mf.File["images"] {
				if !storage.IsImage(fh.Filename) {
					c.JSON(http.StatusBadRequest, gin.H{"error": fh.Filename + " is not an image"})
					return
				}
			}
			images, err = saveImages(ctx, store, log, mf.File["images"], len(product.Images), len(product.Images) == 0)
			if err != nil {
				log.Error("product image upload failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save images"})
				return
			}
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if len(updates) > 0 {
				if err := tx.Model(&product).Updates(updates).Error; err != nil {
					return err
				}
			}
			for i := range images {
				images[i].ProductID = product.ID
				if err := tx.Create(&images[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			removeImages(ctx, store, log, images)
			log.Error("product update failed", zap.String("product_id", product.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}

		var updated models.Product
		if err := db.WithContext(ctx).Preload("Images", imagesInOrder).First(&updated, "id = ?", product.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}
