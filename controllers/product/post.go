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

	"github.com/freshcatch/seafood-api/middleware"
	"github.com/freshcatch/seafood-api/models"
	"github.com/freshcatch/seafood-api/storage"
)

var errUnknownCategory = errors.New("category not found")

// CreateProduct creates a product from the supplier form. A new category can
// be created inline by name when no category_id is given.
func CreateProduct(db *gorm.DB, store storage.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mf, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart form is required"})
			return
		}

		form := productForm{
			Name:            strings.TrimSpace(c.PostForm("name")),
			Description:     strings.TrimSpace(c.PostForm("description")),
			Origin:          strings.TrimSpace(c.PostForm("origin")),
			Unit:            c.PostForm("unit"),
			Price:           c.PostForm("price"),
			DiscountedPrice: c.PostForm("discounted_price"),
			Stock:           c.PostForm("stock"),
			CategoryID:      c.PostForm("category_id"),
			CategoryName:    c.PostForm("category_name"),
			Images:          mf.File["images"],
		}
		if errs := form.validate(); len(errs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": errs})
			return
		}

		// validate guarantees these parse
		price := decimal.RequireFromString(strings.TrimSpace(form.Price))
		discounted := price
		if form.DiscountedPrice != "" {
			discounted = decimal.RequireFromString(strings.TrimSpace(form.DiscountedPrice))
		}
		stock, _ := strconv.Atoi(strings.TrimSpace(form.Stock))

		ctx := c.Request.Context()
		images, err := saveImages(ctx, store, log, form.Images, 0, true)
		if err != nil {
			log.Error("product image upload failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save images"})
			return
		}

		product := models.Product{
			Name:            form.Name,
			Description:     form.Description,
			Origin:          form.Origin,
			Unit:            form.Unit,
			Price:           price.Round(2),
			DiscountedPrice: discounted.Round(2),
			Stock:           stock,
			SupplierID:      middleware.UserID(c),
			Images:          images,
		}

		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			categoryID, err := resolveCategory(tx, form.CategoryID, form.CategoryName)
			if err != nil {
				return err
			}
			product.CategoryID = &categoryID
			return tx.Create(&product).Error
		})
		if err != nil {
			removeImages(ctx, store, log, images)
			if errors.Is(err, errUnknownCategory) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
				return
			}
			log.Error("product create failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}

		c.JSON(http.StatusCreated, product)
	}
}

// resolveCategory returns categoryID when it exists, or finds or creates the
// category called name.
func resolveCategory(tx *gorm.DB, categoryID, name string) (string, error) {
	if categoryID != "" {
		var count int64
		if err := tx.Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return "", errUnknownCategory
		}
		return categoryID, nil
	}

	category := models.Category{Name: strings.TrimSpace(name)}
	if err := tx.Where("LOWER(name) = ?", strings.ToLower(category.Name)).
		FirstOrCreate(&category).Error; err != nil {
		return "", err
	}
	return category.ID, nil
}
