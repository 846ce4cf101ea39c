package productcontroller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/models"
	"github.com/freshcatch/seafood-api/storage"
)

const categoryFolder = "categories"

// POST /user/categories takes name, optional icon, parent_id and image.
func CreateCategory(db *gorm.DB, store storage.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.PostForm("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}

		category := models.Category{Name: name, Icon: strings.TrimSpace(c.PostForm("icon"))}
		if parent := c.PostForm("parent_id"); parent != "" {
			var count int64
			if err := db.Model(&models.Category{}).Where("id = ? AND parent_id IS NULL", parent).Count(&count).Error; err != nil || count == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Parent category does not exist"})
				return
			}
			category.ParentID = &parent
		}

		var count int64
		if err := db.Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Category already exists"})
			return
		}

		ctx := c.Request.Context()
		var saved storage.Object
		if fh, err := c.FormFile("image"); err == nil {
			if !storage.IsImage(fh.Filename) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Image must be jpg, png, gif or webp"})
				return
			}
			f, err := fh.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image"})
				return
			}
			saved, err = store.Save(ctx, categoryFolder, fh.Filename, f)
			f.Close()
			if err != nil {
				log.Error("category image upload failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
				return
			}
			category.ImageURL = saved.URL
		}

		if err := db.WithContext(ctx).Create(&category).Error; err != nil {
			if saved.Path != "" {
				_ = store.Delete(ctx, saved.Path)
			}
			log.Error("category create failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
			return
		}

		c.JSON(http.StatusCreated, category)
	}
}

// GET /categories returns top-level categories with their subcategories.
func GetAllCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var categories []models.Category
		err := db.Preload("Subcategories", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
			Where("parent_id IS NULL").
			Order("name").
			Find(&categories).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// GET /categories/:id/products includes products of its subcategories.
func GetCategoryProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var category models.Category
		if err := db.Preload("Subcategories").First(&category, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch category"})
			}
			return
		}

		ids := []string{category.ID}
		for _, sub := range category.Subcategories {
			ids = append(ids, sub.ID)
		}

		var products []models.Product
		if err := db.Preload("Images", imagesInOrder).
			Where("category_id IN ?", ids).
			Order("created_at DESC").
			Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"category": category, "products": products})
	}
}
