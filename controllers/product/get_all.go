package productcontroller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/models"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// sortColumns maps the sort_by values clients send onto columns.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"price":      "discounted_price",
	"name":       "name",
	"sales":      "sold_count",
}

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// imagesInOrder preloads images with the primary one first.
func imagesInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("is_primary DESC, sort_order ASC")
}

// GET /products
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := strings.ToLower(strings.TrimSpace(c.Query("search")))
		categoryID := c.Query("category_id")
		sortBy := c.DefaultQuery("sort_by", "created_at")
		sortOrder := strings.ToLower(c.DefaultQuery("order", "desc"))
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "desc"
		}
		column, ok := sortColumns[sortBy]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by"})
			return
		}
		limit, ok := parseLimit(c, defaultLimit)
		if !ok {
			return
		}

		query := db.Model(&models.Product{}).Preload("Images", imagesInOrder)

		if search != "" {
			like := "%" + likeEscaper.Replace(search) + "%"
			query = query.Where(
				`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(origin) LIKE ? ESCAPE '\'`,
				like, like, like,
			)
		}
		if categoryID != "" {
			query = query.Where("category_id = ?", categoryID)
		}
		if c.Query("on_sale") == "true" {
			query = query.Where("discounted_price < price")
		}
		if v := c.Query("min_price"); v != "" {
			min, err := decimal.NewFromString(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_price"})
				return
			}
			query = query.Where("discounted_price >= ?", min)
		}
		if v := c.Query("max_price"); v != "" {
			max, err := decimal.NewFromString(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
				return
			}
			query = query.Where("discounted_price <= ?", max)
		}

		var products []models.Product
		if err := query.Order(column + " " + sortOrder).Order("id").Limit(limit).Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /products/popular ranks products by units sold.
func GetPopularProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c, 10)
		if !ok {
			return
		}
		var products []models.Product
		err := db.Preload("Images", imagesInOrder).
			Where("stock > 0").
			Order("sold_count DESC").Order("created_at DESC").
			Limit(limit).
			Find(&products).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /products/on-sale
func GetOnSaleProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c, 10)
		if !ok {
			return
		}
		var products []models.Product
		err := db.Preload("Images", imagesInOrder).
			Where("discounted_price < price").
			Order("created_at DESC").
			Limit(limit).
			Find(&products).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func parseLimit(c *gin.Context, def int) (int, bool) {
	v := c.Query("limit")
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return 0, false
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, true
}
