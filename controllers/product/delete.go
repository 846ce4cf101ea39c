package productcontroller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/models"
)

// DeleteProduct hides the product and takes it out of every cart. Order
// history keeps pointing at the soft-deleted row.
func DeleteProduct(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var product models.Product
			if err := tx.Select("id").First(&product, "id = ?", id).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&product).Error
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			log.Error("product delete failed", zap.String("product_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
