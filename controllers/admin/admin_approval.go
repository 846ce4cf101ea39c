package adminController

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/models"
)

type roleRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /admin/suppliers/approve gives an existing account the supplier role.
func ApproveSupplier(db *gorm.DB) gin.HandlerFunc {
	return setRole(db, models.RoleSupplier, "Supplier approved")
}

// POST /admin/suppliers/revoke turns a supplier back into a customer.
func RevokeSupplier(db *gorm.DB) gin.HandlerFunc {
	return setRole(db, models.RoleUser, "Supplier revoked")
}

func setRole(db *gorm.DB, role models.UserRole, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req roleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		res := db.Model(&models.User{}).
			Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
			Update("role", role)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		// existing tokens keep the old role until they expire
		c.JSON(http.StatusOK, gin.H{"message": message})
	}
}
