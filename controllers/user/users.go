package userControllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/middleware"
	"github.com/freshcatch/seafood-api/models"
)

type UpdateUserInput struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
}

type AddressInput struct {
	RecipientName string `json:"recipient_name" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	StreetAddress string `json:"street_address" binding:"required"`
	Apartment     string `json:"apartment"`
	City          string `json:"city" binding:"required"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	IsDefault     bool   `json:"is_default"`
}

func defaultFirst(db *gorm.DB) *gorm.DB {
	return db.Order("is_default DESC, created_at ASC")
}

// GET /user/profile
func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.Preload("Addresses", defaultFirst).First(&user, "id = ?", middleware.UserID(c)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PUT /user/profile
func UpdateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.First(&user, "id = ?", middleware.UserID(c)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		var input UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updates := make(map[string]interface{})
		if input.Name != nil {
			updates["name"] = strings.TrimSpace(*input.Name)
		}
		if input.Phone != nil {
			updates["phone"] = strings.TrimSpace(*input.Phone)
		}
		if input.AvatarURL != nil {
			updates["avatar_url"] = strings.TrimSpace(*input.AvatarURL)
		}

		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
				return
			}
			if err := db.First(&user, "id = ?", user.ID).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload user"})
				return
			}
		}

		c.JSON(http.StatusOK, user)
	}
}

// GET /user/addresses, default address first.
func ListAddresses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var addresses []models.Address
		if err := defaultFirst(db).Where("user_id = ?", middleware.UserID(c)).Find(&addresses).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch addresses"})
			return
		}
		c.JSON(http.StatusOK, addresses)
	}
}

// POST /user/addresses. The first address, or one marked is_default, becomes
// the only default.
func AddAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AddressInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userID := middleware.UserID(c)
		address := models.Address{
			UserID:        userID,
			RecipientName: strings.TrimSpace(input.RecipientName),
			Phone:         strings.TrimSpace(input.Phone),
			StreetAddress: strings.TrimSpace(input.StreetAddress),
			Apartment:     strings.TrimSpace(input.Apartment),
			City:          strings.TrimSpace(input.City),
			State:         strings.TrimSpace(input.State),
			ZipCode:       strings.TrimSpace(input.ZipCode),
			IsDefault:     input.IsDefault,
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				address.IsDefault = true
			}
			if address.IsDefault {
				if err := tx.Model(&models.Address{}).Where("user_id = ?", userID).Update("is_default", false).Error; err != nil {
					return err
				}
			}
			return tx.Create(&address).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save address"})
			return
		}
		c.JSON(http.StatusCreated, address)
	}
}

// DELETE /user/addresses/:id
func DeleteAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := db.Where("id = ? AND user_id = ?", c.Param("id"), middleware.UserID(c)).Delete(&models.Address{})
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete address"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
	}
}
