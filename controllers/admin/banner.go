package adminController

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/models"
	"github.com/freshcatch/seafood-api/storage"
)

const bannerFolder = "banners"

// UploadBanner stores the image and adds it to the home carousel.
func UploadBanner(db *gorm.DB, store storage.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, fileHeader, err := c.Request.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No image uploaded"})
			return
		}
		defer file.Close()

		if !storage.IsImage(fileHeader.Filename) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Image must be jpg, png, gif or webp"})
			return
		}
		sortOrder, _ := strconv.Atoi(c.PostForm("sort_order"))

		obj, err := store.Save(c.Request.Context(), bannerFolder, fileHeader.Filename, file)
		if err != nil {
			log.Error("banner upload failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
			return
		}

		banner := models.Banner{
			Title:       strings.TrimSpace(c.PostForm("title")),
			LinkURL:     strings.TrimSpace(c.PostForm("link_url")),
			ImageURL:    obj.URL,
			StoragePath: obj.Path,
			SortOrder:   sortOrder,
		}
		if err := db.Create(&banner).Error; err != nil {
			_ = store.Delete(c.Request.Context(), obj.Path)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "DB save failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "Banner uploaded", "data": banner})
	}
}

// GetBanners - List banners in carousel order
func GetBanners(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var banners []models.Banner
		if err := db.Order("sort_order ASC, created_at DESC").Find(&banners).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get banners"})
			return
		}
		c.JSON(http.StatusOK, banners)
	}
}

// DeleteBanner removes the record and then the stored image.
func DeleteBanner(db *gorm.DB, store storage.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var banner models.Banner
		if err := db.First(&banner, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Banner not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		if err := db.Delete(&banner).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete banner"})
			return
		}
		if banner.StoragePath != "" {
			if err := store.Delete(c.Request.Context(), banner.StoragePath); err != nil {
				log.Warn("banner image not removed", zap.String("path", banner.StoragePath), zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "Banner deleted"})
	}
}
