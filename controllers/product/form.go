package productcontroller

import (
	"context"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freshcatch/seafood-api/models"
	"github.com/freshcatch/seafood-api/storage"
)

const productFolder = "products"

// productForm is the multipart form suppliers post to create a product.
type productForm struct {
	Name            string
	Description     string
	Origin          string
	Unit            string
	Price           string
	DiscountedPrice string
	Stock           string
	CategoryID      string
	CategoryName    string
	Images          []*multipart.FileHeader
}

// validate checks the form and returns one message per bad field.
func (f productForm) validate() map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(f.Name) == "" {
		errs["name"] = "Product name is required"
	}
	if strings.TrimSpace(f.Origin) == "" {
		errs["origin"] = "Origin is required"
	}
	if !models.ValidUnit(f.Unit) {
		errs["unit"] = "Unit must be one of " + strings.Join(models.Units, ", ")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil || !price.IsPositive() {
		errs["price"] = "Price must be greater than 0"
	}
	if f.DiscountedPrice != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(f.DiscountedPrice))
		switch {
		case err != nil || !d.IsPositive():
			errs["discounted_price"] = "Discounted price must be greater than 0"
		case errs["price"] == "" && d.GreaterThan(price):
			errs["discounted_price"] = "Discounted price cannot exceed price"
		}
	}

	if stock, err := strconv.Atoi(strings.TrimSpace(f.Stock)); err != nil || stock < 0 {
		errs["stock"] = "Stock must be 0 or more"
	}
	if f.CategoryID == "" && strings.TrimSpace(f.CategoryName) == "" {
		errs["category"] = "Category is required"
	}
	if len(f.Images) == 0 {
		errs["images"] = "At least one image is required"
	}
	for _, img := range f.Images {
		if !storage.IsImage(img.Filename) {
			errs["images"] = fmt.Sprintf("%s is not an image", img.Filename)
			break
		}
	}
	return errs
}

// saveImages stores the uploads in order. The first one becomes the primary
// image. On failure anything already stored is removed again.
func saveImages(ctx context.Context, store storage.Store, log *zap.Logger, files []*multipart.FileHeader, startOrder int, primaryFirst bool) ([]models.ProductImage, error) {
	images := make([]models.ProductImage, 0, len(files))
	for i, fh := range files {
		obj, err := saveOne(ctx, store, fh)
		if err != nil {
			removeImages(ctx, store, log, images)
			return nil, err
		}
		images = append(images, models.ProductImage{
			StoragePath: obj.Path,
			URL:         obj.URL,
			IsPrimary:   primaryFirst && i == 0,
			SortOrder:   startOrder + i,
		})
	}
	return images, nil
}

func saveOne(ctx context.Context, store storage.Store, fh *multipart.FileHeader) (storage.Object, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.Object{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return store.Save(ctx, productFolder, fh.Filename, f)
}

func removeImages(ctx context.Context, store storage.Store, log *zap.Logger, images []models.ProductImage) {
	for _, img := range images {
		if img.StoragePath == "" {
			continue
		}
		if err := store.Delete(ctx, img.StoragePath); err != nil {
			log.Warn("image cleanup failed", zap.String("path", img.StoragePath), zap.Error(err))
		}
	}
}
