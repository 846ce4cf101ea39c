package productcontroller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/models"
)

// Spreadsheet columns, shared by import and export.
var excelHeaders = []string{
	"ID", "Name", "Description", "Origin", "Unit", "Price", "DiscountedPrice",
	"Stock", "CategoryID", "ImageURL", "SoldCount", "CreatedAt",
}

const (
	colID = iota
	colName
	colDescription
	colOrigin
	colUnit
	colPrice
	colDiscounted
	colStock
	colCategory
	colImage
)

// importRow parses one spreadsheet row. ok is false for rows to skip.
func importRow(cells []string) (id string, p models.Product, image string, ok bool) {
	get := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}

	price, err := decimal.NewFromString(get(colPrice))
	if err != nil || !price.IsPositive() {
		return "", p, "", false
	}
	discounted := price
	if v := get(colDiscounted); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || !d.IsPositive() || d.GreaterThan(price) {
			return "", p, "", false
		}
		discounted = d
	}
	stock := 0
	if v := get(colStock); v != "" {
		// spreadsheets often store integers as floats
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return "", p, "", false
		}
		stock = int(f)
	}

	p = models.Product{
		Name:            get(colName),
		Description:     get(colDescription),
		Origin:          get(colOrigin),
		Unit:            get(colUnit),
		Price:           price.Round(2),
		DiscountedPrice: discounted.Round(2),
		Stock:           stock,
	}
	if v := get(colCategory); v != "" {
		p.CategoryID = &v
	}
	if p.Name == "" || p.Origin == "" || !models.ValidUnit(p.Unit) {
		return "", p, "", false
	}
	return get(colID), p, get(colImage), true
}

// POST /admin/products/import-excel updates rows with a known ID and creates
// the rest.
func ImportProductsFromExcel(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, excelFileHeader.Size)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file"})
			return
		}
		if len(xlFile.Sheets) == 0 || xlFile.Sheets[0].MaxRow < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is empty or missing header row"})
			return
		}

		sheet := xlFile.Sheets[0]
		createdCount, updatedCount, skippedCount := 0, 0, 0

		for i := 1; i < sheet.MaxRow; i++ {
			row := sheet.Rows[i]
			if row == nil {
				skippedCount++
				continue
			}
			cells := make([]string, len(row.Cells))
			for j, cell := range row.Cells {
				cells[j] = cell.String()
			}

			id, product, image, ok := importRow(cells)
			if !ok {
				skippedCount++
				continue
			}

			created, err := upsertProduct(db, id, product, image)
			switch {
			case err != nil:
				log.Warn("excel row skipped", zap.Int("row", i+1), zap.Error(err))
				skippedCount++
			case created:
				createdCount++
			default:
				updatedCount++
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": createdCount,
			"updated_count": updatedCount,
			"skipped_count": skippedCount,
		})
	}
}

func upsertProduct(db *gorm.DB, id string, product models.Product, image string) (created bool, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		if product.CategoryID != nil {
			var count int64
			if err := tx.Model(&models.Category{}).Where("id = ?", product.CategoryID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return errUnknownCategory
			}
		}

		if id != "" {
			var existing models.Product
			err := tx.Select("id").First(&existing, "id = ?", id).Error
			if err == nil {
				return tx.Model(&existing).Updates(map[string]any{
					"name":             product.Name,
					"description":      product.Description,
					"origin":           product.Origin,
					"unit":             product.Unit,
					"price":            product.Price,
					"discounted_price": product.DiscountedPrice,
					"stock":            product.Stock,
					"category_id":      product.CategoryID,
				}).Error
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		if image != "" {
			product.Images = []models.ProductImage{{URL: image, IsPrimary: true}}
		}
		created = true
		return tx.Create(&product).Error
	})
	return created, err
}
