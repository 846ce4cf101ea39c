package productcontroller

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/freshcatch/seafood-api/database/dbtest"
	"github.com/freshcatch/seafood-api/middleware"
	"github.com/freshcatch/seafood-api/models"
	"github.com/freshcatch/seafood-api/storage"
)

type fixture struct {
	db     *gorm.DB
	router *gin.Engine
	root   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	root := t.TempDir()
	store, err := storage.NewLocalStore(root, "http://test")
	require.NoError(t, err)
	log := zap.NewNop()

	asSupplier := func(c *gin.Context) { c.Set(middleware.UserIDKey, "supplier-1") }

	r := gin.New()
	r.GET("/products", GetProducts(db))
	r.GET("/products/popular", GetPopularProducts(db))
	r.GET("/products/on-sale", GetOnSaleProducts(db))
	r.GET("/products/:id", GetProductByID(db))
	r.GET("/categories", GetAllCategories(db))
	r.GET("/categories/:id/products", GetCategoryProducts(db))
	r.POST("/user/products", asSupplier, CreateProduct(db, store, log))
	r.PUT("/user/products/:id", asSupplier, UpdateProduct(db, store, log))
	r.DELETE("/user/products/:id", DeleteProduct(db, log))
	r.POST("/user/categories", CreateCategory(db, store, log))
	r.GET("/admin/products/export-excel", ExportProductsToExcel(db))
	r.POST("/admin/products/import-excel", ImportProductsFromExcel(db, log))
	return &fixture{db: db, router: r, root: root}
}

func (f *fixture) seed(t *testing.T, p models.Product) models.Product {
	t.Helper()
	if p.Origin == "" {
		p.Origin = "Norway"
	}
	if p.Unit == "" {
		p.Unit = "lb"
	}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	w := f.do(httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func names(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files map[string][]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, namesList := range files {
		for _, name := range namesList {
			part, err := mw.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("fake image bytes"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	f := newFixture(t)
	f.seed(t, models.Product{Name: "Scallops", Description: "50% off this week", Price: dec("30.00"), Stock: 5})
	f.seed(t, models.Product{Name: "Tuna", Description: "500g steaks", Price: dec("22.00"), Stock: 5})
	f.seed(t, models.Product{Name: "Cod_Loin", Price: dec("12.00"), Stock: 5})

	var got []models.Product
	require.Equal(t, http.StatusOK, f.get(t, "/products?search=50%25", &got))
	assert.Equal(t, []string{"Scallops"}, names(got))

	require.Equal(t, http.StatusOK, f.get(t, "/products?search=_", &got))
	assert.Equal(t, []string{"Cod_Loin"}, names(got))

	require.Equal(t, http.StatusOK, f.get(t, "/products?search=%25", &got))
	assert.Equal(t, []string{"Scallops"}, names(got))
}

func TestGetProductsFilters(t *testing.T) {
	f := newFixture(t)
	salmon := f.seed(t, models.Product{Name: "Atlantic Salmon", Description: "Fresh fillet", Price: dec("25.99"), SoldCount: 3, Stock: 5})
	f.seed(t, models.Product{Name: "Tiger Shrimp", Origin: "Vietnam", Price: dec("24.99"), DiscountedPrice: dec("18.99"), SoldCount: 9, Stock: 5})
	f.seed(t, models.Product{Name: "King Crab", Origin: "Alaska", Price: dec("45.99"), Stock: 0})

	var got []models.Product
	require.Equal(t, http.StatusOK, f.get(t, "/products?search=SALMON", &got))
	assert.Equal(t, []string{"Atlantic Salmon"}, names(got))

	require.Equal(t, http.StatusOK, f.get(t, "/products?search=alaska", &got))
	assert.Equal(t, []string{"King Crab"}, names(got))

	require.Equal(t, http.StatusOK, f.get(t, "/products?on_sale=true", &got))
	assert.Equal(t, []string{"Tiger Shrimp"}, names(got))

	require.Equal(t, http.StatusOK, f.get(t, "/products?sort_by=price&order=asc", &got))
	assert.Equal(t, []string{"Tiger Shrimp", "Atlantic Salmon", "King Crab"}, names(got))

	require.Equal(t, http.StatusOK, f.get(t, "/products?min_price=20&max_price=30", &got))
	assert.Equal(t, []string{"Atlantic Salmon"}, names(got))

	require.Equal(t, http.StatusOK, f.get(t, "/products?sort_by=price&order=desc&limit=1", &got))
	assert.Equal(t, []string{"King Crab"}, names(got))

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/products?sort_by=drop_table", nil))
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/products?min_price=cheap", nil))

	require.Equal(t, http.StatusOK, f.get(t, "/products/popular", &got))
	assert.Equal(t, []string{"Tiger Shrimp", "Atlantic Salmon"}, names(got), "out of stock is not popular")

	require.Equal(t, http.StatusOK, f.get(t, "/products/on-sale", &got))
	assert.Equal(t, []string{"Tiger Shrimp"}, names(got))

	var one models.Product
	require.Equal(t, http.StatusOK, f.get(t, "/products/"+salmon.ID, &one))
	assert.Equal(t, "25.99", one.DiscountedPrice.StringFixed(2))
	assert.Equal(t, http.StatusNotFound, f.get(t, "/products/missing", nil))
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)

	req := multipartRequest(t, http.MethodPost, "/user/products", map[string]string{
		"name":          "Sea Bass",
		"origin":        "Greece",
		"unit":          "kg",
		"price":         "19.50",
		"stock":         "12",
		"category_name": "Fish",
	}, map[string][]string{"images": {"front.jpg", "side.png"}})

	w := f.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "supplier-1", created.SupplierID)
	assert.Equal(t, "19.50", created.DiscountedPrice.StringFixed(2), "starts at list price")
	require.Len(t, created.Images, 2)
	assert.True(t, created.Images[0].IsPrimary)
	assert.False(t, created.Images[1].IsPrimary)

	_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(created.Images[0].StoragePath)))
	assert.NoError(t, err, "image written to the store")

	var category models.Category
	require.NoError(t, f.db.First(&category, "id = ?", created.CategoryKey()).Error)
	assert.Equal(t, "Fish", category.Name)

	// the same category name is reused
	req = multipartRequest(t, http.MethodPost, "/user/products", map[string]string{
		"name": "Cod", "origin": "Iceland", "unit": "lb", "price": "9", "stock": "0", "category_name": "fish",
	}, map[string][]string{"images": {"cod.jpg"}})
	w = f.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var count int64
	f.db.Model(&models.Category{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)

	req := multipartRequest(t, http.MethodPost, "/user/products", map[string]string{
		"name": "", "origin": "", "unit": "ton", "price": "0", "stock": "-1",
	}, nil)
	w := f.do(req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for _, field := range []string{"name", "origin", "unit", "price", "stock", "category", "images"} {
		assert.Contains(t, resp.Fields, field)
	}
}

func TestProductFormValidate(t *testing.T) {
	valid := productForm{
		Name: "Cod", Origin: "Iceland", Unit: "lb", Price: "9.99", Stock: "3", CategoryID: "c1",
		Images: []*multipart.FileHeader{{Filename: "a.jpg"}},
	}
	assert.Empty(t, valid.validate())

	tests := []struct {
		name  string
		edit  func(*productForm)
		field string
	}{
		{"discount above price", func(f *productForm) { f.DiscountedPrice = "12" }, "discounted_price"},
		{"non image upload", func(f *productForm) { f.Images = []*multipart.FileHeader{{Filename: "notes.txt"}} }, "images"},
		{"stock not a number", func(f *productForm) { f.Stock = "many" }, "stock"},
		{"negative price", func(f *productForm) { f.Price = "-1" }, "price"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			form := valid
			tc.edit(&form)
			assert.Contains(t, form.validate(), tc.field)
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, models.Product{Name: "Tuna", Price: dec("30")})

	req := multipartRequest(t, http.MethodPut, "/user/products/"+p.ID, map[string]string{
		"discounted_price": "25", "stock": "7",
	}, map[string][]string{"images": {"tuna.webp"}})
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "25.00", updated.DiscountedPrice.StringFixed(2))
	assert.Equal(t, 7, updated.Stock)
	require.Len(t, updated.Images, 1)
	assert.True(t, updated.Images[0].IsPrimary)

	req = multipartRequest(t, http.MethodPut, "/user/products/"+p.ID, map[string]string{"discounted_price": "40"}, nil)
	assert.Equal(t, http.StatusBadRequest, f.do(req).Code)

	// a new list price alone ends the sale
	req = multipartRequest(t, http.MethodPut, "/user/products/"+p.ID, map[string]string{"price": "28"}, nil)
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "28.00", updated.DiscountedPrice.StringFixed(2))
}

func TestDeleteProductClearsCarts(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, models.Product{Name: "Oyster", Price: dec("2.50")})
	require.NoError(t, f.db.Create(&models.User{ID: "u1", Email: "u1@example.com"}).Error)
	require.NoError(t, f.db.Create(&models.CartItem{UserID: "u1", ProductID: p.ID, Quantity: 12}).Error)

	w := f.do(httptest.NewRequest(http.MethodDelete, "/user/products/"+p.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	f.db.Model(&models.CartItem{}).Count(&count)
	assert.Zero(t, count)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/products/"+p.ID, nil))
	assert.Equal(t, http.StatusNotFound, f.do(httptest.NewRequest(http.MethodDelete, "/user/products/"+p.ID, nil)).Code)
}

func TestCategories(t *testing.T) {
	f := newFixture(t)

	w := f.do(multipartRequest(t, http.MethodPost, "/user/categories", map[string]string{"name": "Shellfish", "icon": "🦐"}, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var parent models.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parent))

	w = f.do(multipartRequest(t, http.MethodPost, "/user/categories", map[string]string{"name": "Crab", "parent_id": parent.ID}, map[string][]string{"image": {"crab.png"}}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sub models.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.NotEmpty(t, sub.ImageURL)

	assert.Equal(t, http.StatusConflict, f.do(multipartRequest(t, http.MethodPost, "/user/categories", map[string]string{"name": "crab"}, nil)).Code)

	f.seed(t, models.Product{Name: "Snow Crab", Price: dec("40"), CategoryID: &sub.ID})

	var tree []models.Category
	require.Equal(t, http.StatusOK, f.get(t, "/categories", &tree))
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Subcategories, 1)
	assert.Equal(t, "Crab", tree[0].Subcategories[0].Name)

	var resp struct {
		Products []models.Product `json:"products"`
	}
	require.Equal(t, http.StatusOK, f.get(t, "/categories/"+parent.ID+"/products", &resp))
	assert.Equal(t, []string{"Snow Crab"}, names(resp.Products))
}

func TestExcelRoundTrip(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, models.Product{Name: "Mussels", Price: dec("8.00"), Stock: 4})

	w := f.do(httptest.NewRequest(http.MethodGet, "/admin/products/export-excel", nil))
	require.Equal(t, http.StatusOK, w.Code)
	exported := w.Body.Bytes()
	require.NotEmpty(t, exported)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "products.xlsx")
	require.NoError(t, err)
	_, err = part.Write(exported)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/admin/products/import-excel", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["updated_count"])
	assert.EqualValues(t, 0, resp["created_count"])

	var stored models.Product
	require.NoError(t, f.db.First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, 4, stored.Stock)
}

func TestImportRow(t *testing.T) {
	_, p, image, ok := importRow([]string{"", "Clams", "", "Italy", "kg", "12.5", "10", "3.0", "", "http://img/c.jpg"})
	require.True(t, ok)
	assert.Equal(t, "10.00", p.DiscountedPrice.StringFixed(2))
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, "http://img/c.jpg", image)

	for _, row := range [][]string{
		{"", "", "", "Italy", "kg", "12"},
		{"", "Clams", "", "Italy", "ton", "12"},
		{"", "Clams", "", "Italy", "kg", "free"},
		{"", "Clams", "", "Italy", "kg", "12", "13"},
	} {
		_, _, _, ok := importRow(row)
		assert.False(t, ok, "%v", row)
	}
}
