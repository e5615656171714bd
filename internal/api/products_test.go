package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RbroH99/les-sha-app-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createProduct(t *testing.T, e *testEnv, name string, price float64) domain.Product {
	t.Helper()
	p := domain.Product{Name: name, Price: price}
	require.NoError(t, e.db.Create(&p).Error)
	return p
}

func productURL(id uint) string {
	return fmt.Sprintf("/api/products/%d", id)
}

func TestListProductsSummaryOnly(t *testing.T) {
	e := newTestEnv(t)
	createProduct(t, e, "Bracelet", 12.50)
	createProduct(t, e, "Necklace", 99.99)

	w := e.request(t, http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp []map[string]any
	decode(t, w, &resp)
	require.Len(t, resp, 2)
	assert.Equal(t, "Bracelet", resp[0]["name"])
	assert.Equal(t, 12.50, resp[0]["price"])
	// The list view must not carry detail-only fields
	assert.NotContains(t, resp[0], "description")
	assert.NotContains(t, resp[0], "rating")
	assert.NotContains(t, resp[0], "types")
}

func TestGetProductDetail(t *testing.T) {
	e := newTestEnv(t)
	p := createProduct(t, e, "Bracelet", 12.50)

	w := e.request(t, http.MethodGet, productURL(p.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ProductDetailResponse
	decode(t, w, &resp)
	assert.Equal(t, p.ID, resp.ID)
	assert.Equal(t, "Bracelet", resp.Name)
	assert.Nil(t, resp.Rating) // No ratings yet
	assert.Empty(t, resp.Types)
	assert.Nil(t, resp.Image)
}

func TestGetProductNotFound(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodGet, "/api/products/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.request(t, http.MethodGet, "/api/products/abc", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductRatingAverage(t *testing.T) {
	e := newTestEnv(t)
	p := createProduct(t, e, "Bracelet", 12.50)
	u1 := e.createUser(t, "user1@example.com", false)
	u2 := e.createUser(t, "user2@example.com", false)
	require.NoError(t, e.db.Create(&domain.Rating{UserID: u1.ID, ProductID: p.ID, Value: 2}).Error)
	require.NoError(t, e.db.Create(&domain.Rating{UserID: u2.ID, ProductID: p.ID, Value: 5}).Error)

	w := e.request(t, http.MethodGet, productURL(p.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ProductDetailResponse
	decode(t, w, &resp)
	require.NotNil(t, resp.Rating)
	assert.Equal(t, 3.5, *resp.Rating)
}

func TestProductWritePermissions(t *testing.T) {
	e := newTestEnv(t)
	p := createProduct(t, e, "Bracelet", 12.50)
	user := e.createUser(t, "user@example.com", false)
	userToken := e.tokenFor(t, user.ID)
	payload := map[string]any{"name": "New", "price": 10.0}

	// Anonymous reads pass, anonymous writes answer 401
	assert.Equal(t, http.StatusOK, e.request(t, http.MethodGet, "/api/products", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.request(t, http.MethodPost, "/api/products", payload, "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.request(t, http.MethodPut, productURL(p.ID), payload, "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.request(t, http.MethodDelete, productURL(p.ID), nil, "").Code)

	// Authenticated non-staff writes answer 403
	assert.Equal(t, http.StatusForbidden, e.request(t, http.MethodPost, "/api/products", payload, userToken).Code)
	assert.Equal(t, http.StatusForbidden, e.request(t, http.MethodPatch, productURL(p.ID), payload, userToken).Code)
	assert.Equal(t, http.StatusForbidden, e.request(t, http.MethodDelete, productURL(p.ID), nil, userToken).Code)

	// Nothing was changed by the denied writes
	var count int64
	e.db.Model(&domain.Product{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestStaffCreateProduct(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)

	payload := map[string]any{
		"name":        "Sample product",
		"price":       350.0,
		"description": "Sample description",
	}
	w := e.request(t, http.MethodPost, "/api/products", payload, token)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp ProductDetailResponse
	decode(t, w, &resp)
	assert.Equal(t, "Sample product", resp.Name)
	assert.Equal(t, 350.0, resp.Price)
	assert.Equal(t, "Sample description", resp.Description)
}

func TestCreateProductPriceValidation(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)

	for _, price := range []float64{1000.00, -1, 12.345} {
		w := e.request(t, http.MethodPost, "/api/products", map[string]any{
			"name":  "Bad price",
			"price": price,
		}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, "price %v", price)
	}

	// Boundary value is accepted
	w := e.request(t, http.MethodPost, "/api/products", map[string]any{
		"name":  "Max price",
		"price": 999.99,
	}, token)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateProductZeroPrice(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)

	// Zero is inside the valid price range
	w := e.request(t, http.MethodPost, "/api/products", map[string]any{
		"name":  "Freebie",
		"price": 0,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp ProductDetailResponse
	decode(t, w, &resp)
	assert.Equal(t, 0.0, resp.Price)

	// An explicit null price is still missing
	w = e.request(t, http.MethodPost, "/api/products", map[string]any{
		"name":  "No price",
		"price": nil,
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProductMissingFields(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)

	w := e.request(t, http.MethodPost, "/api/products", map[string]any{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNestedTypesGetOrCreate(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)
	p := createProduct(t, e, "Bracelet", 12.50)

	w := e.request(t, http.MethodPatch, productURL(p.ID), map[string]any{
		"types": []map[string]any{{"name": "Bracelet"}},
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	var typeCount int64
	e.db.Model(&domain.ProductType{}).Where("name = ?", "Bracelet").Count(&typeCount)
	assert.EqualValues(t, 1, typeCount)

	// Re-submitting the same name is idempotent
	w = e.request(t, http.MethodPatch, productURL(p.ID), map[string]any{
		"types": []map[string]any{{"name": "Bracelet"}},
	}, token)
	require.Equal(t, http.StatusOK, w.Code)
	e.db.Model(&domain.ProductType{}).Where("name = ?", "Bracelet").Count(&typeCount)
	assert.EqualValues(t, 1, typeCount)

	var resp ProductDetailResponse
	decode(t, w, &resp)
	require.Len(t, resp.Types, 1)
	assert.Equal(t, "Bracelet", resp.Types[0].Name)
}

func TestUpdateAssignType(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)
	p := createProduct(t, e, "Bracelet", 12.50)
	bracelet := domain.ProductType{Name: "Bracelet"}
	require.NoError(t, e.db.Create(&bracelet).Error)
	require.NoError(t, e.db.Model(&p).Association("Types").Append(&bracelet))

	w := e.request(t, http.MethodPatch, productURL(p.ID), map[string]any{
		"types": []map[string]any{{"name": "Necklace"}},
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ProductDetailResponse
	decode(t, w, &resp)
	require.Len(t, resp.Types, 1)
	assert.Equal(t, "Necklace", resp.Types[0].Name) // The present field replaced the set
}

func TestTagsClearVersusOmit(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)
	p := createProduct(t, e, "Bracelet", 12.50)
	tag := domain.Tag{Name: "Playa"}
	require.NoError(t, e.db.Create(&tag).Error)
	require.NoError(t, e.db.Model(&p).Association("Tags").Append(&tag))

	// Omitting tags leaves the association untouched
	w := e.request(t, http.MethodPatch, productURL(p.ID), map[string]any{"name": "Renamed"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, e.db.Model(&p).Association("Tags").Count())

	// An explicit empty list clears every association
	w = e.request(t, http.MethodPatch, productURL(p.ID), map[string]any{"tags": []any{}}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, e.db.Model(&p).Association("Tags").Count())

	// The tag row itself survives
	var tagCount int64
	e.db.Model(&domain.Tag{}).Count(&tagCount)
	assert.EqualValues(t, 1, tagCount)
}

func TestUpdateResourcesAssociation(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)
	p := createProduct(t, e, "Bracelet", 12.50)
	r1 := domain.Resource{Name: "Fimo"}
	r2 := domain.Resource{Name: "Pearl"}
	require.NoError(t, e.db.Create(&r1).Error)
	require.NoError(t, e.db.Create(&r2).Error)
	require.NoError(t, e.db.Model(&p).Association("Resources").Append(&r1))

	w := e.request(t, http.MethodPatch, productURL(p.ID), map[string]any{"resources": []uint{r2.ID}}, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ProductDetailResponse
	decode(t, w, &resp)
	require.Len(t, resp.Resources, 1)
	assert.Equal(t, "Pearl", resp.Resources[0].Name)

	// Unknown ids fail the whole write
	w = e.request(t, http.MethodPatch, productURL(p.ID), map[string]any{"resources": []uint{999}}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// An explicit empty list clears all associations
	w = e.request(t, http.MethodPatch, productURL(p.ID), map[string]any{"resources": []uint{}}, token)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Empty(t, resp.Resources)
}

func TestFullUpdateRequiresFields(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)
	p := createProduct(t, e, "Bracelet", 12.50)

	// PUT without price is incomplete
	w := e.request(t, http.MethodPut, productURL(p.ID), map[string]any{"name": "Renamed"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.request(t, http.MethodPut, productURL(p.ID), map[string]any{
		"name":        "Renamed",
		"price":       20.0,
		"description": "Updated",
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ProductDetailResponse
	decode(t, w, &resp)
	assert.Equal(t, "Renamed", resp.Name)
	assert.Equal(t, 20.0, resp.Price)
}

func TestDeleteProduct(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)
	p := createProduct(t, e, "Bracelet", 12.50)
	user := e.createUser(t, "user@example.com", false)
	require.NoError(t, e.db.Create(&domain.Rating{UserID: user.ID, ProductID: p.ID, Value: 4}).Error)

	w := e.request(t, http.MethodDelete, productURL(p.ID), nil, token)
	require.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	e.db.Model(&domain.Product{}).Count(&count)
	assert.EqualValues(t, 0, count)
	// Dependent ratings went with the product
	e.db.Model(&domain.Rating{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestUploadProductImage(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)
	p := createProduct(t, e, "Bracelet", 12.50)

	w := e.upload(t, productURL(p.ID)+"/upload-image", pngBytes(), "photo.png", token)
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded domain.Product
	require.NoError(t, e.db.First(&reloaded, p.ID).Error)
	require.NotNil(t, reloaded.Image)
	// The stored file exists under the products namespace
	assert.True(t, strings.HasPrefix(*reloaded.Image, "products/"))
	_, err := os.Stat(filepath.Join(e.uploadDir, *reloaded.Image))
	assert.NoError(t, err)
}

func TestUploadProductImageRejectsNonImage(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)
	p := createProduct(t, e, "Bracelet", 12.50)

	w := e.upload(t, productURL(p.ID)+"/upload-image", []byte("just some text"), "notes.txt", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var reloaded domain.Product
	require.NoError(t, e.db.First(&reloaded, p.ID).Error)
	assert.Nil(t, reloaded.Image)
}

func TestDeleteProductRemovesImageFile(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)
	p := createProduct(t, e, "Bracelet", 12.50)

	w := e.upload(t, productURL(p.ID)+"/upload-image", pngBytes(), "photo.png", token)
	require.Equal(t, http.StatusOK, w.Code)
	var reloaded domain.Product
	require.NoError(t, e.db.First(&reloaded, p.ID).Error)
	require.NotNil(t, reloaded.Image)
	imagePath := filepath.Join(e.uploadDir, *reloaded.Image)

	w = e.request(t, http.MethodDelete, productURL(p.ID), nil, token)
	require.Equal(t, http.StatusNoContent, w.Code)
	// The stored file must not exist afterward
	_, err := os.Stat(imagePath)
	assert.True(t, os.IsNotExist(err))
}

func TestPatchImageNullRemovesFile(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)
	p := createProduct(t, e, "Bracelet", 12.50)

	w := e.upload(t, productURL(p.ID)+"/upload-image", pngBytes(), "photo.png", token)
	require.Equal(t, http.StatusOK, w.Code)
	var reloaded domain.Product
	require.NoError(t, e.db.First(&reloaded, p.ID).Error)
	require.NotNil(t, reloaded.Image)
	imagePath := filepath.Join(e.uploadDir, *reloaded.Image)

	w = e.request(t, http.MethodPatch, productURL(p.ID), map[string]any{"image": nil}, token)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, e.db.First(&reloaded, p.ID).Error)
	assert.Nil(t, reloaded.Image)
	_, err := os.Stat(imagePath)
	assert.True(t, os.IsNotExist(err))
}

func TestProductDetailSurvivesRatingQueryFailure(t *testing.T) {
	e := newTestEnv(t)
	p := createProduct(t, e, "Bracelet", 12.50)
	// Break the aggregate query underneath the detail view
	require.NoError(t, e.db.Exec("DROP TABLE ratings").Error)

	w := e.request(t, http.MethodGet, productURL(p.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp ProductDetailResponse
	decode(t, w, &resp)
	assert.Nil(t, resp.Rating)
}

func TestTrailingSlashRedirects(t *testing.T) {
	e := newTestEnv(t)
	staff := e.createUser(t, "staff@example.com", true)
	token := e.tokenFor(t, staff.ID)

	// GET answers a permanent redirect to the canonical path
	w := e.request(t, http.MethodGet, "/api/products/", nil, "")
	require.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/api/products", w.Header().Get("Location"))

	// Other methods keep their verb and body through a 307
	w = e.request(t, http.MethodPost, "/api/products/", map[string]any{"name": "Bracelet", "price": 12.5}, token)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
}
