package api

import (
	"context"       // Context for cache invalidation
	"encoding/json" // Raw payload decoding for partial updates
	"errors"        // Error matching for binding failures
	"io"            // Request body reading
	"math"          // Price precision checks
	"net/http"      // HTTP status codes
	"regexp"        // Phone format validation
	"strconv"       // Path parameter parsing
	"strings"       // Field name normalization

	"github.com/RbroH99/les-sha-app-api/internal/domain" // Importing domain models
	"github.com/RbroH99/les-sha-app-api/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Gin binding engine
	"github.com/go-playground/validator/v10" // Validation library behind gin binding
	"github.com/redis/go-redis/v9"           // Redis client
	"github.com/sirupsen/logrus"             // Logging library
	"gorm.io/gorm"                           // GORM ORM library
)

// phonePattern accepts an optional +country code, then 2-3-3 digit groups
// with flexible separators. Prefix match, like the upstream validator.
var phonePattern = regexp.MustCompile(`^(\+\d{1,3})?\s?\(?\d{2}\)?[\s.-]?\d{3}[\s.-]?\d{3}`)

// Register the custom phone rule on gin's validator engine
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
	}
}

// ProductTypeResponse is the wire shape of a product type
type ProductTypeResponse struct {
	ID   uint   `json:"id"`   // Type ID
	Name string `json:"name"` // Type name
}

// TagResponse is the wire shape of a tag
type TagResponse struct {
	ID   uint   `json:"id"`   // Tag ID
	Name string `json:"name"` // Tag name
}

// ResourceResponse is the wire shape of a resource
type ResourceResponse struct {
	ID    uint     `json:"id"`    // Resource ID
	Name  string   `json:"name"`  // Resource name
	Price *float64 `json:"price"` // Optional price
	Image *string  `json:"image"` // Stored image name, null when absent
}

// ProductSummaryResponse is the shape returned by the product list view
type ProductSummaryResponse struct {
	ID    uint    `json:"id"`    // Product ID
	Name  string  `json:"name"`  // Product name
	Price float64 `json:"price"` // Product price
}

// ProductDetailResponse is the shape returned by the product detail view
type ProductDetailResponse struct {
	ID          uint                  `json:"id"`          // Product ID
	Name        string                `json:"name"`        // Product name
	Price       float64               `json:"price"`       // Product price
	Description string                `json:"description"` // Product description
	Rating      *float64              `json:"rating"`      // Average rating, null with no ratings
	Types       []ProductTypeResponse `json:"types"`       // Associated product types
	Tags        []TagResponse         `json:"tags"`        // Associated tags
	Resources   []ResourceResponse    `json:"resources"`   // Associated resources
	Image       *string               `json:"image"`       // Stored image name, null when absent
}

// RatingResponse is the wire shape of a rating
type RatingResponse struct {
	ID      uint `json:"id"`      // Rating ID
	User    uint `json:"user"`    // Owning user ID
	Product uint `json:"product"` // Rated product ID
	Value   int  `json:"value"`   // Rating value
}

// UserResponse is the wire shape of a user profile (no password)
type UserResponse struct {
	Email string  `json:"email"` // Login email
	Name  string  `json:"name"`  // Display name
	Phone *string `json:"phone"` // Optional phone number
}

// serializeTypes maps product types to their response shape
func serializeTypes(types []domain.ProductType) []ProductTypeResponse {
	out := make([]ProductTypeResponse, len(types))
	for i, t := range types {
		out[i] = ProductTypeResponse{ID: t.ID, Name: t.Name}
	}
	return out
}

// serializeTags maps tags to their response shape
func serializeTags(tags []domain.Tag) []TagResponse {
	out := make([]TagResponse, len(tags))
	for i, t := range tags {
		out[i] = TagResponse{ID: t.ID, Name: t.Name}
	}
	return out
}

// serializeResources maps resources to their response shape
func serializeResources(resources []domain.Resource) []ResourceResponse {
	out := make([]ResourceResponse, len(resources))
	for i, r := range resources {
		out[i] = ResourceResponse{ID: r.ID, Name: r.Name, Price: r.Price, Image: r.Image}
	}
	return out
}

// serializeUser maps a user to its response shape
func serializeUser(u *domain.User) UserResponse {
	return UserResponse{Email: u.Email, Name: u.Name, Phone: u.Phone}
}

// productRating returns the average rating of a product, nil when unrated
func productRating(db *gorm.DB, productID uint) *float64 {
	var avg *float64
	// Floating point aggregate, matches the observable API behavior
	err := db.Model(&domain.Rating{}).Where("product_id = ?", productID).
		Select("AVG(value)").Scan(&avg).Error
	if err != nil {
		// The detail view still renders, the average just stays null
		logrus.WithField("product_id", productID).Warnf("failed to compute rating average: %v", err)
	}
	return avg
}

// linkedProductIDs returns the ids of every product joined to the given
// row of an association table. Used to find the cached product views a
// type, tag or resource write makes stale.
func linkedProductIDs(db *gorm.DB, table, column string, id uint) []uint {
	var ids []uint
	if err := db.Table(table).Where(column+" = ?", id).Pluck("product_id", &ids).Error; err != nil {
		logrus.WithField("table", table).Warnf("failed to collect linked products: %v", err)
	}
	return ids
}

// invalidateProducts drops the cached views of every listed product
func invalidateProducts(rdb *redis.Client, ids []uint) {
	ctx := context.Background() // Context for Redis operations
	for _, id := range ids {
		utils.InvalidateProduct(ctx, rdb, id)
	}
}

// serializeProductDetail builds the detail view of a preloaded product
func serializeProductDetail(db *gorm.DB, p *domain.Product) ProductDetailResponse {
	return ProductDetailResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Rating:      productRating(db, p.ID),
		Types:       serializeTypes(p.Types),
		Tags:        serializeTags(p.Tags),
		Resources:   serializeResources(p.Resources),
		Image:       p.Image,
	}
}

// validPrice reports whether v fits 5 total digits with 2 decimals
func validPrice(v float64) bool {
	if v < 0 || v > 999.99 {
		return false // Out of decimal(5,2) range
	}
	// No more than two fractional digits
	return math.Abs(v*100-math.Round(v*100)) < 1e-9
}

// idParam parses the numeric :id path parameter. A malformed id behaves
// like a missing row and answers 404.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return uint(id), true
}

// fieldError answers a 400 with a single field-level validation message
func fieldError(c *gin.Context, field, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{field: msg}})
}

// decodeBody reads the JSON request body into a key-to-raw-value map so
// update handlers can tell an absent field from an explicit null or empty
// value. Answers a 400 and returns false on malformed JSON.
func decodeBody(c *gin.Context) (map[string]json.RawMessage, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return nil, false
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return nil, false
	}
	return raw, true
}

// isNull reports whether a raw JSON value is the literal null
func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// bindingErrorMessage translates a validator tag into a readable message
func bindingErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "phone":
		return "Invalid phone number."
	case "min":
		return "Value is below the allowed minimum."
	case "max":
		return "Value exceeds the allowed maximum."
	default:
		return "Invalid value."
	}
}

// bindingErrors answers a 400 carrying one message per failed field
func bindingErrors(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := gin.H{}
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = bindingErrorMessage(fe)
		}
		c.JSON(http.StatusBadRequest, gin.H{"errors": fields})
		return
	}
	// Not a field problem, the body itself was malformed
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
}
