package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes

	"github.com/RbroH99/les-sha-app-api/internal/domain" // Importing domain models
	"github.com/RbroH99/les-sha-app-api/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for rating creation. The rating user is always the
// authenticated caller, never part of the payload.
type createRatingRequest struct {
	Product uint `json:"product" binding:"required"`           // Rated product id
	Value   int  `json:"value" binding:"required,min=1,max=5"` // Rating value, 1 to 5
}

// Request struct for rating updates, only the value may change
type updateRatingRequest struct {
	Value int `json:"value" binding:"required,min=1,max=5"` // New rating value, 1 to 5
}

// serializeRating maps a rating to its response shape
func serializeRating(r *domain.Rating) RatingResponse {
	return RatingResponse{ID: r.ID, User: r.UserID, Product: r.ProductID, Value: r.Value}
}

// ListRatingsHandler returns all ratings
func ListRatingsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ratings []domain.Rating
		if err := db.Order("id").Find(&ratings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ratings"})
			return
		}
		resp := make([]RatingResponse, len(ratings))
		for i := range ratings {
			resp[i] = serializeRating(&ratings[i])
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetRatingHandler returns one rating by id
func GetRatingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var r domain.Rating
		if err := db.First(&r, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusOK, serializeRating(&r))
	}
}

// CreateRatingHandler creates a rating by the authenticated caller. The
// (user, product) pair is unique; when two callers race on the same pair,
// the storage constraint lets exactly one through.
func CreateRatingHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.MustGet("userID").(uint) // Writes are policy-gated to authenticated callers
		var req createRatingRequest          // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingErrors(c, err)
			return
		}
		// The rated product must exist
		var product domain.Product
		if err := db.First(&product, req.Product).Error; err != nil {
			fieldError(c, "product", "Invalid product id.")
			return
		}
		// Friendly duplicate check, the composite constraint still
		// decides under concurrency
		var existing domain.Rating
		if err := db.Where("user_id = ? AND product_id = ?", userID, req.Product).First(&existing).Error; err == nil {
			fieldError(c, "non_field_errors", "The fields user, product must make a unique set.")
			return
		}
		r := domain.Rating{UserID: userID, ProductID: req.Product, Value: req.Value}
		if err := db.Create(&r).Error; err != nil {
			// Lost the race against a concurrent duplicate create
			fieldError(c, "non_field_errors", "The fields user, product must make a unique set.")
			return
		}
		// A new rating changes the product's computed average
		utils.InvalidateProduct(context.Background(), rdb, r.ProductID)
		c.JSON(http.StatusCreated, serializeRating(&r))
	}
}

// UpdateRatingHandler changes a rating's value. The rated product and the
// owning user are immutable. Ratings are never deleted through the API.
func UpdateRatingHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var r domain.Rating
		if err := db.First(&r, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		var req updateRatingRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingErrors(c, err)
			return
		}
		r.Value = req.Value
		if err := db.Save(&r).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update rating"})
			return
		}
		// The value change moves the product's computed average
		utils.InvalidateProduct(context.Background(), rdb, r.ProductID)
		c.JSON(http.StatusOK, serializeRating(&r))
	}
}
