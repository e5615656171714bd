package api

import (
	"net/http" // HTTP status codes

	"github.com/RbroH99/les-sha-app-api/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for tag writes
type tagRequest struct {
	Name string `json:"name" binding:"required,max=45"` // Tag name, required, max 45 chars
}

// Sparse request struct for partial tag updates
type tagPatchRequest struct {
	Name *string `json:"name" binding:"omitempty,max=45"` // New tag name
}

// ListTagsHandler returns all tags
func ListTagsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tags []domain.Tag
		if err := db.Order("id").Find(&tags).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
			return
		}
		c.JSON(http.StatusOK, serializeTags(tags))
	}
}

// GetTagHandler returns one tag by id
func GetTagHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var t domain.Tag
		if err := db.First(&t, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusOK, TagResponse{ID: t.ID, Name: t.Name})
	}
}

// CreateTagHandler creates a tag
func CreateTagHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tagRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingErrors(c, err)
			return
		}
		t := domain.Tag{Name: req.Name}
		if err := db.Create(&t).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
			return
		}
		c.JSON(http.StatusCreated, TagResponse{ID: t.ID, Name: t.Name})
	}
}

// UpdateTagHandler updates a tag. PUT requires the name, PATCH leaves
// absent fields untouched.
func UpdateTagHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var t domain.Tag
		if err := db.First(&t, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		if c.Request.Method == http.MethodPatch {
			var req tagPatchRequest // Sparse bind for partial update
			if err := c.ShouldBindJSON(&req); err != nil {
				bindingErrors(c, err)
				return
			}
			if req.Name != nil {
				// A present name must not be blank
				if *req.Name == "" {
					fieldError(c, "name", "Enter a valid name.")
					return
				}
				t.Name = *req.Name
			}
		} else {
			var req tagRequest // Full update requires the name
			if err := c.ShouldBindJSON(&req); err != nil {
				bindingErrors(c, err)
				return
			}
			t.Name = req.Name
		}
		if err := db.Save(&t).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tag"})
			return
		}
		// Cached product details embed tag names, drop the stale ones
		invalidateProducts(rdb, linkedProductIDs(db, "product_tags", "tag_id", t.ID))
		c.JSON(http.StatusOK, TagResponse{ID: t.ID, Name: t.Name})
	}
}

// DeleteTagHandler deletes a tag along with its product links
func DeleteTagHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var t domain.Tag
		if err := db.First(&t, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		// Collect linked products before their join rows disappear
		linked := linkedProductIDs(db, "product_tags", "tag_id", t.ID)
		// Drop join rows together with the row itself
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("DELETE FROM product_tags WHERE tag_id = ?", t.ID).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(&t).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tag"})
			return
		}
		invalidateProducts(rdb, linked) // Drop stale cached views
		c.Status(http.StatusNoContent)
	}
}
