package api

import (
	"net/http" // HTTP status codes

	"github.com/RbroH99/les-sha-app-api/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for product type writes
type typeRequest struct {
	Name string `json:"name" binding:"required,max=255"` // Type name, required
}

// Sparse request struct for partial type updates
type typePatchRequest struct {
	Name *string `json:"name" binding:"omitempty,max=255"` // New type name
}

// ListTypesHandler returns all product types
func ListTypesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var types []domain.ProductType
		if err := db.Order("id").Find(&types).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product types"})
			return
		}
		c.JSON(http.StatusOK, serializeTypes(types))
	}
}

// GetTypeHandler returns one product type by id
func GetTypeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var t domain.ProductType
		if err := db.First(&t, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusOK, ProductTypeResponse{ID: t.ID, Name: t.Name})
	}
}

// CreateTypeHandler creates a product type
func CreateTypeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req typeRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingErrors(c, err)
			return
		}
		t := domain.ProductType{Name: req.Name}
		if err := db.Create(&t).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product type"})
			return
		}
		c.JSON(http.StatusCreated, ProductTypeResponse{ID: t.ID, Name: t.Name})
	}
}

// UpdateTypeHandler updates a product type. PUT requires the name, PATCH
// leaves absent fields untouched.
func UpdateTypeHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var t domain.ProductType
		if err := db.First(&t, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		if c.Request.Method == http.MethodPatch {
			var req typePatchRequest // Sparse bind for partial update
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
			var req typeRequest // Full update requires the name
			if err := c.ShouldBindJSON(&req); err != nil {
				bindingErrors(c, err)
				return
			}
			t.Name = req.Name
		}
		if err := db.Save(&t).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product type"})
			return
		}
		// Cached product details embed type names, drop the stale ones
		invalidateProducts(rdb, linkedProductIDs(db, "product_types_assoc", "product_type_id", t.ID))
		c.JSON(http.StatusOK, ProductTypeResponse{ID: t.ID, Name: t.Name})
	}
}

// DeleteTypeHandler deletes a product type along with its product links
func DeleteTypeHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var t domain.ProductType
		if err := db.First(&t, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		// Collect linked products before their join rows disappear
		linked := linkedProductIDs(db, "product_types_assoc", "product_type_id", t.ID)
		// Drop join rows together with the row itself
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("DELETE FROM product_types_assoc WHERE product_type_id = ?", t.ID).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(&t).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product type"})
			return
		}
		invalidateProducts(rdb, linked) // Drop stale cached views
		c.Status(http.StatusNoContent)
	}
}
