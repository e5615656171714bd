package api

import (
	"encoding/json" // Raw field decoding
	"errors"        // Sentinel error matching
	"net/http"      // HTTP status codes

	"github.com/RbroH99/les-sha-app-api/internal/domain"  // Importing domain models
	"github.com/RbroH99/les-sha-app-api/internal/storage" // Image file storage

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for resource creation
type resourceRequest struct {
	Name  string   `json:"name" binding:"required,max=255"` // Resource name, required
	Price *float64 `json:"price"`                           // Optional price
}

// ListResourcesHandler returns all resources
func ListResourcesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var resources []domain.Resource
		if err := db.Order("id").Find(&resources).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch resources"})
			return
		}
		c.JSON(http.StatusOK, serializeResources(resources))
	}
}

// GetResourceHandler returns one resource by id
func GetResourceHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var r domain.Resource
		if err := db.First(&r, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusOK, ResourceResponse{ID: r.ID, Name: r.Name, Price: r.Price, Image: r.Image})
	}
}

// CreateResourceHandler creates a resource
func CreateResourceHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resourceRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingErrors(c, err)
			return
		}
		// Optional price must still fit decimal(5,2)
		if req.Price != nil && !validPrice(*req.Price) {
			fieldError(c, "price", "Ensure the price fits 5 digits with 2 decimal places.")
			return
		}
		r := domain.Resource{Name: req.Name, Price: req.Price}
		if err := db.Create(&r).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create resource"})
			return
		}
		c.JSON(http.StatusCreated, ResourceResponse{ID: r.ID, Name: r.Name, Price: r.Price, Image: r.Image})
	}
}

// UpdateResourceHandler updates a resource. PUT requires the name; PATCH
// leaves absent fields untouched. An explicit null price clears it, and an
// explicit null image removes the stored file.
func UpdateResourceHandler(db *gorm.DB, rdb *redis.Client, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var r domain.Resource
		if err := db.First(&r, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		raw, ok := decodeBody(c) // Raw keys so absent and null are distinct
		if !ok {
			return
		}
		if c.Request.Method == http.MethodPut {
			if _, present := raw["name"]; !present {
				fieldError(c, "name", "This field is required.")
				return
			}
		}
		var oldImage string // Stored image to remove after a successful save
		if v, present := raw["name"]; present {
			var name string
			if err := json.Unmarshal(v, &name); err != nil || name == "" || len(name) > 255 {
				fieldError(c, "name", "Enter a valid name.")
				return
			}
			r.Name = name
		}
		if v, present := raw["price"]; present {
			if isNull(v) {
				r.Price = nil // Explicit null clears the price
			} else {
				var price float64
				if err := json.Unmarshal(v, &price); err != nil || !validPrice(price) {
					fieldError(c, "price", "Ensure the price fits 5 digits with 2 decimal places.")
					return
				}
				r.Price = &price
			}
		}
		if v, present := raw["image"]; present {
			if !isNull(v) {
				// Binary data goes through the upload-image action
				fieldError(c, "image", "Use the upload-image action to set an image.")
				return
			}
			if r.Image != nil {
				oldImage = *r.Image // Remove the file once the row is saved
			}
			r.Image = nil
		}
		if err := db.Save(&r).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update resource"})
			return
		}
		storage.RemoveImage(uploadDir, oldImage) // Best effort, logged on failure
		// Cached product details embed resources, drop the stale ones
		invalidateProducts(rdb, linkedProductIDs(db, "product_resources", "resource_id", r.ID))
		c.JSON(http.StatusOK, ResourceResponse{ID: r.ID, Name: r.Name, Price: r.Price, Image: r.Image})
	}
}

// DeleteResourceHandler deletes a resource, its product links and its
// stored image file
func DeleteResourceHandler(db *gorm.DB, rdb *redis.Client, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var r domain.Resource
		if err := db.First(&r, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		// Collect linked products before their join rows disappear
		linked := linkedProductIDs(db, "product_resources", "resource_id", r.ID)
		// Drop join rows together with the row itself
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("DELETE FROM product_resources WHERE resource_id = ?", r.ID).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(&r).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete resource"})
			return
		}
		// File removal is a post-delete side effect, never fatal
		if r.Image != nil {
			storage.RemoveImage(uploadDir, *r.Image)
		}
		invalidateProducts(rdb, linked) // Drop stale cached views
		c.Status(http.StatusNoContent)
	}
}

// UploadResourceImageHandler stores a multipart image for a resource and
// replaces any previously stored file
func UploadResourceImageHandler(db *gorm.DB, rdb *redis.Client, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var r domain.Resource
		if err := db.First(&r, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		fh, err := c.FormFile("image") // Multipart field holding the image
		if err != nil {
			fieldError(c, "image", "No image file provided.")
			return
		}
		name, err := storage.SaveImage(uploadDir, "resources", fh)
		if err != nil {
			if errors.Is(err, storage.ErrNotImage) {
				fieldError(c, "image", "Upload a valid image.")
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
			return
		}
		oldImage := r.Image // Previous file gets removed after the row update
		r.Image = &name
		if err := db.Save(&r).Error; err != nil {
			storage.RemoveImage(uploadDir, name) // Do not leak the new file
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update resource"})
			return
		}
		if oldImage != nil {
			storage.RemoveImage(uploadDir, *oldImage)
		}
		// Cached product details embed resource images, drop the stale ones
		invalidateProducts(rdb, linkedProductIDs(db, "product_resources", "resource_id", r.ID))
		c.JSON(http.StatusOK, gin.H{"id": r.ID, "image": r.Image})
	}
}
