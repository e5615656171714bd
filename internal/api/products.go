package api

import (
	"context"       // Context for Redis operations
	"encoding/json" // Raw field decoding
	"errors"        // Sentinel error matching
	"net/http"      // HTTP status codes
	"time"          // Cache TTL

	"github.com/RbroH99/les-sha-app-api/internal/domain"  // Importing domain models
	"github.com/RbroH99/les-sha-app-api/internal/storage" // Image file storage
	"github.com/RbroH99/les-sha-app-api/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
	"gorm.io/gorm/clause"          // Association-aware deletes
)

// cacheTTL bounds how stale a cached product view may get
const cacheTTL = 60 * time.Second

// errUnknownResource marks a resource id that matched no row
var errUnknownResource = errors.New("unknown resource id")

// nameRef is a nested type/tag reference addressed by its natural key
type nameRef struct {
	Name string `json:"name"` // Natural key, created on first use
}

// Request struct for product creation
type createProductRequest struct {
	Name        string    `json:"name" binding:"required,max=255"` // Product name, required
	Price       *float64  `json:"price" binding:"required"`        // Product price, pointer so zero is a valid value
	Description string    `json:"description"`                     // Free-form description
	Types       []nameRef `json:"types"`                           // Nested types, get-or-create by name
	Tags        []nameRef `json:"tags"`                            // Nested tags, get-or-create by name
	Resources   []uint    `json:"resources"`                       // Existing resource ids to associate
}

// resolveTypes finds each referenced type by name, creating the missing
// ones. Runs inside the parent write transaction so a duplicate name
// cannot be created twice by concurrent requests.
func resolveTypes(tx *gorm.DB, refs []nameRef) ([]domain.ProductType, error) {
	out := make([]domain.ProductType, 0, len(refs))
	for _, ref := range refs {
		var t domain.ProductType
		err := tx.Where("name = ?", ref.Name).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			t = domain.ProductType{Name: ref.Name} // Absent, insert it
			err = tx.Create(&t).Error
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// resolveTags finds each referenced tag by name, creating the missing ones
func resolveTags(tx *gorm.DB, refs []nameRef) ([]domain.Tag, error) {
	out := make([]domain.Tag, 0, len(refs))
	for _, ref := range refs {
		var t domain.Tag
		err := tx.Where("name = ?", ref.Name).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			t = domain.Tag{Name: ref.Name} // Absent, insert it
			err = tx.Create(&t).Error
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// resolveResources loads the referenced resources; an id without a row
// fails the whole write
func resolveResources(tx *gorm.DB, ids []uint) ([]domain.Resource, error) {
	out := make([]domain.Resource, 0, len(ids))
	for _, id := range ids {
		var r domain.Resource
		if err := tx.First(&r, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errUnknownResource // Unknown ids are a caller mistake
			}
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// replaceAssociation swaps a product's association set for the given rows.
// An empty set clears every current link.
func replaceAssociation(tx *gorm.DB, p *domain.Product, name string, values any, count int) error {
	assoc := tx.Model(p).Association(name)
	if count == 0 {
		return assoc.Clear() // Explicit empty set removes all links
	}
	return assoc.Replace(values)
}

// validNameRefs checks nested references before touching the database
func validNameRefs(refs []nameRef, maxLen int) bool {
	for _, ref := range refs {
		if ref.Name == "" || len(ref.Name) > maxLen {
			return false
		}
	}
	return true
}

// loadProduct fetches a product with every association preloaded
func loadProduct(db *gorm.DB, id uint) (*domain.Product, error) {
	var p domain.Product
	err := db.Preload("Types").Preload("Tags").Preload("Resources").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProductsHandler returns the summary view of every product
func ListProductsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		var cached []ProductSummaryResponse
		// Serve from cache when a fresh copy exists
		if found, err := utils.GetCache(ctx, rdb, utils.ProductListKey(), &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		var products []domain.Product
		if err := db.Order("id").Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		// Summary only: id, name, price
		resp := make([]ProductSummaryResponse, len(products))
		for i, p := range products {
			resp[i] = ProductSummaryResponse{ID: p.ID, Name: p.Name, Price: p.Price}
		}
		_ = utils.SetCache(ctx, rdb, utils.ProductListKey(), resp, cacheTTL) // Cache the list
		c.JSON(http.StatusOK, resp)
	}
}

// GetProductHandler returns the detail view of one product, including the
// computed rating average and nested associations
func GetProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := context.Background() // Context for Redis operations
		var cached ProductDetailResponse
		// Serve from cache when a fresh copy exists
		if found, err := utils.GetCache(ctx, rdb, utils.ProductDetailKey(id), &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		p, err := loadProduct(db, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		resp := serializeProductDetail(db, p)
		_ = utils.SetCache(ctx, rdb, utils.ProductDetailKey(id), resp, cacheTTL) // Cache the detail
		c.JSON(http.StatusOK, resp)
	}
}

// CreateProductHandler creates a product together with its nested
// associations in one transaction
func CreateProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createProductRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingErrors(c, err)
			return
		}
		if !validPrice(*req.Price) {
			fieldError(c, "price", "Ensure the price fits 5 digits with 2 decimal places.")
			return
		}
		if !validNameRefs(req.Types, 255) {
			fieldError(c, "types", "Each type needs a name of at most 255 characters.")
			return
		}
		if !validNameRefs(req.Tags, 45) {
			fieldError(c, "tags", "Each tag needs a name of at most 45 characters.")
			return
		}
		p := domain.Product{
			Name:        req.Name,        // Product name
			Price:       *req.Price,      // Validated price
			Description: req.Description, // Free-form description
		}
		// Row plus nested get-or-create plus associations, atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit(clause.Associations).Create(&p).Error; err != nil {
				return err // Return error to rollback
			}
			types, err := resolveTypes(tx, req.Types)
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx, &p, "Types", types, len(types)); err != nil {
				return err
			}
			tags, err := resolveTags(tx, req.Tags)
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx, &p, "Tags", tags, len(tags)); err != nil {
				return err
			}
			resources, err := resolveResources(tx, req.Resources)
			if err != nil {
				return err
			}
			return replaceAssociation(tx, &p, "Resources", resources, len(resources))
		})
		if err != nil {
			if errors.Is(err, errUnknownResource) {
				fieldError(c, "resources", "Unknown resource id.")
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}
		utils.InvalidateProduct(context.Background(), rdb, p.ID) // Drop stale cached views
		created, err := loadProduct(db, p.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}
		c.JSON(http.StatusCreated, serializeProductDetail(db, created))
	}
}

// UpdateProductHandler updates a product. PUT requires name and price;
// PATCH leaves absent fields untouched. A many-to-many field present in
// the payload, even empty, replaces the current association set. An
// explicit null image removes the stored file.
func UpdateProductHandler(db *gorm.DB, rdb *redis.Client, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		p, err := loadProduct(db, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		raw, ok := decodeBody(c) // Raw keys so absent and empty stay distinct
		if !ok {
			return
		}
		if c.Request.Method == http.MethodPut {
			// Full update must carry the writable scalar fields
			for _, field := range []string{"name", "price"} {
				if _, present := raw[field]; !present {
					fieldError(c, field, "This field is required.")
					return
				}
			}
		}
		if v, present := raw["name"]; present {
			var name string
			if err := json.Unmarshal(v, &name); err != nil || name == "" || len(name) > 255 {
				fieldError(c, "name", "Enter a valid name.")
				return
			}
			p.Name = name
		}
		if v, present := raw["price"]; present {
			var price float64
			if isNull(v) || json.Unmarshal(v, &price) != nil || !validPrice(price) {
				fieldError(c, "price", "Ensure the price fits 5 digits with 2 decimal places.")
				return
			}
			p.Price = price
		}
		if v, present := raw["description"]; present {
			var description string
			if err := json.Unmarshal(v, &description); err != nil {
				fieldError(c, "description", "Enter a valid description.")
				return
			}
			p.Description = description
		}
		var oldImage string // Stored image to remove after a successful save
		if v, present := raw["image"]; present {
			if !isNull(v) {
				// Binary data goes through the upload-image action
				fieldError(c, "image", "Use the upload-image action to set an image.")
				return
			}
			if p.Image != nil {
				oldImage = *p.Image // Remove the file once the row is saved
			}
			p.Image = nil
		}
		// Decode association payloads before opening the transaction
		var typeRefs, tagRefs []nameRef
		var resourceIDs []uint
		rawTypes, hasTypes := raw["types"]
		if hasTypes && isNull(rawTypes) {
			hasTypes = false // Null behaves like an absent field
		}
		if hasTypes {
			if err := json.Unmarshal(rawTypes, &typeRefs); err != nil || !validNameRefs(typeRefs, 255) {
				fieldError(c, "types", "Each type needs a name of at most 255 characters.")
				return
			}
		}
		rawTags, hasTags := raw["tags"]
		if hasTags && isNull(rawTags) {
			hasTags = false // Null behaves like an absent field
		}
		if hasTags {
			if err := json.Unmarshal(rawTags, &tagRefs); err != nil || !validNameRefs(tagRefs, 45) {
				fieldError(c, "tags", "Each tag needs a name of at most 45 characters.")
				return
			}
		}
		rawResources, hasResources := raw["resources"]
		if hasResources && isNull(rawResources) {
			hasResources = false // Null behaves like an absent field
		}
		if hasResources {
			if err := json.Unmarshal(rawResources, &resourceIDs); err != nil {
				fieldError(c, "resources", "Enter a list of resource ids.")
				return
			}
		}
		// Scalars plus association replacement, atomically
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
				return err // Return error to rollback
			}
			if hasTypes {
				types, err := resolveTypes(tx, typeRefs)
				if err != nil {
					return err
				}
				// Present field replaces the set, empty clears it
				if err := replaceAssociation(tx, p, "Types", types, len(types)); err != nil {
					return err
				}
			}
			if hasTags {
				tags, err := resolveTags(tx, tagRefs)
				if err != nil {
					return err
				}
				if err := replaceAssociation(tx, p, "Tags", tags, len(tags)); err != nil {
					return err
				}
			}
			if hasResources {
				resources, err := resolveResources(tx, resourceIDs)
				if err != nil {
					return err
				}
				if err := replaceAssociation(tx, p, "Resources", resources, len(resources)); err != nil {
					return err
				}
			}
			return nil // Commit transaction
		})
		if err != nil {
			if errors.Is(err, errUnknownResource) {
				fieldError(c, "resources", "Unknown resource id.")
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		storage.RemoveImage(uploadDir, oldImage)                 // Best effort, logged on failure
		utils.InvalidateProduct(context.Background(), rdb, p.ID) // Drop stale cached views
		updated, err := loadProduct(db, p.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}
		c.JSON(http.StatusOK, serializeProductDetail(db, updated))
	}
}

// DeleteProductHandler deletes a product, its dependent ratings, its
// association rows and its stored image file
func DeleteProductHandler(db *gorm.DB, rdb *redis.Client, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var p domain.Product
		if err := db.First(&p, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		// Ratings and join rows go with the product
		if err := db.Select(clause.Associations).Delete(&p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
			return
		}
		// File removal is a post-delete side effect, never fatal
		if p.Image != nil {
			storage.RemoveImage(uploadDir, *p.Image)
		}
		utils.InvalidateProduct(context.Background(), rdb, p.ID) // Drop stale cached views
		c.Status(http.StatusNoContent)
	}
}

// UploadProductImageHandler stores a multipart image for a product and
// replaces any previously stored file
func UploadProductImageHandler(db *gorm.DB, rdb *redis.Client, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var p domain.Product
		if err := db.First(&p, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		fh, err := c.FormFile("image") // Multipart field holding the image
		if err != nil {
			fieldError(c, "image", "No image file provided.")
			return
		}
		name, err := storage.SaveImage(uploadDir, "products", fh)
		if err != nil {
			if errors.Is(err, storage.ErrNotImage) {
				fieldError(c, "image", "Upload a valid image.")
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
			return
		}
		oldImage := p.Image // Previous file gets removed after the row update
		p.Image = &name
		if err := db.Omit(clause.Associations).Save(&p).Error; err != nil {
			storage.RemoveImage(uploadDir, name) // Do not leak the new file
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		if oldImage != nil {
			storage.RemoveImage(uploadDir, *oldImage)
		}
		utils.InvalidateProduct(context.Background(), rdb, p.ID) // Drop stale cached views
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "image": p.Image})
	}
}
