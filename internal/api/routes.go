package api

import (
	"github.com/RbroH99/les-sha-app-api/internal/config"     // Application configuration
	"github.com/RbroH99/les-sha-app-api/internal/middleware" // Auth and permission middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// RegisterRoutes wires every catalog endpoint onto the router. Catalog
// entities are staff-write/public-read; ratings only need authentication
// to write; rating rows cannot be deleted through the API.
//
// Routes are registered without trailing slashes; gin's
// RedirectTrailingSlash (on by default) answers the slashed form with a
// 301/307 that preserves the method.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	root := r.Group("/api")
	// Attach the caller's identity when a valid token is present
	root.Use(middleware.OptionalJWTMiddleware(cfg.JWTSecret))

	// User routes (registration and token are open)
	users := root.Group("/users")
	users.POST("", CreateUserHandler(db))       // Registration endpoint
	users.POST("/token", TokenHandler(db, cfg)) // Token endpoint
	me := users.Group("/me")
	me.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret)) // Own profile requires a valid token
	me.GET("", RetrieveMeHandler(db))                   // Retrieve own profile
	me.PUT("", UpdateMeHandler(db))                     // Update own profile
	me.PATCH("", UpdateMeHandler(db))                   // Partially update own profile

	// Product routes (writes restricted to staff)
	products := root.Group("/products")
	products.Use(middleware.PermissionMiddleware(db, middleware.DenyWriteToNonStaff))
	products.GET("", ListProductsHandler(db, rdb))                                        // List endpoint (summary view)
	products.GET("/:id", GetProductHandler(db, rdb))                                      // Detail endpoint
	products.POST("", CreateProductHandler(db, rdb))                                      // Create endpoint
	products.PUT("/:id", UpdateProductHandler(db, rdb, cfg.UploadDir))                    // Full update endpoint
	products.PATCH("/:id", UpdateProductHandler(db, rdb, cfg.UploadDir))                  // Partial update endpoint
	products.DELETE("/:id", DeleteProductHandler(db, rdb, cfg.UploadDir))                 // Delete endpoint
	products.POST("/:id/upload-image", UploadProductImageHandler(db, rdb, cfg.UploadDir)) // Image upload action

	// Product type routes (writes restricted to staff)
	types := root.Group("/product_types")
	types.Use(middleware.PermissionMiddleware(db, middleware.DenyWriteToNonStaff))
	types.GET("", ListTypesHandler(db))              // List endpoint
	types.GET("/:id", GetTypeHandler(db))            // Detail endpoint
	types.POST("", CreateTypeHandler(db))            // Create endpoint
	types.PUT("/:id", UpdateTypeHandler(db, rdb))    // Full update endpoint
	types.PATCH("/:id", UpdateTypeHandler(db, rdb))  // Partial update endpoint
	types.DELETE("/:id", DeleteTypeHandler(db, rdb)) // Delete endpoint

	// Tag routes (writes restricted to staff)
	tags := root.Group("/tags")
	tags.Use(middleware.PermissionMiddleware(db, middleware.DenyWriteToNonStaff))
	tags.GET("", ListTagsHandler(db))              // List endpoint
	tags.GET("/:id", GetTagHandler(db))            // Detail endpoint
	tags.POST("", CreateTagHandler(db))            // Create endpoint
	tags.PUT("/:id", UpdateTagHandler(db, rdb))    // Full update endpoint
	tags.PATCH("/:id", UpdateTagHandler(db, rdb))  // Partial update endpoint
	tags.DELETE("/:id", DeleteTagHandler(db, rdb)) // Delete endpoint

	// Resource routes (writes restricted to staff)
	resources := root.Group("/resources")
	resources.Use(middleware.PermissionMiddleware(db, middleware.DenyWriteToNonStaff))
	resources.GET("", ListResourcesHandler(db))                                             // List endpoint
	resources.GET("/:id", GetResourceHandler(db))                                           // Detail endpoint
	resources.POST("", CreateResourceHandler(db))                                           // Create endpoint
	resources.PUT("/:id", UpdateResourceHandler(db, rdb, cfg.UploadDir))                    // Full update endpoint
	resources.PATCH("/:id", UpdateResourceHandler(db, rdb, cfg.UploadDir))                  // Partial update endpoint
	resources.DELETE("/:id", DeleteResourceHandler(db, rdb, cfg.UploadDir))                 // Delete endpoint
	resources.POST("/:id/upload-image", UploadResourceImageHandler(db, rdb, cfg.UploadDir)) // Image upload action

	// Rating routes (any authenticated caller may write, no delete route)
	ratings := root.Group("/ratings")
	ratings.Use(middleware.PermissionMiddleware(db, middleware.AuthenticatedOrReadOnly))
	ratings.GET("", ListRatingsHandler(db))             // List endpoint
	ratings.GET("/:id", GetRatingHandler(db))           // Detail endpoint
	ratings.POST("", CreateRatingHandler(db, rdb))      // Create endpoint
	ratings.PUT("/:id", UpdateRatingHandler(db, rdb))   // Full update endpoint
	ratings.PATCH("/:id", UpdateRatingHandler(db, rdb)) // Partial update endpoint
}
