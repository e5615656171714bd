package api

import (
	"net/http" // HTTP status codes
	"strings"  // Email normalization

	"github.com/RbroH99/les-sha-app-api/internal/config" // Application configuration
	"github.com/RbroH99/les-sha-app-api/internal/domain" // Importing domain models
	"github.com/RbroH99/les-sha-app-api/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// Request struct for registration
type createUserRequest struct {
	Email    string  `json:"email" binding:"required,email"`    // Login email, required
	Password string  `json:"password" binding:"required,min=5"` // Plaintext password, min length 5
	Name     string  `json:"name"`                              // Display name
	Phone    *string `json:"phone" binding:"omitempty,phone"`   // Optional phone number
}

// Request struct for the token endpoint
type tokenRequest struct {
	Email    string `json:"email" binding:"required,email"` // Login email
	Password string `json:"password" binding:"required"`    // Plaintext password
}

// Response struct for authentication
type tokenResponse struct {
	Token string `json:"token"` // JWT token
}

// Sparse request struct for profile updates
type updateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`    // New login email
	Password *string `json:"password" binding:"omitempty,min=5"` // New plaintext password, re-hashed on save
	Name     *string `json:"name"`                               // New display name
	Phone    *string `json:"phone" binding:"omitempty,phone"`    // New phone number
}

// normalizeEmail lowercases the domain part of an email address
func normalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// normalizePhone treats a blank phone value as not provided
func normalizePhone(phone *string) *string {
	if phone == nil || *phone == "" {
		return nil
	}
	return phone
}

// CreateUserHandler registers a new user with a hashed password
func CreateUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingErrors(c, err) // Field-level validation messages
			return
		}
		email := normalizeEmail(req.Email)
		phone := normalizePhone(req.Phone)
		// Friendly duplicate checks up front, the unique constraints
		// still catch concurrent creates
		var existing domain.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			fieldError(c, "email", "User with this email already exists.")
			return
		}
		if phone != nil {
			if err := db.Where("phone = ?", *phone).First(&existing).Error; err == nil {
				fieldError(c, "phone", "User with this phone already exists.")
				return
			}
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{
			Email:    email,        // Normalized email
			Name:     req.Name,     // Display name
			Phone:    phone,        // Optional phone number
			Password: string(hash), // Hashed password
			IsActive: true,         // New accounts start active
		}
		// Attempt to create the user in the database
		if err := db.Create(&user).Error; err != nil {
			// A constraint race lost against a concurrent create
			fieldError(c, "email", "User with this email already exists.")
			return
		}
		// Return the created profile, never the password
		c.JSON(http.StatusCreated, serializeUser(&user))
	}
}

// TokenHandler authenticates a user and returns a JWT token
func TokenHandler(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingErrors(c, err)
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
			// Bad credentials surface as a validation error
			fieldError(c, "non_field_errors", "Unable to authenticate with provided credentials.")
			return
		}
		// Inactive accounts cannot authenticate
		if !user.IsActive {
			fieldError(c, "non_field_errors", "Unable to authenticate with provided credentials.")
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			fieldError(c, "non_field_errors", "Unable to authenticate with provided credentials.")
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			// If token generation fails, return internal server error
			logrus.WithField("user_id", user.ID).Errorf("failed to generate token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, tokenResponse{Token: token})
	}
}

// RetrieveMeHandler returns the authenticated user's profile
func RetrieveMeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.MustGet("userID") // Set by the JWT middleware
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusOK, serializeUser(&user))
	}
}

// UpdateMeHandler updates the authenticated user's profile. Absent fields
// are left untouched; a new password gets re-hashed.
func UpdateMeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.MustGet("userID") // Set by the JWT middleware
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		var req updateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingErrors(c, err)
			return
		}
		if req.Email != nil {
			email := normalizeEmail(*req.Email)
			// Reject an email already taken by another account
			var existing domain.User
			if err := db.Where("email = ? AND id <> ?", email, user.ID).First(&existing).Error; err == nil {
				fieldError(c, "email", "User with this email already exists.")
				return
			}
			user.Email = email
		}
		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Phone != nil {
			user.Phone = normalizePhone(req.Phone)
		}
		if req.Password != nil {
			// Hash the new password before storing it
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
				return
			}
			user.Password = string(hash)
		}
		if err := db.Save(&user).Error; err != nil {
			// A constraint race on email or phone
			fieldError(c, "non_field_errors", "Unable to update profile.")
			return
		}
		c.JSON(http.StatusOK, serializeUser(&user))
	}
}
