package domain

// User Model
type User struct {
	ID          uint     `gorm:"primaryKey"`                   // Primary key
	Email       string   `gorm:"size:255;unique;not null"`     // Unique login email (domain part stored lowercase)
	Name        string   `gorm:"size:255"`                     // Display name
	Phone       *string  `gorm:"size:16;unique"`               // Optional phone number, unique when present
	Password    string   `gorm:"not null"`                     // Hashed password
	IsActive    bool     `gorm:"default:true"`                 // Whether the account can authenticate
	IsStaff     bool     `gorm:"default:false"`                // Staff accounts may write catalog entities
	IsSuperuser bool     `gorm:"default:false"`                // Full access flag
	Ratings     []Rating `gorm:"constraint:OnDelete:CASCADE;"` // Ratings owned by the user, removed with it
}
