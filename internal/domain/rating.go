package domain

// Rating Model
type Rating struct {
	ID        uint `gorm:"primaryKey"`                            // Primary key
	UserID    uint `gorm:"not null;uniqueIndex:idx_user_product"` // Owning user, half of the unique pair
	ProductID uint `gorm:"not null;uniqueIndex:idx_user_product"` // Rated product, other half of the unique pair
	Value     int  `gorm:"not null"`                              // Rating value, 1 to 5
}
