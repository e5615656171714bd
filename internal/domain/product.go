package domain

// Product Model
type Product struct {
	ID          uint          `gorm:"primaryKey"`                 // Primary key
	Name        string        `gorm:"size:255;not null"`          // Product name
	Price       float64       `gorm:"type:decimal(5,2);not null"` // Price, 5 digits total with 2 decimals (max 999.99)
	Description string        `gorm:"type:text"`                  // Free-form description
	Image       *string       `gorm:"size:255"`                   // Stored image filename, nil when no image uploaded
	Types       []ProductType `gorm:"many2many:product_types_assoc;"`
	Tags        []Tag         `gorm:"many2many:product_tags;"`
	Resources   []Resource    `gorm:"many2many:product_resources;"`
	Ratings     []Rating      `gorm:"constraint:OnDelete:CASCADE;"` // Ratings removed together with the product
}

// ProductType Model
type ProductType struct {
	ID   uint   `gorm:"primaryKey"`        // Primary key
	Name string `gorm:"size:255;not null"` // Type name, natural key for nested get-or-create
}

// Tag Model
type Tag struct {
	ID   uint   `gorm:"primaryKey"`       // Primary key
	Name string `gorm:"size:45;not null"` // Tag name, natural key for nested get-or-create
}

// Resource Model (sub-component a product is made of)
type Resource struct {
	ID    uint     `gorm:"primaryKey"`        // Primary key
	Name  string   `gorm:"size:255;not null"` // Resource name
	Price *float64 `gorm:"type:decimal(5,2)"` // Optional price, same precision as Product
	Image *string  `gorm:"size:255"`          // Stored image filename, nil when no image uploaded
}
