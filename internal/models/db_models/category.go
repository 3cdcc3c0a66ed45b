package db_models

import "github.com/google/uuid"

type Category struct {
	BaseModel
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_owner_slug"`
	Slug        string    `gorm:"size:100;not null;uniqueIndex:idx_owner_slug"`
	Name        string    `gorm:"size:100;not null"`
	Description string

	Products []Product `gorm:"foreignKey:CategoryID"`
}
