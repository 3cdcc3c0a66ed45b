package db_models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Product struct {
	BaseModel
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_owner_sku"`
	SKU         string    `gorm:"size:64;not null;uniqueIndex:idx_owner_sku"`
	Name        string    `gorm:"size:200;not null"`
	Description string
	PriceMinor  int64          // 999 = $9.99
	Currency    string         `gorm:"size:3;default:USD"`
	StockQty    int64          `gorm:"default:0"`
	CategoryID  *uuid.UUID     `gorm:"type:uuid;index"`
	Tags        pq.StringArray `gorm:"type:text[]"`
	Attributes  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Category *Category `gorm:"foreignKey:CategoryID"`
}
