package request_models

type CreateProductRequest struct {
	SKU         string            `json:"sku" binding:"required,max=64"`
	Name        string            `json:"name" binding:"required,max=200"`
	Description string            `json:"description"`
	PriceMinor  int64             `json:"price_minor" binding:"gte=0"`
	Currency    string            `json:"currency" binding:"omitempty,len=3"`
	StockQty    int64             `json:"stock_qty" binding:"gte=0"`
	CategoryID  *string           `json:"category_id" binding:"omitempty,uuid"`
	Tags        []string          `json:"tags"`
	Attributes  map[string]string `json:"attributes"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=200"`
	Description *string  `json:"description"`
	PriceMinor  *int64   `json:"price_minor" binding:"omitempty,gte=0"`
	StockQty    *int64   `json:"stock_qty" binding:"omitempty,gte=0"`
	CategoryID  *string  `json:"category_id" binding:"omitempty,uuid"`
	Tags        []string `json:"tags"`
}
