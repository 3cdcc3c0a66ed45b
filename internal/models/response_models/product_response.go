package response_models

type ProductResponse struct {
	ID          string   `json:"id"`
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	PriceMinor  int64    `json:"price_minor"`
	Currency    string   `json:"currency"`
	StockQty    int64    `json:"stock_qty"`
	CategoryID  *string  `json:"category_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   int64    `json:"created_at"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
