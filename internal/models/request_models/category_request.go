package request_models

type CreateCategoryRequest struct {
	Slug        string `json:"slug" binding:"required,max=100"`
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}
