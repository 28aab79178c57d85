package dto

import "github.com/anyulbade/ratecard-recon/internal/model"

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type RateCardListResponse struct {
	Items      []*model.RateCard `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
