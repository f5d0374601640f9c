package dto

// Pagination describes one page of a list response. TotalPages is
// ceil(TotalItems / PageSize); pages past the end yield empty data, not
// an error.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

func NewPagination(page, pageSize int, totalItems int64) Pagination {
	if pageSize < 1 {
		pageSize = 1
	}

	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: int((totalItems + int64(pageSize) - 1) / int64(pageSize)),
	}
}
