package dto

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// PageQuery is the normalised page/limit pair used by list endpoints.
type PageQuery struct {
	Page  int
	Limit int
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}
