package core

import "strings"

// likeEscaper escapes the LIKE wildcards; backslash is the default escape character in postgres.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// PageQuery holds the common listing parameters.
type PageQuery struct {
	Search string `query:"search"`
	Page   int    `query:"page"`
}

// Clean normalizes the search term and the page number (1-based).
func (pq *PageQuery) Clean() {
	pq.Search = CleanString(pq.Search, true /* lower */)
	if pq.Page < 1 {
		pq.Page = 1
	}
}

func (pq PageQuery) Offset(perPage int) int {
	page := pq.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}

// SearchPattern returns the ILIKE pattern for Search, matching it as a literal substring.
func (pq PageQuery) SearchPattern() string {
	return "%" + likeEscaper.Replace(pq.Search) + "%"
}

type Pagination struct {
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

func NewPagination(total int64, page, perPage int) Pagination {
	if page < 1 {
		page = 1
	}
	var pages int
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Pagination{
		TotalCount: total,
		Page:       page,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}
