package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageQuery_SearchPattern(t *testing.T) {
	tests := []struct {
		search, want string
	}{
		{"ali", "%ali%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\docs`, `%c:\\docs%`},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			assert.Equal(t, tt.want, PageQuery{Search: tt.search}.SearchPattern())
		})
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name          string
		total         int64
		page, perPage int
		want          Pagination
	}{
		{name: "no rows", total: 0, page: 1, perPage: 10, want: Pagination{Page: 1}},
		{name: "first of three", total: 21, page: 1, perPage: 10, want: Pagination{TotalCount: 21, Page: 1, TotalPages: 3, HasNext: true}},
		{name: "last", total: 21, page: 3, perPage: 10, want: Pagination{TotalCount: 21, Page: 3, TotalPages: 3, HasPrev: true}},
		{name: "page below one", total: 5, page: -2, perPage: 10, want: Pagination{TotalCount: 5, Page: 1, TotalPages: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPagination(tt.total, tt.page, tt.perPage))
		})
	}
}
