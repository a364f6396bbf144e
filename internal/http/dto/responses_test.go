package dto

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, perPage, total int
		want                 Pagination
	}{
		{1, 20, 0, Pagination{Page: 1, PerPage: 20, Total: 0, Pages: 0}},
		{1, 20, 20, Pagination{Page: 1, PerPage: 20, Total: 20, Pages: 1}},
		{2, 20, 45, Pagination{Page: 2, PerPage: 20, Total: 45, Pages: 3, HasNext: true, HasPrev: true}},
		{3, 20, 45, Pagination{Page: 3, PerPage: 20, Total: 45, Pages: 3, HasPrev: true}},
	}
	for _, tt := range tests {
		if got := NewPagination(tt.page, tt.perPage, tt.total); got != tt.want {
			t.Errorf("NewPagination(%d, %d, %d) = %+v, want %+v", tt.page, tt.perPage, tt.total, got, tt.want)
		}
	}
}
