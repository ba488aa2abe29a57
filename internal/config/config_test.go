package config

import "testing"

func TestPaginationClamp(t *testing.T) {
	p := Pagination{DefaultLimit: 100, MaxLimit: 250}

	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{name: "unspecified limit uses default", limit: 0, offset: 0, wantLimit: 100, wantOffset: 0},
		{name: "negative limit uses default", limit: -5, offset: 0, wantLimit: 100, wantOffset: 0},
		{name: "limit within bounds preserved", limit: 50, offset: 20, wantLimit: 50, wantOffset: 20},
		{name: "limit above max is capped", limit: 1000, offset: 0, wantLimit: 250, wantOffset: 0},
		{name: "limit at max preserved", limit: 250, offset: 0, wantLimit: 250, wantOffset: 0},
		{name: "negative offset becomes zero", limit: 10, offset: -1, wantOffset: 0, wantLimit: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := p.Clamp(tt.limit, tt.offset)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("Clamp(%d, %d) = (%d, %d), want (%d, %d)",
					tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}
