package paging

import (
	"net/http/httptest"
	"testing"
)

func TestLimitPlusOne(t *testing.T) {
	want := int64(PageSize + 1)
	if got := LimitPlusOne(); got != want {
		t.Errorf("LimitPlusOne() = %d, want %d", got, want)
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{"/", 1},
		{"/?page=3", 3},
		{"/?page=0", 1},
		{"/?page=-2", 1},
		{"/?page=two", 1},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.target, nil)
		if got := ParsePage(r); got != tt.want {
			t.Errorf("ParsePage(%q) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		page int
		want int64
	}{
		{0, 0},
		{1, 0},
		{2, PageSize},
		{4, 3 * PageSize},
	}
	for _, tt := range tests {
		if got := Offset(tt.page); got != tt.want {
			t.Errorf("Offset(%d) = %d, want %d", tt.page, got, tt.want)
		}
	}
}

func TestTrimPage(t *testing.T) {
	tests := []struct {
		name     string
		rows     []int
		wantLen  int
		wantNext bool
	}{
		{"short page", []int{1, 2, 3}, 3, false},
		{"exactly full", make([]int, PageSize), PageSize, false},
		{"one extra", make([]int, PageSize+1), PageSize, true},
		{"empty", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := tt.rows
			hasNext := TrimPage(&rows)
			if len(rows) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(rows), tt.wantLen)
			}
			if hasNext != tt.wantNext {
				t.Errorf("hasNext = %v, want %v", hasNext, tt.wantNext)
			}
		})
	}
}
