package paging

import (
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Page
	}{
		{"defaults", "/users", Page{Limit: PageSize}},
		{"explicit", "/users?limit=10&offset=20", Page{Limit: 10, Offset: 20}},
		{"limit clamped", "/users?limit=9999", Page{Limit: MaxPageSize}},
		{"garbage ignored", "/users?limit=abc&offset=-5", Page{Limit: PageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := Parse(r); got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		page Page
		want []int
	}{
		{"full slice", Page{Limit: 10}, []int{1, 2, 3, 4, 5}},
		{"middle window", Page{Limit: 2, Offset: 1}, []int{2, 3}},
		{"tail shorter than limit", Page{Limit: 10, Offset: 3}, []int{4, 5}},
		{"offset past end", Page{Limit: 10, Offset: 99}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Window(rows, tt.page); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Window() = %v, want %v", got, tt.want)
			}
		})
	}
}
