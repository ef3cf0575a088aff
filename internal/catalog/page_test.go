package catalog

import (
	"fmt"
	"testing"

	"catalog-cli/internal/model"

	"github.com/stretchr/testify/assert"
)

func entities(n int) []model.Entity {
	out := make([]model.Entity, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, entity(int64(i), "Product"))
	}
	return out
}

func TestPageCount(t *testing.T) {
	t.Parallel()

	for n, want := range map[int]int{0: 0, 1: 1, 9: 1, 10: 1, 11: 2, 20: 2, 21: 3} {
		assert.Equal(t, want, PageCount(n), "n=%d", n)
	}
}

func TestVisibleSlice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n, page int
		want    []int64
	}{
		{n: 12, page: 0, want: []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{n: 12, page: 1, want: []int64{11, 12}},
		{n: 20, page: 1, want: []int64{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}},
		{n: 12, page: 2, want: []int64{}},
		{n: 0, page: 0, want: []int64{}},
		{n: 5, page: -1, want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d/page=%d", tt.n, tt.page), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(VisibleSlice(entities(tt.n), tt.page)))
		})
	}
}

func TestVisibleSlice_LastPageLength(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 35; n++ {
		last := PageCount(n) - 1
		assert.Len(t, VisibleSlice(entities(n), last), n-last*PageSize, "n=%d", n)
	}
}

func TestPageInfoText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Showing 1 to 10 of 12 entries", PageInfoText(12, 0))
	assert.Equal(t, "Showing 11 to 12 of 12 entries", PageInfoText(12, 1))
	assert.Equal(t, "Showing 1 to 3 of 3 entries", PageInfoText(3, 0))
	assert.Equal(t, "Showing 11 to 20 of 20 entries", PageInfoText(20, 1))
}

func TestPageInfoText_PastTheEnd(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Showing 0 to 0 of 12 entries", PageInfoText(12, 2))
	assert.Equal(t, "Showing 0 to 0 of 12 entries", PageInfoText(12, -1))
	assert.Equal(t, "Showing 0 to 0 of 0 entries", PageInfoText(0, 0))
}

func TestCarryPages(t *testing.T) {
	t.Parallel()

	groups := Groups{{Layout: layout("A")}, {Layout: layout("B")}}
	prev := Pages{"A": 2, "Gone": 4}

	same := carryPages(prev, groups, true)
	assert.Equal(t, Pages{"A": 2, "B": 0}, same)

	other := carryPages(prev, groups, false)
	assert.Equal(t, Pages{"A": 0, "B": 0}, other)
}
