package common

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumPages(t *testing.T) {
	assert.Equal(t, 0, NumPages(0, 10))
	assert.Equal(t, 1, NumPages(1, 10))
	assert.Equal(t, 1, NumPages(10, 10))
	assert.Equal(t, 3, NumPages(25, 10))
	assert.Equal(t, 0, NumPages(25, 0))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 20, Offset(3, 10))
	assert.Equal(t, 0, Offset(0, 10))
}

func TestNewPageAndMap(t *testing.T) {
	page := NewPage([]int{1, 2, 3, 4, 5}, 3, 10, 25)
	assert.Equal(t, Pagination{PageNumber: 3, PageSize: 10, NumPages: 3, TotalResults: 25}, page.Pagination)

	mapped := MapPage(page, strconv.Itoa)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, mapped.Items)
	assert.Equal(t, page.Pagination, mapped.Pagination)

	empty := NewPage[int](nil, 1, 10, 0)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}
