// internal/utils/pagination_test.go
package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paramsForQuery(t *testing.T, query string) PaginationParams {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/products?"+query, nil)
	return GetPaginationParams(c)
}

func TestGetPaginationParamsDefaults(t *testing.T) {
	params := paramsForQuery(t, "")

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, defaultPageSize, params.Limit)
	assert.Equal(t, defaultSortKey, params.Sort)
	assert.Equal(t, "desc", params.Order)
}

func TestGetPaginationParamsClampsBadInput(t *testing.T) {
	params := paramsForQuery(t, "page=0&limit=5000&order=sideways")
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, defaultPageSize, params.Limit)
	assert.Equal(t, "desc", params.Order)

	params = paramsForQuery(t, "page=notanumber&limit=-3")
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, defaultPageSize, params.Limit)
}

func TestGetPaginationParamsPassesValidInput(t *testing.T) {
	params := paramsForQuery(t, "page=3&limit=50&sort=total&order=asc&search=ring&category=earrings")

	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 50, params.Limit)
	assert.Equal(t, "total", params.Sort)
	assert.Equal(t, "asc", params.Order)
	assert.Equal(t, "ring", params.Search)
	assert.Equal(t, "earrings", params.Category)
}

func TestCreatePaginationResultRoundsPagesUp(t *testing.T) {
	result := CreatePaginationResult([]string{"a"}, 41, PaginationParams{Page: 2, Limit: 20})

	assert.Equal(t, 2, result.Page)
	assert.Equal(t, int64(41), result.Total)
	assert.Equal(t, 3, result.TotalPages)
}

func TestSetPaginationHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	SetPaginationHeaders(c, PaginationResult{Page: 2, Limit: 20, Total: 41, TotalPages: 3})

	assert.Equal(t, "41", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, "2", rec.Header().Get("X-Page"))
	assert.Equal(t, "20", rec.Header().Get("X-Per-Page"))
	assert.Equal(t, "3", rec.Header().Get("X-Total-Pages"))
}
