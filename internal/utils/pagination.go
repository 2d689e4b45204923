// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultSortKey  = "created_at"
)

// PaginationParams carries the listing controls shared by the catalog and
// back-office endpoints.
type PaginationParams struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Sort     string `json:"sort"`
	Order    string `json:"order"`
	Search   string `json:"search"`
	Category string `json:"category"`
}

// PaginationResult wraps one page of rows with the counts a client needs to
// render a pager.
type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

// GetPaginationParams reads listing controls from the query string. Out of
// range values fall back to defaults instead of erroring.
func GetPaginationParams(c *gin.Context) PaginationParams {
	params := PaginationParams{
		Sort:     c.DefaultQuery("sort", defaultSortKey),
		Order:    c.DefaultQuery("order", "desc"),
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page >= 1 {
		params.Page = page
	} else {
		params.Page = 1
	}

	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit >= 1 && limit <= maxPageSize {
		params.Limit = limit
	} else {
		params.Limit = defaultPageSize
	}

	if params.Order != "asc" && params.Order != "desc" {
		params.Order = "desc"
	}

	return params
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	return db.Offset((params.Page - 1) * params.Limit).Limit(params.Limit)
}

// ApplySort orders the query by the requested column if it is in the
// caller's whitelist, otherwise by creation time. The whitelist keeps query
// string input out of the ORDER BY clause.
func ApplySort(db *gorm.DB, params PaginationParams, allowedSortFields []string) *gorm.DB {
	sortField := defaultSortKey
	for _, field := range allowedSortFields {
		if field == params.Sort {
			sortField = params.Sort
			break
		}
	}
	return db.Order(sortField + " " + params.Order)
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(params.Limit))),
		Data:       data,
	}
}

// SetPaginationHeaders mirrors the result counts into response headers so
// clients can page without parsing the body envelope.
func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
