// Package pagination reads page and limit query parameters and applies them to
// list queries.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a validated page request. Page starts at 1.
type Params struct {
	Page  int
	Limit int
}

// Parse reads ?page= and ?limit=. Missing or malformed values fall back to the
// defaults and limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Pages is the number of pages needed for total rows.
func (p Params) Pages(total int64) int64 {
	if p.Limit <= 0 || total == 0 {
		return 1
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}

// Body is the data of a list response: the items under key plus the page
// position.
func (p Params) Body(key string, items interface{}, total int64) gin.H {
	return gin.H{
		key:     items,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
		"pages": p.Pages(total),
	}
}

// Paginate is a gorm scope selecting one page. A limit of zero or less returns
// every row.
func Paginate(page, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}
