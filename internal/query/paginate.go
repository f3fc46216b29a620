package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/vidhub/backend/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps the row offset of any page within an int, and so within
	// a bigint, at MaxLimit.
	MaxPage = math.MaxInt / MaxLimit
)

// PositiveInt parses raw as a positive integer, returning fallback for
// empty, non-numeric or non-positive input.
func PositiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Offset returns the row offset of page for the given page size. Offsets
// past math.MaxInt64 saturate, which always lands beyond the last row.
func Offset(page, limit int) uint64 {
	if page <= 1 || limit <= 0 {
		return 0
	}
	skip, size := uint64(page-1), uint64(limit)
	if skip > math.MaxInt64/size {
		return math.MaxInt64
	}
	return skip * size
}

// NewPage wraps items in the pagination envelope.
func NewPage[T any](items []T, total int64, page, limit int) models.Page[T] {
	if items == nil {
		items = []T{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page <= 0 {
		page = DefaultPage
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	p := models.Page[T]{
		Items:       items,
		TotalItems:  total,
		Limit:       limit,
		TotalPages:  totalPages,
		CurrentPage: page,
		HasPrevPage: page > 1,
		HasNextPage: page < totalPages,
	}
	if p.HasPrevPage {
		prev := page - 1
		p.PrevPage = &prev
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	return p
}
