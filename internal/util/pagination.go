package util

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Calculate clamps page/size to sane bounds and returns the SQL offset and
// limit. Sizes above MaxPageSize are clamped down, never rejected.
func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return (page - 1) * size, size
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Meta is the pagination envelope returned next to every list payload.
func Meta(page, limit, offset int, total int64) map[string]any {
	return map[string]any{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
		"has_prev":    page > 1,
		"has_next":    int64(offset+limit) < total,
	}
}
