// Package pagination normalizes page/limit/sort query input and computes
// page metadata for listing endpoints.
package pagination

import (
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortOrder is the direction applied to the submission timestamp.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Params is a normalized listing request.
type Params struct {
	Page      int
	Limit     int
	SortOrder SortOrder
}

// Meta is the pagination block returned alongside a page of records.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

// Normalize parses raw query values. Missing or non-numeric values take the
// defaults; page is clamped to >= 1 and limit to [1, MaxLimit]. Sort order
// is descending unless "asc" is given in any case.
func Normalize(page, limit, sortOrder string) Params {
	p := Params{
		Page:      parseOr(page, DefaultPage),
		Limit:     parseOr(limit, DefaultLimit),
		SortOrder: Desc,
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if strings.EqualFold(strings.TrimSpace(sortOrder), string(Asc)) {
		p.SortOrder = Asc
	}
	return p
}

func parseOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}

// Offset is the number of records skipped before this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Paginate builds the metadata block. limit must be positive.
func Paginate(totalCount int64, page, limit int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((totalCount + int64(limit) - 1) / int64(limit))
	}
	return Meta{
		Page:       page,
		Limit:      limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// Meta is shorthand for Paginate(totalCount, p.Page, p.Limit).
func (p Params) Meta(totalCount int64) Meta {
	return Paginate(totalCount, p.Page, p.Limit)
}
