package util

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPageNumber keeps Offset and Offset+Size within int.
	MaxPageNumber = math.MaxInt / MaxPageSize
)

// Page is the normalized page request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type List[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
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

func NewPage(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPageNumber {
		page = MaxPageNumber
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: page, Size: size}
}

func NewList[T any](items []T, p Page, total int64) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{
		Data: items,
		Meta: Meta{
			Page:       p.Number,
			Size:       p.Size,
			Total:      total,
			TotalPages: (total + int64(p.Size) - 1) / int64(p.Size),
			HasPrev:    p.Number > 1,
			HasNext:    int64(p.Offset()+p.Size) < total,
		},
	}
}
