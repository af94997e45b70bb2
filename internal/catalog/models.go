// Package catalog serves products, categories and blog posts, with a Redis
// read-through cache and an optional Elasticsearch product index.
package catalog

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("CATALOG_NOT_FOUND")
	ErrSlugConflict    = errors.New("CATALOG_SLUG_CONFLICT")
	ErrInvalidSlug     = errors.New("CATALOG_INVALID_SLUG")
	ErrUnknownCategory = errors.New("CATALOG_UNKNOWN_CATEGORY")
	ErrCategoryInUse   = errors.New("CATALOG_CATEGORY_IN_USE")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

type Category struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

type Product struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	CategorySlug string    `json:"categorySlug"`
	Summary      string    `json:"summary"`
	Description  string    `json:"description"`
	Features     []string  `json:"features"`
	Images       []string  `json:"images"`
	Featured     bool      `json:"featured"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Post struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	Tags        []string   `json:"tags"`
	Status      Status     `json:"status"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ProductFilter narrows a product listing. Page and PageSize are normalized
// by the Service before reaching a Repository or SearchIndex.
type ProductFilter struct {
	Category      string
	Query         string
	Featured      *bool
	IncludeDrafts bool
	Page          int
	PageSize      int
}

func (f ProductFilter) offset() int { return (f.Page - 1) * f.PageSize }

type PostFilter struct {
	Tag           string
	IncludeDrafts bool
	Page          int
	PageSize      int
}

func (f PostFilter) offset() int { return (f.Page - 1) * f.PageSize }

// Page is one slice of a listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func newPage[T any](items []T, total, page, size int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return &Page[T]{Items: items, Total: total, Page: page, PageSize: size, TotalPages: pages}
}
