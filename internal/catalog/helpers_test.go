package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memRepo is an in-memory Repository that counts reads.
type memRepo struct {
	mu         sync.Mutex
	products   map[string]Product
	categories map[string]Category
	posts      map[string]Post
	reads      map[string]int
	err        error
}

func newMemRepo() *memRepo {
	return &memRepo{
		products:   map[string]Product{},
		categories: map[string]Category{},
		posts:      map[string]Post{},
		reads:      map[string]int{},
	}
}

func (m *memRepo) countRead(op string) {
	m.reads[op]++
}

func (m *memRepo) ListProducts(_ context.Context, f ProductFilter) ([]Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countRead("ListProducts")
	if m.err != nil {
		return nil, 0, m.err
	}
	var all []Product
	for _, p := range m.products {
		if !f.IncludeDrafts && p.Status != StatusPublished {
			continue
		}
		if f.Category != "" && p.CategorySlug != f.Category {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return window(all, f.offset(), f.PageSize), len(all), nil
}

func window[T any](items []T, offset, size int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (m *memRepo) GetProduct(_ context.Context, slug string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countRead("GetProduct")
	p, ok := m.products[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memRepo) CreateProduct(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.Slug]; ok {
		return ErrSlugConflict
	}
	if _, ok := m.categories[p.CategorySlug]; !ok {
		return ErrUnknownCategory
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.products[p.Slug] = *p
	return nil
}

func (m *memRepo) UpdateProduct(_ context.Context, slug string, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.products[slug]
	if !ok {
		return ErrNotFound
	}
	delete(m.products, slug)
	p.ID = old.ID
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.products[p.Slug] = *p
	return nil
}

func (m *memRepo) DeleteProduct(_ context.Context, slug string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[slug]
	if !ok {
		return "", ErrNotFound
	}
	delete(m.products, slug)
	return p.ID, nil
}

func (m *memRepo) ListCategories(_ context.Context) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countRead("ListCategories")
	var out []Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *memRepo) CreateCategory(_ context.Context, c *Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.Slug]; ok {
		return ErrSlugConflict
	}
	m.categories[c.Slug] = *c
	return nil
}

func (m *memRepo) DeleteCategory(_ context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[slug]; !ok {
		return ErrNotFound
	}
	for _, p := range m.products {
		if p.CategorySlug == slug {
			return ErrCategoryInUse
		}
	}
	delete(m.categories, slug)
	return nil
}

func (m *memRepo) ListPosts(_ context.Context, f PostFilter) ([]Post, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countRead("ListPosts")
	var all []Post
	for _, p := range m.posts {
		if !f.IncludeDrafts && p.Status != StatusPublished {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Slug < all[j].Slug })
	return window(all, f.offset(), f.PageSize), len(all), nil
}

func (m *memRepo) GetPost(_ context.Context, slug string) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countRead("GetPost")
	p, ok := m.posts[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memRepo) CreatePost(_ context.Context, p *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[p.Slug]; ok {
		return ErrSlugConflict
	}
	m.posts[p.Slug] = *p
	return nil
}

func (m *memRepo) UpdatePost(_ context.Context, slug string, p *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.posts[slug]
	if !ok {
		return ErrNotFound
	}
	delete(m.posts, slug)
	p.ID = old.ID
	m.posts[p.Slug] = *p
	return nil
}

func (m *memRepo) DeletePost(_ context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[slug]; !ok {
		return ErrNotFound
	}
	delete(m.posts, slug)
	return nil
}

func (m *memRepo) readCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[op]
}

// seedCatalog adds one category and n published gateways plus one draft.
func seedCatalog(m *memRepo, n int) {
	m.categories["gateways"] = Category{Slug: "gateways", Name: "Gateways", SortOrder: 1}
	for i := 0; i < n; i++ {
		slug := "gateway-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		m.products[slug] = Product{
			ID:           "id-" + slug,
			Slug:         slug,
			Name:         "Gateway " + slug,
			CategorySlug: "gateways",
			Status:       StatusPublished,
		}
	}
	m.products["prototype"] = Product{ID: "id-prototype", Slug: "prototype", Name: "Prototype", CategorySlug: "gateways", Status: StatusDraft}
}
