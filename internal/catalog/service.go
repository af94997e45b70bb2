package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/validation"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 48
)

type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Service applies catalog rules on top of the store, cache and search index.
// cache and search may be nil.
type Service struct {
	repo        Repository
	cache       *Cache
	search      SearchIndex
	defaultSize int
	maxSize     int
	logger      logger.Logger
	now         func() time.Time
}

func NewService(repo Repository, cache *Cache, search SearchIndex, opts Options, log logger.Logger) *Service {
	s := &Service{
		repo:        repo,
		cache:       cache,
		search:      search,
		defaultSize: opts.DefaultPageSize,
		maxSize:     opts.MaxPageSize,
		logger:      log,
		now:         time.Now,
	}
	if s.defaultSize <= 0 {
		s.defaultSize = DefaultPageSize
	}
	if s.maxSize <= 0 {
		s.maxSize = MaxPageSize
	}
	if s.defaultSize > s.maxSize {
		s.defaultSize = s.maxSize
	}
	return s
}

func (s *Service) paginate(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = s.defaultSize
	}
	if size > s.maxSize {
		size = s.maxSize
	}
	return page, size
}

// ==========================
// Products
// ==========================

func (s *Service) ListProducts(ctx context.Context, f ProductFilter) (*Page[Product], error) {
	f.Page, f.PageSize = s.paginate(f.Page, f.PageSize)

	if f.Query != "" && s.search != nil {
		items, total, err := s.search.Search(ctx, f)
		if err == nil {
			return newPage(items, total, f.Page, f.PageSize), nil
		}
		s.logger.Warn("product search failed, falling back to database", map[string]interface{}{
			"query": f.Query,
			"error": err,
		})
	}

	key := s.cache.listKey(ctx, entityProduct, productListParams(f))
	var cached Page[Product]
	if key != "" && s.cache.get(ctx, entityProduct, key, &cached) {
		return &cached, nil
	}

	items, total, err := s.repo.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	page := newPage(items, total, f.Page, f.PageSize)
	s.cache.set(ctx, key, page)
	return page, nil
}

// GetProduct returns a product by slug. Drafts are hidden unless includeDrafts.
func (s *Service) GetProduct(ctx context.Context, slug string, includeDrafts bool) (*Product, error) {
	var p Product
	if !s.cache.get(ctx, entityProduct, productKey(slug), &p) {
		got, err := s.repo.GetProduct(ctx, slug)
		if err != nil {
			return nil, err
		}
		p = *got
		s.cache.set(ctx, productKey(slug), p)
	}
	if !includeDrafts && p.Status != StatusPublished {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if err := checkSlug(p.Slug); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.cache.evict(ctx, productKey(p.Slug))
	s.cache.bump(ctx, entityProduct)
	s.index(ctx, p)
	return nil
}

func (s *Service) UpdateProduct(ctx context.Context, slug string, p *Product) error {
	if err := checkSlug(p.Slug); err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if err := s.repo.UpdateProduct(ctx, slug, p); err != nil {
		return err
	}
	s.cache.evict(ctx, productKey(slug), productKey(p.Slug))
	s.cache.bump(ctx, entityProduct)
	s.index(ctx, p)
	return nil
}

func (s *Service) DeleteProduct(ctx context.Context, slug string) error {
	id, err := s.repo.DeleteProduct(ctx, slug)
	if err != nil {
		return err
	}
	s.cache.evict(ctx, productKey(slug))
	s.cache.bump(ctx, entityProduct)
	if s.search != nil {
		if err := s.search.Delete(ctx, id); err != nil {
			s.logger.Warn("search index delete failed", map[string]interface{}{"slug": slug, "error": err})
		}
	}
	return nil
}

func (s *Service) index(ctx context.Context, p *Product) {
	if s.search == nil {
		return
	}
	if err := s.search.Index(ctx, p); err != nil {
		s.logger.Warn("search indexing failed", map[string]interface{}{"slug": p.Slug, "error": err})
	}
}

// ==========================
// Categories
// ==========================

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var cached []Category
	if s.cache.get(ctx, entityCategory, categoriesKey, &cached) {
		return cached, nil
	}
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []Category{}
	}
	s.cache.set(ctx, categoriesKey, cats)
	return cats, nil
}

func (s *Service) CreateCategory(ctx context.Context, c *Category) error {
	if err := checkSlug(c.Slug); err != nil {
		return err
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return err
	}
	s.cache.evict(ctx, categoriesKey)
	return nil
}

func (s *Service) DeleteCategory(ctx context.Context, slug string) error {
	if err := s.repo.DeleteCategory(ctx, slug); err != nil {
		return err
	}
	s.cache.evict(ctx, categoriesKey)
	return nil
}

// ==========================
// Posts
// ==========================

func (s *Service) ListPosts(ctx context.Context, f PostFilter) (*Page[Post], error) {
	f.Page, f.PageSize = s.paginate(f.Page, f.PageSize)

	key := s.cache.listKey(ctx, entityPost, postListParams(f))
	var cached Page[Post]
	if key != "" && s.cache.get(ctx, entityPost, key, &cached) {
		return &cached, nil
	}

	items, total, err := s.repo.ListPosts(ctx, f)
	if err != nil {
		return nil, err
	}
	page := newPage(items, total, f.Page, f.PageSize)
	s.cache.set(ctx, key, page)
	return page, nil
}

func (s *Service) GetPost(ctx context.Context, slug string, includeDrafts bool) (*Post, error) {
	var p Post
	if !s.cache.get(ctx, entityPost, postKey(slug), &p) {
		got, err := s.repo.GetPost(ctx, slug)
		if err != nil {
			return nil, err
		}
		p = *got
		s.cache.set(ctx, postKey(slug), p)
	}
	if !includeDrafts && p.Status != StatusPublished {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *Service) CreatePost(ctx context.Context, p *Post) error {
	if err := checkSlug(p.Slug); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.stampPublished(p)
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return err
	}
	s.cache.evict(ctx, postKey(p.Slug))
	s.cache.bump(ctx, entityPost)
	return nil
}

func (s *Service) UpdatePost(ctx context.Context, slug string, p *Post) error {
	if err := checkSlug(p.Slug); err != nil {
		return err
	}
	if p.PublishedAt == nil {
		if existing, err := s.repo.GetPost(ctx, slug); err == nil {
			p.PublishedAt = existing.PublishedAt
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	s.stampPublished(p)
	if err := s.repo.UpdatePost(ctx, slug, p); err != nil {
		return err
	}
	s.cache.evict(ctx, postKey(slug), postKey(p.Slug))
	s.cache.bump(ctx, entityPost)
	return nil
}

func (s *Service) DeletePost(ctx context.Context, slug string) error {
	if err := s.repo.DeletePost(ctx, slug); err != nil {
		return err
	}
	s.cache.evict(ctx, postKey(slug))
	s.cache.bump(ctx, entityPost)
	return nil
}

// stampPublished defaults the status to draft and sets PublishedAt the first
// time a post is published.
func (s *Service) stampPublished(p *Post) {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Status == StatusPublished && p.PublishedAt == nil {
		now := s.now().UTC()
		p.PublishedAt = &now
	}
}

func checkSlug(slug string) error {
	if !validation.ValidateSlug(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}
