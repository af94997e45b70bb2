package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Repository is the durable catalog store.
type Repository interface {
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, int, error)
	GetProduct(ctx context.Context, slug string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, slug string, p *Product) error
	DeleteProduct(ctx context.Context, slug string) (string, error)

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, slug string) error

	ListPosts(ctx context.Context, f PostFilter) ([]Post, int, error)
	GetPost(ctx context.Context, slug string) (*Post, error)
	CreatePost(ctx context.Context, p *Post) error
	UpdatePost(ctx context.Context, slug string, p *Post) error
	DeletePost(ctx context.Context, slug string) error
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// PostgresRepository implements Repository with lib/pq.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// mapError translates constraint violations into catalog errors.
func mapError(err error, fkErr error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", ErrSlugConflict, pqErr.Detail)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", fkErr, pqErr.Detail)
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ==========================
// Products
// ==========================

const productColumns = `id, slug, name, category_slug, summary, description, features, images, featured, status, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (*Product, error) {
	var p Product
	var status string
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.CategorySlug, &p.Summary, &p.Description,
		pq.Array(&p.Features), pq.Array(&p.Images), &p.Featured, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = Status(status)
	return &p, nil
}

func productWhere(f ProductFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if !f.IncludeDrafts {
		add("status = $%d", string(StatusPublished))
	}
	if f.Category != "" {
		add("category_slug = $%d", f.Category)
	}
	if f.Featured != nil {
		add("featured = $%d", *f.Featured)
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR summary ILIKE $%d)", len(args), len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) ListProducts(ctx context.Context, f ProductFilter) ([]Product, int, error) {
	where, args := productWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY featured DESC, name ASC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, f.PageSize, f.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepository) GetProduct(ctx context.Context, slug string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
	if err != nil {
		return nil, mapError(err, ErrUnknownCategory)
	}
	return p, nil
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (id, slug, name, category_slug, summary, description, features, images, featured, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		p.ID, p.Slug, p.Name, p.CategorySlug, p.Summary, p.Description,
		textArray(p.Features), textArray(p.Images), p.Featured, string(p.Status),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapError(err, ErrUnknownCategory)
	}
	return nil
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, slug string, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE products SET slug = $2, name = $3, category_slug = $4, summary = $5, description = $6,
			features = $7, images = $8, featured = $9, status = $10, updated_at = NOW()
		WHERE slug = $1
		RETURNING id, created_at, updated_at`,
		slug, p.Slug, p.Name, p.CategorySlug, p.Summary, p.Description,
		textArray(p.Features), textArray(p.Images), p.Featured, string(p.Status),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapError(err, ErrUnknownCategory)
	}
	return nil
}

// DeleteProduct returns the deleted product's id.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, slug string) (string, error) {
	var id string
	if err := r.db.QueryRowContext(ctx, `DELETE FROM products WHERE slug = $1 RETURNING id`, slug).Scan(&id); err != nil {
		return "", mapError(err, ErrUnknownCategory)
	}
	return id, nil
}

// ==========================
// Categories
// ==========================

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT slug, name, description, sort_order FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Slug, &c.Name, &c.Description, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, c *Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (slug, name, description, sort_order) VALUES ($1, $2, $3, $4)`,
		c.Slug, c.Name, c.Description, c.SortOrder)
	if err != nil {
		return mapError(err, ErrUnknownCategory)
	}
	return nil
}

func (r *PostgresRepository) DeleteCategory(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE slug = $1`, slug)
	if err != nil {
		return mapError(err, ErrCategoryInUse)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==========================
// Posts
// ==========================

const postColumns = `id, slug, title, excerpt, content, author, tags, status, published_at, created_at, updated_at`

func scanPost(row scanner) (*Post, error) {
	var p Post
	var status string
	var published sql.NullTime
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Content, &p.Author,
		pq.Array(&p.Tags), &status, &published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = Status(status)
	if published.Valid {
		t := published.Time
		p.PublishedAt = &t
	}
	return &p, nil
}

func postWhere(f PostFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if !f.IncludeDrafts {
		args = append(args, string(StatusPublished))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		conds = append(conds, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) ListPosts(ctx context.Context, f PostFilter) ([]Post, int, error) {
	where, args := postWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM posts%s ORDER BY published_at DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d`,
		postColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, f.PageSize, f.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepository) GetPost(ctx context.Context, slug string) (*Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug))
	if err != nil {
		return nil, mapError(err, ErrNotFound)
	}
	return p, nil
}

func (r *PostgresRepository) CreatePost(ctx context.Context, p *Post) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO posts (id, slug, title, excerpt, content, author, tags, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		p.ID, p.Slug, p.Title, p.Excerpt, p.Content, p.Author, textArray(p.Tags), string(p.Status), nullTime(p.PublishedAt),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapError(err, ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) UpdatePost(ctx context.Context, slug string, p *Post) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE posts SET slug = $2, title = $3, excerpt = $4, content = $5, author = $6,
			tags = $7, status = $8, published_at = $9, updated_at = NOW()
		WHERE slug = $1
		RETURNING id, created_at, updated_at`,
		slug, p.Slug, p.Title, p.Excerpt, p.Content, p.Author, textArray(p.Tags), string(p.Status), nullTime(p.PublishedAt),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapError(err, ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) DeletePost(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// textArray maps nil to an empty array so NOT NULL columns accept it.
func textArray(v []string) interface{} {
	if v == nil {
		v = []string{}
	}
	return pq.Array(v)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
