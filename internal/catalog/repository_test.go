package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productCols = []string{"id", "slug", "name", "category_slug", "summary", "description",
	"features", "images", "featured", "status", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgres_ListProductsFilters(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	featured := true

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products WHERE status = $1 AND category_slug = $2 AND featured = $3`)).
		WithArgs("published", "gateways", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY featured DESC, name ASC LIMIT $4 OFFSET $5`)).
		WithArgs("published", "gateways", true, 12, 12).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow("p1", "edge-gateway-x1", "Edge Gateway X1", "gateways", "LTE edge gateway", "",
				"{LTE,Modbus}", "{/img/x1.png}", true, "published", now, now))

	items, total, err := repo.ListProducts(context.Background(), ProductFilter{
		Category: "gateways", Featured: &featured, Page: 2, PageSize: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 13, total)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"LTE", "Modbus"}, items[0].Features)
	assert.Equal(t, []string{"/img/x1.png"}, items[0].Images)
	assert.Equal(t, StatusPublished, items[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListProductsQueryFallback(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products WHERE (name ILIKE $1 OR summary ILIKE $1)`)).
		WithArgs("%lora%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM products`).
		WithArgs("%lora%", 12, 0).
		WillReturnRows(sqlmock.NewRows(productCols))

	items, total, err := repo.ListProducts(context.Background(), ProductFilter{Query: "lora", IncludeDrafts: true, Page: 1, PageSize: 12})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetProductNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM products WHERE slug = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(productCols))

	_, err := repo.GetProduct(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgres_CreateProduct(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO products`).
		WithArgs("p1", "edge-gateway-x1", "Edge Gateway X1", "gateways", "", "",
			pq.Array([]string{}), pq.Array([]string{"/a.png"}), false, "draft").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	p := &Product{ID: "p1", Slug: "edge-gateway-x1", Name: "Edge Gateway X1", CategorySlug: "gateways",
		Images: []string{"/a.png"}, Status: StatusDraft}
	require.NoError(t, repo.CreateProduct(context.Background(), p))
	assert.Equal(t, now, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ConstraintErrors(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO products`).
		WillReturnError(&pq.Error{Code: "23505", Detail: "Key (slug)=(edge-gateway-x1) already exists."})
	err := repo.CreateProduct(context.Background(), &Product{ID: "p1", Slug: "edge-gateway-x1"})
	assert.True(t, errors.Is(err, ErrSlugConflict))
	assert.Contains(t, err.Error(), "already exists")

	mock.ExpectQuery(`INSERT INTO products`).
		WillReturnError(&pq.Error{Code: "23503", Detail: "Key (category_slug)=(nope) is not present."})
	err = repo.CreateProduct(context.Background(), &Product{ID: "p2", Slug: "x"})
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	mock.ExpectExec(`DELETE FROM categories`).
		WithArgs("gateways").
		WillReturnError(&pq.Error{Code: "23503"})
	err = repo.DeleteCategory(context.Background(), "gateways")
	assert.True(t, errors.Is(err, ErrCategoryInUse))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM posts`).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, errors.Is(repo.DeletePost(context.Background(), "gone"), ErrNotFound))

	mock.ExpectQuery(`DELETE FROM products WHERE slug = \$1 RETURNING id`).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err := repo.DeleteProduct(context.Background(), "gone")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgres_ListPostsByTag(t *testing.T) {
	repo, mock := newMockRepo(t)
	published := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM posts WHERE status = $1 AND $2 = ANY(tags)`)).
		WithArgs("published", "lorawan").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM posts`).
		WithArgs("published", "lorawan", 12, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "title", "excerpt", "content", "author",
			"tags", "status", "published_at", "created_at", "updated_at"}).
			AddRow("b1", "lora-range", "LoRa range", "", "", "Ops", "{lorawan,rf}", "published", published, published, published).
			AddRow("b2", "draft-ish", "Unstamped", "", "", "Ops", "{lorawan}", "published", nil, published, published))

	posts, total, err := repo.ListPosts(context.Background(), PostFilter{Tag: "lorawan", Page: 1, PageSize: 12})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, posts, 2)
	require.NotNil(t, posts[0].PublishedAt)
	assert.Equal(t, published, *posts[0].PublishedAt)
	assert.Equal(t, []string{"lorawan", "rf"}, posts[0].Tags)
	assert.Nil(t, posts[1].PublishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
