package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{"id", "name", "description", "price",
	"original_price", "image", "images", "rating", "rating_count", "sold",
	"stock", "is_active", "category_id", "category_name", "created_at", "updated_at"}

func newProductRows() *sqlmock.Rows {
	return sqlmock.NewRows(productRowColumns)
}

func addProduct(rows *sqlmock.Rows, id int, name string, price float64) {
	now := time.Now()
	rows.AddRow(id, name, "Demo listing for "+name, price, nil, "/img.png",
		`["a.png","b.png"]`, 4.5, 12, 100, 30, true, 1, "Electronics", now, now)
}

func TestProductStoreList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresProductStore(db)

	t.Run("defaults and pagination envelope", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(23))

		rows := newProductRows()
		addProduct(rows, 1, "Wireless Headphones", 299000)
		addProduct(rows, 2, "Smart Watch", 1290000)
		mock.ExpectQuery(`(?s)SELECT .+ FROM products p`).
			WithArgs(10, 0).
			WillReturnRows(rows)

		products, pagination, err := s.List(ListParams{})
		require.NoError(t, err)
		assert.Len(t, products, 2)
		assert.Equal(t, []string{"a.png", "b.png"}, products[0].Images)
		assert.Equal(t, "Electronics", products[0].CategoryName)
		assert.Equal(t, 1, pagination.Page)
		assert.Equal(t, 10, pagination.Limit)
		assert.Equal(t, 23, pagination.Total)
		assert.Equal(t, 3, pagination.TotalPages)
	})

	t.Run("search and price filters become query args", func(t *testing.T) {
		minPrice := 100000.0
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products`).
			WithArgs("%watch%", 2, minPrice).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rows := newProductRows()
		addProduct(rows, 2, "Smart Watch", 1290000)
		mock.ExpectQuery(`(?s)SELECT .+ FROM products p`).
			WithArgs("%watch%", 2, minPrice, 5, 5).
			WillReturnRows(rows)

		products, pagination, err := s.List(ListParams{
			Page: 2, Limit: 5, Search: "watch", CategoryID: 2,
			MinPrice: &minPrice, SortBy: "price", SortOrder: "asc",
		})
		require.NoError(t, err)
		assert.Len(t, products, 1)
		assert.Equal(t, 2, pagination.Page)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStoreGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresProductStore(db)

	t.Run("found", func(t *testing.T) {
		rows := newProductRows()
		addProduct(rows, 5, "Bluetooth Speaker", 450000)
		mock.ExpectQuery(`(?s)SELECT .+ FROM products p`).
			WithArgs(5).
			WillReturnRows(rows)

		product, err := s.GetByID(5)
		require.NoError(t, err)
		assert.Equal(t, "Bluetooth Speaker", product.Name)
	})

	t.Run("missing or inactive", func(t *testing.T) {
		mock.ExpectQuery(`(?s)SELECT .+ FROM products p`).
			WithArgs(99).
			WillReturnError(sql.ErrNoRows)

		_, err := s.GetByID(99)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStoreCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresProductStore(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "image", "count"}).
		AddRow(1, "Electronics", "Gadgets", nil, 12).
		AddRow(2, "Fashion", nil, nil, 0)
	mock.ExpectQuery(`(?s)SELECT .+ FROM categories c`).WillReturnRows(rows)

	categories, err := s.Categories()
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, 12, categories[0].ProductCount)
	require.NotNil(t, categories[0].Description)
	assert.Equal(t, "Gadgets", *categories[0].Description)
	assert.Nil(t, categories[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStoreFeatured(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresProductStore(db)

	for range 3 {
		rows := newProductRows()
		addProduct(rows, 1, "Wireless Headphones", 299000)
		mock.ExpectQuery(`(?s)SELECT .+ FROM products p`).
			WithArgs(10).
			WillReturnRows(rows)
	}

	featured, err := s.Featured(0)
	require.NoError(t, err)
	assert.Len(t, featured.TopRated, 1)
	assert.Len(t, featured.BestSellers, 1)
	assert.Len(t, featured.Newest, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
