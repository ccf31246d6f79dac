package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmate/backend/internal/models"
	"github.com/shopmate/backend/internal/store"
)

// stubProducts returns canned catalog data and records the params it saw.
type stubProducts struct {
	lastParams store.ListParams
	products   []models.Product
	err        error
}

func (s *stubProducts) List(params store.ListParams) ([]models.Product, *store.Pagination, error) {
	s.lastParams = params
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.products, &store.Pagination{Page: 1, Limit: 10,
		Total: len(s.products), TotalPages: 1}, nil
}

func (s *stubProducts) GetByID(id int) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, store.ErrProductNotFound
}

func (s *stubProducts) Categories() ([]models.Category, error) {
	return []models.Category{{ID: 1, Name: "Electronics", ProductCount: 2}}, s.err
}

func (s *stubProducts) Featured(limit int) (*store.FeaturedProducts, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &store.FeaturedProducts{TopRated: s.products,
		BestSellers: s.products, Newest: s.products}, nil
}

func newProductRouter(stub *stubProducts) http.Handler {
	svc := NewProductService(stub)
	r := chi.NewRouter()
	r.Get("/api/products", svc.ListProducts)
	r.Get("/api/products/featured", svc.GetFeatured)
	r.Get("/api/products/categories/all", svc.GetCategories)
	r.Get("/api/products/{id}", svc.GetProduct)
	r.Get("/api/products/{id}/qr", svc.ProductQR)
	return r
}

func TestListProductsHandler(t *testing.T) {
	stub := &stubProducts{products: []models.Product{
		{ID: 1, Name: "Wireless Headphones", Price: 299000},
	}}
	router := newProductRouter(stub)

	t.Run("query params become list params", func(t *testing.T) {
		req := httptest.NewRequest("GET",
			"/api/products?page=2&limit=5&search=watch&category=3&minPrice=1000&sortBy=price&sortOrder=asc", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, stub.lastParams.Page)
		assert.Equal(t, 5, stub.lastParams.Limit)
		assert.Equal(t, "watch", stub.lastParams.Search)
		assert.Equal(t, 3, stub.lastParams.CategoryID)
		require.NotNil(t, stub.lastParams.MinPrice)
		assert.Equal(t, 1000.0, *stub.lastParams.MinPrice)
		assert.Nil(t, stub.lastParams.MaxPrice)
		assert.Equal(t, "price", stub.lastParams.SortBy)
		assert.Equal(t, "asc", stub.lastParams.SortOrder)

		var resp ProductListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.Success)
		assert.Len(t, resp.Products, 1)
		require.NotNil(t, resp.Pagination)
	})

	t.Run("store failure is an opaque 500", func(t *testing.T) {
		broken := &stubProducts{err: errors.New("connection refused")}
		req := httptest.NewRequest("GET", "/api/products", nil)
		rec := httptest.NewRecorder()
		newProductRouter(broken).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestGetProductHandler(t *testing.T) {
	stub := &stubProducts{products: []models.Product{
		{ID: 5, Name: "Bluetooth Speaker", Price: 450000},
	}}
	router := newProductRouter(stub)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/products/5", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ProductResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Bluetooth Speaker", resp.Product.Name)
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/products/99", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/products/abc", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCategoriesAndFeaturedHandlers(t *testing.T) {
	stub := &stubProducts{products: []models.Product{
		{ID: 1, Name: "Wireless Headphones", Price: 299000},
	}}
	router := newProductRouter(stub)

	t.Run("categories", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/products/categories/all", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp CategoryListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Categories, 1)
		assert.Equal(t, 2, resp.Categories[0].ProductCount)
	})

	t.Run("featured rails", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/products/featured", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp FeaturedResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.NotNil(t, resp.Featured)
		assert.Len(t, resp.Featured.TopRated, 1)
	})
}

func TestProductQRHandler(t *testing.T) {
	stub := &stubProducts{products: []models.Product{
		{ID: 5, Name: "Bluetooth Speaker", Price: 450000},
	}}
	router := newProductRouter(stub)

	t.Run("renders a png", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/products/5/qr", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "\x89PNG", rec.Body.String()[:4])
	})

	t.Run("missing product", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/products/99/qr", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
