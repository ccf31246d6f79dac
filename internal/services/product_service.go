package services

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/viper"

	"github.com/shopmate/backend/internal/models"
	"github.com/shopmate/backend/internal/store"
)

// ProductStore is the catalog read surface the HTTP layer depends on.
type ProductStore interface {
	List(params store.ListParams) ([]models.Product, *store.Pagination, error)
	GetByID(id int) (*models.Product, error)
	Categories() ([]models.Category, error)
	Featured(limit int) (*store.FeaturedProducts, error)
}

type ProductService struct {
	products ProductStore
}

func NewProductService(products ProductStore) *ProductService {
	return &ProductService{products: products}
}

// ProductListResponse represents a paginated product listing
// @Description Product listing response structure
type ProductListResponse struct {
	Success    bool              `json:"success" example:"true"`
	Products   []models.Product  `json:"products"`
	Pagination *store.Pagination `json:"pagination"`
}

// ProductResponse represents a single product response
// @Description Product response structure
type ProductResponse struct {
	Success bool            `json:"success" example:"true"`
	Product *models.Product `json:"product"`
}

// CategoryListResponse represents the category listing
// @Description Category listing response structure
type CategoryListResponse struct {
	Success    bool              `json:"success" example:"true"`
	Categories []models.Category `json:"categories"`
}

// FeaturedResponse represents the home screen rails
// @Description Featured products response structure
type FeaturedResponse struct {
	Success  bool                    `json:"success" example:"true"`
	Featured *store.FeaturedProducts `json:"featured"`
}

func parseListParams(r *http.Request) store.ListParams {
	q := r.URL.Query()

	params := store.ListParams{
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	params.Page, _ = strconv.Atoi(q.Get("page"))
	params.Limit, _ = strconv.Atoi(q.Get("limit"))
	params.CategoryID, _ = strconv.Atoi(q.Get("category"))

	if v := q.Get("minPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.MinPrice = &f
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.MaxPrice = &f
		}
	}
	return params
}

// ListProducts returns one page of the catalog
// @Summary List products
// @Description List active products with search, category, price filters and sorting
// @Tags products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 50)" default(10)
// @Param search query string false "Match against name and description"
// @Param category query int false "Category id"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param sortBy query string false "price, rating, sold, or createdAt"
// @Param sortOrder query string false "asc or desc" default(desc)
// @Success 200 {object} ProductListResponse "Product page"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /products [get]
func (s *ProductService) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, pagination, err := s.products.List(parseListParams(r))
	if err != nil {
		log.Printf("[PRODUCT] Listing failed: %v", err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	sendJSON(w, http.StatusOK, ProductListResponse{
		Success:    true,
		Products:   products,
		Pagination: pagination,
	})
}

// GetProduct returns a single product
// @Summary Get product
// @Description Return one active product by id
// @Tags products
// @Produce json
// @Param id path int true "Product id"
// @Success 200 {object} ProductResponse "Product"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /products/{id} [get]
func (s *ProductService) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		SendErrorResponse(w, "Invalid product id", http.StatusBadRequest, nil)
		return
	}

	product, err := s.products.GetByID(id)
	if errors.Is(err, store.ErrProductNotFound) {
		SendErrorResponse(w, "Product not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[PRODUCT] Lookup failed for %d: %v", id, err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	sendJSON(w, http.StatusOK, ProductResponse{Success: true, Product: product})
}

// GetCategories returns all categories
// @Summary List categories
// @Description Return all active categories with product counts
// @Tags products
// @Produce json
// @Success 200 {object} CategoryListResponse "Categories"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /products/categories/all [get]
func (s *ProductService) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.products.Categories()
	if err != nil {
		log.Printf("[PRODUCT] Category listing failed: %v", err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	sendJSON(w, http.StatusOK, CategoryListResponse{Success: true, Categories: categories})
}

// GetFeatured returns the home screen rails
// @Summary Featured products
// @Description Return the top rated, best selling, and newest products
// @Tags products
// @Produce json
// @Param limit query int false "Products per rail (max 50)" default(10)
// @Success 200 {object} FeaturedResponse "Featured rails"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /products/featured [get]
func (s *ProductService) GetFeatured(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	featured, err := s.products.Featured(limit)
	if err != nil {
		log.Printf("[PRODUCT] Featured listing failed: %v", err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	sendJSON(w, http.StatusOK, FeaturedResponse{Success: true, Featured: featured})
}

// ProductQR renders a share QR code for a product page
// @Summary Product share QR
// @Description Render a PNG QR code pointing at the product's public page
// @Tags products
// @Produce png
// @Param id path int true "Product id"
// @Success 200 {string} binary "PNG image"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /products/{id}/qr [get]
func (s *ProductService) ProductQR(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		SendErrorResponse(w, "Invalid product id", http.StatusBadRequest, nil)
		return
	}

	product, err := s.products.GetByID(id)
	if errors.Is(err, store.ErrProductNotFound) {
		SendErrorResponse(w, "Product not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[PRODUCT] Lookup failed for %d: %v", id, err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	baseURL := viper.GetString("app.public_url")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	shareURL := fmt.Sprintf("%s/products/%d", baseURL, product.ID)

	png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		log.Printf("[PRODUCT] QR generation failed for %d: %v", id, err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}
