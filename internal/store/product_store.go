package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopmate/backend/internal/models"
)

// ErrProductNotFound is returned when no active product matches the id.
var ErrProductNotFound = errors.New("product not found")

// ListParams narrows and orders a product listing.
type ListParams struct {
	Page       int
	Limit      int
	Search     string
	CategoryID int
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string // price, rating, sold, created_at
	SortOrder  string // asc, desc
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page" example:"1"`
	Limit      int `json:"limit" example:"10"`
	Total      int `json:"total" example:"135"`
	TotalPages int `json:"totalPages" example:"14"`
}

// FeaturedProducts groups the three home screen rails.
type FeaturedProducts struct {
	TopRated    []models.Product `json:"topRated"`
	BestSellers []models.Product `json:"bestSellers"`
	Newest      []models.Product `json:"newest"`
}

// PostgresProductStore reads the catalog tables.
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

var sortColumns = map[string]string{
	"price":     "p.price",
	"rating":    "p.rating",
	"sold":      "p.sold",
	"createdAt": "p.created_at",
}

const productColumns = `p.id, p.name, p.description, p.price, p.original_price,
	p.image, p.images, p.rating, p.rating_count, p.sold, p.stock, p.is_active,
	p.category_id, c.name, p.created_at, p.updated_at`

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var originalPrice sql.NullFloat64
	var imagesJSON, categoryName sql.NullString

	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &originalPrice,
		&p.Image, &imagesJSON, &p.Rating, &p.RatingCount, &p.Sold, &p.Stock,
		&p.IsActive, &p.CategoryID, &categoryName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("scanning product row: %w", err)
	}

	if originalPrice.Valid {
		v := originalPrice.Float64
		p.OriginalPrice = &v
	}
	p.CategoryName = categoryName.String
	if imagesJSON.Valid && imagesJSON.String != "" {
		// images is stored as a JSON array of URLs; a broken value only
		// loses the gallery, not the whole product
		_ = json.Unmarshal([]byte(imagesJSON.String), &p.Images)
	}

	return &p, nil
}

// List returns one page of active products plus the pagination envelope.
func (s *PostgresProductStore) List(params ListParams) ([]models.Product, *Pagination, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 50 {
		params.Limit = 10
	}

	where := []string{"p.is_active = TRUE"}
	args := []any{}

	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf(
			"(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}
	if params.CategoryID > 0 {
		args = append(args, params.CategoryID)
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if params.MinPrice != nil {
		args = append(args, *params.MinPrice)
		where = append(where, fmt.Sprintf("p.price >= $%d", len(args)))
	}
	if params.MaxPrice != nil {
		args = append(args, *params.MaxPrice)
		where = append(where, fmt.Sprintf("p.price <= $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM products p WHERE "+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, nil, fmt.Errorf("counting products: %w", err)
	}

	sortCol, ok := sortColumns[params.SortBy]
	if !ok {
		sortCol = "p.created_at"
	}
	direction := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		direction = "ASC"
	}

	args = append(args, params.Limit, (params.Page-1)*params.Limit)
	query := fmt.Sprintf(
		`SELECT %s FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, sortCol, direction, len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("listing products: %w", err)
	}

	pagination := &Pagination{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(params.Limit))),
	}
	return products, pagination, nil
}

// GetByID returns a single active product with its category name.
func (s *PostgresProductStore) GetByID(id int) (*models.Product, error) {
	row := s.db.QueryRow(
		`SELECT `+productColumns+` FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1 AND p.is_active = TRUE`, id)
	return scanProduct(row)
}

// Categories returns all active categories with their product counts.
func (s *PostgresProductStore) Categories() ([]models.Category, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.name, c.description, c.image, COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id AND p.is_active = TRUE
		WHERE c.is_active = TRUE
		GROUP BY c.id, c.name, c.description, c.image
		ORDER BY c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		var description, image sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description, &image, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		if description.Valid {
			c.Description = &description.String
		}
		if image.Valid {
			c.Image = &image.String
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Featured returns the top rated, best selling, and newest products.
func (s *PostgresProductStore) Featured(limit int) (*FeaturedProducts, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	featured := &FeaturedProducts{}
	rails := []struct {
		order string
		dest  *[]models.Product
	}{
		{"p.rating DESC", &featured.TopRated},
		{"p.sold DESC", &featured.BestSellers},
		{"p.created_at DESC", &featured.Newest},
	}

	for _, rail := range rails {
		query := fmt.Sprintf(
			`SELECT %s FROM products p
			LEFT JOIN categories c ON c.id = p.category_id
			WHERE p.is_active = TRUE ORDER BY %s LIMIT $1`,
			productColumns, rail.order)

		rows, err := s.db.Query(query, limit)
		if err != nil {
			return nil, fmt.Errorf("listing featured products: %w", err)
		}

		products := []models.Product{}
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			products = append(products, *p)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("listing featured products: %w", err)
		}
		rows.Close()
		*rail.dest = products
	}

	return featured, nil
}
