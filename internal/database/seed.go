package database

import (
	"database/sql"
	"fmt"
	"log"
)

type seedProduct struct {
	name     string
	price    float64
	original float64
	rating   float64
	sold     int
	stock    int
	category string
}

var seedCategories = []string{"Electronics", "Fashion", "Home & Living", "Books", "Sports"}

var seedProducts = []seedProduct{
	{"Wireless Headphones", 299000, 399000, 4.5, 350, 40, "Electronics"},
	{"Smart Watch", 1290000, 1590000, 4.2, 120, 25, "Electronics"},
	{"Bluetooth Speaker", 450000, 0, 4.7, 510, 60, "Electronics"},
	{"Cotton T-Shirt", 99000, 149000, 4.1, 890, 200, "Fashion"},
	{"Denim Jacket", 350000, 0, 4.4, 210, 55, "Fashion"},
	{"Ceramic Mug Set", 159000, 199000, 4.6, 430, 80, "Home & Living"},
	{"Desk Lamp", 220000, 0, 4.3, 150, 35, "Home & Living"},
	{"Learning Go", 280000, 0, 4.8, 95, 20, "Books"},
	{"Yoga Mat", 180000, 250000, 4.5, 620, 110, "Sports"},
	{"Running Shoes", 890000, 1100000, 4.6, 340, 45, "Sports"},
}

// SeedCatalog fills the catalog tables with demo data when they are empty.
// Meant for development and demos only.
func SeedCatalog(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return fmt.Errorf("checking product count: %w", err)
	}
	if count > 0 {
		return nil
	}

	categoryIDs := map[string]int{}
	for _, name := range seedCategories {
		var id int
		err := db.QueryRow(
			`INSERT INTO categories (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&id)
		if err != nil {
			return fmt.Errorf("seeding category %q: %w", name, err)
		}
		categoryIDs[name] = id
	}

	for _, p := range seedProducts {
		var original *float64
		if p.original > 0 {
			original = &p.original
		}
		_, err := db.Exec(
			`INSERT INTO products (name, description, price, original_price,
				rating, rating_count, sold, stock, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.name, "Demo listing for "+p.name, p.price, original,
			p.rating, p.sold/3, p.sold, p.stock, categoryIDs[p.category])
		if err != nil {
			return fmt.Errorf("seeding product %q: %w", p.name, err)
		}
	}

	log.Printf("Seeded catalog with %d products in %d categories",
		len(seedProducts), len(seedCategories))
	return nil
}
