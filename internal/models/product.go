package models

import "time"

type Category struct {
	ID           int     `json:"id" example:"1"`
	Name         string  `json:"name" example:"Electronics"`
	Description  *string `json:"description,omitempty"`
	Image        *string `json:"image,omitempty"`
	IsActive     bool    `json:"-"`
	ProductCount int     `json:"productCount" example:"12"`
}

type Product struct {
	ID            int      `json:"id" example:"1"`
	Name          string   `json:"name" example:"Wireless Headphones"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price" example:"299000"`
	OriginalPrice *float64 `json:"originalPrice" example:"399000"`
	Image         string   `json:"image"`
	Images        []string `json:"images,omitempty"`
	Rating        float64  `json:"rating" example:"4.5"`
	RatingCount   int      `json:"ratingCount" example:"120"`
	Sold          int      `json:"sold" example:"350"`
	Stock         int      `json:"stock" example:"40"`
	IsActive      bool     `json:"isActive"`
	CategoryID    int      `json:"categoryId" example:"1"`
	CategoryName  string   `json:"categoryName,omitempty" example:"Electronics"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
