package model

import "time"

// Course represents a course listed in the catalog
type Course struct {
	ID            string    `db:"id" json:"id"`
	Slug          string    `db:"slug" json:"slug"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	PricePaise    int64     `db:"price_paise" json:"price_paise"`
	Currency      string    `db:"currency" json:"currency"`
	ThumbnailPath string    `db:"thumbnail_path" json:"thumbnail_path"`
	Published     bool      `db:"published" json:"published"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// IsFree reports whether the course can be enrolled in without payment.
func (c *Course) IsFree() bool {
	return c.PricePaise == 0
}
