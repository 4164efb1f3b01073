package model

import "time"

// HeroSlide is one entry of the landing page carousel
type HeroSlide struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Subtitle  string    `db:"subtitle" json:"subtitle"`
	ImagePath string    `db:"image_path" json:"image_path"`
	CTALabel  string    `db:"cta_label" json:"cta_label"`
	CTAURL    string    `db:"cta_url" json:"cta_url"`
	Position  int       `db:"position" json:"position"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
