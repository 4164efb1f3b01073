package model

import "time"

type Testimonial struct {
	ID          string    `db:"id" json:"id"`
	AuthorName  string    `db:"author_name" json:"author_name"`
	AuthorTitle string    `db:"author_title" json:"author_title"`
	AvatarPath  string    `db:"avatar_path" json:"avatar_path"`
	Quote       string    `db:"quote" json:"quote"`
	Rating      int       `db:"rating" json:"rating"`
	Position    int       `db:"position" json:"position"`
	Published   bool      `db:"published" json:"published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
