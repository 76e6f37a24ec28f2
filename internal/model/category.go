package model

import "time"

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Icon      string    `json:"icon"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
