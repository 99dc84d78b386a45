package model

// Attraction is a structured content card shown on the public site.
// Image holds a reference path (typically under /uploads/) and Tag is a
// short display label; both are optional.
type Attraction struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Tag         string `json:"tag"`
}
