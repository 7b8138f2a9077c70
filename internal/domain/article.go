package domain

import "time"

// Article is a news summary shown in the feed.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// Complete reports whether the article has everything the feed needs to show it.
func (a Article) Complete() bool {
	return a.Title != "" && a.Description != "" && a.URL != ""
}
