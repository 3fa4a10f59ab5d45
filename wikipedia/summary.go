package wikipedia

import (
	"fmt"
	"strings"
	"time"
)

// Summary is the page summary the REST API returns: the lead extract
// plus enough metadata to render a card.
type Summary struct {
	Title        string      `json:"title"`
	DisplayTitle string      `json:"displaytitle,omitempty"`
	Description  string      `json:"description,omitempty"`
	Extract      string      `json:"extract"`
	Lang         string      `json:"lang"`
	Timestamp    time.Time   `json:"timestamp,omitempty"`
	Thumbnail    *Image      `json:"thumbnail,omitempty"`
	ContentURLs  ContentURLs `json:"content_urls,omitempty"`
}

// Image is a thumbnail or original page image.
type Image struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ContentURLs carries the canonical page links.
type ContentURLs struct {
	Desktop PageURLs `json:"desktop"`
	Mobile  PageURLs `json:"mobile"`
}

type PageURLs struct {
	Page string `json:"page"`
}

// NormalizeTitle rewrites a human-typed title the way page URLs spell
// it: trimmed, inner spaces as underscores.
func NormalizeTitle(title string) string {
	return strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
}

// SummaryKey builds the cache key for a summary lookup. Language is
// part of the key: the same title is a different page per language.
func SummaryKey(lang, title string) string {
	return fmt.Sprintf("summary:%s:%s", lang, NormalizeTitle(title))
}
