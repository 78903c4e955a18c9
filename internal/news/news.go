// Package news turns raw feed entries into the canonical items shown on the
// display.
package news

import (
	"strings"
	"time"

	"github.com/deusflow/newsboard/internal/sources"
)

// RawFeedEntry is a parsed but not yet normalized feed entry.
type RawFeedEntry struct {
	Title         string
	Link          string
	GUID          string
	PubDate       string
	PubDateParsed *time.Time

	// Description candidates in priority order.
	ContentEncoded string
	Content        string
	Summary        string
	ContentSnippet string
	Description    string

	EnclosureURL     string
	MediaContentURLs []string
	Categories       []string
}

// Item is a normalized news item.
type Item struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Link             string `json:"link"`
	Thumbnail        string `json:"thumbnail"`
	PubDate          string `json:"pubDate"`
	PubDateFormatted string `json:"pubDateFormatted"`
	Source           string `json:"source"`
	Category         string `json:"category"`
}

// Normalizer converts raw entries into Items. Now and RandomID are
// replaceable so output is reproducible in tests.
type Normalizer struct {
	Now      func() time.Time
	RandomID func() string
	Locale   Locale
}

func NewNormalizer(locale Locale) *Normalizer {
	return &Normalizer{
		Now:      time.Now,
		RandomID: randomToken,
		Locale:   locale,
	}
}

// Normalize returns false when the entry has no usable title or link.
func (n *Normalizer) Normalize(entry RawFeedEntry, src sources.NewsSource) (Item, bool) {
	rawTitle := strings.TrimSpace(entry.Title)
	link := strings.TrimSpace(entry.Link)
	if link == "" {
		link = strings.TrimSpace(entry.GUID)
	}

	title := CleanHTML(rawTitle)
	if title == "" || link == "" {
		return Item{}, false
	}

	now := n.Now()
	pubDate := entry.PubDate
	if pubDate == "" {
		pubDate = now.UTC().Format(time.RFC3339)
	}

	published := entry.PubDateParsed
	if published == nil {
		if t, ok := ParseDate(pubDate); ok {
			published = &t
		}
	}

	rawDescription := entry.rawDescription()

	id, ok := GenerateID(rawTitle)
	if !ok {
		id = n.RandomID()
	}

	return Item{
		ID:               id,
		Title:            title,
		Description:      FirstParagraph(rawDescription),
		Link:             link,
		Thumbnail:        resolveThumbnail(entry, rawDescription, src.Type),
		PubDate:          pubDate,
		PubDateFormatted: n.Locale.FormatRelative(published, now),
		Source:           src.Name,
		Category:         categoryFor(entry, link, src.Type),
	}, true
}

func (e RawFeedEntry) rawDescription() string {
	for _, s := range []string{e.ContentEncoded, e.Content, e.Summary, e.ContentSnippet, e.Description} {
		if s != "" {
			return s
		}
	}
	return ""
}

func categoryFor(entry RawFeedEntry, link string, t sources.Type) string {
	if t == sources.TypeG1 {
		return CategoryFromURL(link)
	}
	for _, c := range entry.Categories {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return DefaultCategory
}
