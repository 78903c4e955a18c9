package news

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Locale holds the labels used for relative dates.
type Locale struct {
	Name      string
	Now       string
	HoursAgo  string // fmt verb receives the hour count
	Yesterday string
	DaysAgo   string // fmt verb receives the day count
	Today     string
	ShortDate func(t time.Time) string
}

var (
	English = Locale{
		Name:      "en",
		Now:       "now",
		HoursAgo:  "%dh ago",
		Yesterday: "yesterday",
		DaysAgo:   "%d days ago",
		Today:     "today",
		ShortDate: func(t time.Time) string { return t.Format("02 Jan") },
	}

	Portuguese = Locale{
		Name:      "pt-BR",
		Now:       "Agora",
		HoursAgo:  "%dh atras",
		Yesterday: "Ontem",
		DaysAgo:   "%d dias atras",
		Today:     "Hoje",
		ShortDate: func(t time.Time) string {
			return fmt.Sprintf("%02d de %s", t.Day(), ptMonths[t.Month()-1])
		},
	}
)

var ptMonths = [12]string{"jan.", "fev.", "mar.", "abr.", "mai.", "jun.", "jul.", "ago.", "set.", "out.", "nov.", "dez."}

// LocaleByName falls back to English for unknown names.
func LocaleByName(name string) Locale {
	switch strings.ToLower(name) {
	case "pt-br", "pt":
		return Portuguese
	default:
		return English
	}
}

// FormatRelative renders t relative to now. A nil t means the publish date
// could not be parsed.
func (l Locale) FormatRelative(t *time.Time, now time.Time) string {
	if l.ShortDate == nil {
		l = English
	}
	if t == nil {
		return l.Today
	}

	diff := now.Sub(*t)
	hours := int(math.Floor(diff.Hours()))
	days := int(math.Floor(diff.Hours() / 24))

	switch {
	case hours < 1:
		return l.Now
	case hours < 24:
		return fmt.Sprintf(l.HoursAgo, hours)
	case days == 1:
		return l.Yesterday
	case days < 7:
		return fmt.Sprintf(l.DaysAgo, days)
	default:
		return l.ShortDate(*t)
	}
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts the date shapes commonly found in RSS and Atom feeds.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
