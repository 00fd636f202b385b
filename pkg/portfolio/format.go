package portfolio

import (
	"fmt"
	"strings"
	"time"
)

// Locale selects month names for formatted dates.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleID Locale = "id"
)

// PresentLabel stands in for a missing date.
const PresentLabel = "Present"

var monthNames = map[Locale][12]string{
	LocaleEN: {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	LocaleID: {"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"},
}

// dateLayouts are tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseLocale validates a locale name. Empty means LocaleEN.
func ParseLocale(s string) (Locale, error) {
	switch l := Locale(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LocaleEN, nil
	case LocaleEN, LocaleID:
		return l, nil
	default:
		return "", fmt.Errorf("unsupported locale %q", s)
	}
}

// FormatDate renders a date as "<short month> <year>". A nil or blank value
// yields PresentLabel; a value no layout accepts is returned unchanged.
func FormatDate(value *string, locale Locale) string {
	if value == nil {
		return PresentLabel
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return PresentLabel
	}

	months, ok := monthNames[locale]
	if !ok {
		months = monthNames[LocaleEN]
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
	}
	return s
}

// DateRange joins the formatted start and end dates.
func DateRange(start, end *string, locale Locale) string {
	return FormatDate(start, locale) + " - " + FormatDate(end, locale)
}

// SplitTags splits a delimited tag string. Every element is trimmed and
// empty elements are dropped; order is preserved.
func SplitTags(raw, delim string) []string {
	if delim == "" {
		delim = ","
	}

	parts := strings.Split(raw, delim)
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// ImageURL joins base and image with exactly one slash. Absolute image URLs
// are returned as is; an empty base yields a root-relative path.
func ImageURL(base, image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") || strings.HasPrefix(image, "//") {
		return image
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(image, "/")
}
