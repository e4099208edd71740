package rendering

import (
	"html"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/jobplus/internal/session"
	"github.com/jonathan/jobplus/internal/types"
)

// PlaceholderImage is shown for items without an image.
const PlaceholderImage = "https://via.placeholder.com/100"

// Favorite icon classes.
const (
	IconFavorite    = "fa fa-heart"
	IconNotFavorite = "fa fa-heart-o"
)

// ImageURL returns the item's image, or the placeholder when it has none.
func ImageURL(item types.JobItem) string {
	if item.ImageURL == "" {
		return PlaceholderImage
	}
	return item.ImageURL
}

// KeywordLine renders the keyword paragraph text.
func KeywordLine(keywords []string) string {
	return "Keyword: " + strings.Join(keywords, ", ")
}

// AddressLines splits an address on commas and strips double quotes.
func AddressLines(address string) []string {
	return strings.Split(strings.ReplaceAll(address, `"`, ""), ",")
}

// AddressHTML renders an address with a line break per comma. Each part is escaped.
func AddressHTML(address string) template.HTML {
	lines := AddressLines(address)
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	return template.HTML(strings.Join(lines, "<br/>")) //nolint:gosec // parts escaped above
}

// FavoriteIcon returns the icon class for the favorite state.
func FavoriteIcon(favorite bool) string {
	if favorite {
		return IconFavorite
	}
	return IconNotFavorite
}

// NoticeIcon returns the icon class for a notice kind.
func NoticeIcon(kind session.NoticeKind) string {
	switch kind {
	case session.NoticeLoading:
		return "fa fa-spinner fa-spin"
	case session.NoticeWarning:
		return "fa fa-exclamation-triangle"
	default:
		return "fa fa-exclamation-circle"
	}
}

func templateFuncs(locationAge time.Duration) template.FuncMap {
	return template.FuncMap{
		"pathEscape":   url.PathEscape,
		"maxAgeMillis": func() int64 { return locationAge.Milliseconds() },
		"imageURL":     ImageURL,
		"keywordLine":  KeywordLine,
		"addressHTML":  AddressHTML,
		"favIcon":      FavoriteIcon,
		"noticeIcon":   NoticeIcon,
	}
}
