// Package deck turns processed markdown into reveal.js slide decks: output
// naming, begin/end slides, template filling, the contents index, an
// optional static preview and the reveal.js checkout.
package deck

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// IgnoreMarker as the very first bytes of a file excludes it from the build.
const IgnoreMarker = "<!-- .ignore -->"

// NoIndexMarker in a file name keeps its deck out of the contents index.
const NoIndexMarker = "no-index"

// SlideSeparator joins begin and end slides to a deck.
const SlideSeparator = "\n---\n"

// minLinkLength is the shortest cleaned name kept as is.
const minLinkLength = 3

// CleanLink derives the output name of a markdown file, without extension.
// The no-index marker is dropped, spaces become underscores, and names too
// short to be meaningful are replaced by "unknown" plus a suffix derived
// from the path, so the deck and its index entry always agree.
func CleanLink(file string) string {
	link := filepath.ToSlash(filepath.Clean(file))
	link = strings.ReplaceAll(link, "."+NoIndexMarker+".", ".")
	link = strings.ReplaceAll(link, NoIndexMarker, "")
	link = strings.TrimSuffix(link, path.Ext(link))
	link = strings.ReplaceAll(link, " ", "_")
	if len(link) < minLinkLength {
		id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(file))
		return "unknown" + strings.ReplaceAll(id.String(), "-", "")[:8]
	}
	return link
}

// CacheName is the last element of CleanLink, used to prefix build cache
// entries so they stay readable.
func CacheName(file string) string {
	return path.Base(CleanLink(file))
}

// IsUnlisted reports whether file is excluded from the contents index.
func IsUnlisted(file string) bool {
	return strings.Contains(filepath.Base(file), NoIndexMarker)
}

// IsIgnored reports whether markdown starts with the ignore marker.
func IsIgnored(markdown string) bool {
	return strings.HasPrefix(markdown, IgnoreMarker)
}

// MatchIgnore reports whether file matches the glob pattern, tried against
// both the path as given and its base name. An empty or malformed pattern
// matches nothing.
func MatchIgnore(pattern, file string) bool {
	if pattern == "" {
		return false
	}
	for _, candidate := range []string{file, filepath.Base(file)} {
		if ok, err := filepath.Match(pattern, candidate); err == nil && ok {
			return true
		}
	}
	return false
}

// OutputPath is the deck file written for input: prefix + CleanLink + ".html".
func OutputPath(prefix, input string) string {
	return filepath.FromSlash(prefix + CleanLink(input) + ".html")
}

// PreviewPath is the static preview written next to the deck.
func PreviewPath(prefix, input string) string {
	return filepath.FromSlash(prefix + CleanLink(input) + ".preview.html")
}
