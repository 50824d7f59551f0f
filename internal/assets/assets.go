package assets

import (
	"fmt"
	"os"
	"strings"
)

// Slides template placeholders.
const (
	PlaceholderTitle    = "@__TITLE__@"
	PlaceholderRevealJS = "@__REVEAL_JS_PATH__@"
	PlaceholderMarkdown = "@__MARKDOWN INPUT__@"
)

// IndexData is the input of the index template.
type IndexData struct {
	Title  string
	Links  []string
	Hidden any // pre-rendered HTML comments for unlisted decks
}

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a CSS style by name from the embedded defaults.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads an HTML template by name from the embedded defaults.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// LoadSlidesTemplate loads the slides template named by ref. A ref that
// looks like a file path is read from disk; anything else is an asset name
// resolved through loader. An empty ref selects the built-in template.
// The result always contains the markdown placeholder.
func LoadSlidesTemplate(loader AssetLoader, ref string) (string, error) {
	var (
		content string
		err     error
	)
	switch {
	case ref == "":
		content, err = loader.LoadTemplate(SlidesTemplateName)
	case strings.ContainsAny(ref, `/\`) || strings.HasSuffix(ref, ".html") || strings.HasSuffix(ref, ".in"):
		var data []byte
		data, err = os.ReadFile(ref) // #nosec G304 -- user-provided template path
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
		}
		content = string(data)
	default:
		content, err = loader.LoadTemplate(ref)
	}
	if err != nil {
		return "", err
	}
	if !strings.Contains(content, PlaceholderMarkdown) {
		return "", fmt.Errorf("%w: %s in %q", ErrMissingPlaceholder, PlaceholderMarkdown, ref)
	}
	return content, nil
}
