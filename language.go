package md2slides

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// MaxLanguageLength is the longest accepted language tag.
const MaxLanguageLength = 10

// Canonical languages with built-in handlers.
const (
	LanguageCpp    Language = "cpp"
	LanguageC      Language = "c"
	LanguagePython Language = "python"
	LanguageGo     Language = "go"
)

// Language is a canonical, case-folded language identifier.
// It is used both as the registry key and as a cache namespace.
type Language string

// String returns the canonical form.
func (l Language) String() string {
	return string(l)
}

// synonyms collapses the spellings found in fence tags to one canonical form.
var synonyms = map[string]Language{
	"c++":     LanguageCpp,
	"cxx":     LanguageCpp,
	"cpp":     LanguageCpp,
	"cc":      LanguageCpp,
	"c":       LanguageC,
	"ansic":   LanguageC,
	"python":  LanguagePython,
	"python3": LanguagePython,
	"py":      LanguagePython,
	"go":      LanguageGo,
	"golang":  LanguageGo,
}

// ParseLanguage canonicalizes a free-form tag such as "C++" or "Py".
// Surrounding whitespace is ignored; tags that are empty, longer than
// MaxLanguageLength, or contain internal whitespace are rejected.
func ParseLanguage(tag string) (Language, error) {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty tag", ErrInvalidLanguage)
	}
	if len(trimmed) > MaxLanguageLength {
		return "", fmt.Errorf("%w: %q (%d chars, max %d)", ErrInvalidLanguage, tag, len(trimmed), MaxLanguageLength)
	}
	if strings.IndexFunc(trimmed, unicode.IsSpace) != -1 {
		return "", fmt.Errorf("%w: %q contains whitespace", ErrInvalidLanguage, tag)
	}

	folded := cases.Fold().String(trimmed)
	if canonical, ok := synonyms[folded]; ok {
		return canonical, nil
	}
	return Language(folded), nil
}

// MustParseLanguage is like ParseLanguage but panics on error.
// Intended for package-level constants and tests.
func MustParseLanguage(tag string) Language {
	lang, err := ParseLanguage(tag)
	if err != nil {
		panic(err)
	}
	return lang
}
