package md2slides

import (
	"fmt"
	"sort"
	"strings"
)

// LastFragment is the pseudo id that always holds the most recently stored
// fragment for a language.
const LastFragment = "last"

// AppendState tracks named code fragments for one document pass so later
// blocks can extend earlier ones. The zero value is not usable; call
// NewAppendState.
type AppendState struct {
	fragments map[Language]map[string]string
}

// NewAppendState creates an empty AppendState.
func NewAppendState() *AppendState {
	return &AppendState{fragments: make(map[Language]map[string]string)}
}

// Resolve returns the fragment stored under ref for lang followed by code.
// An empty ref means LastFragment.
func (s *AppendState) Resolve(lang Language, ref, code string) (string, error) {
	id := normalizeFragmentID(ref)
	if id == "" {
		id = LastFragment
	}

	prev, ok := s.fragments[lang][id]
	if !ok {
		known := s.IDs(lang)
		if len(known) == 0 {
			return "", fmt.Errorf("%w: %q for language %s (no fragments stored yet)", ErrFragmentNotFound, id, lang)
		}
		return "", fmt.Errorf("%w: %q for language %s (known ids: %s)",
			ErrFragmentNotFound, id, lang, strings.Join(known, ", "))
	}
	return prev + code, nil
}

// Store records code under id (when non-empty) and always under LastFragment.
func (s *AppendState) Store(lang Language, id, code string) {
	byID, ok := s.fragments[lang]
	if !ok {
		byID = make(map[string]string)
		s.fragments[lang] = byID
	}
	if id = normalizeFragmentID(id); id != "" {
		byID[id] = code
	}
	byID[LastFragment] = code
}

// IDs returns the stored fragment ids for lang, sorted.
func (s *AppendState) IDs(lang Language) []string {
	ids := make([]string, 0, len(s.fragments[lang]))
	for id := range s.fragments[lang] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// normalizeFragmentID makes "My_Id" and "my-id" refer to the same fragment,
// mirroring how wants expressions are normalized.
func normalizeFragmentID(id string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(id)), "_", "-")
}
