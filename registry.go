package md2slides

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Handler executes or compiles one code block.
// Runtime faults of the code itself are reported through the result;
// a returned error means the handler could not do its job at all.
type Handler interface {
	Handle(ctx context.Context, code string, flags Flags, meta Metadata) (*ExecutionResult, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, code string, flags Flags, meta Metadata) (*ExecutionResult, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, code string, flags Flags, meta Metadata) (*ExecutionResult, error) {
	return f(ctx, code, flags, meta)
}

// Registry maps canonical languages to handlers.
// Build one at startup and pass it to NewProcessor.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Language]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Language]Handler)}
}

// Register associates the canonical form of tag with h.
// Re-registering a language replaces the previous handler.
func (r *Registry) Register(tag string, h Handler) error {
	if h == nil {
		return fmt.Errorf("%w: %q", ErrNilHandler, tag)
	}
	lang, err := ParseLanguage(tag)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[lang] = h
	return nil
}

// Resolve canonicalizes tag and returns its handler.
// Returns ErrUnknownLanguage listing the registered languages if none matches.
func (r *Registry) Resolve(tag string) (Handler, Language, error) {
	lang, err := ParseLanguage(tag)
	if err != nil {
		return nil, "", err
	}

	r.mu.RLock()
	h, ok := r.handlers[lang]
	r.mu.RUnlock()
	if !ok {
		return nil, lang, fmt.Errorf("%w: %s\navailable languages are: %s",
			ErrUnknownLanguage, lang, strings.Join(languageStrings(r.Languages()), ", "))
	}
	return h, lang, nil
}

// Languages returns the registered canonical languages, sorted.
func (r *Registry) Languages() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()

	langs := make([]Language, 0, len(r.handlers))
	for l := range r.handlers {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// Dispatch resolves lang and runs its handler.
// A handler returning an empty result is reported as ErrEmptyResult.
func (r *Registry) Dispatch(ctx context.Context, lang Language, code string, flags Flags, meta Metadata) (*ExecutionResult, error) {
	h, _, err := r.Resolve(string(lang))
	if err != nil {
		return nil, err
	}

	result, err := h.Handle(ctx, code, flags, meta)
	if err != nil {
		return nil, fmt.Errorf("%s handler: %w", lang, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%s handler: %w", lang, err)
	}
	return result, nil
}

func languageStrings(langs []Language) []string {
	out := make([]string, len(langs))
	for i, l := range langs {
		out[i] = string(l)
	}
	return out
}
