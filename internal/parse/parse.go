// Package parse dispatches ingested files to a format-specific parser
// by extension, falling back to plaintext on any parse failure so a
// malformed file never blocks ingestion.
package parse

import (
	"log/slog"

	"github.com/ragmcp/ragmcp/internal/chunk"
	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// Section is an alias of chunk.Section so parsers and the chunker
// share one vocabulary without an import cycle.
type Section = chunk.Section

// ParsedDocument is a parser's structured view of a file.
type ParsedDocument struct {
	Content  string
	Sections []Section
	DocType  string
}

// Parser is the capability set every format parser implements. No
// hierarchy: the registry holds a flat sequence of these.
type Parser interface {
	CanParse(extension string) bool
	Parse(content, path string) (ParsedDocument, error)
}

// Registry selects a Parser by extension and guarantees a result via
// plaintext fallback.
type Registry struct {
	parsers   []Parser
	plaintext Parser
	logger    *slog.Logger
}

// NewRegistry builds a registry with the built-in markup, structured
// data, and markdown parsers registered, in that order.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{plaintext: PlainTextParser{}, logger: logger}
	r.Register(XMLParser{})
	r.Register(YAMLParser{})
	r.Register(JSONParser{})
	r.Register(MarkdownParser{})
	return r
}

// Register adds a parser to the registry.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// FindParser returns the first registered parser that claims the
// extension, or nil.
func (r *Registry) FindParser(extension string) Parser {
	for _, p := range r.parsers {
		if p.CanParse(extension) {
			return p
		}
	}
	return nil
}

// Parse dispatches content to the parser registered for extension. If
// no parser is registered, or the chosen parser fails, it falls back
// to a plaintext parse rather than blocking ingestion; the failure is
// logged as a warning, not returned as an error.
func (r *Registry) Parse(content, path, extension string) ParsedDocument {
	p := r.FindParser(extension)
	if p == nil {
		doc, _ := r.plaintext.Parse(content, path)
		return doc
	}

	doc, err := p.Parse(content, path)
	if err != nil {
		r.logger.Warn("parser failed, falling back to plaintext",
			slog.String("path", path),
			slog.String("extension", extension),
			slog.Any("error", ragerr.Wrap(ragerr.Parse, err)))
		doc, _ = r.plaintext.Parse(content, path)
	}
	return doc
}
