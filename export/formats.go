// Package export serializes a sentence's facts as RDF and its materialized
// tree as JSON or Graphviz DOT.
package export

import (
	"fmt"
	"sort"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output of the facts.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output of the facts.
	FormatNTriples Format = "ntriples"

	// FormatJSONLD produces JSON-LD (.jsonld) output of the facts.
	FormatJSONLD Format = "jsonld"

	// FormatJSON produces the node and edge view of the tree.
	FormatJSON Format = "json"

	// FormatMinimal produces the tree edges reduced to node ids.
	FormatMinimal Format = "minimal"

	// FormatDOT produces a Graphviz digraph of the tree.
	FormatDOT Format = "dot"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string

	// Tree is true for formats rendered from the materialized tree rather
	// than from the raw facts.
	Tree bool
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
	FormatJSONLD: {
		Name:        FormatJSONLD,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD - JSON for Linked Data",
	},
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "Tree nodes with attributes and relation edges",
		Tree:        true,
	},
	FormatMinimal: {
		Name:        FormatMinimal,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "Tree edges as subject, predicate, object ids",
		Tree:        true,
	},
	FormatDOT: {
		Name:        FormatDOT,
		MIMEType:    "text/vnd.graphviz",
		Extension:   ".dot",
		Description: "Graphviz directed graph of the tree",
		Tree:        true,
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	f := Format(name)
	if _, ok := FormatRegistry[f]; !ok {
		return "", fmt.Errorf("unsupported format: %s (supported: %v)", name, FormatNames())
	}
	return f, nil
}

// FormatNames returns the supported format names, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}
