package syntax

import "strings"

// DefaultBase is the base IRI used for token nodes and predicates when no
// namespace is configured.
const DefaultBase = "http://example.com/jitp/"

// Standard namespaces.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
)

// RDFType is the rdf:type predicate. It never appears as a tree edge.
const RDFType = RDFNamespace + "type"

// Namespace is a base IRI that local names are appended to.
type Namespace string

// IRI returns the full IRI for a local name.
func (ns Namespace) IRI(local string) string {
	return string(ns) + local
}

// Local strips the namespace from iri. The second result reports whether
// iri was inside the namespace; if not, iri is returned unchanged.
func (ns Namespace) Local(iri string) (string, bool) {
	if ns == "" || !strings.HasPrefix(iri, string(ns)) {
		return iri, false
	}
	return iri[len(ns):], true
}

// Contains reports whether iri belongs to the namespace.
func (ns Namespace) Contains(iri string) bool {
	_, ok := ns.Local(iri)
	return ok
}

// DefaultPrefixes returns the prefix map used when parsing rules and
// serializing triples. The empty prefix maps to base.
func DefaultPrefixes(base Namespace) map[string]string {
	return map[string]string{
		"":     string(base),
		"rdf":  RDFNamespace,
		"rdfs": RDFSNamespace,
		"xsd":  XSDNamespace,
	}
}

// ShortID returns the last path segment of an IRI, which is how nodes are
// labeled in rendered trees.
func ShortID(iri string) string {
	if i := strings.LastIndexAny(iri, "/#"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}
