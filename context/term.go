package context

import "strings"

// Container is the @container mapping of a term.
type Container int

// Supported containers.
const (
	ContainerNone Container = iota
	ContainerList
	ContainerSet
	ContainerLanguage
)

// String returns the keyword form of the container.
func (c Container) String() string {
	switch c {
	case ContainerList:
		return "@list"
	case ContainerSet:
		return "@set"
	case ContainerLanguage:
		return "@language"
	default:
		return ""
	}
}

// Type mappings with keyword meaning.
const (
	TypeID    = "@id"
	TypeVocab = "@vocab"
)

// TermDefinition is the expanded definition of one term.
type TermDefinition struct {
	// ID is the absolute IRI, blank node label or keyword the term maps to.
	ID string

	// Type is the type mapping: TypeID, TypeVocab, a datatype IRI, or "".
	Type string

	// Language is the language mapping. HasLanguage distinguishes an explicit
	// null ("" with HasLanguage set) from no mapping.
	Language    string
	HasLanguage bool

	// Container is the container mapping.
	Container Container

	// Prefix reports whether the term may be used as the prefix of a
	// compact IRI.
	Prefix bool
}

// IsAlias reports whether the term is a keyword alias such as "id" for "@id".
func (d TermDefinition) IsAlias() bool {
	return strings.HasPrefix(d.ID, "@")
}

// CoercesToID reports whether string values of the term expand to node
// references.
func (d TermDefinition) CoercesToID() bool {
	return d.Type == TypeID || d.Type == TypeVocab
}

// endsWithGenDelim reports whether an IRI ends with one of the RFC 3986
// gen-delims, which makes a simple term usable as a prefix.
func endsWithGenDelim(s string) bool {
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case ':', '/', '?', '#', '[', ']', '@':
		return true
	}
	return false
}
