package common

import (
	"regexp"
	"strings"
	"unicode"
)

// CompartmentTypes maps compartment names and codes to single-letter codes.
var CompartmentTypes = map[string]string{
	"cytosol":       "c",
	"cytoplasm":     "c",
	"extracellar":   "e",
	"extracellular": "e",
	"extraorganism": "e",
	"environment":   "e",
	"env":           "e",
	"periplasm":     "p",
	"membrane":      "m",
	"mitochondria":  "m",
	"mitochondrion": "m",
	"c":             "c",
	"p":             "p",
	"e":             "e",
	"m":             "m",
}

// NormalizeCompartment returns the single-letter code for a compartment
// name, or the lowercased input when it is not known.
func NormalizeCompartment(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if code, ok := CompartmentTypes[key]; ok {
		return code
	}
	// "c0", "e1" style compartments carry an index.
	trimmed := strings.TrimRightFunc(key, unicode.IsDigit)
	if code, ok := CompartmentTypes[trimmed]; ok && trimmed != key {
		return code
	}
	return key
}

// NormalizeAlias lowercases an identifier and strips whitespace and
// punctuation so "D-Glucose" and "d glucose" compare equal.
func NormalizeAlias(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

type Notation int

const (
	NotationNone Notation = iota
	NotationBracket
	NotationUnderscore
)

// LocalID is a parsed model identifier such as "adp[c]" or "cpd01024_c0".
type LocalID struct {
	Base        string
	Compartment string
	Index       string
	Notation    Notation
}

var (
	bracketPattern    = regexp.MustCompile(`^(.+)\[([a-zA-Z]+)\]$`)
	underscorePattern = regexp.MustCompile(`^(.+)_([a-zA-Z]+)(\d*)$`)
)

// ParseID splits an identifier into base, compartment code and index.
// Identifiers without recognisable compartment notation default to the
// cytosol.
func ParseID(id string) LocalID {
	if m := bracketPattern.FindStringSubmatch(id); m != nil {
		comp, ok := CompartmentTypes[strings.ToLower(m[2])]
		if !ok {
			comp = "c"
		}
		return LocalID{Base: m[1], Compartment: comp, Notation: NotationBracket}
	}
	if m := underscorePattern.FindStringSubmatch(id); m != nil {
		comp, ok := CompartmentTypes[strings.ToLower(m[2])]
		if !ok {
			return LocalID{Base: id, Compartment: "c", Notation: NotationNone}
		}
		return LocalID{Base: m[1], Compartment: comp, Index: m[3], Notation: NotationUnderscore}
	}
	return LocalID{Base: id, Compartment: "c", Notation: NotationNone}
}

// WithCompartment renders the identifier again in its original notation
// with a different compartment.
func (l LocalID) WithCompartment(comp string) string {
	switch l.Notation {
	case NotationBracket:
		return l.Base + "[" + comp + "]"
	case NotationUnderscore:
		return l.Base + "_" + comp + l.Index
	}
	return l.Base
}
