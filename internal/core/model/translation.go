package model

import (
	"fmt"
	"sort"
)

type Kind string

const (
	KindCompound Kind = "compound"
	KindReaction Kind = "reaction"
)

type Tier string

const (
	TierExact    Tier = "exact"
	TierProbable Tier = "probable"
)

const SourceReviewer = "reviewer"

type TranslationEntry struct {
	Local     string `json:"local"`
	Canonical string `json:"canonical"`
	Tier      Tier   `json:"tier"`
	// Reversed marks a reaction matched with every coefficient negated.
	Reversed bool   `json:"reversed,omitempty"`
	Round    int    `json:"round"`
	Source   string `json:"source,omitempty"`
	// Filtered lists candidates dropped because they conflict on direction.
	Filtered []string `json:"filtered,omitempty"`
}

// TranslationMap holds compound and reaction translations in separate
// namespaces. Entries are only ever added.
type TranslationMap struct {
	Compounds map[string]TranslationEntry `json:"compounds"`
	Reactions map[string]TranslationEntry `json:"reactions"`
}

func NewTranslationMap() *TranslationMap {
	return &TranslationMap{
		Compounds: make(map[string]TranslationEntry),
		Reactions: make(map[string]TranslationEntry),
	}
}

func (t *TranslationMap) layer(kind Kind) map[string]TranslationEntry {
	if kind == KindReaction {
		return t.Reactions
	}
	return t.Compounds
}

func (t *TranslationMap) Lookup(kind Kind, local string) (TranslationEntry, bool) {
	e, ok := t.layer(kind)[local]
	return e, ok
}

// Add inserts e unless the local identifier is already translated. It
// reports whether the entry was added.
func (t *TranslationMap) Add(kind Kind, e TranslationEntry) bool {
	layer := t.layer(kind)
	if _, exists := layer[e.Local]; exists {
		return false
	}
	layer[e.Local] = e
	return true
}

// Approve records a reviewer decision on a proposed match.
func (t *TranslationMap) Approve(kind Kind, local, canonical string, reversed bool) error {
	if local == "" || canonical == "" {
		return fmt.Errorf("approve: local and canonical identifiers are required")
	}
	if existing, ok := t.Lookup(kind, local); ok {
		return fmt.Errorf("approve: %s %s already translated to %s", kind, local, existing.Canonical)
	}
	t.layer(kind)[local] = TranslationEntry{
		Local:     local,
		Canonical: canonical,
		Tier:      TierProbable,
		Reversed:  reversed && kind == KindReaction,
		Source:    SourceReviewer,
	}
	return nil
}

func (t *TranslationMap) Len() int {
	return len(t.Compounds) + len(t.Reactions)
}

// Entries returns the entries of one namespace ordered by local identifier.
func (t *TranslationMap) Entries(kind Kind) []TranslationEntry {
	layer := t.layer(kind)
	out := make([]TranslationEntry, 0, len(layer))
	for _, e := range layer {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Local < out[j].Local })
	return out
}

func (t *TranslationMap) Clone() *TranslationMap {
	out := NewTranslationMap()
	for k, v := range t.Compounds {
		out.Compounds[k] = v
	}
	for k, v := range t.Reactions {
		out.Reactions[k] = v
	}
	return out
}
