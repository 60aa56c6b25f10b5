package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// CoefficientTolerance is the absolute difference under which two
// stoichiometric coefficients are considered equal.
const CoefficientTolerance = 1e-6

// Stoichiometry maps a species key (compound identifier) to its signed
// coefficient. Negative coefficients are reactants, positive are products.
type Stoichiometry map[string]float64

// Keys returns the species keys in sorted order.
func (s Stoichiometry) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s Stoichiometry) Clone() Stoichiometry {
	out := make(Stoichiometry, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (s Stoichiometry) Negate() Stoichiometry {
	out := make(Stoichiometry, len(s))
	for k, v := range s {
		out[k] = -v
	}
	return out
}

// Equal compares two stoichiometries species-for-species within
// CoefficientTolerance.
func (s Stoichiometry) Equal(other Stoichiometry) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		o, ok := other[k]
		if !ok || math.Abs(v-o) > CoefficientTolerance {
			return false
		}
	}
	return true
}

// Signature is a canonical string for the signed multiset, usable as a map
// key. Coefficients are rounded to the tolerance so that float noise does not
// split otherwise equal reactions.
func (s Stoichiometry) Signature() string {
	var b strings.Builder
	for i, k := range s.Keys() {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(formatCoefficient(s[k]))
	}
	return b.String()
}

func formatCoefficient(v float64) string {
	r := math.Round(v/CoefficientTolerance) * CoefficientTolerance
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func (s Stoichiometry) String() string {
	var reactants, products []string
	for _, k := range s.Keys() {
		v := s[k]
		term := fmt.Sprintf("(%s) %s", formatCoefficient(math.Abs(v)), k)
		if v < 0 {
			reactants = append(reactants, term)
		} else {
			products = append(products, term)
		}
	}
	return strings.Join(reactants, " + ") + " => " + strings.Join(products, " + ")
}

// SpeciesKey names a canonical compound in a reaction compartment slot.
// Slot 0 is written as the bare compound identifier, other slots as
// "cpd00027[1]", matching the reference database encoding.
func SpeciesKey(compound string, slot int) string {
	if slot == 0 {
		return compound
	}
	return compound + "[" + strconv.Itoa(slot) + "]"
}

// SplitSpeciesKey is the inverse of SpeciesKey.
func SplitSpeciesKey(key string) (string, int) {
	if !strings.HasSuffix(key, "]") {
		return key, 0
	}
	open := strings.LastIndexByte(key, '[')
	if open <= 0 {
		return key, 0
	}
	slot, err := strconv.Atoi(key[open+1 : len(key)-1])
	if err != nil {
		return key, 0
	}
	return key[:open], slot
}

// CompartmentSlots numbers the compartments a reaction spans. The cytosol
// takes slot 0 when present; the rest follow in sorted order.
func CompartmentSlots(compartments []string) map[string]int {
	sorted := append([]string(nil), compartments...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i] == "c" || sorted[j] == "c" {
			return sorted[i] == "c" && sorted[j] != "c"
		}
		return sorted[i] < sorted[j]
	})
	slots := make(map[string]int, len(sorted))
	for _, c := range sorted {
		if _, ok := slots[c]; !ok {
			slots[c] = len(slots)
		}
	}
	return slots
}
