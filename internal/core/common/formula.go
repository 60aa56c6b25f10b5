package common

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var elementPattern = regexp.MustCompile(`([A-Z][a-z]*)(\d*)`)

// ParseFormula counts the atoms of each element in a flat molecular formula.
func ParseFormula(formula string) (map[string]int, error) {
	formula = strings.TrimSpace(formula)
	counts := make(map[string]int)
	if formula == "" {
		return counts, nil
	}
	consumed := 0
	for _, m := range elementPattern.FindAllStringSubmatchIndex(formula, -1) {
		if m[0] != consumed {
			return nil, fmt.Errorf("unparseable formula %q at offset %d", formula, consumed)
		}
		element := formula[m[2]:m[3]]
		n := 1
		if m[5] > m[4] {
			v, err := strconv.Atoi(formula[m[4]:m[5]])
			if err != nil {
				return nil, fmt.Errorf("formula %q: %w", formula, err)
			}
			n = v
		}
		counts[element] += n
		consumed = m[1]
	}
	if consumed != len(formula) {
		return nil, fmt.Errorf("unparseable formula %q at offset %d", formula, consumed)
	}
	return counts, nil
}

// CanonicalFormula renders a formula in Hill order: carbon, hydrogen, then
// the remaining elements alphabetically. Without carbon all elements are
// alphabetical. Formulas that cannot be parsed are returned with whitespace
// removed so they still compare by exact text.
func CanonicalFormula(formula string) string {
	counts, err := ParseFormula(formula)
	if err != nil {
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, formula)
	}
	elements := make([]string, 0, len(counts))
	for el, n := range counts {
		if n > 0 {
			elements = append(elements, el)
		}
	}
	_, hasCarbon := counts["C"]
	rank := func(el string) int {
		if !hasCarbon {
			return 2
		}
		switch el {
		case "C":
			return 0
		case "H":
			return 1
		}
		return 2
	}
	sort.Slice(elements, func(i, j int) bool {
		ri, rj := rank(elements[i]), rank(elements[j])
		if ri != rj {
			return ri < rj
		}
		return elements[i] < elements[j]
	})
	var b strings.Builder
	for _, el := range elements {
		b.WriteString(el)
		if counts[el] != 1 {
			b.WriteString(strconv.Itoa(counts[el]))
		}
	}
	return b.String()
}
