package model

import (
	"fmt"
	"strings"
)

type Directionality string

const (
	Forward    Directionality = "forward"
	Reverse    Directionality = "reverse"
	Reversible Directionality = "reversible"
	Uncertain  Directionality = "uncertain"
	Blocked    Directionality = "blocked"
)

// ModelSEED writes directionality as a single symbol.
var directionSymbols = map[string]Directionality{
	">": Forward,
	"<": Reverse,
	"=": Reversible,
	"?": Uncertain,
	"b": Blocked,
}

func ParseDirectionality(s string) (Directionality, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if d, ok := directionSymbols[key]; ok {
		return d, nil
	}
	switch d := Directionality(key); d {
	case Forward, Reverse, Reversible, Uncertain, Blocked:
		return d, nil
	case "":
		return Uncertain, nil
	}
	return "", fmt.Errorf("unknown directionality %q", s)
}

func (d Directionality) Valid() bool {
	switch d {
	case Forward, Reverse, Reversible, Uncertain, Blocked:
		return true
	}
	return false
}

// Flip swaps forward and reverse; every other value is its own flip.
func (d Directionality) Flip() Directionality {
	switch d {
	case Forward:
		return Reverse
	case Reverse:
		return Forward
	}
	return d
}

func (d Directionality) Fixed() bool {
	return d == Forward || d == Reverse
}

// Compatible reports whether a local reaction running in direction d may be
// matched to a reference reaction stored with direction ref. Only two fixed,
// opposite directions conflict.
func (d Directionality) Compatible(ref Directionality) bool {
	if d.Fixed() && ref.Fixed() {
		return d == ref
	}
	return true
}

func (d Directionality) Symbol() string {
	for sym, dir := range directionSymbols {
		if dir == d {
			return strings.ToUpper(sym)
		}
	}
	return "-"
}

// DirectionalityFromBounds follows the usual flux-bound convention.
func DirectionalityFromBounds(lower, upper float64) Directionality {
	switch {
	case lower < 0 && upper > 0:
		return Reversible
	case lower >= 0 && upper > 0:
		return Forward
	case lower < 0 && upper <= 0:
		return Reverse
	default:
		return Blocked
	}
}

func (d *Directionality) UnmarshalText(text []byte) error {
	parsed, err := ParseDirectionality(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
