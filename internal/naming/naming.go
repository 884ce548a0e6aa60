// Package naming generates and validates memorable agent names.
package naming

import (
	"fmt"
	"regexp"
)

// Theme selects a word list pair for name generation.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeNature  Theme = "nature"
	ThemeSpace   Theme = "space"
	ThemeMinimal Theme = "minimal"
	ThemeCustom  Theme = "custom"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

const maxNameLength = 50

// Valid reports whether name satisfies the registration name grammar:
// starts with an alphanumeric or underscore, continues with
// alphanumerics/underscore/hyphen, length at most 50.
func Valid(name string) bool {
	return len(name) > 0 && len(name) <= maxNameLength && validName.MatchString(name)
}

var adjectives = map[Theme][]string{
	ThemeDefault: {"Swift", "Calm", "Keen", "Bold", "Quiet", "Sharp", "Bright", "Steady"},
	ThemeNature:  {"Mossy", "Windy", "Stony", "Misty", "Rocky", "Leafy", "Tidal", "Frosty"},
	ThemeSpace:   {"Stellar", "Lunar", "Solar", "Orbital", "Cosmic", "Polar", "Nova", "Distant"},
	ThemeMinimal: {"A", "B", "C", "D", "E", "F", "G", "H"},
	ThemeCustom:  {"Swift", "Calm", "Keen", "Bold"},
}

var nouns = map[Theme][]string{
	ThemeDefault: {"Falcon", "Otter", "Heron", "Badger", "Lynx", "Wren", "Marten", "Tern"},
	ThemeNature:  {"Pine", "Ridge", "Delta", "Brook", "Fen", "Grove", "Cove", "Glade"},
	ThemeSpace:   {"Comet", "Nebula", "Pulsar", "Quasar", "Horizon", "Drift", "Vector", "Relay"},
	ThemeMinimal: {"1", "2", "3", "4", "5", "6", "7", "8"},
	ThemeCustom:  {"Falcon", "Otter", "Heron", "Badger"},
}

// Generate picks an Adjective+Noun (or, for the minimal theme, a single
// letter-digit pair) that is not already in taken. Names are tried in a
// fixed, deterministic order across the word-list cross product; on
// exhaustion of that product the generator appends 2..99 to the first
// candidate before giving up entirely.
func Generate(theme Theme, taken map[string]bool) (string, error) {
	adjs, ok := adjectives[theme]
	if !ok {
		adjs = adjectives[ThemeDefault]
	}
	nns, ok := nouns[theme]
	if !ok {
		nns = nouns[ThemeDefault]
	}

	var first string
	for _, a := range adjs {
		for _, n := range nns {
			candidate := a + n
			if first == "" {
				first = candidate
			}
			if !taken[candidate] {
				return candidate, nil
			}
		}
	}

	for suffix := 2; suffix <= 99; suffix++ {
		candidate := fmt.Sprintf("%s%d", first, suffix)
		if !taken[candidate] {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("naming: exhausted candidates for theme %q", theme)
}

// GenerateFromWords picks the first free name from a caller-supplied
// word list (the custom theme's nameWords config), skipping entries that
// fail the name grammar. Exhaustion falls back to 2..99 suffixes on the
// first valid word before giving up.
func GenerateFromWords(words []string, taken map[string]bool) (string, error) {
	var first string
	for _, w := range words {
		if !Valid(w) {
			continue
		}
		if first == "" {
			first = w
		}
		if !taken[w] {
			return w, nil
		}
	}
	if first == "" {
		return "", fmt.Errorf("naming: no valid words in custom list")
	}
	for suffix := 2; suffix <= 99; suffix++ {
		candidate := fmt.Sprintf("%s%d", first, suffix)
		if !taken[candidate] {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("naming: exhausted candidates for custom word list")
}

// ValidateExplicit checks a caller-supplied name. Unlike Generate, an
// explicit name never retries on conflict: the caller is expected to
// treat a name-taken result as a hard registration failure.
func ValidateExplicit(name string) error {
	if !Valid(name) {
		return fmt.Errorf("naming: invalid name %q", name)
	}
	return nil
}
