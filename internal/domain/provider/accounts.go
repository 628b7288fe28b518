package provider

import (
	"strings"
	"unicode"
)

// multibancoEntity is admitted whenever a numeric entity is configured, since the aggregator
// lists Multibanco references under their numeric entity code.
const multibancoEntity = "MB"

// AccountSet is the parsed form of the semicolon delimited "entity|label" account list
type AccountSet struct {
	entities []string
	index    map[string]struct{}
	numeric  bool
}

// ParseAccountKeys splits raw on ';', trims each part and keeps the uppercased entity before '|'
func ParseAccountKeys(raw string) AccountSet {
	set := AccountSet{index: make(map[string]struct{})}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entity := strings.ToUpper(strings.TrimSpace(strings.SplitN(part, "|", 2)[0]))
		if entity == "" {
			continue
		}
		if _, seen := set.index[entity]; seen {
			continue
		}
		set.index[entity] = struct{}{}
		set.entities = append(set.entities, entity)
		if isDigits(entity) {
			set.numeric = true
		}
	}
	return set
}

// Entities returns the entity codes in configuration order
func (s AccountSet) Entities() []string {
	out := make([]string, len(s.entities))
	copy(out, s.entities)
	return out
}

// HasNumericEntity reports whether any configured entity is purely numeric
func (s AccountSet) HasNumericEntity() bool {
	return s.numeric
}

// Accepts reports whether a method with the given entity is usable by this account
func (s AccountSet) Accepts(entity string) bool {
	entity = strings.ToUpper(strings.TrimSpace(entity))
	if _, ok := s.index[entity]; ok {
		return true
	}
	return s.numeric && entity == multibancoEntity
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
