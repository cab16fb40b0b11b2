package service

import (
	"regexp"
	"strings"

	"github.com/finatlas/finatlas/internal/domain"
)

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	disallowedRe   = regexp.MustCompile(`[^\w\s.,;:!?()-]`)
	spaceBeforeRe  = regexp.MustCompile(`\s+([.,;:!?])`)
	missingSpaceRe = regexp.MustCompile(`([.,;:!?])(\S)`)
)

// Normalizer cleans raw entity records and enforces the configured
// country and type allow-lists.
type Normalizer struct {
	countries map[string]struct{}
	types     map[domain.EntityType]struct{}
}

// NewNormalizer creates a Normalizer restricted to the given enabled
// countries and entity types.
func NewNormalizer(countries []string, types []string) *Normalizer {
	n := &Normalizer{
		countries: make(map[string]struct{}, len(countries)),
		types:     make(map[domain.EntityType]struct{}, len(types)),
	}
	for _, c := range countries {
		n.countries[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	for _, t := range types {
		n.types[domain.EntityType(strings.ToLower(strings.TrimSpace(t)))] = struct{}{}
	}
	return n
}

// CleanText collapses whitespace, strips characters outside a conservative
// punctuation allow-list, and re-spaces punctuation so each terminator is
// followed by exactly one space.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = disallowedRe.ReplaceAllString(text, "")
	text = spaceBeforeRe.ReplaceAllString(text, "$1")
	text = missingSpaceRe.ReplaceAllString(text, "$1 $2")
	return strings.TrimSpace(text)
}

// Normalize returns a cleaned, canonicalized copy of the entity: free-text
// fields are cleaned, the type is lower-cased and the country upper-cased.
// Identity is unaffected; derive ids from the raw record before normalizing.
func (n *Normalizer) Normalize(e domain.Entity) domain.Entity {
	out := e
	out.Name = CleanText(e.Name)
	out.Type = domain.EntityType(strings.ToLower(strings.TrimSpace(string(e.Type))))
	out.Country = strings.ToUpper(strings.TrimSpace(e.Country))
	out.Description = CleanText(e.Description)
	out.URL = strings.TrimSpace(e.URL)
	return out
}

// Validate fails closed: a missing name, type, or country, a country outside
// the enabled set, or a type outside the enabled set all mark the entity
// invalid. Invalid entities are dropped by callers, never raised as hard
// errors, so one bad record cannot abort a batch.
func (n *Normalizer) Validate(e domain.Entity) error {
	if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(string(e.Type)) == "" || strings.TrimSpace(e.Country) == "" {
		return domain.ErrMissingRequiredField
	}
	if _, ok := n.countries[strings.ToUpper(strings.TrimSpace(e.Country))]; !ok {
		return domain.ErrCountryNotEnabled
	}
	if _, ok := n.types[domain.EntityType(strings.ToLower(strings.TrimSpace(string(e.Type))))]; !ok {
		return domain.ErrTypeNotEnabled
	}
	return nil
}

// Deduplicate removes entities that collide to the same derived id,
// keeping the first occurrence and preserving its order.
func Deduplicate(entities []domain.Entity) []domain.Entity {
	seen := make(map[string]struct{}, len(entities))
	unique := make([]domain.Entity, 0, len(entities))
	for _, e := range entities {
		id := e.ID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, e)
	}
	return unique
}
