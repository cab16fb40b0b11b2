package domain

import "strings"

// SearchFilter restricts a similarity query to records whose metadata matches
// every set field exactly. It is a closed type: only country and type are
// filterable, and both are validated at construction time.
type SearchFilter struct {
	Country string
	Type    EntityType
}

// NewSearchFilter validates and builds a filter. Empty values leave the
// corresponding field unconstrained.
func NewSearchFilter(country, entityType string) (SearchFilter, error) {
	var f SearchFilter

	country = strings.ToUpper(strings.TrimSpace(country))
	if country != "" {
		if len(country) != 2 || !isAlpha(country) {
			return SearchFilter{}, ErrInvalidCountryCode
		}
		f.Country = country
	}

	if strings.TrimSpace(entityType) != "" {
		t, err := ParseEntityType(entityType)
		if err != nil {
			return SearchFilter{}, err
		}
		f.Type = t
	}

	return f, nil
}

// IsZero reports whether the filter constrains nothing.
func (f SearchFilter) IsZero() bool {
	return f.Country == "" && f.Type == ""
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
