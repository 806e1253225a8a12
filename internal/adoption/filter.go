package adoption

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

// Fallback returns the listings served when no vendor has posted any.
func Fallback() ([]Listing, error) {
	var doc struct {
		Pets []Listing `yaml:"pets"`
	}
	if err := yaml.Unmarshal(fallbackYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode fallback listings: %w", err)
	}
	return doc.Pets, nil
}

// Filter keeps listings where query occurs, ignoring case, in any of the
// searchable fields. A blank query keeps everything.
func Filter(listings []Listing, query string) []Listing {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return listings
	}
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if matches(l, q) {
			out = append(out, l)
		}
	}
	return out
}

func matches(l Listing, q string) bool {
	for _, field := range []string{l.Name, l.Type, l.Breed, l.Age, l.Gender, l.Size, l.Shelter, l.Description} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
