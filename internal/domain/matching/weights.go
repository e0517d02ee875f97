package matching

import (
	"fmt"
	"strings"
)

// Weights holds the rule points and the exact-match threshold
type Weights struct {
	Department     int `koanf:"department" json:"department"`
	Commune        int `koanf:"commune" json:"commune"`
	Section        int `koanf:"section" json:"section"`
	Numero         int `koanf:"numero" json:"numero"`
	StreetNumber   int `koanf:"street_number" json:"street_number"`
	Recency        int `koanf:"recency" json:"recency"`
	ExactThreshold int `koanf:"exact_threshold" json:"exact_threshold"`
	RecencyYears   int `koanf:"recency_years" json:"recency_years"`
}

// DefaultWeights returns the production rule set. Both hard gates together give 80,
// so an exact match needs at least two soft bonuses on top
func DefaultWeights() Weights {
	return Weights{
		Department:     40,
		Commune:        40,
		Section:        10,
		Numero:         10,
		StreetNumber:   5,
		Recency:        5,
		ExactThreshold: 90,
		RecencyYears:   3,
	}
}

// Validate reports every out-of-range value at once
func (w Weights) Validate() error {
	var problems []string

	named := []struct {
		name  string
		value int
	}{
		{"department", w.Department},
		{"commune", w.Commune},
		{"section", w.Section},
		{"numero", w.Numero},
		{"street_number", w.StreetNumber},
		{"recency", w.Recency},
		{"recency_years", w.RecencyYears},
	}
	for _, n := range named {
		if n.value < 0 {
			problems = append(problems, fmt.Sprintf("%s must not be negative", n.name))
		}
	}

	if w.ExactThreshold < 1 || w.ExactThreshold > MaxScore {
		problems = append(problems, fmt.Sprintf("exact_threshold must be within 1..%d", MaxScore))
	}

	if len(problems) > 0 {
		return fmt.Errorf("matching: invalid weights: %s", strings.Join(problems, ", "))
	}
	return nil
}
