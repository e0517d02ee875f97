package dpe

import (
	"sort"

	"github.com/honeycarbs/dpe-match/internal/domain"
)

// MaxResultsPerStrategy bounds the rows a single strategy may pull
const MaxResultsPerStrategy = 50

const (
	StrategyCommuneDepartment = "commune_department"
	StrategyDepartmentPrefix  = "department_prefix"
)

// Strategy is one textual search issued against the source
type Strategy struct {
	Name     string
	Priority int
	Query    domain.SearchQuery
}

// BuildStrategies derives the search strategies for a descriptor, lowest priority value first;
// both strategies run when both apply; their results merge
func BuildStrategies(desc domain.PropertyDescriptor, resultCap int) []Strategy {
	desc = desc.Normalized()
	if resultCap <= 0 {
		resultCap = MaxResultsPerStrategy
	}

	var out []Strategy
	if desc.Commune != "" && desc.Department != "" {
		out = append(out, Strategy{
			Name:     StrategyCommuneDepartment,
			Priority: 1,
			Query:    domain.SearchQuery{Text: desc.Commune + " " + desc.Department, Size: resultCap},
		})
	}
	if desc.Department != "" {
		out = append(out, Strategy{
			Name:     StrategyDepartmentPrefix,
			Priority: 2,
			Query:    domain.SearchQuery{Text: desc.Department + "*", Size: resultCap},
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}
