package proximity

import (
	"sort"

	"github.com/honeycarbs/dpe-match/internal/domain"
)

// ReasonNoCoordinates marks records left out because they carry no point
const ReasonNoCoordinates = "no coordinates"

// RankByProximity orders the pool nearest-first from target. Records without a
// point are reported in Excluded rather than ranked. Ties keep input order
func RankByProximity(target domain.Coordinate, pool []domain.CertificateRecord) domain.ProximityResult {
	result := domain.ProximityResult{
		Target:     target,
		Returned:   len(pool),
		Candidates: make([]domain.DistancedCandidate, 0, len(pool)),
	}

	for _, rec := range pool {
		if rec.Location == nil {
			result.Excluded = append(result.Excluded, domain.Exclusion{
				CertificateID: rec.ID,
				Reason:        ReasonNoCoordinates,
			})
			continue
		}
		result.Candidates = append(result.Candidates, domain.DistancedCandidate{
			Record:         rec,
			DistanceMeters: Distance(target, *rec.Location),
		})
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].DistanceMeters < result.Candidates[j].DistanceMeters
	})

	return result
}
