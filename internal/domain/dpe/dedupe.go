package dpe

import "github.com/honeycarbs/dpe-match/internal/domain"

// Merge concatenates batches keyed by certificate ID. The first occurrence wins,
// rows without an ID are dropped, and the number of repeats removed is returned
func Merge(batches ...[]domain.CertificateRecord) ([]domain.CertificateRecord, int) {
	total := 0
	for _, b := range batches {
		total += len(b)
	}

	seen := make(map[string]struct{}, total)
	out := make([]domain.CertificateRecord, 0, total)
	duplicates := 0

	for _, batch := range batches {
		for _, rec := range batch {
			if rec.ID == "" {
				continue
			}
			if _, ok := seen[rec.ID]; ok {
				duplicates++
				continue
			}
			seen[rec.ID] = struct{}{}
			out = append(out, rec)
		}
	}

	return out, duplicates
}
