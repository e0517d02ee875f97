package ademe

import (
	"strconv"
	"strings"
	"time"

	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/pkg/ademe"
)

// Dataset column names referenced outside struct tags
const (
	fieldPostalCode = "code_postal_ban"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// Normalize maps one dataset row onto the canonical record shape;
// it is the only place that knows the dataset's column semantics
func Normalize(line ademe.Line) domain.CertificateRecord {
	postal := strings.TrimSpace(line.CodePostalBAN)

	rec := domain.CertificateRecord{
		ID:            strings.TrimSpace(line.NumeroDPE),
		Address:       firstNonEmpty(line.AdresseBAN, line.AdresseBrut),
		Commune:       strings.TrimSpace(line.NomCommuneBAN),
		Department:    strings.ToUpper(strings.TrimSpace(line.CodeDepartementBAN)),
		PostalCode:    postal,
		Location:      parseGeoPoint(line.GeoPoint),
		EnergyClass:   domain.ParseEnergyClass(line.EtiquetteDPE),
		GHGClass:      domain.ParseEnergyClass(line.EtiquetteGES),
		Surface:       line.SurfaceHabitable,
		AnnualCost:    line.CoutTotal5Usages,
		EstablishedAt: parseDate(line.DateEtablissementDPE),
		ExpiresAt:     parseDate(line.DateFinValiditeDPE),
	}

	if rec.Department == "" {
		rec.Department = departmentFromPostalCode(postal)
	}

	return rec
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseGeoPoint reads the "lat,lon" point column; anything unusable yields nil
func parseGeoPoint(raw string) *domain.Coordinate {
	latRaw, lonRaw, ok := strings.Cut(strings.TrimSpace(raw), ",")
	if !ok {
		return nil
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil
	}

	return &domain.Coordinate{Lat: lat, Lon: lon}
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

// departmentFromPostalCode derives the department when the column is blank;
// Corsican postal codes start with 20 but belong to 2A (200xx, 201xx) or 2B
func departmentFromPostalCode(postal string) string {
	if len(postal) != 5 {
		return ""
	}
	if _, err := strconv.Atoi(postal); err != nil {
		return ""
	}

	switch {
	case strings.HasPrefix(postal, "97"), strings.HasPrefix(postal, "98"):
		return postal[:3]
	case strings.HasPrefix(postal, "20"):
		if postal[2] == '0' || postal[2] == '1' {
			return "2A"
		}
		return "2B"
	default:
		return postal[:2]
	}
}
