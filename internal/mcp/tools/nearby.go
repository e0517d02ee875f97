package tools

import (
	"context"
	"fmt"
	"regexp"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/dpe-match/internal/domain"
)

// DefaultNearbyLimit bounds dpe_nearby when no limit is given
const DefaultNearbyLimit = 20

var postalCodePattern = regexp.MustCompile(`^\d{5}$`)

// NearbySearcher ranks a postal-code bucket around a point
type NearbySearcher interface {
	Nearby(ctx context.Context, target domain.Coordinate, postalCode string, limit int) (domain.ProximityResult, error)
}

// NearbyParams defines the arguments for the dpe_nearby tool
type NearbyParams struct {
	PostalCode string  `json:"postal_code" jsonschema:"Five digit postal code whose certificates are ranked"`
	Lat        float64 `json:"lat" jsonschema:"Target latitude"`
	Lon        float64 `json:"lon" jsonschema:"Target longitude"`
	Limit      int     `json:"limit,omitempty" jsonschema:"How many nearest certificates to return (default 20)"`
}

type nearbyHandler struct {
	searcher NearbySearcher
}

// WithNearby registers the dpe_nearby tool
func WithNearby(searcher NearbySearcher) Option {
	return func(reg *registry) {
		if absent(searcher) {
			reg.logger.Warn("dpe_nearby not registered: proximity service not configured")
			return
		}
		h := &nearbyHandler{searcher: searcher}
		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "dpe_nearby",
			Description: "List certificates of a postal code ordered by distance from a point",
		}, instrument(reg, "dpe_nearby", h.handle))
	}
}

func (h *nearbyHandler) handle(ctx context.Context, _ *sdkmcp.CallToolRequest, params NearbyParams) (*sdkmcp.CallToolResult, any, error) {
	if !postalCodePattern.MatchString(params.PostalCode) {
		return nil, nil, fmt.Errorf("postal_code %q must be five digits", params.PostalCode)
	}
	if params.Lat < -90 || params.Lat > 90 || params.Lon < -180 || params.Lon > 180 {
		return nil, nil, fmt.Errorf("coordinate (%g, %g) is out of range", params.Lat, params.Lon)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	result, err := h.searcher.Nearby(ctx, domain.Coordinate{Lat: params.Lat, Lon: params.Lon}, params.PostalCode, limit)
	if err != nil {
		return nil, nil, err
	}

	summary := "[dpe_nearby] " + result.Summary()
	if nearest, ok := result.Nearest(); ok {
		summary += fmt.Sprintf("; nearest %s at %.0f m", nearest.Record.ID, nearest.DistanceMeters)
	}

	res, err := jsonResult(summary, result)
	if err != nil {
		return nil, nil, err
	}
	return res, result, nil
}
