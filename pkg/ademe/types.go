package ademe

import (
	"fmt"
	"net/http"
	"time"
)

// Config defines ADEME data-fair client settings
type Config struct {
	BaseURL    string
	Dataset    string
	HTTPClient *http.Client
	PageSize   int
	Timeout    time.Duration
}

// Client queries the ADEME DPE dataset
type Client struct {
	baseURL    string
	dataset    string
	httpClient *http.Client
	pageSize   int
}

// SearchParams describe a lines search request
type SearchParams struct {
	Query       string
	QueryFields []string
	Size        int
	Select      []string
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ademe: API error (%d): %s", e.StatusCode, e.Body)
}

type linesResponse struct {
	Total   int    `json:"total"`
	Next    string `json:"next"`
	Results []Line `json:"results"`
}

// Line is one raw dataset row, keyed by the dataset's own column names;
// numeric columns are pointers because the dataset leaves them out when unknown
type Line struct {
	NumeroDPE            string   `json:"numero_dpe"`
	AdresseBAN           string   `json:"adresse_ban"`
	AdresseBrut          string   `json:"adresse_brut"`
	NomCommuneBAN        string   `json:"nom_commune_ban"`
	CodeDepartementBAN   string   `json:"code_departement_ban"`
	CodePostalBAN        string   `json:"code_postal_ban"`
	GeoPoint             string   `json:"_geopoint"`
	EtiquetteDPE         string   `json:"etiquette_dpe"`
	EtiquetteGES         string   `json:"etiquette_ges"`
	SurfaceHabitable     *float64 `json:"surface_habitable_logement"`
	CoutTotal5Usages     *float64 `json:"cout_total_5_usages"`
	DateEtablissementDPE string   `json:"date_etablissement_dpe"`
	DateFinValiditeDPE   string   `json:"date_fin_validite_dpe"`
}
