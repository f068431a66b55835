package drugref

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cad-care-tracker/internal/domain/catalog"
	"cad-care-tracker/internal/platform/httpclient"
)

var (
	ErrNotConfigured = errors.New("drugref client not configured")
	ErrUpstream      = errors.New("drugref upstream error")
)

// Config del cliente de la API de referencia de medicamentos.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: nombre del header de la API key. Default "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// Client consume la API externa de referencia de medicamentos.
// Implementa catalogsource.Source.
type Client struct {
	apiKey       string
	apiKeyHeader string
	http         *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
		http:         hc,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

// wireMedicine es la forma que expone la API de referencia.
type wireMedicine struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Dose     float64 `json:"dose"`
	DoseUnit string  `json:"dose_unit"`
	Notes    string  `json:"notes"`
}

// FetchMedicines trae el listado completo de medicamentos de la fuente.
// Entradas con unidad desconocida se descartan acá mismo: el catálogo local
// solo conoce el set cerrado de unidades.
func (c *Client) FetchMedicines(ctx context.Context) ([]catalog.Entry, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	var out struct {
		Medicines []wireMedicine `json:"medicines"`
	}

	headers := map[string]string{c.apiKeyHeader: c.apiKey}
	if err := c.http.DoJSON(ctx, http.MethodGet, "/v1/medicines", headers, nil, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	entries := make([]catalog.Entry, 0, len(out.Medicines))
	for _, m := range out.Medicines {
		unit := catalog.DoseUnit(strings.TrimSpace(m.DoseUnit))
		if !catalog.IsValidDoseUnit(unit) {
			continue
		}
		entries = append(entries, catalog.Entry{
			ID:            strings.TrimSpace(m.ID),
			Name:          strings.TrimSpace(m.Name),
			Dose:          m.Dose,
			DoseUnit:      unit,
			ClinicalNotes: strings.TrimSpace(m.Notes),
		})
	}

	return entries, nil
}
