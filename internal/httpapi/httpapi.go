// Package httpapi is the read-only HTTP surface clients use to fetch the
// current inventory of a provider: spec.md §6 documents the JSON shape,
// leaving endpoint wiring as an implementation detail, which this package
// owns using the same labstack/echo idiom the teacher's cmd/ingest used.
package httpapi

import (
	"net/http"

	"github.com/labstack/echo"

	"github.com/windcast/windcast/internal/provider"
)

// Registry looks a provider up by its short id, as configured.
type Registry interface {
	Provider(id string) (*provider.Provider, bool)
}

// MapRegistry is the simplest Registry: a fixed id -> Provider map.
type MapRegistry map[string]*provider.Provider

func (m MapRegistry) Provider(id string) (*provider.Provider, bool) {
	p, ok := m[id]
	return p, ok
}

// ForecastResponse is one forecast-time bucket in the winds envelope.
type ForecastResponse struct {
	ForecastTime string   `json:"forecastTime"`
	RefTimes     []string `json:"refTimes"`
}

// WindsResponse is the full /winds/api/v2/winds envelope for one provider.
type WindsResponse struct {
	Provider         string              `json:"provider"`
	ProviderName     string              `json:"providerName"`
	CurrentRefTime   string              `json:"currentRefTime"`
	LastForecastTime *string             `json:"lastForecastTime,omitempty"`
	Progress         uint8               `json:"progress"`
	Forecasts        []ForecastResponse  `json:"forecasts"`
}

const iso8601 = "2006-01-02T15:04:05Z"

// Register attaches the read-only routes to e.
func Register(e *echo.Echo, registry Registry) {
	e.GET("/healthz/-/ready", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e.GET("/winds/api/v2/winds", func(c echo.Context) error {
		id := c.QueryParam("provider")
		p, ok := registry.Provider(id)
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown provider"})
		}
		return c.JSON(http.StatusOK, buildWindsResponse(p))
	})
}

func buildWindsResponse(p *provider.Provider) WindsResponse {
	resp := WindsResponse{
		Provider:       p.Status.Provider,
		ProviderName:   p.Status.ProviderName,
		CurrentRefTime: p.Status.CurrentRefTime().Format(iso8601),
		Progress:       p.Status.GetProgress(),
	}

	if last, ok := p.Status.GetLast(); ok {
		ft := last.ForecastTime.Format(iso8601)
		resp.LastForecastTime = &ft
	}

	for _, f := range p.Status.Forecasts() {
		refs := make([]string, len(f.RefTimes))
		for i, r := range f.RefTimes {
			refs[i] = r.Format(iso8601)
		}
		resp.Forecasts = append(resp.Forecasts, ForecastResponse{
			ForecastTime: f.ForecastTime.Format(iso8601),
			RefTimes:     refs,
		})
	}

	return resp
}
