package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/httpx"
)

// CatalogHandlers serves the read-only option catalogs and size charts that
// drive the customization wizard UI. No authentication required.
type CatalogHandlers struct{}

// NewCatalogHandlers constructs the public catalog handlers.
func NewCatalogHandlers() *CatalogHandlers {
	return &CatalogHandlers{}
}

// Routes wires the public endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/catalogs", h.catalogs)
	r.Get("/size-charts", h.sizeCharts)
}

type optionEntryPayload struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Hex   string `json:"hex,omitempty"`
}

type materialPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *CatalogHandlers) catalogs(w http.ResponseWriter, r *http.Request) {
	materials := make([]materialPayload, 0, len(domain.BuiltinMaterials))
	for _, m := range domain.BuiltinMaterials {
		materials = append(materials, materialPayload{ID: m.ID, Name: m.Name})
	}

	httpx.WriteJSON(r.Context(), w, http.StatusOK, map[string]any{
		"cloth_types":  entriesPayload(domain.GarmentTypes),
		"materials":    materials,
		"styles":       entriesPayload(domain.StyleOptions),
		"pockets":      entriesPayload(domain.PocketOptions),
		"colors":       entriesPayload(domain.ColorOptions),
		"fits":         entriesPayload(domain.FitOptions),
		"bottom_fits":  entriesPayload(domain.BottomFitOptions),
		"textures":     entriesPayload(domain.TextureOptions),
		"elasticity":   entriesPayload(domain.ElasticityOptions),
		"transparency": entriesPayload(domain.TransparencyOptions),
		"thickness":    entriesPayload(domain.ThicknessOptions),
		"seasons":      entriesPayload(domain.SeasonOptions),
	})
}

func (h *CatalogHandlers) sizeCharts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gender := domain.NormalizeGender(r.URL.Query().Get("gender"))

	payload := map[string]any{
		"gender":       string(gender),
		"default_size": domain.DefaultSize,
		"bands":        bandsPayload(domain.SizeBands(gender)),
	}

	clothType := domain.GarmentType(strings.TrimSpace(r.URL.Query().Get("cloth_type")))
	if clothType != "" {
		if !clothType.Known() {
			httpx.WriteError(ctx, w, httpx.NewError("unknown_cloth_type", "unknown cloth type "+string(clothType), http.StatusBadRequest))
			return
		}
		chart := make(map[string]map[string]float64)
		for _, label := range domain.SizeLabels(gender) {
			if row, ok := domain.LookupMeasurements(gender, clothType, label); ok {
				chart[label] = row
			}
		}
		payload["cloth_type"] = string(clothType)
		payload["measure_keys"] = domain.MeasureKeysFor(clothType)
		payload["chart"] = chart
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, payload)
}

func entriesPayload(entries []domain.OptionEntry) []optionEntryPayload {
	out := make([]optionEntryPayload, 0, len(entries))
	for _, entry := range entries {
		out = append(out, optionEntryPayload{Value: entry.Value, Label: entry.Label, Hex: entry.Hex})
	}
	return out
}

type sizeBandPayload struct {
	MinHeight float64 `json:"min_height"`
	MaxHeight float64 `json:"max_height"`
	Label     string  `json:"label"`
}

func bandsPayload(bands []domain.SizeBand) []sizeBandPayload {
	out := make([]sizeBandPayload, 0, len(bands))
	for _, band := range bands {
		out = append(out, sizeBandPayload{MinHeight: band.MinHeight, MaxHeight: band.MaxHeight, Label: band.Label})
	}
	return out
}
