package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/playperu/streetrep/internal/geo"
	"github.com/playperu/streetrep/internal/scoring"
	"github.com/playperu/streetrep/internal/streetrep"
	"github.com/playperu/streetrep/internal/surface"
)

type SurfaceResponse struct {
	surface.Surface
	Multiplier float64 `json:"multiplier"`
}

type CatalogResponse struct {
	Surfaces []SurfaceResponse `json:"surfaces"`
	Styles   []surface.Style   `json:"styles"`
}

func handleSurfaces(svc *Services) http.HandlerFunc {
	cat := svc.Scoring.Catalog()
	resp := CatalogResponse{Styles: cat.Styles()}
	for _, s := range cat.Surfaces() {
		resp.Surfaces = append(resp.Surfaces, SurfaceResponse{Surface: s, Multiplier: cat.Multiplier(s.ID)})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}

// PreviewQuery documents the query parameters of GET /api/preview.
type PreviewQuery struct {
	Surface string  `query:"surface"`
	Style   string  `query:"style"`
	Lat     float64 `query:"lat" required:"true"`
	Lng     float64 `query:"lng" required:"true"`
	RefLat  float64 `query:"refLat"`
	RefLng  float64 `query:"refLng"`
	Streak  int     `query:"streak"`
}

// handlePreview scores a hypothetical drop without recording anything.
func handlePreview(svc *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
		lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "lat and lng are required numbers")
			return
		}
		p := scoring.Placement{
			SurfaceID: q.Get("surface"),
			StyleID:   q.Get("style"),
			At:        geo.Coordinate{Lat: lat, Lng: lng},
			Time:      svc.Now(),
		}

		if q.Has("refLat") || q.Has("refLng") {
			ref, err := parseCoordinate(q.Get("refLat"), q.Get("refLng"))
			if err != nil {
				writeDomainError(w, svc.Logger, err)
				return
			}
			p.Reference = &ref
		}
		if s := q.Get("streak"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "streak must be an integer")
				return
			}
			p.Streak = n
		}

		if err := p.Validate(); err != nil {
			writeDomainError(w, svc.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.Scoring.ComputeRep(p))
	}
}

func parseCoordinate(lat, lng string) (geo.Coordinate, error) {
	la, err1 := strconv.ParseFloat(lat, 64)
	ln, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil {
		return geo.Coordinate{}, fmt.Errorf("coordinate (%q, %q): %w", lat, lng, streetrep.ErrInvalidArgument)
	}
	return geo.Coordinate{Lat: la, Lng: ln}, nil
}
