package controllers

import (
	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/lintang-b-s/navroute/pkg/guidance"
	"github.com/lintang-b-s/navroute/pkg/util"
	"github.com/paulmach/orb/geojson"
)

type routeRequest struct {
	StartLat *float64 `json:"start_lat" validate:"required,min=-90,max=90"`
	StartLon *float64 `json:"start_lon" validate:"required,min=-180,max=180"`
	EndLat   *float64 `json:"end_lat" validate:"required,min=-90,max=90"`
	EndLon   *float64 `json:"end_lon" validate:"required,min=-180,max=180"`
}

func (r routeRequest) start() geo.Coordinate {
	return geo.NewCoordinate(*r.StartLat, *r.StartLon)
}

func (r routeRequest) end() geo.Coordinate {
	return geo.NewCoordinate(*r.EndLat, *r.EndLon)
}

type routeSummary struct {
	TotalDistanceMeters float64 `json:"total_distance_meters"`
	TotalDuration       string  `json:"total_duration"`
	Polyline            string  `json:"polyline"`
}

// NewRouteResponse renders an itinerary as a GeoJSON FeatureCollection with one LineString
// feature per traversed edge and the route summary as a foreign member.
func NewRouteResponse(itinerary *guidance.Itinerary) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, seg := range itinerary.Segments() {
		f := geojson.NewFeature(seg.GetGeometry())
		f.Properties = geojson.Properties{
			"seq":         seg.GetSeq(),
			"node":        seg.GetVertex(),
			"edge":        seg.GetEdge(),
			"cost_meters": util.RoundFloat(seg.GetDistance(), 2),
			"street_name": seg.GetStreetName(),
			"duration":    seg.GetDuration().String(),
		}
		fc.Append(f)
	}

	summary := itinerary.Summary()
	fc.ExtraMembers = geojson.Properties{
		"summary": routeSummary{
			TotalDistanceMeters: util.RoundFloat(summary.GetTotalDistance(), 2),
			TotalDuration:       summary.GetTotalDuration().String(),
			Polyline:            summary.GetPolyline(),
		},
	}
	return fc
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
