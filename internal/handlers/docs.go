package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the river input API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Flood Platform River Input API",
			"description": "Generates flood model river inflow inputs by matching the reference river network against mapped waterways on a catchment boundary",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/river-inputs": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Generate river inputs",
					"description": "Runs the boundary matching pipeline for a catchment polygon and writes the flood model river input files",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"catchment": map[string]interface{}{
											"type":        "object",
											"description": "GeoJSON Polygon geometry in the projected CRS",
										},
										"crs": map[string]interface{}{
											"type":        "integer",
											"description": "EPSG code of the catchment coordinates (default 2193)",
											"default":     2193,
										},
									},
									"required": []string{"catchment"},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Pipeline result with target locations and run counts"},
						"400": map[string]interface{}{"description": "Invalid catchment geometry"},
						"422": map[string]interface{}{"description": "Fatal misconfiguration (cyclic network, DEM does not cover catchment)"},
					},
				},
				"get": map[string]interface{}{
					"summary":     "List pipeline runs",
					"description": "Retrieve persisted run summaries, newest first",
					"parameters": []map[string]interface{}{
						{
							"name":     "page",
							"in":       "query",
							"required": false,
							"schema":   map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":     "limit",
							"in":       "query",
							"required": false,
							"schema":   map[string]interface{}{"type": "integer", "default": 20},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Paginated run summaries"},
					},
				},
			},
			"/api/waterways/refresh": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Refresh the waterway cache",
					"description": "Fetches waterway lines for a WGS84 bounding box from the Overpass API and replaces the local cache",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Number of cached waterways"},
						"502": map[string]interface{}{"description": "Upstream Overpass request failed"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service healthy"},
						"503": map[string]interface{}{"description": "Service unhealthy"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Prometheus metrics",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Metrics in Prometheus exposition format"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(spec)
}
