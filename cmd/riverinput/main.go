package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"flood-platform/internal/config"
	"flood-platform/internal/models"
	"flood-platform/internal/repository"
	"flood-platform/internal/services"
	"flood-platform/pkg/database"
	"flood-platform/pkg/logging"
	"flood-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	catchmentPath := flag.String("catchment", "selected_polygon.geojson", "GeoJSON file with the catchment polygon")
	demPath := flag.String("dem", "", "Path of the hydro DEM grid file (overrides HYDRO_DEM_PATH)")
	modelDir := flag.String("out", "", "Flood model input directory (overrides FLOOD_MODEL_DIR)")
	distanceM := flag.Float64("distance", 0, "Match distance threshold in meters (overrides RIVER_MATCH_DISTANCE_M)")
	crs := flag.Int("crs", 2193, "EPSG code of the catchment polygon coordinates")
	refreshBBox := flag.String("refresh-bbox", "", "WGS84 bbox min_lon,min_lat,max_lon,max_lat to refresh the waterway cache before the run")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *demPath != "" {
		cfg.River.DEMPath = *demPath
	}
	if *modelDir != "" {
		cfg.River.BGFloodDir = *modelDir
	}
	if *distanceM != 0 {
		cfg.River.DistanceThresholdM = *distanceM
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("flood-riverinput", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[RIVERINPUT_START] Starting river input generation", logging.Fields{
		"version":     "1.0.0",
		"catchment":   *catchmentPath,
		"dem_path":    cfg.River.DEMPath,
		"model_dir":   cfg.River.BGFloodDir,
		"threshold_m": cfg.River.DistanceThresholdM,
	})

	catchment, err := loadCatchment(*catchmentPath, *crs)
	if err != nil {
		logger.Fatal(ctx, "[RIVERINPUT_ERROR] Failed to load catchment polygon", logging.Fields{
			"path": *catchmentPath,
		}, err)
	}

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("flood_riverinput")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[RIVERINPUT_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	riverRepo := repository.NewRiverRepository(db, logger, metricsCollector)
	overpassRepo := repository.NewOverpassRepository(
		cfg.Overpass.Endpoint,
		cfg.Overpass.Timeout,
		nil,
		logger,
		metricsCollector,
	)

	service := services.NewRiverInputService(riverRepo, overpassRepo, services.RiverInputOptions{
		DistanceThresholdM: cfg.River.DistanceThresholdM,
		DEMPath:            cfg.River.DEMPath,
		ModelDir:           cfg.River.BGFloodDir,
	}, logger, metricsCollector)

	if *refreshBBox != "" {
		bbox, err := parseBBox(*refreshBBox)
		if err != nil {
			logger.Fatal(ctx, "[RIVERINPUT_ERROR] Invalid refresh bbox", logging.Fields{
				"bbox": *refreshBBox,
			}, err)
		}

		count, err := service.RefreshWaterways(ctx, bbox)
		if err != nil {
			logger.Fatal(ctx, "[RIVERINPUT_ERROR] Waterway refresh failed", logging.Fields{}, err)
		}
		fmt.Printf("Refreshed waterway cache: %d waterways\n", count)
	}

	result, err := service.GenerateRiverInputs(ctx, catchment)
	if err != nil {
		logger.Fatal(ctx, "[RIVERINPUT_ERROR] River input generation failed", logging.Fields{}, err)
	}

	// Print summary
	fmt.Println("\n=== River Input Summary ===")
	fmt.Printf("Reference crossings:  %d\n", result.ReferenceCrossings)
	fmt.Printf("Pruned crossings:     %d\n", result.PrunedCrossings)
	fmt.Printf("Waterway crossings:   %d\n", result.WaterwayCrossings)
	fmt.Printf("Matched pairs:        %d\n", result.MatchedPairs)
	fmt.Printf("Unmatched rivers:     %d\n", len(result.UnmatchedRivers))
	fmt.Printf("Target locations:     %d\n", len(result.TargetLocations))
	fmt.Printf("Duration:             %v\n", result.Duration)

	for _, location := range result.TargetLocations {
		fmt.Printf("  river %d -> (%.2f, %.2f) elevation %.2f\n",
			location.ReferenceFeatureID, location.TargetPoint[0], location.TargetPoint[1], location.Elevation)
	}
}

// loadCatchment reads the catchment polygon from a GeoJSON file holding
// either a FeatureCollection, a Feature, or a bare Polygon geometry.
func loadCatchment(path string, crs int) (models.CatchmentArea, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.CatchmentArea{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var geom orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		geom = fc.Features[0].Geometry
	} else if f, err := geojson.UnmarshalFeature(data); err == nil {
		geom = f.Geometry
	} else if g, err := geojson.UnmarshalGeometry(data); err == nil {
		geom = g.Geometry()
	} else {
		return models.CatchmentArea{}, fmt.Errorf("%s is not valid GeoJSON", path)
	}

	polygon, ok := geom.(orb.Polygon)
	if !ok {
		return models.CatchmentArea{}, fmt.Errorf("catchment geometry must be a Polygon, got %s", geom.GeoJSONType())
	}

	return models.CatchmentArea{Polygon: polygon, CRS: crs}, nil
}

// parseBBox parses "min_lon,min_lat,max_lon,max_lat"
func parseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	values := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bbox value %q: %w", part, err)
		}
		values[i] = v
	}

	if values[0] >= values[2] || values[1] >= values[3] {
		return orb.Bound{}, fmt.Errorf("bbox must satisfy min_lon < max_lon and min_lat < max_lat")
	}

	return orb.Bound{
		Min: orb.Point{values[0], values[1]},
		Max: orb.Point{values[2], values[3]},
	}, nil
}
