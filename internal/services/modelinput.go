package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"flood-platform/internal/models"
	"flood-platform/pkg/logging"
)

// ModelInputWriter serializes target locations into per-river input files in
// the flood model directory. Each run owns the directory's river files, so
// stale files from earlier runs are removed before writing.
type ModelInputWriter struct {
	dir    string
	logger *logging.StructuredLogger
}

// NewModelInputWriter creates a model input writer targeting the given
// flood model directory.
func NewModelInputWriter(dir string, logger *logging.StructuredLogger) *ModelInputWriter {
	return &ModelInputWriter{
		dir:    dir,
		logger: logger,
	}
}

// RemoveExistingRiverInputs deletes river input files (river<N>.txt) left in
// the model directory by previous runs.
func (w *ModelInputWriter) RemoveExistingRiverInputs(ctx context.Context) error {
	matches, err := filepath.Glob(filepath.Join(w.dir, "river[0-9]*.txt"))
	if err != nil {
		return fmt.Errorf("failed to scan model directory %s: %w", w.dir, err)
	}

	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove stale river input %s: %w", path, err)
		}
	}

	if len(matches) > 0 {
		w.logger.Info(ctx, "[MODEL_INPUT_CLEANED] Removed stale river input files", logging.Fields{
			"directory": w.dir,
			"removed":   len(matches),
		})
	}

	return nil
}

// WriteTargetLocations writes one river<N>.txt per target location, numbered
// from 1 in the order given. The header records the injection cell (the
// target point expanded to one DEM cell) and the source feature ids; the
// discharge series below the header is filled in by the flow scenario
// generator.
func (w *ModelInputWriter) WriteTargetLocations(ctx context.Context, locations []models.TargetLocation) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create model directory %s: %w", w.dir, err)
	}

	written := make([]string, 0, len(locations))
	for i, location := range locations {
		path := filepath.Join(w.dir, fmt.Sprintf("river%d.txt", i+1))
		if err := os.WriteFile(path, []byte(renderRiverInput(location)), 0o644); err != nil {
			return written, fmt.Errorf("failed to write river input %s: %w", path, err)
		}
		written = append(written, path)
	}

	w.logger.Info(ctx, "[MODEL_INPUT_WRITTEN] River input files written", logging.Fields{
		"directory": w.dir,
		"files":     len(written),
	})

	return written, nil
}

// renderRiverInput formats one river input file. The cell extent is the
// target point expanded by half the DEM resolution on each side, matching
// the raster cell the elevation was sampled from.
func renderRiverInput(location models.TargetLocation) string {
	half := location.DEMResolution / 2

	var b strings.Builder
	fmt.Fprintf(&b, "# reference_feature_id=%d waterway_feature_id=%d\n",
		location.ReferenceFeatureID, location.WaterwayFeatureID)
	fmt.Fprintf(&b, "# target_point=%.4f,%.4f elevation=%.4f\n",
		location.TargetPoint[0], location.TargetPoint[1], location.Elevation)
	fmt.Fprintf(&b, "# cell_extent=%.4f,%.4f,%.4f,%.4f\n",
		location.TargetPoint[0]-half, location.TargetPoint[0]+half,
		location.TargetPoint[1]-half, location.TargetPoint[1]+half)
	b.WriteString("# time_seconds discharge_cumecs\n")
	return b.String()
}
