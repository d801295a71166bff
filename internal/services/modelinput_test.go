package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"flood-platform/internal/models"
)

func TestModelInputWriter_RemoveExistingRiverInputs(t *testing.T) {
	dir := t.TempDir()

	stale := []string{"river1.txt", "river2.txt", "river10.txt"}
	kept := []string{"river.txt", "rain_forcing.txt", "notes.md"}

	for _, name := range append(append([]string{}, stale...), kept...) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to seed %s: %v", name, err)
		}
	}

	writer := NewModelInputWriter(dir, testLogger)
	if err := writer.RemoveExistingRiverInputs(context.Background()); err != nil {
		t.Fatalf("RemoveExistingRiverInputs() error = %v", err)
	}

	for _, name := range stale {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should have been removed", name)
		}
	}
	for _, name := range kept {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should have been kept: %v", name, err)
		}
	}
}

func TestModelInputWriter_WriteTargetLocations(t *testing.T) {
	dir := t.TempDir()
	writer := NewModelInputWriter(dir, testLogger)

	locations := []models.TargetLocation{
		{
			ReferenceFeatureID: 101,
			WaterwayFeatureID:  50,
			TargetPoint:        orb.Point{1570500, 5180250},
			Elevation:          12.5,
			DEMResolution:      10,
		},
		{
			ReferenceFeatureID: 102,
			WaterwayFeatureID:  51,
			TargetPoint:        orb.Point{1571000, 5180900},
			Elevation:          8.25,
			DEMResolution:      10,
		},
	}

	written, err := writer.WriteTargetLocations(context.Background(), locations)
	if err != nil {
		t.Fatalf("WriteTargetLocations() error = %v", err)
	}

	if len(written) != 2 {
		t.Fatalf("wrote %d files, want 2", len(written))
	}

	// Files are numbered from 1 in input order.
	if filepath.Base(written[0]) != "river1.txt" || filepath.Base(written[1]) != "river2.txt" {
		t.Errorf("file names = %v, want river1.txt, river2.txt", written)
	}

	content, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatalf("failed to read %s: %v", written[0], err)
	}

	text := string(content)
	if !strings.Contains(text, "reference_feature_id=101") {
		t.Errorf("missing reference feature id in:\n%s", text)
	}
	if !strings.Contains(text, "target_point=1570500.0000,5180250.0000") {
		t.Errorf("missing target point in:\n%s", text)
	}
	// Cell extent is the target point expanded by half the resolution.
	if !strings.Contains(text, "cell_extent=1570495.0000,1570505.0000,5180245.0000,5180255.0000") {
		t.Errorf("missing cell extent in:\n%s", text)
	}
}

func TestModelInputWriter_WriteEmpty(t *testing.T) {
	dir := t.TempDir()
	writer := NewModelInputWriter(dir, testLogger)

	written, err := writer.WriteTargetLocations(context.Background(), nil)
	if err != nil {
		t.Fatalf("WriteTargetLocations() error = %v", err)
	}
	if len(written) != 0 {
		t.Errorf("wrote %d files, want 0", len(written))
	}
}
