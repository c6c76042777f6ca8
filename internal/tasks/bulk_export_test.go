package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/ptt/internal/formatter"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
	tu "github.com/desertthunder/ptt/internal/testing"
)

func categoryVideos(perCategory int, categories ...string) []models.Video {
	var videos []models.Video
	id := models.VideoID(1)
	for _, name := range categories {
		for i := 0; i < perCategory; i++ {
			videos = append(videos, models.Video{
				ID:         id,
				Title:      fmt.Sprintf("%s %d", name, i+1),
				Duration:   60 * (i + 1),
				Sequence:   i + 1,
				Watched:    i == 0,
				Categories: []models.CategoryRef{{Name: name, Slug: shared.Slugify(name)}},
			})
			id++
		}
	}
	return videos
}

func TestBulkExport_SuccessfulExport(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		categories     []string
		wantSuccess    int
		validateResult func(t *testing.T, result *BulkExportResult, tempDir string)
	}{
		{
			name:        "single category json export",
			format:      "json",
			categories:  []string{"Hand Reading"},
			wantSuccess: 1,
			validateResult: func(t *testing.T, result *BulkExportResult, tempDir string) {
				if len(result.Results[0].Files) != 1 {
					t.Errorf("expected 1 file, got %d", len(result.Results[0].Files))
				}
				jsonPath := filepath.Join(tempDir, "hand-reading.json")
				tu.AssertFileExists(t, jsonPath)

				var export formatter.CategoryExport
				if err := json.Unmarshal([]byte(tu.MustReadFile(t, jsonPath)), &export); err != nil {
					t.Fatalf("invalid export JSON: %v", err)
				}
				if export.Category != "Hand Reading" || export.Total != 3 || export.Watched != 1 {
					t.Errorf("unexpected export: %+v", export)
				}
			},
		},
		{
			name:        "multiple categories csv export",
			format:      "csv",
			categories:  []string{"Preflop", "ICM", "Bluffing"},
			wantSuccess: 3,
			validateResult: func(t *testing.T, result *BulkExportResult, tempDir string) {
				for _, res := range result.Results {
					if len(res.Files) != 2 {
						t.Errorf("CSV export should create 2 files, got %d", len(res.Files))
					}
				}
			},
		},
		{
			name:        "text export",
			format:      "txt",
			categories:  []string{"Preflop", "ICM"},
			wantSuccess: 2,
			validateResult: func(t *testing.T, result *BulkExportResult, tempDir string) {
				tu.AssertFileExists(t, filepath.Join(tempDir, "icm_videos.txt"))
			},
		},
		{
			name:        "markdown export",
			format:      "markdown",
			categories:  []string{"Preflop"},
			wantSuccess: 1,
			validateResult: func(t *testing.T, result *BulkExportResult, tempDir string) {
				tu.AssertFileExists(t, filepath.Join(tempDir, "preflop", "README.md"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			api := tu.NewFakeAPI(categoryVideos(3, tt.categories...), nil)

			slugs := make([]string, len(tt.categories))
			for i, name := range tt.categories {
				slugs[i] = shared.Slugify(name)
			}

			opts := BulkExportOpts{
				Format:     tt.format,
				OutputDir:  tempDir,
				NumWorkers: 2,
				RateLimit:  1000,
				PageSize:   2,
			}

			result, err := NewProgressEngine(api, nil).BulkExport(context.Background(), nil, slugs, opts)
			if err != nil {
				t.Fatalf("BulkExport() error = %v", err)
			}
			if result.SuccessfulExports != tt.wantSuccess || result.FailedExports != 0 {
				t.Errorf("got %d ok / %d failed, want %d ok", result.SuccessfulExports, result.FailedExports, tt.wantSuccess)
			}
			if len(result.Results) != len(tt.categories) {
				t.Errorf("expected %d results, got %d", len(tt.categories), len(result.Results))
			}
			if result.ManifestPath != filepath.Join(tempDir, "export_manifest.json") {
				t.Errorf("unexpected manifest path %s", result.ManifestPath)
			}
			tu.AssertFileExists(t, result.ManifestPath)

			// Two pages of two for three videos per category.
			if got := api.CallCount("VideosByCategory"); got != 2*len(slugs) {
				t.Errorf("expected %d listing requests, got %d", 2*len(slugs), got)
			}

			tt.validateResult(t, result, tempDir)
		})
	}
}

func TestBulkExport_PartialFailures(t *testing.T) {
	tempDir := t.TempDir()
	api := tu.NewFakeAPI(categoryVideos(1, "Preflop"), nil)

	result, err := NewProgressEngine(api, nil).BulkExport(context.Background(), nil, []string{"preflop"}, BulkExportOpts{
		Format:    "xml",
		OutputDir: tempDir,
		RateLimit: 1000,
	})
	if err != nil {
		t.Fatalf("BulkExport() error = %v", err)
	}
	if result.FailedExports != 1 || result.Results[0].Error == nil {
		t.Errorf("expected unknown format to fail, got %+v", result)
	}

	manifest := tu.MustReadFile(t, result.ManifestPath)
	if !strings.Contains(manifest, `"status": "failed"`) || !strings.Contains(manifest, "unknown format") {
		t.Errorf("manifest should record the failure, got %s", manifest)
	}
}

func TestBulkExport_ServiceError(t *testing.T) {
	t.Run("nil api", func(t *testing.T) {
		_, err := NewProgressEngine(nil, nil).BulkExport(context.Background(), nil, []string{"x"}, BulkExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("fetch failures are per category", func(t *testing.T) {
		api := tu.NewFakeAPI(categoryVideos(1, "Preflop"), nil)
		api.FailVideos = true

		result, err := NewProgressEngine(api, nil).BulkExport(context.Background(), nil, []string{"preflop", "icm"}, BulkExportOpts{
			OutputDir: t.TempDir(),
			RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("BulkExport() error = %v", err)
		}
		if result.FailedExports != 2 || result.SuccessfulExports != 0 {
			t.Errorf("expected two failures, got %+v", result)
		}
	})
}

func TestBulkExport_ContextCancellation(t *testing.T) {
	api := tu.NewFakeAPI(categoryVideos(1, "Preflop", "ICM"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewProgressEngine(api, nil).BulkExport(ctx, nil, []string{"preflop", "icm"}, BulkExportOpts{
		OutputDir:  t.TempDir(),
		NumWorkers: 1,
		RateLimit:  10,
	})
	if err != nil {
		t.Errorf("BulkExport() should handle cancellation gracefully, got error: %v", err)
	}
	if result == nil {
		t.Fatal("result should not be nil")
	}
	if result.SuccessfulExports != 0 {
		t.Errorf("nothing should be exported after cancellation, got %d", result.SuccessfulExports)
	}
}

func TestBulkExport_DefaultOptions(t *testing.T) {
	tempDir := t.TempDir()
	originalDir := tu.MustGetwd(t)
	tu.MustChdir(t, tempDir)
	defer tu.MustChdir(t, originalDir)

	api := tu.NewFakeAPI(categoryVideos(1, "Preflop"), nil)
	result, err := NewProgressEngine(api, nil).BulkExport(context.Background(), nil, []string{"preflop"}, BulkExportOpts{})
	if err != nil {
		t.Fatalf("BulkExport() error = %v", err)
	}
	if !strings.HasPrefix(result.OutputDirectory, "ptt_export_") {
		t.Errorf("expected default output directory, got %s", result.OutputDirectory)
	}
	tu.AssertFileExists(t, filepath.Join(result.OutputDirectory, "preflop.json"))
}

func TestBulkExport_LocalWatchedSet(t *testing.T) {
	tempDir := t.TempDir()
	api := tu.NewFakeAPI(categoryVideos(3, "Preflop"), nil)

	_, err := NewProgressEngine(api, nil).BulkExport(context.Background(), nil, []string{"preflop"}, BulkExportOpts{
		OutputDir: tempDir,
		RateLimit: 1000,
		Creator:   "Jonathan",
		IsWatched: func(id models.VideoID) bool { return id >= 2 },
	})
	if err != nil {
		t.Fatalf("BulkExport() error = %v", err)
	}

	var export formatter.CategoryExport
	if err := json.Unmarshal([]byte(tu.MustReadFile(t, filepath.Join(tempDir, "preflop.json"))), &export); err != nil {
		t.Fatalf("invalid export JSON: %v", err)
	}
	if export.Watched != 2 || export.Creator != "Jonathan" {
		t.Errorf("expected local watched-set to be used, got %+v", export)
	}
}

func TestBulkExport_ProgressUpdates(t *testing.T) {
	api := tu.NewFakeAPI(categoryVideos(1, "Preflop", "ICM"), nil)
	finish, progressCh := collect(make(chan ProgressUpdate, 100))

	result, err := NewProgressEngine(api, nil).BulkExport(context.Background(), progressCh, []string{"preflop", "icm"}, BulkExportOpts{
		OutputDir: t.TempDir(),
		RateLimit: 1000,
	})
	updates := finish()

	if err != nil {
		t.Fatalf("BulkExport() error = %v", err)
	}
	if result.SuccessfulExports != 2 {
		t.Errorf("SuccessfulExports = %d, want 2", result.SuccessfulExports)
	}

	phases := make(map[Phase]bool)
	for _, update := range updates {
		phases[update.Phase] = true
	}
	if !phases[FetchCategories] || !phases[ExportCategory] {
		t.Errorf("expected fetch and export phases, got %v", phases)
	}
}

func TestBulkExport_InvalidOutputDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewProgressEngine(tu.NewFakeAPI(nil, nil), nil).BulkExport(context.Background(), nil, []string{"x"}, BulkExportOpts{
		OutputDir: filepath.Join(file, "sub"),
	})
	if err == nil {
		t.Error("expected error for output directory under a file")
	}
}

func TestCategoryName(t *testing.T) {
	videos := categoryVideos(1, "Hand Reading")
	if got := categoryName(videos, "hand-reading"); got != "Hand Reading" {
		t.Errorf("categoryName() = %s", got)
	}
	if got := categoryName(videos, "other"); got != "other" {
		t.Errorf("categoryName() should fall back to the slug, got %s", got)
	}
}
