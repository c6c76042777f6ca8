// package formatter exports category video listings to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/ptt/internal/catalog"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// VideoEntry is one row of a category export.
type VideoEntry struct {
	ID       models.VideoID `json:"id"`
	Sequence int            `json:"sequence,omitempty"`
	Title    string         `json:"title"`
	Duration int            `json:"duration"`
	URL      string         `json:"url"`
	Watched  bool           `json:"watched"`
}

// CategoryExport is a category listing together with its progress.
type CategoryExport struct {
	Category  string       `json:"category"`
	Creator   string       `json:"creator,omitempty"`
	Watched   int          `json:"watched"`
	Total     int          `json:"total"`
	Thumbnail string       `json:"thumbnail,omitempty"`
	Videos    []VideoEntry `json:"videos"`
}

// NewCategoryExport builds an export from the videos of a category, ordered by sequence.
//
// isWatched decides the watched column; videos without a valid id are skipped.
func NewCategoryExport(category, creator string, videos []models.Video, isWatched func(models.VideoID) bool) *CategoryExport {
	sorted := append([]models.Video(nil), videos...)
	catalog.SortBySequence(sorted)
	export := &CategoryExport{
		Category: category,
		Creator:  creator,
		Videos:   make([]VideoEntry, 0, len(sorted)),
	}

	for _, v := range sorted {
		if !v.ID.Valid() {
			continue
		}
		watched := isWatched != nil && isWatched(v.ID)
		if watched {
			export.Watched++
		}
		if export.Thumbnail == "" {
			export.Thumbnail = v.ThumbnailURL
		}
		export.Videos = append(export.Videos, VideoEntry{
			ID:       v.ID,
			Sequence: v.Sequence,
			Title:    v.Title,
			Duration: v.Duration,
			URL:      v.URL,
			Watched:  watched,
		})
	}
	export.Total = len(export.Videos)
	return export
}

// Percent returns the watched percentage of the export.
func (e *CategoryExport) Percent() float64 {
	return models.ProgressSummary{Watched: e.Watched, Total: e.Total}.Percent()
}

// ExportToCSV converts a CategoryExport to CSV format with columns: ID, Sequence, Title, Duration, Watched, URL
func ExportToCSV(export *CategoryExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Sequence", "Title", "Duration", "Watched", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, video := range export.Videos {
		record := []string{
			video.ID.String(),
			strconv.Itoa(video.Sequence),
			video.Title,
			shared.FormatDuration(video.Duration),
			strconv.FormatBool(video.Watched),
			video.URL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a CategoryExport to a Markdown checklist with an optional cover image
func ExportToMarkdown(export *CategoryExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Category))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	if export.Creator != "" {
		buf.WriteString(fmt.Sprintf("**Creator**: %s\n\n", export.Creator))
	}

	buf.WriteString(fmt.Sprintf("**Videos**: %d\n", export.Total))
	buf.WriteString(fmt.Sprintf("**Progress**: %d/%d (%.0f%%)\n\n", export.Watched, export.Total, export.Percent()))

	buf.WriteString("## Videos\n\n")
	for _, video := range export.Videos {
		check := " "
		if video.Watched {
			check = "x"
		}
		title := video.Title
		if video.URL != "" {
			title = fmt.Sprintf("[%s](%s)", video.Title, video.URL)
		}
		buf.WriteString(fmt.Sprintf("- [%s] %s [%s]\n", check, title, shared.FormatDuration(video.Duration)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a CategoryExport to plain text format
func ExportToText(export *CategoryExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Category: %s\n", export.Category))
	if export.Creator != "" {
		buf.WriteString(fmt.Sprintf("Creator: %s\n", export.Creator))
	}
	buf.WriteString(fmt.Sprintf("Progress: %d/%d %s\n\n", export.Watched, export.Total, shared.ProgressBar(export.Percent(), 20)))

	for i, video := range export.Videos {
		mark := " "
		if video.Watched {
			mark = "✓"
		}
		buf.WriteString(fmt.Sprintf("%s %d. %s (%s)\n", mark, i+1, video.Title, shared.FormatDuration(video.Duration)))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of export metadata (without videos)
func ToMetadataJSON(export *CategoryExport) ([]byte, error) {
	return shared.MarshalJSON(struct {
		Category  string  `json:"category"`
		Creator   string  `json:"creator,omitempty"`
		Watched   int     `json:"watched"`
		Total     int     `json:"total"`
		Percent   float64 `json:"percent"`
		Thumbnail string  `json:"thumbnail,omitempty"`
	}{export.Category, export.Creator, export.Watched, export.Total, export.Percent(), export.Thumbnail}, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	VideosFile   string
	MetadataFile string
}

// WriteCSVExport exports a category to CSV format with accompanying metadata JSON file.
//
// Defaults to the category slug as the base filename & creates {base}_videos.csv and {base}_metadata.json
func WriteCSVExport(export *CategoryExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = shared.Slugify(export.Category)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	videosFile := baseFilepath + "_videos.csv"
	if err := os.WriteFile(videosFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		VideosFile:   videosFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a category to Markdown format in a dedicated directory.
//
// Directory name defaults to the category slug.
// The imageURL parameter is optional - if provided, attempts to download it as the cover image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(export *CategoryExport, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = shared.Slugify(export.Category)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a category to plain text format.
//
// Defaults to {slug}_videos.txt as the filename.
func WriteTextExport(export *CategoryExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_videos.txt", shared.Slugify(export.Category))
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport writes the full export as indented JSON.
//
// Defaults to {slug}.json as the filename.
func WriteJSONExport(export *CategoryExport, path string) (string, error) {
	if path == "" {
		path = shared.Slugify(export.Category) + ".json"
	}

	data, err := shared.MarshalJSON(export, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}

// Render returns the export encoded in format, for writing to stdout.
func Render(export *CategoryExport, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown, "md":
		return ExportToMarkdown(export, "")
	case FormatText, "text":
		return ExportToText(export)
	case FormatJSON, "":
		return shared.MarshalJSON(export, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport writes export under dir in the given format and returns the files created.
//
// imageURL is only used by the markdown format.
func WriteExport(export *CategoryExport, format, dir, imageURL string) ([]string, error) {
	base := filepath.Join(dir, shared.Slugify(export.Category))

	switch format {
	case FormatCSV:
		res, err := WriteCSVExport(export, base)
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		return []string{res.VideosFile, res.MetadataFile}, nil
	case FormatMarkdown, "md":
		res, err := WriteMarkdownExport(export, base, imageURL)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		return res.Files, nil
	case FormatText, "text":
		path, err := WriteTextExport(export, base+"_videos.txt")
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		return []string{path}, nil
	case FormatJSON, "":
		path, err := WriteJSONExport(export, base+".json")
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ManifestEntry records the outcome of exporting one category in a bulk export.
type ManifestEntry struct {
	Category string   `json:"category"`
	Status   string   `json:"status"`
	Files    []string `json:"files,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Manifest summarizes a bulk export.
type Manifest struct {
	Format     string          `json:"format"`
	ExportedAt time.Time       `json:"exported_at"`
	Creator    string          `json:"creator,omitempty"`
	Total      int             `json:"total_categories"`
	Successful int             `json:"successful_exports"`
	Failed     int             `json:"failed_exports"`
	Categories []ManifestEntry `json:"categories"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m Manifest, path string) error {
	if m.ExportedAt.IsZero() {
		m.ExportedAt = time.Now().UTC()
	}
	if m.Categories == nil {
		m.Categories = []ManifestEntry{}
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
