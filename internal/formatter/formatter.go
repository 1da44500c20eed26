// package formatter provides functions to export movie listings to various formats (JSON, CSV, Markdown, plain text)
// and to render a movie's detail card for the terminal
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
)

// Export formats accepted by [Export].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Listing is a titled page of movies, the unit every exporter works on.
type Listing struct {
	Title   string         `json:"title"`
	Page    int            `json:"page"`
	HasMore bool           `json:"has_more"`
	Items   []models.Movie `json:"items"`
}

// Export renders l in format. imageBase is the poster CDN base used by the markdown exporter.
func Export(l Listing, format, imageBase string, pretty bool) ([]byte, error) {
	switch format {
	case "", FormatJSON:
		return shared.MarshalJSON(l, pretty)
	case FormatCSV:
		return ExportToCSV(l.Items)
	case FormatMarkdown, "md":
		return ExportToMarkdown(l, imageBase)
	case FormatText, "text":
		return ExportToText(l)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// ExportToCSV converts movies to CSV format with columns: ID, Title, OriginalTitle, Rating, ReleaseDate, Poster
func ExportToCSV(movies []models.Movie) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "OriginalTitle", "Rating", "ReleaseDate", "Poster"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range movies {
		record := []string{
			strconv.FormatInt(m.ID, 10),
			m.Title,
			m.OriginalTitle,
			strconv.FormatFloat(m.VoteAverage, 'f', 1, 64),
			m.ReleaseDate,
			m.PosterPath,
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

// ExportToMarkdown converts a listing to Markdown with poster thumbnails when imageBase is set
func ExportToMarkdown(l Listing, imageBase string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", l.Title)
	fmt.Fprintf(&buf, "**Page**: %d\n", l.Page)
	fmt.Fprintf(&buf, "**Movies**: %d\n\n", len(l.Items))

	for i, m := range l.Items {
		fmt.Fprintf(&buf, "%d. **%s**%s ★ %.1f\n", i+1, m.DisplayTitle(), yearSuffix(m), m.VoteAverage)
		if imageBase != "" && m.HasPoster() {
			fmt.Fprintf(&buf, "   ![%s](%s)\n", m.DisplayTitle(), m.PosterURL(imageBase, models.PosterThumb))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a listing to plain text format
func ExportToText(l Listing) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s (page %d)\n", l.Title, l.Page)
	fmt.Fprintf(&buf, "Movies: %d\n\n", len(l.Items))

	for i, m := range l.Items {
		fmt.Fprintf(&buf, "%d. [%d] %s%s - %.1f\n", i+1, m.ID, m.DisplayTitle(), yearSuffix(m), m.VoteAverage)
	}

	return buf.Bytes(), nil
}

func yearSuffix(m models.Movie) string {
	if y := m.Year(); y != "" {
		return " (" + y + ")"
	}
	return ""
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
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

// MarkdownExportResult contains information about files created by [WriteMarkdownExport]
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Warnings  []string
}

// WriteMarkdownExport writes a listing to {dir}/README.md and downloads poster thumbnails into {dir}/posters.
//
// Posters that fail to download are reported as warnings and linked remotely instead.
func WriteMarkdownExport(ctx context.Context, l Listing, outputDir, imageBase string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("%w: output directory", shared.ErrMissingArgument)
	}

	postersDir := filepath.Join(outputDir, "posters")
	if err := os.MkdirAll(postersDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", l.Title)
	for i, m := range l.Items {
		fmt.Fprintf(&buf, "%d. **%s**%s ★ %.1f\n", i+1, m.DisplayTitle(), yearSuffix(m), m.VoteAverage)
		if imageBase == "" || !m.HasPoster() {
			continue
		}

		url := m.PosterURL(imageBase, models.PosterThumb)
		data, err := DownloadImage(ctx, url)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("poster for %d: %v", m.ID, err))
			fmt.Fprintf(&buf, "   ![%s](%s)\n", m.DisplayTitle(), url)
			continue
		}

		name := strconv.FormatInt(m.ID, 10) + filepath.Ext(m.PosterPath)
		path := filepath.Join(postersDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("poster for %d: %v", m.ID, err))
			continue
		}
		result.Files = append(result.Files, path)
		fmt.Fprintf(&buf, "   ![%s](posters/%s)\n", m.DisplayTitle(), name)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteExport renders l in format and writes it to path.
func WriteExport(l Listing, format, imageBase, path string) error {
	data, err := Export(l, format, imageBase, true)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(string(data), "\n") {
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
