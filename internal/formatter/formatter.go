// package formatter renders pipeline results for the terminal and exports them to files (CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/genrefy/internal/genres"
	"github.com/desertthunder/genrefy/internal/models"
	"github.com/desertthunder/genrefy/internal/shared"
)

// ExportToCSV converts a pipeline result to CSV with columns: ID, Name, Artists, Genres, URI, Matched.
//
// Multi-valued fields are joined with "; ". Matched is empty when requested is empty.
func ExportToCSV(result *models.PipelineResult, requested []string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Genres", "URI", "Matched"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range result.Tracks {
		matched := ""
		if len(requested) > 0 {
			matched = strconv.FormatBool(genres.Match(track.Genres, requested))
		}
		record := []string{
			track.TrackID,
			track.Name,
			strings.Join(track.ArtistNames, "; "),
			strings.Join(track.Genres, "; "),
			track.URI,
			matched,
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

// ExportToMarkdown converts a pipeline result to Markdown, marking tracks that match requested.
func ExportToMarkdown(result *models.PipelineResult, requested []string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", result.PlaylistName)
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(result.Tracks))
	if result.Skipped > 0 {
		fmt.Fprintf(&buf, "**Unavailable**: %d\n", result.Skipped)
	}
	if len(requested) > 0 {
		fmt.Fprintf(&buf, "**Filter**: %s\n", strings.Join(requested, ", "))
	}
	buf.WriteString("\n## Genres\n\n")
	if len(result.Genres) == 0 {
		buf.WriteString("_none_\n")
	}
	for _, g := range result.Genres {
		fmt.Fprintf(&buf, "- %s\n", g)
	}

	buf.WriteString("\n## Tracks\n\n")
	for i, track := range result.Tracks {
		mark := ""
		if len(requested) > 0 && genres.Match(track.Genres, requested) {
			mark = " ✓"
		}
		tags := "no genres"
		if track.HasGenres() {
			tags = strings.Join(track.Genres, ", ")
		}
		fmt.Fprintf(&buf, "%d. %s - %s [%s]%s\n", i+1, strings.Join(track.ArtistNames, ", "), track.Name, tags, mark)
	}

	if len(result.Failed) > 0 {
		buf.WriteString("\n## Failed\n\n")
		for _, f := range result.Failed {
			fmt.Fprintf(&buf, "- %s (%s): %s\n", f.Name, f.TrackID, f.Error)
		}
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON summary of the result without per-track records
func ToMetadataJSON(result *models.PipelineResult) ([]byte, error) {
	summary := struct {
		PlaylistID   string               `json:"playlistId"`
		PlaylistName string               `json:"playlistName"`
		Genres       []string             `json:"genres"`
		Tracks       int                  `json:"tracks"`
		Skipped      int                  `json:"skipped"`
		Failed       []models.FailedTrack `json:"failed,omitempty"`
	}{
		PlaylistID:   result.PlaylistID,
		PlaylistName: result.PlaylistName,
		Genres:       result.Genres,
		Tracks:       len(result.Tracks),
		Skipped:      result.Skipped,
		Failed:       result.Failed,
	}
	return shared.MarshalJSON(summary, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a result to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_genres.csv and {base}_metadata.json
func WriteCSVExport(result *models.PipelineResult, requested []string, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = result.PlaylistID
	}

	csvData, err := ExportToCSV(result, requested)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_genres.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(result)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports a result to Markdown.
//
// Defaults to {playlist.ID}_genres.md as the filename.
func WriteMarkdownExport(result *models.PipelineResult, requested []string, filepath string) (string, error) {
	if filepath == "" {
		filepath = result.PlaylistID + "_genres.md"
	}

	mdData, err := ExportToMarkdown(result, requested)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}
