// package formatter provides functions to export session matches and rooms to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/shared"
)

// Format names an export format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
	JSON     Format = "json"
)

// ParseFormat accepts a format name or its file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt", "":
		return Text, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

// MatchExport is the matches of one voting session at a point in time.
type MatchExport struct {
	Session     models.VotingSession `json:"session"`
	Matches     []models.Match       `json:"matches"`
	GeneratedAt time.Time            `json:"generated_at"`
}

func (e *MatchExport) now() time.Time {
	if e.GeneratedAt.IsZero() {
		return time.Now()
	}
	return e.GeneratedAt
}

func rating(m models.Movie) string {
	if m.VoteAverage == 0 {
		return ""
	}
	return strconv.FormatFloat(m.VoteAverage, 'f', 1, 64)
}

func matchedAt(m models.Match, now time.Time) string {
	if m.MatchedAt == nil {
		return ""
	}
	return humanize.RelTime(*m.MatchedAt, now, "ago", "from now")
}

// ExportToCSV converts a MatchExport to CSV format with columns: ID, Title, Year, Rating, Matched At
func ExportToCSV(export *MatchExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Year", "Rating", "Matched At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, match := range export.Matches {
		var at string
		if match.MatchedAt != nil {
			at = match.MatchedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatInt(match.ID, 10),
			match.Title,
			match.Year(),
			rating(match.Movie),
			at,
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

// ExportToMarkdown converts a MatchExport to Markdown format with optional poster image
func ExportToMarkdown(export *MatchExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	now := export.now()

	buf.WriteString(fmt.Sprintf("# Matches for session %s\n\n", export.Session.ID))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Poster](%s)\n\n", imageFilename))
	}

	if export.Session.Status != "" {
		buf.WriteString(fmt.Sprintf("**Status**: %s\n", export.Session.Status))
	}
	buf.WriteString(fmt.Sprintf("**Matches**: %d\n\n", len(export.Matches)))

	buf.WriteString("## Movies\n\n")
	if len(export.Matches) == 0 {
		buf.WriteString("No matches yet!\n")
		return buf.Bytes(), nil
	}

	for i, match := range export.Matches {
		line := fmt.Sprintf("%d. **%s**", i+1, match.Title)
		if year := match.Year(); year != "" {
			line += fmt.Sprintf(" (%s)", year)
		}
		if r := rating(match.Movie); r != "" {
			line += fmt.Sprintf(" ★ %s", r)
		}
		if at := matchedAt(match, now); at != "" {
			line += fmt.Sprintf(" · matched %s", at)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a MatchExport to plain text format
func ExportToText(export *MatchExport) ([]byte, error) {
	var buf bytes.Buffer
	now := export.now()

	buf.WriteString(fmt.Sprintf("Session: %s\n", export.Session.ID))
	if export.Session.Status != "" {
		buf.WriteString(fmt.Sprintf("Status: %s\n", export.Session.Status))
	}
	buf.WriteString(fmt.Sprintf("Matches: %d\n\n", len(export.Matches)))

	if len(export.Matches) == 0 {
		buf.WriteString("No matches yet!\n")
		return buf.Bytes(), nil
	}

	for i, match := range export.Matches {
		line := fmt.Sprintf("%d. %s", i+1, match.Title)
		if year := match.Year(); year != "" {
			line += fmt.Sprintf(" (%s)", year)
		}
		if at := matchedAt(match, now); at != "" {
			line += " - " + at
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a MatchExport to indented JSON
func ExportToJSON(export *MatchExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// Render produces export in format.
func Render(export *MatchExport, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return ExportToCSV(export)
	case Markdown:
		return ExportToMarkdown(export, "")
	case JSON:
		return ExportToJSON(export)
	default:
		return ExportToText(export)
	}
}

// Write renders export in format to w.
func Write(w io.Writer, export *MatchExport, format Format) error {
	data, err := Render(export, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// RoomsTable renders rooms as aligned plain text, newest activity relative to now
func RoomsTable(rooms []models.Room, now time.Time) string {
	if len(rooms) == 0 {
		return "No active rooms yet. Create one to get started!\n"
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%-36s  %-24s  %-8s  %7s  %s\n", "ID", "NAME", "VISIBLE", "MEMBERS", "CREATED"))
	for _, room := range rooms {
		created := ""
		if !room.CreatedAt.IsZero() {
			created = humanize.RelTime(room.CreatedAt, now, "ago", "from now")
		}
		buf.WriteString(fmt.Sprintf("%-36s  %-24s  %-8s  %7s  %s\n",
			room.ID, truncate(room.Name, 24), shared.VisibilityString(room.IsPublic),
			humanize.Comma(int64(room.MemberCount)), created))
	}
	return buf.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
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

// ToMetadataJSON generates a JSON representation of the session (without matches)
func ToMetadataJSON(session models.VotingSession) ([]byte, error) {
	return shared.MarshalJSON(session, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	MatchesFile  string
	MetadataFile string
}

// WriteCSVExport exports matches to CSV format with accompanying metadata JSON file.
//
// Defaults to the session ID as the base filename & creates {base}_matches.csv and {base}_metadata.json
func WriteCSVExport(export *MatchExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Session.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	matchesFile := baseFilepath + "_matches.csv"
	if err := os.WriteFile(matchesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		MatchesFile:  matchesFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Poster    string
}

// WriteMarkdownExport exports matches to Markdown format in a dedicated directory.
//
// Directory name defaults to the session ID.
// When withPoster is set and the first match has a poster, it is downloaded next to the README.
// Creates a directory structure: {dir}/README.md and optionally {dir}/poster.jpg
func WriteMarkdownExport(export *MatchExport, outputDir string, withPoster bool) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Session.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var posterFilename string
	if withPoster && len(export.Matches) > 0 {
		if posterURL := export.Matches[0].PosterURL(); posterURL != "" {
			imageData, err := DownloadImage(posterURL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to download poster: %v\n", err)
			} else {
				posterFilename = "poster.jpg"
				posterPath := fmt.Sprintf("%s/%s", outputDir, posterFilename)
				if err := os.WriteFile(posterPath, imageData, 0644); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to save poster: %v\n", err)
					posterFilename = ""
				} else {
					result.Poster = posterPath
					result.Files = append(result.Files, posterPath)
				}
			}
		}
	}

	mdData, err := ExportToMarkdown(export, posterFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports matches to plain text format.
//
// Defaults to {session.ID}_matches.txt as the filename.
func WriteTextExport(export *MatchExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_matches.txt", export.Session.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
