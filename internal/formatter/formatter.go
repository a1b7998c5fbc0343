// package formatter renders channel lists and commit history for export files and terminal output (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/desertthunder/ytsubs/internal/channelurl"
	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/shared"
)

var csvHeaders = []string{"URL", "Uploader", "ChannelID", "SubFolder", "VideoQuality", "MinDuration", "MaxDuration", "TitleFilter"}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

// ExportToCSV converts a ChannelExport to CSV with one row per channel.
func ExportToCSV(export *models.ChannelExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, ch := range export.Channels {
		record := []string{
			ch.URL,
			ch.Uploader,
			ch.ChannelID,
			deref(ch.SubFolder),
			deref(ch.VideoQuality),
			derefInt(ch.MinDuration),
			derefInt(ch.MaxDuration),
			deref(ch.TitleFilterRegex),
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

// groupBySubFolder buckets channels by normalized sub-folder key, keys sorted with the default first.
func groupBySubFolder(channels []models.Channel) ([]string, map[string][]models.Channel) {
	groups := map[string][]models.Channel{}
	for _, ch := range channels {
		key := channelurl.NormalizeSubFolderKey(ch.SubFolder)
		groups[key] = append(groups[key], ch)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == channelurl.DefaultSubFolderKey:
			return -1
		case b == channelurl.DefaultSubFolderKey:
			return 1
		case a < b:
			return -1
		default:
			return 1
		}
	})
	return keys, groups
}

// ExportToMarkdown converts a ChannelExport to Markdown, one section per sub-folder.
func ExportToMarkdown(export *models.ChannelExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Channels\n\n")
	if export.Source != "" {
		buf.WriteString(fmt.Sprintf("**Source**: %s\n", export.Source))
	}
	buf.WriteString(fmt.Sprintf("**Channels**: %s\n", humanize.Comma(int64(len(export.Channels)))))
	if !export.ExportedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Exported**: %s\n", export.ExportedAt.UTC().Format(time.RFC3339)))
	}
	buf.WriteString("\n")

	keys, groups := groupBySubFolder(export.Channels)
	for _, key := range keys {
		buf.WriteString(fmt.Sprintf("## %s\n\n", channelurl.FormatSubFolderLabel(key)))
		for i, ch := range groups[key] {
			buf.WriteString(fmt.Sprintf("%d. [%s](%s)", i+1, ch.Uploader, ch.URL))
			if q := deref(ch.VideoQuality); q != "" {
				buf.WriteString(fmt.Sprintf(" `%sp`", q))
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// ExportToText converts a ChannelExport to plain text.
func ExportToText(export *models.ChannelExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Channels: %d\n\n", len(export.Channels)))
	for i, ch := range export.Channels {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, ch.Uploader, ch.URL))
	}
	return buf.Bytes(), nil
}

// exportMetadata is a ChannelExport without its channels.
type exportMetadata struct {
	Source     string    `json:"source"`
	ExportedAt time.Time `json:"exported_at"`
	Total      int       `json:"total"`
	SubFolders []string  `json:"sub_folders"`
}

// ToMetadataJSON generates a JSON representation of export metadata (without channels)
func ToMetadataJSON(export *models.ChannelExport) ([]byte, error) {
	keys, _ := groupBySubFolder(export.Channels)
	return shared.MarshalJSON(exportMetadata{
		Source:     export.Source,
		ExportedAt: export.ExportedAt,
		Total:      export.Total,
		SubFolders: keys,
	}, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ChannelsFile string
	MetadataFile string
}

// WriteCSVExport writes {base}_channels.csv and {base}_metadata.json.
func WriteCSVExport(export *models.ChannelExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "channels"
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	channelsFile := baseFilepath + "_channels.csv"
	if err := os.WriteFile(channelsFile, csvData, 0644); err != nil {
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

	return &CSVExportResult{ChannelsFile: channelsFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport writes {dir}/README.md.
func WriteMarkdownExport(export *models.ChannelExport, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "channels"
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return &MarkdownExportResult{Directory: outputDir, Files: []string{mdFile}}, nil
}

// WriteTextExport writes the plain text rendering to path, defaulting to channels.txt.
func WriteTextExport(export *models.ChannelExport, path string) (string, error) {
	if path == "" {
		path = "channels.txt"
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
func WriteJSONExport(export *models.ChannelExport, path string) (string, error) {
	if path == "" {
		path = "channels.json"
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

// PageFailure records a page the export could not fetch.
type PageFailure struct {
	Page  int    `json:"page"`
	Error string `json:"error"`
}

// ExportManifest summarizes an export run.
type ExportManifest struct {
	Format      string        `json:"format"`
	ExportedAt  time.Time     `json:"exported_at"`
	Total       int           `json:"total"`
	Exported    int           `json:"exported"`
	PagesOK     int           `json:"pages_ok"`
	PagesFailed []PageFailure `json:"pages_failed"`
	Files       []string      `json:"files"`
}

// WriteExportManifest writes the manifest as indented JSON to path.
func WriteExportManifest(m *ExportManifest, path string) error {
	if m.PagesFailed == nil {
		m.PagesFailed = []PageFailure{}
	}
	if m.Files == nil {
		m.Files = []string{}
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

// ChannelTable renders channels as a bordered terminal table.
//
// mark, when non-nil, supplies a one-character status column (pending, removed).
func ChannelTable(channels []models.Channel, mark func(models.Channel) string) string {
	headers := []string{"Uploader", "URL", "Folder"}
	if mark != nil {
		headers = append([]string{""}, headers...)
	}

	rows := make([][]string, 0, len(channels))
	for _, ch := range channels {
		row := []string{ch.Uploader, ch.URL, channelurl.SubFolderLabel(ch.SubFolder)}
		if mark != nil {
			row = append([]string{mark(ch)}, row...)
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

// WriteCommitHistory prints one line per commit, newest first, with times relative to now.
func WriteCommitHistory(w io.Writer, commits []*models.Commit, now time.Time) error {
	if len(commits) == 0 {
		_, err := fmt.Fprintln(w, "No commits recorded")
		return err
	}

	for _, c := range commits {
		when := humanize.RelTime(c.CreatedAt(), now, "ago", "from now")
		if _, err := fmt.Fprintf(w, "#%-4d %-14s %-8s %s\n", c.Sequence(), when, c.Summary(), c.BaseURL()); err != nil {
			return err
		}
		for _, ref := range c.Added() {
			if _, err := fmt.Fprintf(w, "      + %s\n", ref.URL); err != nil {
				return err
			}
		}
		for _, url := range c.Removed() {
			if _, err := fmt.Fprintf(w, "      - %s\n", url); err != nil {
				return err
			}
		}
	}
	return nil
}
