package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"roadmaptracker/internal/models"

	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Export formats
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatHTML = "html"
)

// ExportResult is a rendered roadmap ready to be downloaded
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ExportService renders roadmaps into downloadable documents
type ExportService struct {
	roadmaps *RoadmapService
	markdown goldmark.Markdown
}

// NewExportService creates a new export service
func NewExportService(roadmaps *RoadmapService) *ExportService {
	return &ExportService{
		roadmaps: roadmaps,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Export renders the roadmap in format for a member of it
func (s *ExportService) Export(ctx context.Context, email, roadmapID, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatXLSX
	}
	if format != ExportFormatXLSX && format != ExportFormatHTML {
		return nil, fmt.Errorf("%w: unsupported export format %q", ErrValidation, format)
	}

	detail, err := s.roadmaps.GetDetail(ctx, email, roadmapID)
	if err != nil {
		return nil, err
	}

	base := exportFilename(detail.Name)
	switch format {
	case ExportFormatHTML:
		data, err := s.renderHTML(detail)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Data: data, ContentType: "text/html; charset=utf-8", Filename: base + ".html"}, nil
	default:
		data, err := renderXLSX(detail)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Data:        data,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Filename:    base + ".xlsx",
		}, nil
	}
}

// exportFilename keeps letters, digits, dash and underscore
func exportFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "roadmap"
	}
	return b.String()
}

const exportSheet = "Roadmap"

func renderXLSX(detail *models.RoadmapDetail) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Category", "Item", "Description", "Done"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetCellStyle(exportSheet, "A1", "D1", bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	row := 2
	for _, cat := range detail.Categories {
		for _, it := range cat.Items {
			done := "no"
			if it.Checked {
				done = "yes"
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []interface{}{cat.Category, it.Name, it.Desc, done}
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
	}

	// Summary row after a blank line
	row++
	cell, _ := excelize.CoordinatesToCellName(1, row)
	summary := []interface{}{"Progress", fmt.Sprintf("%d/%d", detail.Progress.Checked, detail.Progress.Total), fmt.Sprintf("%d%%", detail.Progress.Percentage)}
	if err := f.SetSheetRow(exportSheet, cell, &summary); err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}
	if err := f.SetColWidth(exportSheet, "A", "C", 28); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// checklistMarkdown renders the roadmap as a GitHub-flavored task list
func checklistMarkdown(detail *models.RoadmapDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", detail.Name)
	fmt.Fprintf(&b, "Progress: %d/%d (%d%%)\n\n", detail.Progress.Checked, detail.Progress.Total, detail.Progress.Percentage)

	for _, cat := range detail.Categories {
		fmt.Fprintf(&b, "## %s\n\n", cat.Category)
		for _, it := range cat.Items {
			mark := " "
			if it.Checked {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] **%s**\n", mark, it.Name)
			if desc := strings.TrimSpace(it.Desc); desc != "" {
				// Indented so the description stays inside its list item
				for _, line := range strings.Split(desc, "\n") {
					fmt.Fprintf(&b, "\n  %s\n", line)
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *ExportService) renderHTML(detail *models.RoadmapDetail) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(checklistMarkdown(detail)), &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
