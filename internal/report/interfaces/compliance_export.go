package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	application "odcv-analytics/internal/analytics/application"
)

// BuildCompliancePDF renders a compact PDF summary of a run report.
func BuildCompliancePDF(report *application.RunReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "ODCV Timing Compliance Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Profile: %s", report.Profile))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Zones: %d", len(report.Zones)))
	pdf.Ln(5)
	if report.SkippedRecords > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Skipped records: %d", report.SkippedRecords))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(28, 6, "Zone", "1", 0, "C", false, 0, "")
	pdf.CellFormat(26, 6, "Window", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Correct", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Premature", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Delayed", "1", 0, "C", false, 0, "")
	pdf.CellFormat(26, 6, "Unanswered", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Score", "1", 0, "C", false, 0, "")
	pdf.CellFormat(26, 6, "Complete %", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, zone := range report.Zones {
		for _, stats := range zone.Statistics {
			pdf.CellFormat(28, 6, zone.ZoneID, "1", 0, "L", false, 0, "")
			pdf.CellFormat(26, 6, windowLabel(stats.Window.Name, stats.Window.Start), "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 6, fmt.Sprintf("%d", stats.CorrectCount), "1", 0, "R", false, 0, "")
			pdf.CellFormat(24, 6, fmt.Sprintf("%d", stats.PrematureCount), "1", 0, "R", false, 0, "")
			pdf.CellFormat(20, 6, fmt.Sprintf("%d", stats.DelayedCount), "1", 0, "R", false, 0, "")
			pdf.CellFormat(26, 6, fmt.Sprintf("%d", stats.UnansweredCount), "1", 0, "R", false, 0, "")
			pdf.CellFormat(20, 6, fmt.Sprintf("%.2f", stats.PerformanceScore), "1", 0, "R", false, 0, "")
			pdf.CellFormat(26, 6, fmt.Sprintf("%.1f", stats.DataCompletenessPercent), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildComplianceXLSX renders a run report as a workbook with a summary
// sheet and a violations sheet.
func BuildComplianceXLSX(report *application.RunReport) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	violationsSheet := "violations"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(violationsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "ODCV Timing Compliance Report")
	_ = f.SetCellValue(summarySheet, "A2", "Profile")
	_ = f.SetCellValue(summarySheet, "B2", report.Profile)
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", report.GeneratedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Skipped records")
	_ = f.SetCellValue(summarySheet, "B4", report.SkippedRecords)

	headers := []string{"Zone", "Window", "Start", "End", "Correct", "Premature", "Delayed",
		"Unanswered", "Total", "Score", "Occupancy %", "Standby %", "Completeness %"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 6)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(summarySheet, cell, header)
	}
	row := 7
	for _, zone := range report.Zones {
		for _, stats := range zone.Statistics {
			values := []any{
				zone.ZoneID,
				windowLabel(stats.Window.Name, stats.Window.Start),
				stats.Window.Start.Format(time.RFC3339),
				stats.Window.End.Format(time.RFC3339),
				stats.CorrectCount,
				stats.PrematureCount,
				stats.DelayedCount,
				stats.UnansweredCount,
				stats.TotalTransitions,
				stats.PerformanceScore,
				stats.OccupancyPercent,
				stats.StandbyPercent,
				stats.DataCompletenessPercent,
			}
			for i, value := range values {
				cell, err := excelize.CoordinatesToCellName(i+1, row)
				if err != nil {
					return nil, err
				}
				_ = f.SetCellValue(summarySheet, cell, value)
			}
			row++
		}
	}

	violationHeaders := []string{"Zone", "Kind", "Occurred At", "Elapsed (min)", "Expected (min)"}
	for i, header := range violationHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(violationsSheet, cell, header)
	}
	row = 2
	for _, zone := range report.Zones {
		for _, violation := range zone.Violations {
			values := []any{
				violation.ZoneID,
				string(violation.Kind),
				violation.OccurredAt.Format(time.RFC3339),
				violation.Elapsed.Minutes(),
				violation.Expected.Minutes(),
			}
			for i, value := range values {
				cell, err := excelize.CoordinatesToCellName(i+1, row)
				if err != nil {
					return nil, err
				}
				_ = f.SetCellValue(violationsSheet, cell, value)
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func windowLabel(name string, start time.Time) string {
	if name != "" {
		return name
	}
	return start.Format("2006-01-02")
}
