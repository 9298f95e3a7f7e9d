// Package export renders benefit reports for download.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	benefit "battflex-cloud/internal/benefit/domain"
)

func formatOptional(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *value)
}

// BuildBenefitsPDF renders a benefit report as PDF.
func BuildBenefitsPDF(benefits []benefit.Benefit, summaries []benefit.Summary, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Battery Benefit Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Benefit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Count", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Mean", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Min", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Max", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, summary := range summaries {
		pdf.CellFormat(60, 6, summary.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", summary.Count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", summary.Mean), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", summary.Min), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", summary.Max), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Client", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Run", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Config", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 6, "Benefit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Value", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, b := range benefits {
		pdf.CellFormat(40, 6, b.ClientName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, b.RunName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, b.ConfigName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, b.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", b.Value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildBenefitsXLSX renders a benefit report as XLSX with a summary
// sheet and a per-configuration detail sheet.
func BuildBenefitsXLSX(benefits []benefit.Benefit, summaries []benefit.Summary, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	detailSheet := "benefits"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(detailSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Battery Benefit Report")
	_ = f.SetCellValue(summarySheet, "A2", "Generated")
	_ = f.SetCellValue(summarySheet, "B2", generatedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Benefit")
	_ = f.SetCellValue(summarySheet, "B4", "Count")
	_ = f.SetCellValue(summarySheet, "C4", "Mean")
	_ = f.SetCellValue(summarySheet, "D4", "Min")
	_ = f.SetCellValue(summarySheet, "E4", "Max")
	_ = f.SetCellValue(summarySheet, "F4", "Total")
	for i, summary := range summaries {
		row := i + 5
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), summary.Name)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), summary.Count)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), summary.Mean)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("D%d", row), summary.Min)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("E%d", row), summary.Max)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("F%d", row), summary.Total)
	}

	_ = f.SetCellValue(detailSheet, "A1", "Client")
	_ = f.SetCellValue(detailSheet, "B1", "Run")
	_ = f.SetCellValue(detailSheet, "C1", "Config")
	_ = f.SetCellValue(detailSheet, "D1", "Capacity (kWh)")
	_ = f.SetCellValue(detailSheet, "E1", "Power (kW)")
	_ = f.SetCellValue(detailSheet, "F1", "Benefit")
	_ = f.SetCellValue(detailSheet, "G1", "Value")
	_ = f.SetCellValue(detailSheet, "H1", "Unit")
	for i, b := range benefits {
		row := i + 2
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("A%d", row), b.ClientName)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("B%d", row), b.RunName)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("C%d", row), b.ConfigName)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("D%d", row), formatOptional(b.CapacityKWh))
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("E%d", row), formatOptional(b.PowerKW))
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("F%d", row), b.Name)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("G%d", row), b.Value)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("H%d", row), b.Unit)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
