package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"echocheck/internal/analysis"
)

// Document holds everything that appears on the rendered PDF.
type Document struct {
	Title           string
	UserName        string
	FileName        string
	FileType        string
	AnalyzedAt      time.Time
	TruthScore      *float64
	Verdict         string
	AudioScore      *float64
	VideoScore      *float64
	Anomalies       []analysis.Anomaly
	SpectrogramPath string
}

const (
	pdfLabelWidth = 55
	pdfLineHeight = 8
)

// WritePDF renders the analysis report to path as a single-page A4 document.
func WritePDF(path string, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 14, "Echo-Check Analysis Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writeInfoRow(pdf, "Report Generated", time.Now().Format("2006-01-02 15:04 MST"))
	writeInfoRow(pdf, "User", doc.UserName)
	writeInfoRow(pdf, "File Name", doc.FileName)
	writeInfoRow(pdf, "File Type", strings.ToUpper(doc.FileType))
	if !doc.AnalyzedAt.IsZero() {
		writeInfoRow(pdf, "Analysis Date", doc.AnalyzedAt.Format("2006-01-02 15:04 MST"))
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Analysis Results", "", 1, "L", false, 0, "")

	writeInfoRow(pdf, "Truth Score", scoreText(doc.TruthScore))
	writeVerdictRow(pdf, doc.Verdict)
	writeInfoRow(pdf, "Audio Score", scoreText(doc.AudioScore))
	writeInfoRow(pdf, "Video Score", scoreText(doc.VideoScore))
	pdf.Ln(6)

	if len(doc.Anomalies) > 0 {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, "Detected Anomalies", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, anomaly := range doc.Anomalies {
			line := fmt.Sprintf("- %s (Severity: %s): %s",
				strings.ToUpper(string(anomaly.Type)),
				severityText(anomaly.Severity),
				anomaly.Description,
			)
			pdf.MultiCell(0, 6, line, "", "L", false)
		}
		pdf.Ln(4)
	}

	if doc.SpectrogramPath != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, "Frequency Spectrogram", "", 1, "L", false, 0, "")
		pdf.ImageOptions(doc.SpectrogramPath, 20, pdf.GetY(), 170, 0, false,
			gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf report: %w", err)
	}
	return nil
}

func writeInfoRow(pdf *gofpdf.Fpdf, label, value string) {
	if strings.TrimSpace(value) == "" {
		value = "Unknown"
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(pdfLabelWidth, pdfLineHeight, label+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, pdfLineHeight, value, "", 1, "L", false, 0, "")
}

// writeVerdictRow colors the verdict text by band: green for authentic,
// orange for uncertain, red for manipulated.
func writeVerdictRow(pdf *gofpdf.Fpdf, verdict string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(pdfLabelWidth, pdfLineHeight, "Verdict:", "", 0, "L", false, 0, "")

	switch analysis.Verdict(verdict) {
	case analysis.VerdictLikelyAuthentic:
		pdf.SetTextColor(0, 128, 0)
	case analysis.VerdictUncertain:
		pdf.SetTextColor(255, 140, 0)
	case analysis.VerdictLikelyManipulated:
		pdf.SetTextColor(200, 0, 0)
	}
	pdf.SetFont("Arial", "B", 10)
	if strings.TrimSpace(verdict) == "" {
		verdict = "Unknown"
	}
	pdf.CellFormat(0, pdfLineHeight, strings.ReplaceAll(verdict, "_", " "), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func scoreText(score *float64) string {
	if score == nil {
		return "Not analyzed"
	}
	return fmt.Sprintf("%.1f%%", *score)
}

func severityText(severity analysis.Severity) string {
	switch severity {
	case analysis.SeverityHigh:
		return "High"
	case analysis.SeverityMedium:
		return "Medium"
	default:
		return string(severity)
	}
}
