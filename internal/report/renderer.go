package report

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"salesaudit-backend/internal/analysis"
	"salesaudit-backend/internal/verification"
)

// ErrNoResult is returned when rendering is requested before the audit has
// produced a result.
var ErrNoResult = errors.New("report: audit has no result to render")

// Input carries everything the renderer needs. GeneratedAt is supplied by
// the caller so repeated renders of the same audit produce identical bytes.
type Input struct {
	Result       *analysis.Result
	FileSize     int64
	Verification *verification.Record
	GeneratedAt  time.Time
}

const (
	pageBottomLimit = 270.0
	leftMargin      = 15.0
	contentWidth    = 180.0
)

// Renderer lays out the audit report PDF.
type Renderer struct{}

// Render produces the complete report document.
func (Renderer) Render(in Input) ([]byte, error) {
	if in.Result == nil {
		return nil, ErrNoResult
	}
	r := in.Result

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(in.GeneratedAt)
	pdf.SetModificationDate(in.GeneratedAt)
	pdf.SetTitle("Sales Audit Report", false)
	pdf.AddPage()

	writeHeader(pdf, in.GeneratedAt)
	writeOutcomeBanner(pdf, r)
	writeFileInfo(pdf, r.SourceFileName, in.FileSize, r.AnalyzedAt)
	writeSummaryStats(pdf, r.SummaryStats)
	writeFeatures(pdf, r.Features)
	if len(r.Anomalies) > 0 {
		writeAnomalies(pdf, r.Anomalies)
	}
	writeVerification(pdf, in.Verification, in.GeneratedAt)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(pdf *gofpdf.Fpdf, generatedAt time.Time) {
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(contentWidth, 12, "Sales Audit Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(108, 117, 125)
	pdf.CellFormat(contentWidth, 6, "Generated: "+generatedAt.UTC().Format("2006-01-02 15:04:05 UTC"), "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func writeOutcomeBanner(pdf *gofpdf.Fpdf, r *analysis.Result) {
	label := "NO ANOMALIES DETECTED"
	if r.HasAnomalies {
		label = "ANOMALIES DETECTED"
		pdf.SetFillColor(220, 53, 69)
	} else {
		pdf.SetFillColor(40, 167, 69)
	}
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentWidth, 12, label, "", 1, "C", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(33, 37, 41)
	pdf.Ln(2)
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Analysis Confidence: %d%%", r.Confidence), "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func writeFileInfo(pdf *gofpdf.Fpdf, fileName string, size int64, analyzedAt time.Time) {
	sectionTitle(pdf, "Analyzed File")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentWidth, 6, "File: "+fileName, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Size: %.2f KB", float64(size)/1024), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, 6, "Analyzed: "+analyzedAt.UTC().Format("2006-01-02 15:04:05 UTC"), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func writeSummaryStats(pdf *gofpdf.Fpdf, s analysis.SummaryStats) {
	sectionTitle(pdf, "Summary Statistics")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Total Records: %d", s.TotalRecords), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Total Amount: $%.2f", s.TotalAmount), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Average Transaction: $%.2f", s.AverageTransaction), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, 6, "Date Range: "+s.DateRange, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func writeFeatures(pdf *gofpdf.Fpdf, features []analysis.Feature) {
	if len(features) == 0 {
		return
	}
	sectionTitle(pdf, "Analysis Features")
	for _, f := range features {
		ensureSpace(pdf, 14)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(33, 37, 41)
		pdf.CellFormat(60, 6, f.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", f.Value), "", 0, "L", false, 0, "")
		if f.PreviousValue != nil {
			delta := f.Value - *f.PreviousValue
			if delta >= 0 {
				pdf.SetTextColor(40, 167, 69)
				pdf.CellFormat(20, 6, fmt.Sprintf("+%d", delta), "", 0, "L", false, 0, "")
			} else {
				pdf.SetTextColor(220, 53, 69)
				pdf.CellFormat(20, 6, fmt.Sprintf("%d", delta), "", 0, "L", false, 0, "")
			}
			pdf.SetTextColor(33, 37, 41)
		}
		pdf.Ln(7)

		y := pdf.GetY()
		pdf.SetFillColor(0, 123, 255)
		pdf.Rect(80, y, float64(f.Value)*1.2, 5, "F")
		pdf.Ln(8)
	}
	pdf.Ln(4)
}

func writeAnomalies(pdf *gofpdf.Fpdf, anomalies []analysis.Anomaly) {
	sectionTitle(pdf, "Detected Anomalies")
	for _, a := range anomalies {
		ensureSpace(pdf, 26)

		switch a.Severity {
		case analysis.SeverityHigh:
			pdf.SetFillColor(248, 215, 218)
		case analysis.SeverityMedium:
			pdf.SetFillColor(255, 243, 205)
		default:
			pdf.SetFillColor(209, 236, 241)
		}
		startY := pdf.GetY()
		pdf.Rect(leftMargin, startY, contentWidth, 22, "F")

		pdf.SetXY(leftMargin+3, startY+2)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(33, 37, 41)
		pdf.CellFormat(contentWidth-6, 5, "Severity: "+string(a.Severity), "", 2, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(contentWidth-6, 5, a.Description, "", "L", false)
		pdf.SetX(leftMargin + 3)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentWidth-6, 5, "Recommended: "+a.RecommendedAction, "", "L", false)

		pdf.SetY(startY + 24)
	}
	pdf.Ln(4)
}

func writeVerification(pdf *gofpdf.Fpdf, rec *verification.Record, generatedAt time.Time) {
	if rec == nil {
		return
	}
	pdf.AddPage()
	sectionTitle(pdf, "Report Verification")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(contentWidth, 6, "Verification ID: "+rec.VerificationID, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, 6, "Date: "+generatedAt.UTC().Format("2006-01-02 15:04:05 UTC"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, 6, "Verify at: "+rec.TargetURL, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if len(rec.QRImage) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		name := "qr-" + rec.VerificationID
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(rec.QRImage))
		pdf.ImageOptions(name, leftMargin, pdf.GetY(), 50, 50, false, opts, 0, "")
	} else {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(108, 117, 125)
		pdf.CellFormat(contentWidth, 6, "QR code unavailable; use the verification URL above.", "", 1, "L", false, 0, "")
	}
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(contentWidth, 8, title, "", 1, "L", false, 0, "")
}

// ensureSpace starts a new page when fewer than need millimeters remain
// above the bottom margin.
func ensureSpace(pdf *gofpdf.Fpdf, need float64) {
	if pdf.GetY()+need > pageBottomLimit {
		pdf.AddPage()
	}
}
