package reports

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"forklifttracker/internal/i18n"
	"forklifttracker/internal/models"

	"github.com/jung-kurt/gofpdf"
)

const (
	labelWidth = 60.0
	lineHeight = 7.0
)

// ServiceSheet writes an A4 PDF service sheet for a forklift.
func ServiceSheet(w io.Writer, f *models.Forklift, tr i18n.Translator, now time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s %s", f.Brand, f.ModelType), true)
	pdf.SetCreator(tr.T("app.title"), true)
	// Core fonts are cp1252; this maps the Swedish letters.
	enc := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, enc(fmt.Sprintf("%s - %s", f.Brand, f.ModelType)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, lineHeight, enc(fmt.Sprintf("%s: %s", tr.T("forklift.customer"), f.Customer)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section(pdf, enc(tr.T("print.service_info")))
	row(pdf, enc, tr.T("forklift.serial"), deref(f.SerialNumber))
	if f.ServiceHours != nil {
		row(pdf, enc, tr.T("forklift.service.hours"), strconv.Itoa(*f.ServiceHours))
	}
	row(pdf, enc, tr.T("forklift.service.last"), formatDate(f.LastServiceDate))
	row(pdf, enc, tr.T("forklift.service.next"), formatDate(f.NextServiceDate))
	if f.ServiceStatus == models.ServiceStatusOverdue {
		pdf.SetTextColor(176, 0, 32)
	}
	row(pdf, enc, "", StatusText(f, tr))
	pdf.SetTextColor(0, 0, 0)
	row(pdf, enc, tr.T("forklift.engine"), deref(f.EngineSpecs))
	row(pdf, enc, tr.T("forklift.transmission"), deref(f.Transmission))
	row(pdf, enc, tr.T("forklift.tires"), deref(f.TireSpecs))
	row(pdf, enc, tr.T("forklift.service.notes"), deref(f.ServiceNotes))

	for _, hours := range models.ServiceIntervals {
		si := f.Interval(hours)
		pdf.Ln(3)
		section(pdf, enc(tr.T(fmt.Sprintf("service.%dh", hours))))
		row(pdf, enc, tr.T("forklift.filters"), orDash(si.Filters))
		row(pdf, enc, tr.T("forklift.lubricants"), orDash(si.Lubricants))
		for _, d := range si.Documents {
			row(pdf, enc, tr.T("forklift.documents"), d.FileName)
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, lineHeight, enc(fmt.Sprintf("%s: %s", tr.T("print.generated"), now.UTC().Format("2006-01-02 15:04 UTC"))), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetFillColor(238, 238, 238)
	pdf.CellFormat(0, 9, title, "", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

// row skips empty values.
func row(pdf *gofpdf.Fpdf, enc func(string) string, label, value string) {
	if value == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelWidth, lineHeight, enc(label), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, lineHeight, enc(value), "", "L", false)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
