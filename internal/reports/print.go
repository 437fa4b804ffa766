// Package reports renders forklift print previews and PDF service sheets.
package reports

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"forklifttracker/internal/i18n"
	"forklifttracker/internal/models"
)

const dateLayout = "2006-01-02"

//go:embed templates/*.html
var templateFS embed.FS

var baseFuncs = template.FuncMap{
	"date": formatDate,
	// replaced per render
	"t": func(key string) string { return key },
}

var templates = template.Must(template.New("reports").Funcs(baseFuncs).ParseFS(templateFS, "templates/*.html"))

type intervalView struct {
	Title      string
	Filters    *string
	Lubricants *string
	Documents  []*models.ForkliftDocument
}

type forkliftView struct {
	Lang        string
	Forklift    *models.Forklift
	Status      string
	Intervals   []intervalView
	GeneratedAt time.Time
}

type customerView struct {
	Lang      string
	Customer  string
	Forklifts []*models.Forklift
}

// RenderForklift writes the print preview of one forklift.
func RenderForklift(w io.Writer, f *models.Forklift, tr i18n.Translator, now time.Time) error {
	view := forkliftView{
		Lang:        tr.Lang(),
		Forklift:    f,
		Status:      StatusText(f, tr),
		GeneratedAt: now,
	}
	for _, hours := range models.ServiceIntervals {
		si := f.Interval(hours)
		view.Intervals = append(view.Intervals, intervalView{
			Title:      tr.T(fmt.Sprintf("service.%dh", hours)),
			Filters:    si.Filters,
			Lubricants: si.Lubricants,
			Documents:  si.Documents,
		})
	}
	return execute(w, "forklift.html", tr, view)
}

// RenderCustomerList writes the printable forklift list of one customer.
func RenderCustomerList(w io.Writer, customer string, forklifts []*models.Forklift, tr i18n.Translator) error {
	return execute(w, "customer.html", tr, customerView{
		Lang:      tr.Lang(),
		Customer:  customer,
		Forklifts: forklifts,
	})
}

func execute(w io.Writer, name string, tr i18n.Translator, data interface{}) error {
	tmpl, err := templates.Clone()
	if err != nil {
		return err
	}
	tmpl.Funcs(template.FuncMap{"t": tr.T})
	return tmpl.ExecuteTemplate(w, name, data)
}

// StatusText is the localized service status line of a forklift.
func StatusText(f *models.Forklift, tr i18n.Translator) string {
	switch f.ServiceStatus {
	case models.ServiceStatusOverdue:
		return tr.T("service.overdue")
	case models.ServiceStatusDueSoon, models.ServiceStatusOK:
		if f.DaysUntilService != nil {
			return fmt.Sprintf("%d %s", *f.DaysUntilService, tr.T("service.days_until"))
		}
		return tr.T("service.ok")
	default:
		return tr.T("service.unknown")
	}
}

func formatDate(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(dateLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(dateLayout)
	default:
		return fmt.Sprint(v)
	}
}
