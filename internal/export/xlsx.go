// Package export writes the review queue to spreadsheet files.
package export

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/digital-duende/leadfinder/internal/model"
)

// leadColumns defines the ordered workbook columns.
var leadColumns = []string{
	"Entity Name",
	"Type",
	"City",
	"State",
	"Score",
	"Priority",
	"Confidence",
	"Status",
	"Email",
	"Phone",
	"Contact Form",
	"Instagram",
	"Contact Name",
	"Role",
	"Preferred Contact",
	"Music Fit",
	"Event Types",
	"Capacity",
	"Budget Signal",
	"Website",
	"Source",
	"Score Reason",
	"Notes",
}

// WriteXLSX writes leads to a single-sheet workbook at path. Callers pass
// leads already sorted by score; the writer preserves order.
func WriteXLSX(leads []model.Lead, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range leadColumns {
		header.AddCell().Value = col
	}

	for i := range leads {
		writeRow(sheet.AddRow(), &leads[i])
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func writeRow(row *xlsx.Row, l *model.Lead) {
	capacity := ""
	if l.CapacityEstimate != nil {
		capacity = fmt.Sprintf("%d", *l.CapacityEstimate)
	}
	for _, v := range []string{
		l.EntityName,
		string(l.EntityType),
		l.City,
		l.State,
		fmt.Sprintf("%d", l.Score),
		string(l.Priority),
		string(l.Confidence),
		string(l.Status),
		l.Email,
		l.Phone,
		l.ContactFormURL,
		l.InstagramHandle,
		l.ContactName,
		l.Role,
		l.PreferredContactMethod,
		strings.Join(l.MusicFitTags, ", "),
		strings.Join(l.EventTypesSeen, ", "),
		capacity,
		string(l.BudgetSignal),
		l.WebsiteURL,
		l.Source,
		l.ScoreReason,
		l.Notes,
	} {
		row.AddCell().Value = v
	}
}
