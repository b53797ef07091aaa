package services

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"hostel-backend/internal/models"
)

// WriteCSV writes rows under the standard export header. Missing optional
// values are written as empty strings.
func WriteCSV(w io.Writer, rows []models.ExportRow) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(models.ExportColumns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			r.Name,
			r.Room,
			r.Title,
			r.Description,
			deref(r.Image),
			deref(r.Address),
			deref(r.Phone),
			string(r.Status),
			r.CreatedAt,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes rows as a JSON array of flat objects keyed like the CSV
// header. Missing optional values are null.
func WriteJSON(w io.Writer, rows []models.ExportRow) error {
	if rows == nil {
		rows = []models.ExportRow{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
