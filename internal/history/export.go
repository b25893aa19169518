package history

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// Column order is a contract: downstream spreadsheets key on positions.
var csvHeader = []string{
	"Nama Peserta",
	"Email",
	"Judul Kajian",
	"Tanggal",
	"Waktu",
	"Check-in",
	"Check-out",
	"Status",
	"Lokasi",
	"Catatan",
}

const placeholder = "-"

// ExportCSV serializes records as UTF-8 comma-delimited text: a header row
// plus one row per record. Fields containing commas come out quoted; empty
// optional fields become "-".
func ExportCSV(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range records {
		checkOut := placeholder
		if r.CheckOutTime != nil {
			checkOut = r.CheckOutTime.Format("2006-01-02 15:04")
		}
		row := []string{
			r.ParticipantName,
			r.ParticipantMail,
			r.SessionTitle,
			r.SessionDate,
			r.StartTime + " - " + r.EndTime,
			r.CheckInTime.Format("2006-01-02 15:04"),
			checkOut,
			string(r.Status),
			orPlaceholder(r.Location),
			orPlaceholder(r.Notes),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFilename names the download after the day it was produced.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("riwayat-kehadiran-%s.csv", now.Format("2006-01-02"))
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}
