// Package importer reconciles appointment exports of the hospital information system (HOSxP)
// with the visit history kept by the clinic.
package importer

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/asthma-connect/clinic/errors"
	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/visits"
)

const (
	ColumnHN              = "HN"
	ColumnVisitDate       = "วันที่รับบริการ"
	ColumnNextAppointment = "วันนัดถัดไป"
)

var RequiredColumns = []string{ColumnHN, ColumnVisitDate, ColumnNextAppointment}

var (
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", errors.BadRequest)
	ErrEmptyFile         = fmt.Errorf("%w: the file contains no rows", errors.BadRequest)
)

// spreadsheet applications count days from this date
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Row is a single normalized line of an appointment export
type Row struct {
	// Line is the 1-based line in the source file, the header is line 1
	Line            int        `json:"line"`
	RawHN           string     `json:"rawHn"`
	HN              string     `json:"hn"`
	VisitDate       *time.Time `json:"visitDate,omitempty"`
	NextAppointment *time.Time `json:"nextAppointment,omitempty"`
}

type record struct {
	HN              string `mapstructure:"HN"`
	VisitDate       string `mapstructure:"วันที่รับบริการ"`
	NextAppointment string `mapstructure:"วันนัดถัดไป"`
}

// Parse reads an export by its file name extension. Files with an ".xls" extension are
// usually delimited text in disguise and are parsed as such.
func Parse(name string, r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read file: %w", err)
	}

	var table [][]string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt", ".xls":
		table, err = ReadDelimited(data)
	case ".xlsx":
		table, err = ReadWorkbook(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return Decode(table)
}

// Decode maps a table whose first row is the header into rows
func Decode(table [][]string) ([]Row, error) {
	if len(table) == 0 {
		return nil, ErrEmptyFile
	}

	header := make([]string, len(table[0]))
	present := make(map[string]bool, len(header))
	for i, column := range table[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(column, "\ufeff"))
		present[header[i]] = true
	}
	var missing []string
	for _, column := range RequiredColumns {
		if !present[column] {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", errors.BadRequest, strings.Join(missing, ", "))
	}

	rows := make([]Row, 0, len(table)-1)
	for i, values := range table[1:] {
		if isEmptyLine(values) {
			continue
		}

		fields := make(map[string]any, len(header))
		for j, column := range header {
			if j < len(values) {
				fields[column] = strings.TrimSpace(values[j])
			}
		}
		var rec record
		if err := mapstructure.Decode(fields, &rec); err != nil {
			return nil, fmt.Errorf("%w: unable to decode line %d: %w", errors.BadRequest, i+2, err)
		}

		row := Row{
			Line:            i + 2,
			RawHN:           rec.HN,
			VisitDate:       ParseDate(rec.VisitDate),
			NextAppointment: ParseDate(rec.NextAppointment),
		}
		if !visits.IsBlank(rec.HN) {
			row.HN = patients.NormalizeHN(rec.HN)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseDate accepts spreadsheet serial numbers and the textual formats of visit records.
// Blank or unparseable values yield nil.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if visits.IsBlank(raw) {
		return nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial <= 0 {
			return nil
		}
		date := excelEpoch.AddDate(0, 0, int(math.Floor(serial)))
		return &date
	}
	date, err := visits.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &date
}

func isEmptyLine(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func hasPrefix(data []byte, prefix ...byte) bool {
	return bytes.HasPrefix(data, prefix)
}
