// Package export serializes scan results for downstream consumption.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/tabledep/tabledep/internal/scanner"
)

// csvColumns is the stable CSV header.
var csvColumns = []string{
	"file_path",
	"line_number",
	"table_name",
	"column_name",
	"reference_type",
	"code_snippet",
	"confidence",
	"schema_verified",
	"column_datatype",
}

// WriteCSV writes results as CSV to dest.
func WriteCSV(results []scanner.Evidence, dest io.Writer) error {
	w := csv.NewWriter(dest)

	if err := w.Write(csvColumns); err != nil {
		return err
	}
	for _, ev := range results {
		record := []string{
			ev.FilePath,
			strconv.Itoa(ev.LineNumber),
			ev.TableName,
			ev.ColumnName,
			ev.Kind.String(),
			ev.Snippet,
			ev.Confidence.String(),
			strconv.FormatBool(ev.SchemaVerified),
			ev.ColumnDatatype,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
