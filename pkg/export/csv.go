// Package export renders tabular results as CSV downloads that open
// correctly in spreadsheet tools.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
)

// BOM is the UTF-8 byte order mark written before every CSV.
const BOM = "\xEF\xBB\xBF"

// WriteCSV writes a BOM, a header record and the rows.
func WriteCSV(w io.Writer, columns []string, rows [][]string) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("writing byte order mark: %w", err)
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}
	return nil
}

// ServeCSV writes a CSV attachment. The body is buffered so a failure can
// still produce an error status.
func ServeCSV(w http.ResponseWriter, filename string, columns []string, rows [][]string) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, columns, rows); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	return nil
}

// Entries flattens catalog entries into catalog.Columns order.
func Entries(entries []catalog.Entry) (columns []string, rows [][]string) {
	rows = make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.TableName,
			e.Location,
			catalog.Deref(e.Account),
			catalog.Deref(e.Classification),
			intText(e.ColumnCount),
			intText(e.RecordCount),
			timeText(e.CreationDate),
			timeText(e.UpdateDate),
			catalog.Deref(e.Owner),
			catalog.Deref(e.SubOwner),
			catalog.Deref(e.TableComment),
			catalog.Deref(e.ColumnComment),
			intText(e.ColumnCommentFlag),
			catalog.Deref(e.Publish),
			catalog.Deref(e.Scope),
			catalog.Deref(e.ApplicationProject),
			catalog.Deref(e.Comment),
		})
	}
	return append([]string(nil), catalog.Columns...), rows
}

// Filename builds a download name from path parts and a suffix,
// e.g. "SALES_MART_ORDERS_preview.csv".
func Filename(p catalog.LocationPath, suffix string) string {
	name := ""
	for _, part := range []string{p.Database, p.Schema, p.Table} {
		if part == "" {
			continue
		}
		if name != "" {
			name += "_"
		}
		name += part
	}
	if name == "" {
		name = "catalog"
	}
	return name + "_" + suffix + ".csv"
}

func intText(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func timeText(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}
