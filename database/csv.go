package database

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gaborage/dbshape/database/types"
)

const (
	csvDelimiter = ','
	csvQuote     = '"'

	// DateTimeLayout is the CSV rendering of date/time values before the zone suffix.
	DateTimeLayout = "2006-01-02 15:04:05.000"
)

type exportOptions struct {
	lineTerminator string
}

// ExportOption customises ExportCSV.
type ExportOption func(*exportOptions)

// WithCRLF terminates lines with "\r\n" instead of "\n".
func WithCRLF() ExportOption {
	return func(o *exportOptions) { o.lineTerminator = "\r\n" }
}

// WithLineTerminator sets an arbitrary line terminator.
func WithLineTerminator(term string) ExportOption {
	return func(o *exportOptions) { o.lineTerminator = term }
}

// ExportCSV writes every row of cur to w as CSV. With includeHeader the first line
// holds the raw column names. Lines are separated by the line terminator; there is
// no terminator after the last line. A cursor without columns (the command was not
// a query) fails with NoResultSet. cur is closed before ExportCSV returns; write
// errors from w are returned wrapped.
func ExportCSV(cur types.Cursor, w io.Writer, includeHeader bool, opts ...ExportOption) (err error) {
	const op = "export_csv"
	defer closeInto(op, cur, &err)

	o := exportOptions{lineTerminator: "\n"}
	for _, opt := range opts {
		opt(&o)
	}

	n := cur.ColumnCount()
	if n == 0 {
		return newError(op, KindNoResultSet, "command produced no result set")
	}

	cw := &csvWriter{bw: bufio.NewWriter(w)}
	lines := 0

	if includeHeader {
		for i := 0; i < n; i++ {
			cw.field(i, EscapeCSV(cur.ColumnName(i)))
		}
		lines++
	}

	for {
		ok, err := advance(op, cur)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if lines > 0 {
			cw.write(o.lineTerminator)
		}
		for i := 0; i < n; i++ {
			cw.field(i, FormatCSVValue(cellValue(cur, i)))
		}
		lines++
		if cw.err != nil {
			return fmt.Errorf("%s: write csv: %w", op, cw.err)
		}
	}

	if err := cw.flush(); err != nil {
		return fmt.Errorf("%s: write csv: %w", op, err)
	}
	return nil
}

// csvWriter keeps the first write error so the row loop checks it once per row.
type csvWriter struct {
	bw  *bufio.Writer
	err error
}

func (w *csvWriter) write(s string) {
	if w.err != nil {
		return
	}
	_, w.err = w.bw.WriteString(s)
}

func (w *csvWriter) field(i int, s string) {
	if i > 0 {
		w.write(string(csvDelimiter))
	}
	w.write(s)
}

func (w *csvWriter) flush() error {
	if w.err != nil {
		return w.err
	}
	return w.bw.Flush()
}

// ExportCSVFile creates (or truncates) the file at path and exports cur into it.
// An empty path or a path naming a directory fails with InvalidOutputPath.
// Errors creating, writing or closing the file are returned wrapped, unchanged in kind.
func ExportCSVFile(cur types.Cursor, path string, includeHeader bool, opts ...ExportOption) (err error) {
	const op = "export_csv_file"

	if err := ValidateOutputPath(path); err != nil {
		_ = cur.Close()
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		_ = cur.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%s: %w", op, cerr)
		}
	}()

	return ExportCSV(cur, f, includeHeader, opts...)
}

// ValidateOutputPath rejects blank paths and paths that name an existing directory.
func ValidateOutputPath(path string) error {
	const op = "export_csv_file"
	if strings.TrimSpace(path) == "" {
		return newError(op, KindInvalidOutputPath, "output path is empty")
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return newError(op, KindInvalidOutputPath, fmt.Sprintf("output path %q is a directory", path))
	}
	return nil
}

// EscapeCSV quotes s when it contains a delimiter, a quote or a line break,
// doubling embedded quotes. Other strings are returned unchanged.
func EscapeCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(csvQuote)
	for i := 0; i < len(s); i++ {
		if s[i] == csvQuote {
			b.WriteByte(csvQuote)
		}
		b.WriteByte(s[i])
	}
	b.WriteByte(csvQuote)
	return b.String()
}

// FormatCSVValue renders a single cell. Rules, in order:
//   - nil and types.DBNull render as an empty field
//   - text (string, []rune, UTF-8 []byte) is escaped with EscapeCSV
//   - time.Time and types.DateTime use DateTimeLayout plus a zone suffix (see FormatDateTime)
//   - numbers and booleans use their canonical strconv form, unescaped
//   - binary []byte renders as 0x-prefixed hex
//   - anything else is rendered with fmt and escaped
//
//nolint:gocyclo // Type switch over scalar kinds
func FormatCSVValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return EscapeCSV(val)
	case []rune:
		return EscapeCSV(string(val))
	case []byte:
		if utf8.Valid(val) {
			return EscapeCSV(string(val))
		}
		return "0x" + hex.EncodeToString(val)
	case time.Time:
		return FormatDateTime(val, types.KindOf(val))
	case types.DateTime:
		return FormatDateTime(val.Time, val.Kind)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	}

	if types.IsDBNull(v) {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return EscapeCSV(s.String())
	}
	return EscapeCSV(fmt.Sprint(v))
}

// FormatDateTime renders t with millisecond precision. The suffix depends on kind:
// none for unspecified, the numeric offset (e.g. "+02:00") for local, "Z" for UTC.
func FormatDateTime(t time.Time, kind types.DateTimeKind) string {
	switch kind {
	case types.DateTimeUTC:
		return t.UTC().Format(DateTimeLayout) + "Z"
	case types.DateTimeLocal:
		return t.Format(DateTimeLayout + "-07:00")
	default:
		return t.Format(DateTimeLayout)
	}
}
