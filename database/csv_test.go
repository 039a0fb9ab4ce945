package database

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbtest "github.com/gaborage/dbshape/database/testing"
	"github.com/gaborage/dbshape/database/types"
)

func TestEscapeCSV(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "", want: ""},
		{in: "a,b", want: `"a,b"`},
		{in: `say "hi"`, want: `"say ""hi"""`},
		{in: "line\nbreak", want: "\"line\nbreak\""},
		{in: "cr\rhere", want: "\"cr\rhere\""},
		{in: "  spaced  ", want: "  spaced  "},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeCSV(tt.in))
		})
	}
}

func TestFormatCSVValue(t *testing.T) {
	utc := time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	plus2 := time.FixedZone("CEST", 2*60*60)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "dbnull", in: types.DBNull, want: ""},
		{name: "string", in: "x,y", want: `"x,y"`},
		{name: "runes", in: []rune("héllo"), want: "héllo"},
		{name: "utf8 bytes", in: []byte("text"), want: "text"},
		{name: "binary bytes", in: []byte{0xff, 0x00, 0x10}, want: "0xff0010"},
		{name: "bool", in: true, want: "true"},
		{name: "int", in: -12, want: "-12"},
		{name: "uint64", in: uint64(18446744073709551615), want: "18446744073709551615"},
		{name: "float", in: 1.5, want: "1.5"},
		{name: "float32", in: float32(0.1), want: "0.1"},
		{name: "utc time", in: utc, want: "2024-01-02 03:04:05.678Z"},
		{name: "local time", in: utc.In(plus2), want: "2024-01-02 05:04:05.678+02:00"},
		{name: "unspecified", in: types.Unspecified(utc), want: "2024-01-02 03:04:05.678"},
		{name: "tagged utc", in: types.DateTime{Time: utc.In(plus2), Kind: types.DateTimeUTC}, want: "2024-01-02 03:04:05.678Z"},
		{name: "stringer", in: types.KindStoredProcedure, want: "stored_procedure"},
		{name: "fallback", in: struct{ A, B int }{1, 2}, want: "{1 2}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCSVValue(tt.in))
		})
	}
}

func TestExportCSV(t *testing.T) {
	rows := func() *dbtest.RowSet {
		return dbtest.NewRowSet("id", "Name, full", "note").
			AddRow(int64(1), "Alice", nil).
			AddRow(int64(2), `Bob "B"`, "multi\nline")
	}

	t.Run("with header", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ExportCSV(cursorOver(t, rows()), &buf, true))

		assert.Equal(t, "id,\"Name, full\",note\n1,Alice,\n2,\"Bob \"\"B\"\"\",\"multi\nline\"", buf.String())
	})

	t.Run("without header crlf", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ExportCSV(cursorOver(t, rows()), &buf, false, WithCRLF()))

		assert.Equal(t, "1,Alice,\r\n2,\"Bob \"\"B\"\"\",\"multi\nline\"", buf.String())
	})

	t.Run("custom terminator", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ExportCSV(cursorOver(t, dbtest.NewRowSet("v").AddRow(1).AddRow(2)), &buf, true, WithLineTerminator(";")))

		assert.Equal(t, "v;1;2", buf.String())
	})

	t.Run("empty result with header", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ExportCSV(cursorOver(t, dbtest.NewRowSet("a", "b")), &buf, true))
		assert.Equal(t, "a,b", buf.String())
	})

	t.Run("empty result without header", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ExportCSV(cursorOver(t, dbtest.NewRowSet("a")), &buf, false))
		assert.Empty(t, buf.String())
	})

	t.Run("no result set", func(t *testing.T) {
		var buf bytes.Buffer
		err := ExportCSV(cursorOver(t, dbtest.NewRowSet()), &buf, true)
		assert.ErrorIs(t, err, ErrNoResultSet)
	})

	t.Run("cursor fault", func(t *testing.T) {
		var buf bytes.Buffer
		err := ExportCSV(cursorOver(t, rows().WillFailAfter(1, errors.New("reset"))), &buf, true)
		assert.ErrorIs(t, err, ErrExecutionFault)
	})

	t.Run("writer fault", func(t *testing.T) {
		rs := dbtest.NewRowSet("v").AddRows(5000, func(i int) []any { return []any{"0123456789"} })
		err := ExportCSV(cursorOver(t, rs), failingWriter{}, true)

		assert.ErrorContains(t, err, "write csv")
		assert.ErrorIs(t, err, errDiskFull)
	})
}

var errDiskFull = errors.New("disk full")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func TestExportCSVFile(t *testing.T) {
	t.Run("writes and truncates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		require.NoError(t, os.WriteFile(path, []byte("previous content that is longer"), 0o600))

		require.NoError(t, ExportCSVFile(cursorOver(t, dbtest.NewRowSet("v").AddRow("x")), path, true))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "v\nx", string(data))
	})

	t.Run("invalid paths", func(t *testing.T) {
		for _, path := range []string{"", "   ", t.TempDir()} {
			cur := cursorOver(t, dbtest.NewRowSet("v"))
			err := ExportCSVFile(cur, path, true)
			assert.ErrorIs(t, err, ErrInvalidOutputPath, "path %q", path)

			_, err = cur.Next()
			assert.ErrorIs(t, err, types.ErrCursorClosed)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.csv")
		err := ExportCSVFile(cursorOver(t, dbtest.NewRowSet("v")), path, true)

		assert.Error(t, err)
		assert.Equal(t, KindUnknown, KindOf(err))
	})
}
