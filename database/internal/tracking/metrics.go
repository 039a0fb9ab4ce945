package tracking

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Meter name for database metrics instrumentation
	dbMeterName = "dbshape/database"

	// Metric names following OpenTelemetry semantic conventions
	metricDBCalls      = "db.client.calls"
	metricDBDuration   = "db.client.operation.duration"
	metricRowsAffected = "db.rows.affected"
	metricRowsRead     = "db.rows.read"

	attrDBSystem    = "db.system"
	attrDBOperation = "db.operation.name"
	attrDBTable     = "db.sql.table"

	defaultOperation = "query"
)

// instruments holds the metric instruments of one Tracker. Any of them may be
// nil when the meter refused to create it; recording is then skipped.
type instruments struct {
	calls        metric.Int64Counter
	duration     metric.Float64Histogram
	rowsAffected metric.Int64Counter
	rowsRead     metric.Int64Counter
}

// newInstruments creates the instruments on mp's dbshape meter. Creation errors
// are returned joined but never prevent tracking; the failed instrument stays nil.
func newInstruments(mp metric.MeterProvider) (*instruments, []error) {
	meter := mp.Meter(dbMeterName)
	var (
		ins  instruments
		errs []error
		err  error
	)

	ins.calls, err = meter.Int64Counter(metricDBCalls,
		metric.WithDescription("Total number of database client calls"))
	errs = appendErr(errs, err)

	ins.duration, err = meter.Float64Histogram(metricDBDuration,
		metric.WithDescription("Duration of database operations in milliseconds"),
		metric.WithUnit("ms"))
	errs = appendErr(errs, err)

	ins.rowsAffected, err = meter.Int64Counter(metricRowsAffected,
		metric.WithDescription("Number of rows affected by database operations"))
	errs = appendErr(errs, err)

	ins.rowsRead, err = meter.Int64Counter(metricRowsRead,
		metric.WithDescription("Number of rows read through database cursors"))
	errs = appendErr(errs, err)

	return &ins, errs
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}

// execution describes one finished command execution.
type execution struct {
	vendor   string
	text     string
	duration time.Duration
	// affected is the non-query row count, read the number of rows fetched by a cursor.
	affected int64
	read     int64
	err      error
}

func (ins *instruments) record(ctx context.Context, e *execution) {
	attrs := []attribute.KeyValue{
		attribute.String(attrDBSystem, e.vendor),
		attribute.String(attrDBOperation, extractDBOperation(e.text)),
		attribute.String(attrDBTable, extractTableName(e.text)),
	}

	if ins.calls != nil {
		callAttrs := append(attrs[:len(attrs):len(attrs)], attribute.Bool("error", e.err != nil))
		ins.calls.Add(ctx, 1, metric.WithAttributes(callAttrs...))
	}
	if ins.duration != nil {
		ins.duration.Record(ctx, float64(e.duration.Nanoseconds())/1e6, metric.WithAttributes(attrs...))
	}
	if e.err != nil {
		return
	}
	if ins.rowsAffected != nil && e.affected > 0 {
		ins.rowsAffected.Add(ctx, e.affected, metric.WithAttributes(attrs...))
	}
	if ins.rowsRead != nil && e.read > 0 {
		ins.rowsRead.Add(ctx, e.read, metric.WithAttributes(attrs...))
	}
}

// extractDBOperation returns the lower-cased leading SQL verb for known verbs,
// "query" otherwise.
func extractDBOperation(text string) string {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return defaultOperation
	}

	operation := strings.ToLower(parts[0])
	switch operation {
	case "select", "insert", "update", "delete", "merge", "create", "drop", "alter", "truncate", "call", "begin", "with":
		return operation
	default:
		return defaultOperation
	}
}

var (
	fromTableRegex   = regexp.MustCompile("(?i)\\bFROM\\s+(?:[`\"']?\\w+[`\"']?\\.)?[`\"']?(\\w+)[`\"']?")
	insertTableRegex = regexp.MustCompile("(?i)^INSERT\\s+INTO\\s+(?:[`\"']?\\w+[`\"']?\\.)?[`\"']?(\\w+)[`\"']?")
	updateTableRegex = regexp.MustCompile("(?i)^UPDATE\\s+(?:[`\"']?\\w+[`\"']?\\.)?[`\"']?(\\w+)[`\"']?")
)

// extractTableName best-effort extracts the main table of a statement, or "unknown".
func extractTableName(text string) string {
	text = strings.TrimSpace(text)
	for _, pattern := range []*regexp.Regexp{insertTableRegex, updateTableRegex, fromTableRegex} {
		if m := pattern.FindStringSubmatch(text); len(m) > 1 {
			return strings.ToLower(m[1])
		}
	}
	return "unknown"
}
