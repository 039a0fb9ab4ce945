package tracking

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/dbshape/database/types"
	"github.com/gaborage/dbshape/logger"
)

// Tracker holds what the decorators need to report executions: a logger, the
// tracking settings and the metric instruments.
type Tracker struct {
	log      logger.Logger
	settings Settings
	ins      *instruments
	filter   *logger.SensitiveDataFilter
}

// New creates a Tracker. A nil mp uses the global OpenTelemetry meter provider.
// Instrument creation failures are logged and the affected metric is skipped.
func New(log logger.Logger, settings Settings, mp metric.MeterProvider) *Tracker {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	ins, errs := newInstruments(mp)
	for _, err := range errs {
		log.Warn().Err(err).Msg("Failed to initialize database metric")
	}
	return &Tracker{
		log:      log,
		settings: settings,
		ins:      ins,
		filter:   logger.NewSensitiveDataFilter(nil),
	}
}

// track records metrics for e and emits one log event. Failures are logged at
// error level, executions over the slow threshold at warn, the rest at debug.
func (t *Tracker) track(ctx context.Context, id string, e *execution, params []*types.Parameter) {
	t.ins.record(ctx, e)

	fields := map[string]any{
		"vendor":       e.vendor,
		"execution_id": id,
		"duration_ms":  e.duration.Milliseconds(),
		"query":        TruncateString(e.text, t.settings.MaxQueryLength()),
	}
	if e.affected != 0 {
		fields["rows_affected"] = e.affected
	}
	if e.read != 0 {
		fields["rows_read"] = e.read
	}
	if t.settings.LogParameters() && len(params) > 0 {
		fields["parameters"] = SanitizeParameters(params, t.settings.MaxQueryLength())
	}
	log := t.log.WithFields(fields)

	switch {
	case e.err != nil:
		log.Error().Err(e.err).Msg("Database command failed")
	case e.duration > t.settings.SlowQueryThreshold():
		log.Warn().Msgf("Slow database command detected (%s)", e.duration)
	default:
		log.Debug().Msg("Database command executed")
	}
}

// TruncateString truncates value to at most maxLen runes, ending with "..." when
// there is room for it. maxLen <= 0 disables truncation.
func TruncateString(value string, maxLen int) string {
	if maxLen <= 0 {
		return value
	}
	r := []rune(value)
	if len(r) <= maxLen {
		return value
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SanitizeParameters renders parameter values for logging, keyed by parameter
// name. Strings are truncated to maxLen, byte slices are summarised by length and
// DBNull is logged as null. Output parameters are reported with their direction.
func SanitizeParameters(params []*types.Parameter, maxLen int) map[string]any {
	out := make(map[string]any, len(params))
	for _, p := range params {
		if p.IsOutput() && p.Direction != types.DirectionInputOutput {
			out[p.Name] = "<" + p.Direction.String() + ">"
			continue
		}
		switch v := p.Value.(type) {
		case nil:
			out[p.Name] = nil
		case string:
			out[p.Name] = TruncateString(v, maxLen)
		case []byte:
			out[p.Name] = fmt.Sprintf("<bytes len=%d>", len(v))
		case time.Time:
			out[p.Name] = v.Format(time.RFC3339Nano)
		default:
			if types.IsDBNull(v) {
				out[p.Name] = nil
				continue
			}
			out[p.Name] = TruncateString(fmt.Sprintf("%v", v), maxLen)
		}
	}
	return out
}

// statementText is the text reported for a command: procedures and table reads
// are rendered as the statement they stand for.
func statementText(kind types.CommandKind, text string) string {
	switch kind {
	case types.KindStoredProcedure:
		return "CALL " + text
	case types.KindTableDirect:
		return "SELECT * FROM " + text
	default:
		return text
	}
}
