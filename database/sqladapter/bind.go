package sqladapter

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gaborage/dbshape/database/types"
)

// binding is the vendor-ready statement text and argument list for one execution.
type binding struct {
	text string
	args []any
	outs []outBinding
}

// outBinding remembers where the driver writes an output parameter back.
type outBinding struct {
	param *types.Parameter
	dest  any
}

// apply copies output values into their parameters after execution.
func (b *binding) apply() {
	for _, o := range b.outs {
		o.param.Value = outputValue(o.dest)
	}
}

type binder struct {
	dialect  Dialect
	byName   map[string]*types.Parameter
	numbered map[*types.Parameter]int
	named    map[*types.Parameter]bool
	b        *binding
}

// bind renders text for the dialect and collects the arguments for params.
func bind(d Dialect, kind types.CommandKind, text string, params []*types.Parameter) (*binding, error) {
	bd := &binder{
		dialect:  d,
		byName:   make(map[string]*types.Parameter, len(params)),
		numbered: make(map[*types.Parameter]int),
		named:    make(map[*types.Parameter]bool),
		b:        &binding{},
	}
	for _, p := range params {
		bd.byName[strings.ToLower(p.Placeholder())] = p
	}

	switch kind {
	case types.KindText:
		bd.b.text = bd.rewrite(text)
	case types.KindStoredProcedure:
		if d.ProcedureCall == nil {
			return nil, fmt.Errorf("%s: stored procedures are not supported", d.Name)
		}
		placeholders := make([]string, 0, len(params))
		for _, p := range params {
			placeholders = append(placeholders, bd.placeholder(p))
		}
		bd.b.text = d.ProcedureCall(text, placeholders)
	case types.KindTableDirect:
		bd.b.text = "SELECT * FROM " + text
	default:
		return nil, fmt.Errorf("%s: unsupported command kind %s", d.Name, kind)
	}
	return bd.b, nil
}

// rewrite replaces @name references to known parameters. String literals, quoted
// identifiers, comments and @@system variables are copied verbatim.
func (bd *binder) rewrite(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			j := skipQuoted(text, i, c)
			out.WriteString(text[i:j])
			i = j
		case c == '-' && i+1 < len(text) && text[i+1] == '-':
			j := strings.IndexByte(text[i:], '\n')
			if j < 0 {
				j = len(text)
			} else {
				j += i
			}
			out.WriteString(text[i:j])
			i = j
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			j := strings.Index(text[i+2:], "*/")
			if j < 0 {
				j = len(text)
			} else {
				j += i + 4
			}
			out.WriteString(text[i:j])
			i = j
		case c == '@' && i+1 < len(text) && isWordByte(text[i+1]) && (i == 0 || text[i-1] != '@'):
			j := i + 1
			for j < len(text) && isWordByte(text[j]) {
				j++
			}
			if p, ok := bd.byName[strings.ToLower(text[i+1:j])]; ok {
				out.WriteString(bd.placeholder(p))
			} else {
				out.WriteString(text[i:j])
			}
			i = j
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// placeholder returns the vendor spelling of p and records its argument.
func (bd *binder) placeholder(p *types.Parameter) string {
	switch bd.dialect.Placeholder {
	case PlaceholderDollar:
		if n, ok := bd.numbered[p]; ok {
			return "$" + strconv.Itoa(n)
		}
		bd.b.args = append(bd.b.args, bd.arg(p))
		bd.numbered[p] = len(bd.b.args)
		return "$" + strconv.Itoa(len(bd.b.args))
	case PlaceholderNamed:
		if !bd.named[p] {
			bd.named[p] = true
			bd.b.args = append(bd.b.args, sql.Named(p.Placeholder(), bd.arg(p)))
		}
		return bd.dialect.NamedPrefix + p.Placeholder()
	default:
		bd.b.args = append(bd.b.args, bd.arg(p))
		return "?"
	}
}

// arg converts a parameter into a database/sql argument.
func (bd *binder) arg(p *types.Parameter) any {
	in := bd.dialect.driverValue(p.Value)
	if !p.IsOutput() {
		return in
	}
	var dest any
	if p.Direction == types.DirectionInputOutput && in != nil {
		v := reflect.New(reflect.TypeOf(in))
		v.Elem().Set(reflect.ValueOf(in))
		dest = v.Interface()
	} else {
		dest = outputDest(p.Type)
	}
	bd.b.outs = append(bd.b.outs, outBinding{param: p, dest: dest})
	if bd.dialect.OutArg != nil {
		return bd.dialect.OutArg(dest, p)
	}
	return sql.Out{Dest: dest, In: p.Direction == types.DirectionInputOutput}
}

// outputDest allocates the typed destination an output parameter is read into.
func outputDest(t types.DbType) any {
	switch t {
	case types.DbTypeInt32, types.DbTypeInt64:
		return new(sql.NullInt64)
	case types.DbTypeDouble:
		return new(sql.NullFloat64)
	case types.DbTypeBoolean:
		return new(sql.NullBool)
	case types.DbTypeDateTime:
		return new(sql.NullTime)
	case types.DbTypeBinary:
		return new([]byte)
	default:
		return new(sql.NullString)
	}
}

// outputValue dereferences dest; SQL NULL becomes nil.
func outputValue(dest any) any {
	switch d := dest.(type) {
	case driver.Valuer:
		v, err := d.Value()
		if err != nil {
			return nil
		}
		return v
	case *[]byte:
		if *d == nil {
			return nil
		}
		return *d
	}
	return reflect.ValueOf(dest).Elem().Interface()
}

func (d Dialect) driverValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return d.timeValue(val)
	case types.DateTime:
		return d.timeValue(val.Time)
	case []rune:
		return string(val)
	}
	if types.IsDBNull(v) {
		return nil
	}
	return v
}

func (d Dialect) timeValue(t time.Time) any {
	if d.TimeLayout == "" {
		return t
	}
	return t.Format(d.TimeLayout)
}

// checkParameter reports whether the dialect can bind p.
func checkParameter(d Dialect, p *types.Parameter) error {
	switch {
	case p.Direction == types.DirectionReturnValue:
		return fmt.Errorf("%w: %s: return value parameters are not supported", types.ErrUnsupportedParameter, p.Name)
	case p.IsOutput() && !d.OutputParameters:
		return fmt.Errorf("%w: %s: %s does not support output parameters", types.ErrUnsupportedParameter, p.Name, d.Name)
	case p.Type == types.DbTypeRefCursor:
		return fmt.Errorf("%w: %s: ref cursors are not supported through database/sql", types.ErrUnsupportedParameter, p.Name)
	case !valueMatches(p.Type, p.Value):
		return fmt.Errorf("%w: %s: value of type %T does not match %s", types.ErrUnsupportedParameter, p.Name, p.Value, p.Type)
	}
	return nil
}

func valueMatches(t types.DbType, v any) bool {
	if v == nil || types.IsDBNull(v) || t == types.DbTypeAuto {
		return true
	}
	switch v.(type) {
	case time.Time, types.DateTime:
		return t == types.DbTypeDateTime || t == types.DbTypeString
	case []byte:
		return t == types.DbTypeBinary || t == types.DbTypeString
	case string, []rune:
		return t == types.DbTypeString || t == types.DbTypeDecimal || t == types.DbTypeGUID
	case bool:
		return t == types.DbTypeBoolean
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return t == types.DbTypeInt32 || t == types.DbTypeInt64 || t == types.DbTypeDecimal || t == types.DbTypeDouble
	case reflect.Float32, reflect.Float64:
		return t == types.DbTypeDecimal || t == types.DbTypeDouble
	case reflect.Array:
		// uuid.UUID and friends
		return t == types.DbTypeGUID || t == types.DbTypeBinary
	}
	_, stringer := v.(fmt.Stringer)
	return stringer && (t == types.DbTypeString || t == types.DbTypeGUID)
}

func skipQuoted(text string, start int, quote byte) int {
	for j := start + 1; j < len(text); j++ {
		if text[j] != quote {
			continue
		}
		if j+1 < len(text) && text[j+1] == quote {
			j++
			continue
		}
		return j + 1
	}
	return len(text)
}

func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
