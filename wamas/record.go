package wamas

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// DefaultFunc produces the value of a field which has no business value
type DefaultFunc func(f Field) (any, error)

// Encoder formats business values into fixed-width records
type Encoder struct {
	Funcs map[string]DefaultFunc
}

// NewEncoder creates an Encoder with the given default functions
func NewEncoder(funcs map[string]DefaultFunc) *Encoder {
	return &Encoder{Funcs: funcs}
}

// DefaultFuncs returns the standard default functions: get_source and
// get_destination return the given telegram endpoints,
// get_sequence_number counts up from 1 per call, and
// get_current_datetime returns the current time.
func DefaultFuncs(source, destination string) map[string]DefaultFunc {
	var seq atomic.Int64
	return map[string]DefaultFunc{
		"get_source": func(Field) (any, error) {
			return source, nil
		},
		"get_destination": func(Field) (any, error) {
			return destination, nil
		},
		"get_sequence_number": func(Field) (any, error) {
			return seq.Add(1), nil
		},
		"get_current_datetime": func(Field) (any, error) {
			return time.Now(), nil
		},
	}
}

// Encode produces one record of the grammar. For each field, in order,
// the value is taken from values by the field's Key, else from its
// DefaultFunc, else from its literal Default. A field with none of
// those fails with a MissingFieldError; a value longer than its field
// fails with a FieldOverflowError.
func (e *Encoder) Encode(g *Grammar, values map[string]any) (string, error) {
	var b strings.Builder
	b.Grow(g.Width())
	for _, f := range g.Fields {
		v, err := e.resolve(f, values)
		if err != nil {
			return "", err
		}
		s, err := formatValue(f, v)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func (e *Encoder) resolve(f Field, values map[string]any) (any, error) {
	if f.Key != "" {
		if v, ok := values[f.Key]; ok && v != nil {
			return v, nil
		}
	}
	if f.DefaultFunc != "" {
		fn, ok := e.Funcs[f.DefaultFunc]
		if !ok {
			return nil, &MissingFieldError{Field: f.Name, Func: f.DefaultFunc}
		}
		v, err := fn(f)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", f.Name, err)
		}
		return v, nil
	}
	if f.Default != nil {
		return *f.Default, nil
	}
	return nil, &MissingFieldError{Field: f.Name}
}

func invalidValue(f Field, v any) error {
	return fmt.Errorf("field '%s': %w: %T %v for %s", f.Name, ErrInvalidValue, v, v, f.Type)
}

// formatValue formats v to exactly f.Length characters
func formatValue(f Field, v any) (string, error) {
	var s string
	switch f.Type {
	case Str:
		str, ok := toString(v)
		if !ok {
			return "", invalidValue(f, v)
		}
		if utf8.RuneCountInString(str) > f.Length {
			return "", &FieldOverflowError{Field: f.Name, Length: f.Length, Value: str}
		}
		return str + strings.Repeat(" ", f.Length-utf8.RuneCountInString(str)), nil
	case Int:
		n, err := toInt(f, v)
		if err != nil {
			return "", err
		}
		s = padNumber(n, f.Length)
	case Float:
		x, ok := toFloat(v)
		if !ok {
			return "", invalidValue(f, v)
		}
		scaled := math.Round(x * math.Pow10(f.Decimals))
		if math.IsNaN(scaled) {
			return "", invalidValue(f, v)
		}
		if math.Abs(scaled) > math.MaxInt64/2 {
			return "", &FieldOverflowError{
				Field: f.Name, Length: f.Length, Value: strconv.FormatFloat(x, 'f', -1, 64),
			}
		}
		s = padNumber(int64(scaled), f.Length)
	case Datetime:
		layout := datetimeLayout
		if f.Length == len(dateLayout) {
			layout = dateLayout
		}
		switch t := v.(type) {
		case time.Time:
			s = t.Format(layout)
		case string:
			if _, err := time.Parse(layout, t); err != nil {
				return "", invalidValue(f, v)
			}
			s = t
		default:
			return "", invalidValue(f, v)
		}
	case Bool:
		switch t := v.(type) {
		case bool:
			s = boolFalse
			if t {
				s = boolTrue
			}
		case string:
			if t != boolTrue && t != boolFalse {
				return "", invalidValue(f, v)
			}
			s = t
		default:
			return "", invalidValue(f, v)
		}
	default:
		return "", fmt.Errorf("field '%s': %w: %s", f.Name, ErrUnknownType, f.Type)
	}
	if len(s) > f.Length {
		return "", &FieldOverflowError{Field: f.Name, Length: f.Length, Value: s}
	}
	return s, nil
}

// padNumber right-aligns n, zero padded to width. A negative number
// keeps its sign in front of the padding.
func padNumber(n int64, width int) string {
	digits := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign = "-"
		digits = digits[1:]
	}
	pad := width - len(sign) - len(digits)
	if pad < 0 {
		pad = 0
	}
	return sign + strings.Repeat("0", pad) + digits
}

func toString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		if t {
			return boolTrue, true
		}
		return boolFalse, true
	default:
		return "", false
	}
}

// toInt converts v for an integer field. Integers outside the int64
// range fail with a FieldOverflowError.
func toInt(f Field, v any) (int64, error) {
	overflow := func() error {
		s, _ := toString(v)
		if s == "" {
			s = fmt.Sprint(v)
		}
		return &FieldOverflowError{Field: f.Name, Length: f.Length, Value: s}
	}
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, overflow()
		}
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, overflow()
		}
		return int64(t), nil
	case float64:
		if math.IsNaN(t) || t != math.Trunc(t) {
			return 0, invalidValue(f, v)
		}
		// float64(math.MaxInt64) rounds up to 2^63
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return 0, overflow()
		}
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			return 0, overflow()
		}
		if err != nil {
			return 0, invalidValue(f, v)
		}
		return n, nil
	default:
		return 0, invalidValue(f, v)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return x, err == nil
	default:
		return 0, false
	}
}

// Decode parses one record of the grammar into values keyed by field
// name. The record must be exactly as long as the grammar is wide.
func Decode(g *Grammar, record string) (map[string]any, error) {
	runes := []rune(record)
	if len(runes) != g.Width() {
		return nil, fmt.Errorf(
			"%w: grammar '%s' expects %d characters, got %d",
			ErrRecordLength, g.Name, g.Width(), len(runes),
		)
	}
	values := make(map[string]any, len(g.Fields))
	var offset int
	for _, f := range g.Fields {
		raw := string(runes[offset : offset+f.Length])
		offset += f.Length
		v, err := parseValue(f, raw)
		if err != nil {
			return nil, err
		}
		values[f.Name] = v
	}
	return values, nil
}

func parseValue(f Field, raw string) (any, error) {
	switch f.Type {
	case Str:
		return strings.TrimRight(raw, " "), nil
	case Int:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w: %q", f.Name, ErrInvalidValue, raw)
		}
		return n, nil
	case Float:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w: %q", f.Name, ErrInvalidValue, raw)
		}
		return float64(n) / math.Pow10(f.Decimals), nil
	case Datetime:
		layout := datetimeLayout
		if f.Length == len(dateLayout) {
			layout = dateLayout
		}
		t, err := time.Parse(layout, raw)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w: %q", f.Name, ErrInvalidValue, raw)
		}
		return t, nil
	case Bool:
		switch raw {
		case boolTrue:
			return true, nil
		case boolFalse:
			return false, nil
		}
		return nil, fmt.Errorf("field '%s': %w: %q", f.Name, ErrInvalidValue, raw)
	default:
		return nil, fmt.Errorf("field '%s': %w: %s", f.Name, ErrUnknownType, f.Type)
	}
}
