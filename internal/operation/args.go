package operation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidArguments is returned when resolved arguments do not satisfy a descriptor.
var ErrInvalidArguments = errors.New("invalid arguments")

var errTypeMismatch = errors.New("type mismatch")

// Args holds bound operation arguments keyed by parameter name.
// After Bind every value is a string, bool or int matching its declared type.
type Args map[string]any

// Bind validates raw resolver arguments against d and returns a normalized
// copy with defaults applied. Enum values are matched case-insensitively and
// stored in their declared spelling.
func Bind(d Descriptor, raw map[string]any) (Args, error) {
	var unknown []string
	for name := range raw {
		if _, ok := d.Param(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s does not accept %s", ErrInvalidArguments, d.Name, strings.Join(unknown, ", "))
	}

	out := make(Args, len(d.Params))
	for _, p := range d.Params {
		v, present := raw[p.Name]
		if !present || v == nil || (p.Type == TypeString && v == "") {
			if p.Required {
				return nil, fmt.Errorf("%w: missing required argument %q for %s", ErrInvalidArguments, p.Name, d.Name)
			}
			if p.Default != nil {
				out[p.Name], _ = coerce(p, p.Default)
			}
			continue
		}

		val, err := coerce(p, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, p.Name, err)
		}
		out[p.Name] = val
	}
	return out, nil
}

// String returns the string argument, or "" if absent.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Bool returns the boolean argument, or false if absent.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Int returns the integer argument, or 0 if absent.
func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

func coerce(p Param, v any) (any, error) {
	switch p.Type {
	case TypeString:
		s, err := asString(v)
		if err != nil {
			return nil, err
		}
		if len(p.Enum) == 0 {
			return s, nil
		}
		for _, e := range p.Enum {
			if strings.EqualFold(strings.TrimSpace(s), e) {
				return e, nil
			}
		}
		return nil, fmt.Errorf("%q is not one of %s", s, strings.Join(p.Enum, ", "))
	case TypeBoolean:
		return asBool(v)
	case TypeInteger:
		// Integer parameters are GitHub issue numbers, which start at 1.
		n, err := asInt(v)
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("expected a positive integer, got %d", n)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", p.Type)
	}
}

func asString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	default:
		return "", fmt.Errorf("%w: expected string, got %T", errTypeMismatch, v)
	}
}

func asBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, fmt.Errorf("%w: expected boolean, got %q", errTypeMismatch, x)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: expected boolean, got %T", errTypeMismatch, v)
	}
}

func asInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		if x < math.MinInt || x > math.MaxInt {
			return 0, fmt.Errorf("%w: %d is out of range", errTypeMismatch, x)
		}
		return int(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, fmt.Errorf("%w: expected integer, got %v", errTypeMismatch, x)
		}
		// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
		if x < math.MinInt || x >= math.MaxInt {
			return 0, fmt.Errorf("%w: %v is out of range", errTypeMismatch, x)
		}
		return int(x), nil
	case json.Number:
		n, err := strconv.Atoi(x.String())
		if err != nil {
			return 0, fmt.Errorf("%w: expected integer, got %q", errTypeMismatch, x.String())
		}
		return n, nil
	case string:
		n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(x), "#"))
		if err != nil {
			return 0, fmt.Errorf("%w: expected integer, got %q", errTypeMismatch, x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: expected integer, got %T", errTypeMismatch, v)
	}
}
