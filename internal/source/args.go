package source

import (
	"fmt"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case int, int64, float64, bool:
		return fmt.Sprint(s), nil
	default:
		return "", fmt.Errorf("argument %s: expected string, got %T", key, v)
	}
}

func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("argument %s: %w", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("argument %s: expected number, got %T", key, v)
	}
}

// dateArg accepts YYYY-MM-DD strings and the time.Time values yaml.v3 produces for unquoted dates.
func dateArg(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", d, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("invalid date %v (%T)", v, v)
	}
}

func dateListArg(args map[string]any, key string) ([]time.Time, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %s: expected list, got %T", key, v)
	}
	dates := make([]time.Time, 0, len(list))
	for _, item := range list {
		d, err := dateArg(item)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", key, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
