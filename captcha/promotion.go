package captcha

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// IsPromoted reports whether a session has earned the bypass.
func IsPromoted(validCount, threshold int, enabled bool) bool {
	return enabled && validCount >= threshold
}

// Threshold 晋升阈值，配置中为整数或 false
type Threshold struct {
	Enabled bool
	Value   int
}

// Disabled is the zero Threshold.
var Disabled = Threshold{}

// PromoteAfter enables promotion after n valid responses.
func PromoteAfter(n int) Threshold {
	return Threshold{Enabled: true, Value: n}
}

// ParseThreshold accepts false, an integer (or its string form) or nil.
func ParseThreshold(v any) (Threshold, error) {
	switch t := v.(type) {
	case nil:
		return Disabled, nil
	case Threshold:
		return t, nil
	case bool:
		if t {
			return Disabled, fmt.Errorf("promote must be an integer or false, got true")
		}
		return Disabled, nil
	case int:
		return PromoteAfter(t), nil
	case int64:
		return PromoteAfter(int(t)), nil
	case uint64:
		return PromoteAfter(int(t)), nil
	case float64:
		if t != float64(int(t)) {
			return Disabled, fmt.Errorf("promote must be an integer, got %v", t)
		}
		return PromoteAfter(int(t)), nil
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		if s == "" || s == "false" || s == "off" {
			return Disabled, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return Disabled, fmt.Errorf("promote must be an integer or false, got %q", t)
		}
		return PromoteAfter(n), nil
	default:
		return Disabled, fmt.Errorf("promote must be an integer or false, got %T", v)
	}
}

var thresholdType = reflect.TypeOf(Threshold{})

// thresholdHook is a mapstructure decode hook for Threshold fields.
func thresholdHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != thresholdType {
		return data, nil
	}
	return ParseThreshold(data)
}
