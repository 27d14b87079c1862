package signal

import (
	"strings"

	"github.com/pkg/errors"
)

// Priority orders callback execution within one signal. Higher values
// dispatch earlier. The named levels cover the common cases; any other
// integer is accepted as a custom priority at that exact value.
type Priority int

const (
	VerySlow Priority = -20
	Slow     Priority = -10
	Normal   Priority = 0
	Fast     Priority = 10
	VeryFast Priority = 20
)

var priorityNames = map[string]Priority{
	"very_slow": VerySlow,
	"slow":      Slow,
	"normal":    Normal,
	"fast":      Fast,
	"very_fast": VeryFast,
}

func (p Priority) String() string {
	switch p {
	case VerySlow:
		return "very_slow"
	case Slow:
		return "slow"
	case Normal:
		return "normal"
	case Fast:
		return "fast"
	case VeryFast:
		return "very_fast"
	}
	return "custom"
}

// ParsePriority resolves a named level or an integer value. Anything
// else is an invalid-priority error.
func ParsePriority(value interface{}) (Priority, error) {
	switch v := value.(type) {
	case Priority:
		return v, nil
	case int:
		return Priority(v), nil
	case int32:
		return Priority(v), nil
	case int64:
		return Priority(v), nil
	case string:
		name := strings.ToLower(strings.TrimSpace(v))
		name = strings.ReplaceAll(name, "-", "_")
		name = strings.ReplaceAll(name, " ", "_")
		if p, ok := priorityNames[name]; ok {
			return p, nil
		}
	}
	return Normal, errors.Errorf(
		"invalid priority %v; must be an int or one of [very_slow slow normal fast very_fast]", value)
}
