package orchestrate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// Accepted worker counts for a scrape run
const (
	MinThreads = 1
	MaxThreads = 5
)

// ValidateThreads converts a caller-supplied worker count to an int in [MinThreads, MaxThreads].
// nil selects def. Integers, whole floats, json.Number and integral strings are accepted.
func ValidateThreads(v any, def int) (int, error) {
	var n int64
	switch t := v.(type) {
	case nil:
		n = int64(def)
	case int:
		n = int64(t)
	case int64:
		n = t
	case int32:
		n = int64(t)
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, fmt.Errorf("%w: got %v", utils.ErrInvalidThreads, t)
		}
		n = int64(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			n = i
			break
		}
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: got %q", utils.ErrInvalidThreads, t)
		}
		return ValidateThreads(f, def)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: got %q", utils.ErrInvalidThreads, t)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%w: got %T", utils.ErrInvalidThreads, v)
	}

	if n < MinThreads || n > MaxThreads {
		return 0, fmt.Errorf("%w: got %d", utils.ErrInvalidThreads, n)
	}
	return int(n), nil
}
