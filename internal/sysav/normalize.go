package sysav

import (
	"fmt"
	"strconv"
	"time"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

// itemsRule extracts the list of container items from one payload shape.
type itemsRule func(raw any) ([]any, bool)

// Shapes are tried in order; the first that matches wins.
var itemsRules = []itemsRule{
	listUnderKey("containers"),
	listUnderKey("result"),
	listUnderKey("data"),
	bareList,
}

var (
	labelKeys = []string{"label", "name", "container", "type"}
	dateKeys  = []string{"next", "nextEmptying", "next_collection", "nextDate", "date"}
)

// Month and day take one or two digits. A fractional second after the seconds
// is accepted by every layout that has one.
var dateLayouts = []string{
	"2006-1-2",
	"2006-1-2T15:04:05",
	"2006-01-02T15:04:05.999999999Z",
}

// Normalize turns a decoded JSON payload of unknown shape into a Schedule.
// It never fails; shapes it does not recognise produce an empty schedule.
func Normalize(raw any) *domain.Schedule {
	schedule := domain.NewSchedule()
	for _, item := range extractItems(raw) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var date *time.Time
		if s, ok := firstTruthy(obj, dateKeys).(string); ok {
			date = parseDate(s)
		}
		schedule.Set(domain.ContainerDate{
			Label: labelString(firstTruthy(obj, labelKeys)),
			Date:  date,
		})
	}
	return schedule
}

func extractItems(raw any) []any {
	for _, rule := range itemsRules {
		if items, ok := rule(raw); ok {
			return items
		}
	}
	return nil
}

func listUnderKey(key string) itemsRule {
	return func(raw any) ([]any, bool) {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, false
		}
		items, ok := obj[key].([]any)
		return items, ok
	}
}

func bareList(raw any) ([]any, bool) {
	items, ok := raw.([]any)
	return items, ok
}

func firstTruthy(obj map[string]any, keys []string) any {
	for _, key := range keys {
		if v, ok := obj[key]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func labelString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func parseDate(s string) *time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
