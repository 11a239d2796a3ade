package wellness

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Upstream trackers disagree on field names. Resolution is centralized here:
// each helper tries an ordered list of keys and falls back to a documented
// neutral default, so call sites never duplicate the lookup order.

// NeutralSeverity is the midpoint of the 0-10 severity scale, used when no
// severity-like field is present on a record.
const NeutralSeverity = 5.0

// severityKeys is the resolution order for severity-like fields.
var severityKeys = []string{"severity", "intensity", "level", "rating"}

// triggerKeys is the resolution order for trigger-like fields.
var triggerKeys = []string{"trigger", "cause", "category"}

// locationKeys is the resolution order for environment-like fields.
var locationKeys = []string{"location", "place", "environment"}

// ResolveSeverity returns the record's severity on the 0-10 scale, trying
// the typed field first and then the loose Extra keys in order. Missing or
// non-numeric values resolve to NeutralSeverity.
func ResolveSeverity(rec BehaviorRecord) float64 {
	for _, key := range severityKeys {
		if v, ok := rec.Extra[key]; ok {
			if f, ok := coerceFloat(v); ok {
				return f
			}
		}
	}
	return NeutralSeverity
}

// ResolveTrigger returns the record's trigger label, preferring the typed
// field and falling back to the loose Extra keys in order. Returns "" when
// nothing trigger-like exists.
func ResolveTrigger(rec BehaviorRecord) string {
	if rec.Trigger != "" {
		return strings.ToLower(strings.TrimSpace(rec.Trigger))
	}
	for _, key := range triggerKeys {
		if v, ok := rec.Extra[key]; ok {
			if s, ok := coerceString(v); ok && s != "" {
				return strings.ToLower(strings.TrimSpace(s))
			}
		}
	}
	return ""
}

// ResolveLocation returns an environment label from the record's loose
// fields, or "" when absent.
func ResolveLocation(rec BehaviorRecord) string {
	for _, key := range locationKeys {
		if v, ok := rec.Extra[key]; ok {
			if s, ok := coerceString(v); ok && s != "" {
				return strings.ToLower(strings.TrimSpace(s))
			}
		}
	}
	return ""
}

// coerceFloat accepts the numeric shapes that survive JSON decoding from
// loosely-typed upstreams.
func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// coerceString accepts string-ish values.
func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}
