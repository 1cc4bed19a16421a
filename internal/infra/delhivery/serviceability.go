package delhivery

import (
	"encoding/json"
	"strings"
)

// parseServiceability normalizes the pincode API's many observed shapes:
// the literal string "NSZ", null, a map keyed by pincode, a bare object,
// or an array of pincode entries. Flag values are "Y"/"N" strings or bools.
func parseServiceability(body []byte, pin string) Serviceability {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Serviceability{}
	}

	entry := pickEntry(raw, pin)
	if entry == nil {
		return Serviceability{}
	}

	prepaid := flagSet(entry, "pre_paid", "prepaid", "Pre-paid")
	cod := flagSet(entry, "cod", "COD")
	return Serviceability{
		Serviceable: prepaid || cod,
		Prepaid:     prepaid,
		COD:         cod,
	}
}

func pickEntry(raw any, pin string) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		// Either keyed by pincode, or already the entry itself.
		if inner, ok := v[pin].(map[string]any); ok {
			return inner
		}
		if len(v) == 1 {
			for _, only := range v {
				if inner, ok := only.(map[string]any); ok {
					return inner
				}
			}
		}
		return v
	case []any:
		var first map[string]any
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if first == nil {
				first = m
			}
			if entryPin(m) == pin {
				return m
			}
		}
		return first
	default:
		// "NSZ", null, numbers: nothing serviceable here.
		return nil
	}
}

func entryPin(m map[string]any) string {
	for _, k := range []string{"pin", "pincode", "postal_code"} {
		switch v := m[k].(type) {
		case string:
			return v
		case float64:
			return normalizePin(jsonNumber(v))
		}
	}
	return ""
}

func jsonNumber(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func flagSet(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if strings.EqualFold(v, "Y") {
				return true
			}
		case bool:
			if v {
				return true
			}
		}
	}
	return false
}
