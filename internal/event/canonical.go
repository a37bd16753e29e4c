package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical encodes v as canonical JSON (RFC 8785 key order, no
// insignificant whitespace, NFC-normalized strings).
//
// Supported values: string, bool, int, int32, int64, ID, integral
// json.Number, []any and map[string]any. Floats and nil are rejected so
// that the same value always produces the same bytes.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		writeCanonicalString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case ID:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return fmt.Errorf("non-integer number in canonical JSON: %s", val)
		}
		buf.WriteString(strconv.FormatInt(n, 10))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString escapes only the quote, the backslash and control
// characters, as RFC 8785 requires.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"

	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[r>>4])
				buf.WriteByte(hex[r&0xf])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// CanonicalMap converts e into the map form used for traces and golden
// files. Input coordinates are floats and are summarised by counts.
func (e Event) CanonicalMap() map[string]any {
	m := map[string]any{
		"id":   int64(e.ID),
		"kind": e.Kind.String(),
	}
	if e.Synchronous {
		m["sync"] = true
	}

	switch e.Kind {
	case KindWindowCreated, KindWindowDestroyed, KindWindowResized, KindRedrawNeeded:
		m["window"] = e.Window.String()
	case KindInputQueueCreated, KindInputQueueDestroyed:
		m["input_queue"] = e.InputQueue.String()
	case KindConfigChanged:
		m["config"] = e.Config.canonicalMap()
	case KindContentRectChanged, KindInsetsChanged:
		m["rect"] = map[string]any{
			"left":   e.Rect.Left,
			"top":    e.Rect.Top,
			"right":  e.Rect.Right,
			"bottom": e.Rect.Bottom,
		}
	case KindInputBatch:
		keys, motions := 0, 0
		for _, in := range e.Input {
			if in.IsKey() {
				keys++
			}
			if in.IsMotion() {
				motions++
			}
		}
		m["input"] = map[string]any{"keys": keys, "motions": motions}
	case KindResume:
		if len(e.SavedState) > 0 {
			m["saved_state_bytes"] = len(e.SavedState)
		}
	case KindTerminate:
		m["reason"] = e.Reason
	}
	return m
}

func (c Configuration) canonicalMap() map[string]any {
	return map[string]any{
		"orientation":         c.Orientation.String(),
		"density":             c.Density,
		"locale":              c.Locale,
		"screen_width_dp":     c.ScreenWidthDp,
		"screen_height_dp":    c.ScreenHeightDp,
		"font_scale_permille": c.FontScalePermille,
		"night_mode":          c.NightMode,
	}
}
