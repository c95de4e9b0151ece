package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ConvertFunc turns a raw attribute value (as decoded from a provider
// document) into its typed representation.
type ConvertFunc func(raw any) (any, error)

// Color is an RGB color attribute, parsed from a "RRGGBB" hex string.
type Color struct {
	R, G, B uint8
}

func (c Color) String() string { return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B) }

// Gender is the enum-like gender attribute some providers expose.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = "unspecified"
)

// ConvertString accepts strings and stringifies numbers/bools.
func ConvertString(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		// JSON numbers decode as float64; keep integers clean.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return nil, fmt.Errorf("convert: not a string: %T", raw)
	}
}

// ConvertBool accepts bools and "true"/"false" strings.
func ConvertBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("convert: not a bool: %q", v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("convert: not a bool: %T", raw)
	}
}

// ConvertInt accepts JSON numbers and numeric strings.
func ConvertInt(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("convert: not an int: %q", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("convert: not an int: %T", raw)
	}
}

// ConvertDate returns a ConvertFunc parsing with the given layout.
func ConvertDate(layout string) ConvertFunc {
	return func(raw any) (any, error) {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("convert: not a date string: %T", raw)
		}
		t, err := time.Parse(layout, s)
		if err != nil {
			return nil, fmt.Errorf("convert: bad date %q: %w", s, err)
		}
		return t, nil
	}
}

// ConvertLocale parses "ll" or "ll_CC" / "ll-CC" locale tags, normalizing
// to "ll_CC".
func ConvertLocale(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("convert: not a locale: %T", raw)
	}
	s = strings.ReplaceAll(s, "-", "_")
	parts := strings.SplitN(s, "_", 2)
	lang := strings.ToLower(parts[0])
	if lang == "" {
		return nil, fmt.Errorf("convert: empty locale")
	}
	if len(parts) == 1 {
		return lang, nil
	}
	return lang + "_" + strings.ToUpper(parts[1]), nil
}

// ConvertColor parses a hex "RRGGBB" string (leading '#' tolerated).
func ConvertColor(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("convert: not a color: %T", raw)
	}
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return nil, fmt.Errorf("convert: bad color %q", s)
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("convert: bad color %q", s)
	}
	return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// ConvertGender maps the usual provider spellings onto Gender.
func ConvertGender(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("convert: not a gender: %T", raw)
	}
	switch strings.ToLower(s) {
	case "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	default:
		return GenderUnspecified, nil
	}
}
