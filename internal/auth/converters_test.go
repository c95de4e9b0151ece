package auth

import (
	"testing"
	"time"
)

func TestConvertString(t *testing.T) {
	cases := []struct {
		raw  any
		want string
	}{
		{"hello", "hello"},
		{float64(42), "42"},
		{float64(3.5), "3.5"},
		{true, "true"},
	}
	for _, tc := range cases {
		got, err := ConvertString(tc.raw)
		if err != nil {
			t.Fatalf("ConvertString(%v): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ConvertString(%v) = %v, want %q", tc.raw, got, tc.want)
		}
	}
	if _, err := ConvertString([]any{}); err == nil {
		t.Fatal("want error for non-string")
	}
}

func TestConvertBool(t *testing.T) {
	if got, err := ConvertBool(true); err != nil || got != true {
		t.Fatalf("ConvertBool(true) = %v, %v", got, err)
	}
	if got, err := ConvertBool("true"); err != nil || got != true {
		t.Fatalf("ConvertBool(\"true\") = %v, %v", got, err)
	}
	if _, err := ConvertBool("maybe"); err == nil {
		t.Fatal("want error for bad bool")
	}
}

func TestConvertInt(t *testing.T) {
	if got, err := ConvertInt(float64(7)); err != nil || got != int64(7) {
		t.Fatalf("ConvertInt(7) = %v, %v", got, err)
	}
	if got, err := ConvertInt("19"); err != nil || got != int64(19) {
		t.Fatalf("ConvertInt(\"19\") = %v, %v", got, err)
	}
	if _, err := ConvertInt("x"); err == nil {
		t.Fatal("want error for bad int")
	}
}

func TestConvertDate(t *testing.T) {
	f := ConvertDate("2006-01-02")
	got, err := f("2020-05-01")
	if err != nil {
		t.Fatal(err)
	}
	d := got.(time.Time)
	if d.Year() != 2020 || d.Month() != time.May || d.Day() != 1 {
		t.Fatalf("date = %v", d)
	}
	if _, err := f("01/05/2020"); err == nil {
		t.Fatal("want error for wrong layout")
	}
}

func TestConvertLocale(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"en", "en"},
		{"en_US", "en_US"},
		{"en-us", "en_US"},
		{"ES_ar", "es_AR"},
	}
	for _, tc := range cases {
		got, err := ConvertLocale(tc.raw)
		if err != nil {
			t.Fatalf("ConvertLocale(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ConvertLocale(%q) = %v, want %q", tc.raw, got, tc.want)
		}
	}
	if _, err := ConvertLocale(""); err == nil {
		t.Fatal("want error for empty locale")
	}
}

func TestConvertColor(t *testing.T) {
	got, err := ConvertColor("#1A2B3C")
	if err != nil {
		t.Fatal(err)
	}
	c := got.(Color)
	if c.R != 0x1A || c.G != 0x2B || c.B != 0x3C {
		t.Fatalf("color = %+v", c)
	}
	if c.String() != "1A2B3C" {
		t.Fatalf("String() = %q", c.String())
	}
	for _, bad := range []string{"fff", "zzzzzz", ""} {
		if _, err := ConvertColor(bad); err == nil {
			t.Fatalf("want error for %q", bad)
		}
	}
}

func TestConvertGender(t *testing.T) {
	cases := []struct {
		raw  string
		want Gender
	}{
		{"male", GenderMale},
		{"M", GenderMale},
		{"Female", GenderFemale},
		{"f", GenderFemale},
		{"other", GenderUnspecified},
	}
	for _, tc := range cases {
		got, err := ConvertGender(tc.raw)
		if err != nil {
			t.Fatalf("ConvertGender(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ConvertGender(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
