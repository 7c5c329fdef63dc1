package forms

import (
	"encoding/json"
	"testing"
)

func TestParseIntOrZero(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{"", 0},
		{"abc", 0},
		{nil, 0},
		{"42", 42},
		{" 42", 42},
		{"42abc", 42},
		{"-7", -7},
		{"3.9", 3},
		{float64(12), 12},
		{float64(2.7), 2},
		{json.Number("8"), 8},
		{true, 0},
		{"99999999999999999999999", 0},
	}
	for _, tc := range cases {
		if got := ParseIntOrZero(tc.in); got != tc.want {
			t.Fatalf("ParseIntOrZero(%#v): want=%d got=%d", tc.in, tc.want, got)
		}
	}
}

func TestCoerceFields_DefaultsAndDropsUnknown(t *testing.T) {
	s := &Schema{Fields: []Field{
		{Key: "count", Kind: KindNumber},
		{Key: "note", Kind: KindText},
		{Key: "done", Kind: KindBool},
	}}
	out := s.CoerceFields(map[string]any{"count": "abc", "done": "1", "stray": "x"})
	if out["count"] != 0 {
		t.Fatalf("count: want=0 got=%v", out["count"])
	}
	if out["note"] != "" {
		t.Fatalf("note: want=\"\" got=%v", out["note"])
	}
	if out["done"] != true {
		t.Fatalf("done: want=true got=%v", out["done"])
	}
	if _, ok := out["stray"]; ok {
		t.Fatalf("undeclared key should be dropped")
	}
}

func TestCoerceCustom_Policies(t *testing.T) {
	sparseNum := &Schema{EAV: EAVSparse, EAVNumeric: true}
	if v, keep := sparseNum.CoerceCustom("0"); keep || v != "0" {
		t.Fatalf("sparse numeric zero: want skip got keep=%v v=%q", keep, v)
	}
	if v, keep := sparseNum.CoerceCustom("junk"); keep || v != "0" {
		t.Fatalf("sparse numeric junk: want skip got keep=%v v=%q", keep, v)
	}
	if v, keep := sparseNum.CoerceCustom("5"); !keep || v != "5" {
		t.Fatalf("sparse numeric 5: want keep 5 got keep=%v v=%q", keep, v)
	}

	sparseText := &Schema{EAV: EAVSparse}
	if _, keep := sparseText.CoerceCustom(""); keep {
		t.Fatalf("sparse text empty: want skip")
	}
	if v, keep := sparseText.CoerceCustom("0"); !keep || v != "0" {
		t.Fatalf("sparse text \"0\": want keep got keep=%v v=%q", keep, v)
	}

	explicit := &Schema{EAV: EAVExplicit}
	if v, keep := explicit.CoerceCustom(nil); !keep || v != "" {
		t.Fatalf("explicit nil: want keep \"\" got keep=%v v=%q", keep, v)
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []any{true, "1", "yes", float64(1), "OK"} {
		if !Truthy(v) {
			t.Fatalf("Truthy(%#v): want=true", v)
		}
	}
	for _, v := range []any{nil, false, "", "0", "false", float64(0)} {
		if Truthy(v) {
			t.Fatalf("Truthy(%#v): want=false", v)
		}
	}
}
