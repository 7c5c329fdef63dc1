package envutil

import "testing"

func TestInt(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "42")
	if got := Int("ENVUTIL_INT", 1); got != 42 {
		t.Fatalf("Int: want=42 got=%d", got)
	}
	t.Setenv("ENVUTIL_INT", "nope")
	if got := Int("ENVUTIL_INT", 7); got != 7 {
		t.Fatalf("Int fallback: want=7 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("ENVUTIL_BOOL", "off")
	if Bool("ENVUTIL_BOOL", true) {
		t.Fatalf("Bool: want=false")
	}
	t.Setenv("ENVUTIL_BOOL", "")
	if !Bool("ENVUTIL_BOOL", true) {
		t.Fatalf("Bool default: want=true")
	}
}

func TestList(t *testing.T) {
	t.Setenv("ENVUTIL_LIST", " a, ,b ")
	got := List("ENVUTIL_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: want=[a b] got=%v", got)
	}
}
