package envutil

import (
	"testing"
	"time"
)

func TestLookups(t *testing.T) {
	t.Setenv("ENVUTIL_STR", "  hello ")
	t.Setenv("ENVUTIL_INT", "42")
	t.Setenv("ENVUTIL_BAD_INT", "x")
	t.Setenv("ENVUTIL_BOOL", "false")
	t.Setenv("ENVUTIL_DUR", "3s")
	t.Setenv("ENVUTIL_NEG_DUR", "-1s")
	t.Setenv("ENVUTIL_LIST", "a, b,,c ")

	if got := String("ENVUTIL_STR", "d"); got != "hello" {
		t.Fatalf("String: want=hello got=%q", got)
	}
	if got := String("ENVUTIL_MISSING", "d"); got != "d" {
		t.Fatalf("String default: want=d got=%q", got)
	}
	if got := Int("ENVUTIL_INT", 1); got != 42 {
		t.Fatalf("Int: want=42 got=%d", got)
	}
	if got := Int("ENVUTIL_BAD_INT", 7); got != 7 {
		t.Fatalf("Int bad: want=7 got=%d", got)
	}
	if got := Bool("ENVUTIL_BOOL", true); got {
		t.Fatalf("Bool: want=false got=%v", got)
	}
	if got := Duration("ENVUTIL_DUR", time.Second); got != 3*time.Second {
		t.Fatalf("Duration: want=3s got=%v", got)
	}
	if got := Duration("ENVUTIL_NEG_DUR", time.Second); got != time.Second {
		t.Fatalf("Duration negative: want=1s got=%v", got)
	}
	got := List("ENVUTIL_LIST", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("List: want=[a b c] got=%v", got)
	}
}
