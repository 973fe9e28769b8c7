package envutil

import (
	"testing"
)

func TestStringFallsBackOnEmpty(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_STR", "  ")
	if got := String("ENVUTIL_TEST_STR", "fallback"); got != "fallback" {
		t.Fatalf("unexpected value: got=%q want=%q", got, "fallback")
	}
	t.Setenv("ENVUTIL_TEST_STR", "value")
	if got := String("ENVUTIL_TEST_STR", "fallback"); got != "value" {
		t.Fatalf("unexpected value: got=%q want=%q", got, "value")
	}
}

func TestIntRejectsGarbage(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_INT", "not-a-number")
	if got := Int("ENVUTIL_TEST_INT", 42); got != 42 {
		t.Fatalf("unexpected value: got=%d want=%d", got, 42)
	}
	t.Setenv("ENVUTIL_TEST_INT", "7")
	if got := Int("ENVUTIL_TEST_INT", 42); got != 7 {
		t.Fatalf("unexpected value: got=%d want=%d", got, 7)
	}
}

func TestStringListSplitsAndTrims(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_LIST", " http://a:8001/v1 , ,http://b:8001/v1")
	got := StringList("ENVUTIL_TEST_LIST", nil)
	want := []string{"http://a:8001/v1", "http://b:8001/v1"}
	if len(got) != len(want) {
		t.Fatalf("unexpected length: got=%d want=%d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected element %d: got=%q want=%q", i, got[i], want[i])
		}
	}

	t.Setenv("ENVUTIL_TEST_LIST", "")
	def := []string{"http://localhost:8001/v1"}
	got = StringList("ENVUTIL_TEST_LIST", def)
	if len(got) != 1 || got[0] != def[0] {
		t.Fatalf("expected default list, got %v", got)
	}
}
