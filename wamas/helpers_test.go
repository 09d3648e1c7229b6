package wamas

import (
	"os"
	"testing"
	"time"
)

func assertEqual[V comparable](t *testing.T, val V, expected V) {
	t.Helper()
	if val != expected {
		t.Errorf("expected:\n%#v\n\ngot:\n%#v", expected, val)
	}
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func assertErrorNotNil(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

// fixedFuncs returns default functions with a fixed clock and a
// sequence starting at 1
func fixedFuncs(t *testing.T) map[string]DefaultFunc {
	t.Helper()
	funcs := DefaultFuncs("ODOO", "WAMAS")
	funcs["get_current_datetime"] = func(Field) (any, error) {
		return time.Date(2024, 1, 31, 12, 30, 45, 0, time.UTC), nil
	}
	return funcs
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	assertNoError(t, err)
	return data
}

func strPtr(s string) *string {
	return &s
}
