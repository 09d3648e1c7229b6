package edifact

import (
	"os"
	"strings"
	"testing"
	"time"
)

// failOnErr is a helper function that takes the result of a function that
// only has 1 return value (error), and fails the test if the error is not nil.
// It's intended to reduce boilerplate code in tests.
func failOnErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("%v", err)
	}
}

// replaceNewlines removes `\r` and `\n` from the given text, so test
// assets can remain somewhat human-readable (one segment per line)
// without newlines ending up in the parsed values
func replaceNewlines(t *testing.T, text []byte) string {
	t.Helper()
	var replacer = strings.NewReplacer(
		"\r\n", "",
		"\r", "",
		"\n", "",
	)
	return replacer.Replace(string(text))
}

func assertEqual[V comparable](t *testing.T, val V, expected V) {
	t.Helper()
	if val != expected {
		t.Errorf("expected:\n%#v\n\ngot:\n%#v", expected, val)
	}
}

func assertErrorNotNil(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func assertNotNil(t *testing.T, val interface{}) {
	t.Helper()
	if val == nil {
		t.Fatalf("expected non-nil value, got nil")
	}
}

func assertSliceContains[V comparable](t *testing.T, row []V, expected V) {
	t.Helper()
	if !sliceContains(row, expected) {
		t.Errorf("expected %v to be in slice %v", expected, row)
	}
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	file, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("unable to open file %s", name)
	}
	return file
}

// invoiceMessage is an EANCOM D.96A invoice with two line items at two
// different tax rates
func invoiceMessage(t *testing.T) string {
	t.Helper()
	return replaceNewlines(t, readFixture(t, "invoic.edi"))
}

// orderMessage is an EANCOM D.96A purchase order with two line items,
// the second without a PIA segment
func orderMessage(t *testing.T) string {
	t.Helper()
	return replaceNewlines(t, readFixture(t, "orders.edi"))
}

// mismatchedControlNumbers is an invoice where UNB/UNZ and UNH/UNT
// control references and counts disagree
func mismatchedControlNumbers(t *testing.T) string {
	t.Helper()
	return replaceNewlines(t, readFixture(t, "mismatched_control_numbers.edi"))
}

func readInvoice(t *testing.T) *Interchange {
	t.Helper()
	ic, err := Parse(invoiceMessage(t))
	assertNoError(t, err)
	return ic
}

var (
	testSender    = Party{ID: "SENDERGLN", Qualifier: "14"}
	testRecipient = Party{ID: "RECIPIENTGLN", Qualifier: "14"}
	testSyntax    = SyntaxIdentifier{ID: "UNOC", Version: "3"}
	testPrepared  = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
)

func newTestInterchange(t *testing.T, opts ...InterchangeOption) *Interchange {
	t.Helper()
	opts = append([]InterchangeOption{WithPreparedAt(testPrepared)}, opts...)
	return NewInterchange(testSender, testRecipient, "42", testSyntax, opts...)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
