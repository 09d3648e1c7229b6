package exchange

import (
	"testing"
	"time"

	"github.com/arcward/edifact"
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

var (
	testSender    = edifact.Party{ID: "5412345000013", Qualifier: "14"}
	testRecipient = edifact.Party{ID: "5498765000019", Qualifier: "14"}
	testSyntax    = edifact.SyntaxIdentifier{ID: "UNOC", Version: "3"}
	testPrepared  = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
)

func newInvoiceInterchange(t *testing.T, number string) *edifact.Interchange {
	t.Helper()
	ic := edifact.NewInterchange(
		testSender, testRecipient, "REF1", testSyntax,
		edifact.WithPreparedAt(testPrepared),
	)
	edifact.BuildInvoice(ic, edifact.InvoiceDocument{
		Number:   number,
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:  time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Currency: "EUR",
		Seller: edifact.Participant{
			PartyDetails: edifact.PartyDetails{
				Party: edifact.Party{ID: "5412345000013", Qualifier: "9"},
			},
		},
		Lines: []edifact.InvoiceLine{
			{EAN: "4000862141404", Quantity: 2, Amount: 20, NetPrice: 10, TaxRate: 19},
		},
	})
	return ic
}

func invoiceBytes(t *testing.T, number string) []byte {
	t.Helper()
	data, err := newInvoiceInterchange(t, number).Encode()
	assertNoError(t, err)
	return data
}
