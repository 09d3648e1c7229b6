package edifact

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"
)

var (
	testSeller = Participant{
		PartyDetails: PartyDetails{
			Party:   Party{ID: "5412345000013", Qualifier: "9"},
			Address: Address{Name: "ACME + Co", Street: "Main St 1", City: "Berlin", Zip: "10115", Country: "DE"},
		},
		VAT: "DE123456789",
	}
	testBuyer = Participant{
		PartyDetails: PartyDetails{
			Party:   Party{ID: "5498765000019", Qualifier: "9"},
			Address: Address{Name: "Buyer AG"},
		},
	}
	testTaxRates = []TaxRate{
		{Rate: 19, Taxable: 100, Amount: 19},
		{Rate: 7, Taxable: 100, Amount: 7},
		{Rate: 0, Taxable: 100},
	}
)

func invoiceLines(n int) []InvoiceLine {
	lines := make([]InvoiceLine, 0, n)
	for ind := range n {
		lines = append(lines, InvoiceLine{
			EAN:         fmt.Sprintf("400086214140%d", ind),
			Article:     fmt.Sprintf("ART-%d", ind+1),
			Description: "Widget",
			Quantity:    2,
			Delivered:   2,
			Unit:        "PCE",
			Amount:      20,
			NetPrice:    10,
			GrossPrice:  10,
			TaxRate:     19,
		})
	}
	return lines
}

func untCount(t *testing.T, ic *Interchange) int {
	t.Helper()
	unt := ic.Segment("UNT")
	assertNotNil(t, unt)
	n, err := strconv.Atoi(unt.Component(0, 0))
	assertNoError(t, err)
	return n
}

func TestInvoiceCount(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		for _, m := range []int{0, 1, 3} {
			t.Run(
				fmt.Sprintf("lines=%d,rates=%d", n, m), func(t *testing.T) {
					ic := newTestInterchange(t)
					BuildInvoice(ic, InvoiceDocument{
						Number:   "INV001",
						Date:     date(2024, time.March, 1),
						Seller:   testSeller,
						Buyer:    testBuyer,
						Currency: "EUR",
						Lines:    invoiceLines(n),
						TaxRates: testTaxRates[:m],
					})
					text, err := ic.Serialize()
					assertNoError(t, err)
					assertEqual(t, untCount(t, ic), 37+11*n+2*m)

					// the template count matches the actual number of segments
					parsed, err := Parse(text)
					assertNoError(t, err)
					assertEqual(t, untCount(t, parsed), 37+11*n+2*m)
					failOnErr(t, Validate(parsed))
					failOnErr(t, Validate(parsed, WithCountRule(InvoiceCount)))
				},
			)
		}
	}
}

func TestOrderCount(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		for _, m := range []int{0, 1, 3} {
			t.Run(
				fmt.Sprintf("lines=%d,rates=%d", n, m), func(t *testing.T) {
					lines := make([]OrderLine, 0, n)
					for ind := range n {
						lines = append(lines, OrderLine{
							EAN:      fmt.Sprintf("400086214140%d", ind),
							Article:  fmt.Sprintf("ART-%d", ind+1),
							Quantity: 4,
							Unit:     "PCE",
							Amount:   40,
							TaxRate:  7,
						})
					}
					ic := newTestInterchange(t)
					BuildOrder(ic, OrderDocument{
						Number:   "PO-4711",
						Date:     date(2024, time.March, 1),
						Buyer:    testBuyer,
						Supplier: testSeller,
						Lines:    lines,
						TaxRates: testTaxRates[:m],
					})
					text, err := ic.Serialize()
					assertNoError(t, err)
					assertEqual(t, untCount(t, ic), 33+11*n+2*m)

					parsed, err := Parse(text)
					assertNoError(t, err)
					failOnErr(t, Validate(parsed))
					failOnErr(t, Validate(parsed, WithCountRule(OrderCount)))
				},
			)
		}
	}
}

func TestBuildInvoice(t *testing.T) {
	ic := newTestInterchange(t, WithServiceAdvice())
	BuildInvoice(ic, InvoiceDocument{
		Number:       "INV001",
		Date:         date(2024, time.March, 1),
		DueDate:      date(2024, time.March, 31),
		DeliveryDate: date(2024, time.February, 28),
		PaymentTerms: "30 days net",
		Seller:       testSeller,
		Buyer:        testBuyer,
		Currency:     "EUR",
		Lines: []InvoiceLine{
			{
				EAN: "4000862141404", Article: "ART-1", Description: "Widget: large",
				Quantity: 2, Unit: "PCE", Amount: 20, NetPrice: 10,
				OrderReference: "PO-4711", TaxRate: 19,
			},
			{
				EAN: "4000862141411", Article: "ART-2", Description: "Gadget",
				Quantity: 1, Unit: "PCE", Amount: 5, NetPrice: 5, TaxRate: 7,
			},
		},
	})
	text, err := ic.Serialize()
	assertNoError(t, err)

	for _, expected := range []string{
		"UNH+1+INVOIC:D:96A:UN:EAN008'BGM+380:::Invoice+INV001+9'",
		"DTM+35:20240228:102'",
		"NAD+SE+5412345000013::9++ACME ?+ Co+Main St 1+Berlin++10115+DE'RFF+VA:DE123456789'",
		"IMD+ANM+:::Widget?: large'",
		"TAX+7+VAT+++:::19.00'MOA+124:3.80'",
		"UNS+S'CNT+2:2'MOA+125:25.00'MOA+128:29.15'MOA+124:4.15'",
		"TAX+7+VAT++20.00+:::19.00'MOA+124:3.80'TAX+7+VAT++5.00+:::7.00'MOA+124:0.35'",
		"UNT+63+1'UNZ+1+42'",
	} {
		if !strings.Contains(text, expected) {
			t.Errorf("expected %s in: %s", expected, text)
		}
	}

	parsed, err := Parse(text)
	assertNoError(t, err)
	inv, err := ExtractInvoice(parsed)
	assertNoError(t, err)
	assertEqual(t, inv.Number, "INV001")
	assertEqual(t, inv.Date, date(2024, time.March, 1))
	assertEqual(t, inv.DueDate, date(2024, time.March, 31))
	assertEqual(t, inv.Currency, "EUR")
	assertEqual(t, inv.UntaxedAmount, 25.0)
	assertEqual(t, inv.TotalAmount, 29.15)
	assertEqual(t, inv.Parties[Seller].Name, "ACME + Co")
	assertEqual(t, inv.References[VATReference], "DE123456789")
	assertEqual(t, len(inv.TaxRates), 2)
	assertEqual(t, inv.TaxRates[1], TaxRate{Rate: 7, Taxable: 5, Amount: 0.35})
	assertEqual(t, len(inv.Lines), 2)
	assertEqual(t, inv.Lines[0].Article, "ART-1")
	assertEqual(t, inv.Lines[0].Description, "Widget: large")
	assertEqual(t, inv.Lines[0].References[OrderReference], "PO-4711")
	assertEqual(t, inv.Lines[1].Article, "ART-2")
	assertEqual(t, inv.Lines[1].TaxRate, 7.0)
}

func TestBuildOrder(t *testing.T) {
	ic := newTestInterchange(t)
	BuildOrder(ic, OrderDocument{
		Identifier:            OrderD01B,
		Number:                "PO-4711",
		Date:                  date(2024, time.March, 1),
		RequestedDeliveryDate: date(2024, time.March, 10),
		Buyer:                 testBuyer,
		Supplier:              testSeller,
		Contact:               Contact{ID: "Jane", Phone: "+49 30 1234"},
		Currency:              "EUR",
		Lines: []OrderLine{
			{EAN: "4000862141404", Article: "ART-1", Quantity: 4, Unit: "PCE", Amount: 40, TaxRate: 7},
		},
	})
	text, err := ic.Serialize()
	assertNoError(t, err)

	for _, expected := range []string{
		"UNH+1+ORDERS:D:01B:UN:EAN010'BGM+220::9:ORDERS+PO-4711+9'",
		"DTM+2:20240310:102'",
		"COM+?+49 30 1234:TE'",
		"LIN+1++4000862141404:EN'PIA+1+ART-1:SA::91'",
		"QTY+21:4:PCE'QTY+52:1:PCE'MOA+203:40.00'PRI+AAA:10.00'RFF+PL:PO-4711'",
		"UNT+46+1'",
	} {
		if !strings.Contains(text, expected) {
			t.Errorf("expected %s in: %s", expected, text)
		}
	}

	parsed, err := Parse(text)
	assertNoError(t, err)
	order, err := ExtractOrder(parsed)
	assertNoError(t, err)
	assertEqual(t, order.Identifier, OrderD01B)
	assertEqual(t, order.DeliveryDate, date(2024, time.March, 10))
	assertEqual(t, order.Parties[Supplier].Name, "ACME + Co")
	assertEqual(t, order.Lines[0].Quantities[PackQuantity], Quantity{Value: 1, Unit: "PCE"})
}

func TestTaxBuckets(t *testing.T) {
	buckets := taxBuckets([]float64{19, 7, 19, 19.001}, []float64{10, 20, 30, 40})
	assertEqual(t, len(buckets), 2)
	assertEqual(t, buckets[0].Rate, 19.0)
	assertEqual(t, buckets[0].Taxable, 80.0)
	assertEqual(t, buckets[1].Taxable, 20.0)
	assertEqual(t, buckets[1].Amount, 1.4)
}

func TestTotals(t *testing.T) {
	untaxed, tax, total := totals(0, 0, 0, []float64{10, 20}, []TaxRate{{Amount: 2.5}, {Amount: 1.5}})
	assertEqual(t, untaxed, 30.0)
	assertEqual(t, tax, 4.0)
	assertEqual(t, total, 34.0)

	untaxed, tax, total = totals(1, 2, 3, []float64{10, 20}, nil)
	assertEqual(t, untaxed, 1.0)
	assertEqual(t, tax, 2.0)
	assertEqual(t, total, 3.0)
}
