package edifact

import (
	"errors"
	"strings"
	"testing"
)

func invoiceSkeleton(ic *Interchange) {
	ic.AddSegment(MustSegment("UNH", "1", Element{"INVOIC", "D", "96A", "UN", "EAN008"}))
	ic.AddSegment(MustSegment("BGM", Element{"380", "", "", "Invoice"}, "INV001", "9"))
	ic.AddSegment(UNT("1"))
}

func TestSerialize(t *testing.T) {
	ic := newTestInterchange(t)
	invoiceSkeleton(ic)

	text, err := ic.Serialize()
	assertNoError(t, err)
	if !strings.HasPrefix(text, "UNB+UNOC:3+SENDERGLN:14+RECIPIENTGLN:14+") {
		t.Errorf("unexpected interchange header: %s", text)
	}
	if !strings.Contains(text, "UNH+1+INVOIC:D:96A:UN:EAN008'BGM+380:::Invoice+INV001+9'") {
		t.Errorf("message segments not found in: %s", text)
	}
	assertEqual(
		t,
		text,
		"UNB+UNOC:3+SENDERGLN:14+RECIPIENTGLN:14+240301:1030+42'"+
			"UNH+1+INVOIC:D:96A:UN:EAN008'"+
			"BGM+380:::Invoice+INV001+9'"+
			"UNT+3+1'"+
			"UNZ+1+42'",
	)
}

func TestSerializeOnlyOnce(t *testing.T) {
	ic := newTestInterchange(t)
	invoiceSkeleton(ic)

	_, err := ic.Serialize()
	assertNoError(t, err)
	_, err = ic.Serialize()
	assertErrorNotNil(t, err)
	assertEqual(t, errors.Is(err, ErrAlreadySerialized), true)

	_, err = ic.MarshalText()
	assertEqual(t, errors.Is(err, ErrAlreadySerialized), true)
}

func TestSerializeServiceAdvice(t *testing.T) {
	ic := newTestInterchange(t, WithServiceAdvice())
	invoiceSkeleton(ic)

	text, err := ic.Serialize()
	assertNoError(t, err)
	if !strings.HasPrefix(text, "UNA:+.? 'UNB+UNOC:3+") {
		t.Errorf("expected UNA prefix, got: %s", text)
	}
}

func TestSerializeCustomDelimiters(t *testing.T) {
	d := Delimiters{
		Component: '|',
		Element:   '*',
		Decimal:   '.',
		Release:   '\\',
		Reserved:  ' ',
		Segment:   '~',
	}
	ic := newTestInterchange(t, WithDelimiters(d), WithServiceAdvice())
	ic.AddSegments(
		UNH("1", OrderD96A),
		MustSegment("BGM", "220", "PO*1", "9"),
		UNT("1"),
	)
	text, err := ic.Serialize()
	assertNoError(t, err)
	assertEqual(
		t,
		text,
		`UNA|*.\ ~`+
			"UNB*UNOC|3*SENDERGLN|14*RECIPIENTGLN|14*240301|1030*42~"+
			"UNH*1*ORDERS|D|96A|UN|EAN008~"+
			`BGM*220*PO\*1*9~`+
			"UNT*3*1~"+
			"UNZ*1*42~",
	)

	parsed, err := Parse(text)
	assertNoError(t, err)
	assertEqual(t, parsed.Delimiters(), d)
	assertEqual(t, parsed.Segment("BGM").Component(1, 0), "PO*1")
}

func TestSerializeCounter(t *testing.T) {
	tests := []struct {
		name     string
		counter  CountFunc
		expected string
	}{
		{name: "segment count", counter: SegmentCount, expected: "UNT+3+1'"},
		{name: "template count", counter: TemplateCount(10, 0, 0), expected: "UNT+10+1'"},
		{name: "no counter", counter: nil, expected: "UNT++1'"},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				ic := newTestInterchange(t, WithCounter(tt.counter))
				invoiceSkeleton(ic)
				text, err := ic.Serialize()
				assertNoError(t, err)
				if !strings.Contains(text, tt.expected) {
					t.Errorf("expected %s in: %s", tt.expected, text)
				}
			},
		)
	}
}

func TestSerializeMultipleMessages(t *testing.T) {
	ic := newTestInterchange(t)
	ic.AddSegments(
		UNH("1", InvoiceD96A),
		BGM("380", "INV001", "Invoice"),
		DTM(DocumentDate, date(2024, 3, 1), ""),
		UNT(""),
		UNH("2", InvoiceD96A),
		BGM("380", "INV002", "Invoice"),
		UNT(""),
	)
	text, err := ic.Serialize()
	assertNoError(t, err)
	if !strings.Contains(text, "UNT+4+1'UNH+2+") {
		t.Errorf("first message trailer not patched: %s", text)
	}
	if !strings.HasSuffix(text, "UNT+3+2'UNZ+2+42'") {
		t.Errorf("second message trailer not patched: %s", text)
	}
}

func TestSerializeInvalidMessageGroup(t *testing.T) {
	tests := []struct {
		name     string
		segments []*Segment
	}{
		{
			name:     "UNT without UNH",
			segments: []*Segment{BGM("380", "INV001", "Invoice"), UNT("1")},
		},
		{
			name: "UNH before UNT",
			segments: []*Segment{
				UNH("1", InvoiceD96A),
				UNH("2", InvoiceD96A),
				UNT("2"),
			},
		},
		{
			name: "UNH never closed",
			segments: []*Segment{
				UNH("1", InvoiceD96A),
				BGM("380", "INV001", "Invoice"),
			},
		},
		{
			name: "last UNH never closed",
			segments: []*Segment{
				UNH("1", InvoiceD96A),
				UNT("1"),
				UNH("2", InvoiceD96A),
				BGM("380", "INV002", "Invoice"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				ic := newTestInterchange(t)
				ic.AddSegments(tt.segments...)
				text, err := ic.Serialize()
				assertEqual(t, text, "")
				assertErrorNotNil(t, err)
				assertEqual(t, errors.Is(err, ErrInvalidMessageGroup), true)
				assertEqual(t, errors.Is(err, ErrFormat), true)
			},
		)
	}
}

func TestRoundTrip(t *testing.T) {
	ic := newTestInterchange(t)
	ic.AddSegments(
		UNH("1", InvoiceD96A),
		BGM("380", "INV001", "Invoice"),
		DTM(DocumentDate, date(2024, 3, 1), DateFormatCCYYMMDD),
		DTM(DeliveryDate, date(2024, 2, 28), DateFormatYYMMDD),
		RFF(OrderReference, "PO-4711"),
		NAD(Seller, Party{ID: "5412345000013", Qualifier: "9"}, Address{
			Name:    "ACME Corp.",
			Street:  "Main St 1",
			City:    "Springfield",
			Zip:     "12345",
			Country: "US",
		}),
		CUX("EUR"),
		LIN(1, "4000862141404"),
		PIA(PIASubstituted, "ART-1"),
		QTY(InvoicedQuantity, 2, "PCE"),
		MOA(LineAmount, 20),
		UNS(),
		CNT(1),
		MOA(InvoiceTotalAmount, 23.8),
		UNT("1"),
	)
	text, err := ic.Serialize()
	assertNoError(t, err)

	parsed, err := Parse(text)
	assertNoError(t, err)
	assertEqual(t, len(parsed.Body()), len(ic.Body()))
	for ind, seg := range ic.Body() {
		if !parsed.Body()[ind].Equal(seg) {
			t.Errorf(
				"segment %d: expected %s, got %s",
				ind, seg, parsed.Body()[ind],
			)
		}
	}
	assertEqual(t, parsed.Sender(), testSender)
	assertEqual(t, parsed.Recipient(), testRecipient)
	assertEqual(t, parsed.Reference(), "42")
	assertEqual(t, parsed.Syntax(), testSyntax)
	assertEqual(t, parsed.PreparedAt(), testPrepared)
}

func TestEscapingRoundTrip(t *testing.T) {
	values := []string{
		"It's",
		"1+1=2",
		"ratio 3:4",
		"why? because",
		"'+:?'",
		"all at once: ' + ? :)",
		"why?",
		"?",
		"a??",
		"?:",
	}
	for _, value := range values {
		t.Run(
			value, func(t *testing.T) {
				ic := newTestInterchange(t)
				ic.AddSegments(
					UNH("1", InvoiceD96A),
					// value ends an element, a component and the segment
					MustSegment("FTX", "AAI", value, "", Element{value, value}),
					MustSegment("FTX", "AAB", value),
					UNT("1"),
				)
				text, err := ic.Serialize()
				assertNoError(t, err)

				parsed, err := Parse(text)
				assertNoError(t, err)
				ftx := parsed.SegmentsWithName("FTX")
				assertEqual(t, len(ftx), 2)
				assertEqual(t, ftx[0].Component(1, 0), value)
				assertEqual(t, ftx[0].Component(3, 0), value)
				assertEqual(t, ftx[0].Component(3, 1), value)
				assertEqual(t, ftx[1].Component(1, 0), value)
				assertEqual(t, ftx[1].Len(), 2)
			},
		)
	}
}

func TestInterchangeLookups(t *testing.T) {
	ic := readInvoice(t)

	assertEqual(t, ic.Segment("BGM").Component(1, 0), "INV001")
	assertEqual(t, ic.Segment("XYZ") == nil, true)

	var dates []string
	for seg := range ic.Segments("DTM") {
		dates = append(dates, seg.Qualifier())
	}
	assertEqual(t, strings.Join(dates, ","), "137,35,13")

	// non-contiguous segments, and the sequence can be iterated again
	assertEqual(t, len(ic.SegmentsWithName("LIN")), 2)
	var refs int
	for range ic.Segments("RFF") {
		refs++
	}
	for range ic.Segments("RFF") {
		refs++
	}
	assertEqual(t, refs, 6)

	msgType, err := ic.MessageType()
	assertNoError(t, err)
	assertEqual(t, msgType, MessageInvoice)

	ident, err := ic.MessageIdentifier()
	assertNoError(t, err)
	assertEqual(t, ident, InvoiceD96A)
}

func TestMessageTypeWithoutMessages(t *testing.T) {
	ic := newTestInterchange(t)
	_, err := ic.MessageType()
	assertErrorNotNil(t, err)
	assertEqual(t, errors.Is(err, ErrNoMessages), true)

	_, err = ic.MessageIdentifier()
	assertEqual(t, errors.Is(err, ErrNoMessages), true)
}

func TestEncode(t *testing.T) {
	ic := newTestInterchange(t)
	ic.AddSegments(
		UNH("1", InvoiceD96A),
		NAD(Seller, Party{ID: "1", Qualifier: "9"}, Address{Name: "Müller"}),
		UNT("1"),
	)
	data, err := ic.Encode()
	assertNoError(t, err)
	if !strings.Contains(string(data), "NAD+SE+1::9++M\xfcller'") {
		t.Errorf("expected ISO-8859-1 encoded name in: %q", data)
	}

	parsed, err := Read(data)
	assertNoError(t, err)
	assertEqual(t, parsed.Segment("NAD").Component(3, 0), "Müller")
}

func TestEncodeOutsideRepertoire(t *testing.T) {
	ic := NewInterchange(
		testSender, testRecipient, "42",
		SyntaxIdentifier{ID: "UNOA", Version: "2"},
		WithPreparedAt(testPrepared),
	)
	ic.AddSegments(
		UNH("1", InvoiceD96A),
		NAD(Seller, Party{ID: "1", Qualifier: "9"}, Address{Name: "Müller"}),
		UNT("1"),
	)
	_, err := ic.Encode()
	assertErrorNotNil(t, err)
	assertEqual(t, errors.Is(err, ErrCharset), true)
}

func TestTemplateCount(t *testing.T) {
	message := []*Segment{
		UNH("1", InvoiceD96A),
		LIN(1, "1"),
		TAX(19),
		LIN(2, "2"),
		TAX(7),
		UNS(),
		TAXBasis(19, 10),
		TAXBasis(7, 10),
		TAXBasis(19, 5),
		UNT("1"),
	}
	assertEqual(t, SegmentCount(message), 10)
	assertEqual(t, TemplateCount(37, 11, 2)(message), 37+11*2+2*2)
	assertEqual(t, TemplateCount(0, 1, 0)(message), 2)
}
