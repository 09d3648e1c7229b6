package edifact

import (
	"testing"
)

func TestGroupLines(t *testing.T) {
	ic := readInvoice(t)
	sections := GroupLines(ic)

	assertEqual(t, len(sections.Header), 10)
	assertEqual(t, sections.Header[0].Tag, "UNH")
	assertEqual(t, sections.Header[9].Tag, "CUX")

	assertEqual(t, len(sections.Lines), 2)
	first := sections.Lines[0]
	assertEqual(t, first.LIN.Component(0, 0), "1")
	assertEqual(t, len(first.Segments), 8)
	assertEqual(t, first.Segment("LIN"), first.LIN)
	assertEqual(t, first.Segment("PIA").Component(1, 0), "ART-1")
	assertEqual(t, len(first.SegmentsWithName("MOA")), 2)

	second := sections.Lines[1]
	assertEqual(t, second.LIN.Component(0, 0), "2")
	assertEqual(t, len(second.Segments), 5)
	// the second line has no PIA, and doesn't borrow one
	assertEqual(t, second.Segment("PIA") == nil, true)
	assertEqual(t, len(second.SegmentsWithName("PIA")), 0)

	assertEqual(t, len(sections.Summary), 10)
	assertEqual(t, sections.Summary[0].Tag, "UNS")
	assertEqual(t, sections.Summary[9].Tag, "UNT")
}

func TestGroupLinesMultipleMessages(t *testing.T) {
	ic := newTestInterchange(t)
	ic.AddSegments(
		UNH("1", OrderD96A),
		BGM("220", "PO1", ""),
		LIN(1, "1"),
		QTY(OrderedQuantity, 1, ""),
		UNS(),
		UNT("1"),
		UNH("2", OrderD96A),
		BGM("220", "PO2", ""),
		LIN(1, "2"),
		QTY(OrderedQuantity, 2, ""),
		LIN(2, "3"),
		UNT("2"),
	)
	sections := GroupLines(ic)
	assertEqual(t, len(sections.Header), 4)
	assertEqual(t, len(sections.Lines), 3)
	assertEqual(t, len(sections.Lines[2].Segments), 0)
	assertEqual(t, len(sections.Summary), 3)
}

func TestGroupLinesWithoutLines(t *testing.T) {
	ic := newTestInterchange(t)
	invoiceSkeleton(ic)
	sections := GroupLines(ic)
	assertEqual(t, len(sections.Header), 2)
	assertEqual(t, len(sections.Lines), 0)
	assertEqual(t, len(sections.Summary), 1)
}

func TestSegmentDeque(t *testing.T) {
	segments := []*Segment{UNS(), CNT(1), UNT("1")}
	d := newSegmentDeque(segments)
	assertEqual(t, d.Length(), 3)
	assertEqual(t, d.PeekLeft(), segments[0])
	assertEqual(t, d.PopLeft(), segments[0])
	assertEqual(t, d.Length(), 2)

	d.Append(segments[0])
	assertEqual(t, d.PopLeft(), segments[1])
	assertEqual(t, d.PopLeft(), segments[2])
	assertEqual(t, d.PopLeft(), segments[0])
	assertEqual(t, d.PopLeft() == nil, true)
	assertEqual(t, d.PeekLeft() == nil, true)
}
