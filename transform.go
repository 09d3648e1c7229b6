package edifact

import (
	"container/list"
)

// LineGroup is a LIN segment together with every segment which follows
// it, up to the next LIN or the start of the summary section
type LineGroup struct {
	// LIN is the segment which opened the group
	LIN *Segment
	// Segments holds the segments following LIN, in document order
	Segments []*Segment
}

// Segment returns the first segment in the group with the given tag,
// or nil. Asking for LIN returns the group's LIN segment.
func (g *LineGroup) Segment(tag string) *Segment {
	if tag == linSegmentId {
		return g.LIN
	}
	for _, seg := range g.Segments {
		if seg.Tag == tag {
			return seg
		}
	}
	return nil
}

// SegmentsWithName returns all segments in the group with the given tag
func (g *LineGroup) SegmentsWithName(tag string) []*Segment {
	var segments []*Segment
	for _, seg := range g.Segments {
		if seg.Tag == tag {
			segments = append(segments, seg)
		}
	}
	return segments
}

// Sections is a message body split into its header, detail (line
// items) and summary sections
type Sections struct {
	Header  []*Segment
	Lines   []*LineGroup
	Summary []*Segment
}

// GroupLines splits the interchange body into sections. Every segment
// after a LIN and before the next LIN, UNS or UNT belongs to that LIN's
// line group, whatever its tag. Segments before the first LIN are header
// segments; UNS and everything after it (up to and including UNT) is
// summary. A following UNH starts a new header, so segments of multiple
// messages are appended to the same sections.
//
// Line groups are never shifted: a line without a PIA segment has no PIA,
// rather than borrowing the next line's.
func GroupLines(ic *Interchange) Sections {
	return groupLines(ic.segments)
}

func groupLines(segments []*Segment) Sections {
	var sections Sections
	queue := newSegmentDeque(segments)

	const (
		inHeader = iota
		inLine
		inSummary
	)
	state := inHeader
	var current *LineGroup

	for queue.Length() > 0 {
		seg := queue.PopLeft()
		switch seg.Tag {
		case unhSegmentId:
			state = inHeader
			current = nil
		case linSegmentId:
			current = &LineGroup{LIN: seg}
			sections.Lines = append(sections.Lines, current)
			state = inLine
			continue
		case unsSegmentId, untSegmentId:
			state = inSummary
			current = nil
		}

		switch state {
		case inHeader:
			sections.Header = append(sections.Header, seg)
		case inLine:
			current.Segments = append(current.Segments, seg)
		case inSummary:
			sections.Summary = append(sections.Summary, seg)
		}
	}
	return sections
}

// segmentDeque mimics Python's `collections.deque`, for Segment instances
type segmentDeque struct {
	segments *list.List
}

func newSegmentDeque(segments []*Segment) *segmentDeque {
	d := &segmentDeque{segments: list.New()}
	for _, seg := range segments {
		d.Append(seg)
	}
	return d
}

// Append adds a Segment to the end of the deque.
func (d *segmentDeque) Append(value *Segment) {
	d.segments.PushBack(value)
}

// PopLeft removes and returns the first Segment in the deque.
// If the deque is empty, it returns nil.
func (d *segmentDeque) PopLeft() *Segment {
	if d.segments.Len() > 0 {
		first := d.segments.Front()
		d.segments.Remove(first)
		return first.Value.(*Segment)
	}
	return nil
}

// PeekLeft returns the first Segment in the deque without removing it
func (d *segmentDeque) PeekLeft() *Segment {
	if d.segments.Len() > 0 {
		return d.segments.Front().Value.(*Segment)
	}
	return nil
}

// Length returns the number of Segments in the deque.
func (d *segmentDeque) Length() int {
	return d.segments.Len()
}
