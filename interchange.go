package edifact

import (
	"iter"
	"strconv"
	"strings"
	"time"
)

// Party identifies an interchange sender or recipient, ex: a GLN with
// the code list qualifier 14
type Party struct {
	ID        string
	Qualifier string
}

func (p Party) element() Element {
	return Element{p.ID, p.Qualifier}
}

// SyntaxIdentifier is the syntax identifier and version number (S001)
// of an interchange, ex: UNOC:3
type SyntaxIdentifier struct {
	ID      string
	Version string
}

func (s SyntaxIdentifier) element() Element {
	return Element{s.ID, s.Version}
}

// CountFunc computes the value of the UNT segment count for one
// message. It receives the message segments from UNH to UNT, inclusive.
type CountFunc func(message []*Segment) int

// SegmentCount is the ISO 9735 rule: the number of segments in the
// message, including UNH and UNT
func SegmentCount(message []*Segment) int {
	return len(message)
}

// TemplateCount returns a CountFunc computing base + perLine*n + perTax*m,
// where n is the number of LIN segments in the message and m is the number
// of distinct tax rates declared by TAX segments in the summary section
// (after UNS).
func TemplateCount(base, perLine, perTax int) CountFunc {
	return func(message []*Segment) int {
		var lines int
		var summary bool
		rates := []string{}
		for _, seg := range message {
			switch seg.Tag {
			case linSegmentId:
				lines++
			case unsSegmentId:
				summary = true
			case taxSegmentId:
				if summary {
					rates = append(
						rates,
						seg.Component(taxIndexRateDetail, taxRateComponent),
					)
				}
			}
		}
		return base + perLine*lines + perTax*len(uniqueElements(rates))
	}
}

// InterchangeOption configures an Interchange created with NewInterchange
type InterchangeOption func(ic *Interchange)

// WithPreparedAt sets the date/time of preparation written in UNB.
// Defaults to the current time (UTC).
func WithPreparedAt(t time.Time) InterchangeOption {
	return func(ic *Interchange) {
		ic.preparedAt = t
	}
}

// WithCounter sets the CountFunc used to patch UNT segment counts.
// A nil CountFunc leaves UNT segments as they were added.
func WithCounter(fn CountFunc) InterchangeOption {
	return func(ic *Interchange) {
		ic.counter = fn
	}
}

// WithDelimiters sets the service characters used by Serialize
func WithDelimiters(d Delimiters) InterchangeOption {
	return func(ic *Interchange) {
		ic.delimiters = d
	}
}

// WithServiceAdvice prefixes the serialized interchange with a UNA
// segment declaring the delimiters in use
func WithServiceAdvice() InterchangeOption {
	return func(ic *Interchange) {
		ic.serviceAdvice = true
	}
}

// Interchange is an ordered list of segments framed by UNB/UNZ. Segment
// order is preserved as added: no reordering, no de-duplication.
//
// An Interchange is not safe for concurrent use, but separate instances
// share no state.
type Interchange struct {
	sender        Party
	recipient     Party
	reference     string
	syntax        SyntaxIdentifier
	preparedAt    time.Time
	delimiters    Delimiters
	serviceAdvice bool
	counter       CountFunc
	// header and trailer are only set for interchanges which have been
	// read; built interchanges generate them from the metadata above
	header     *Segment
	trailer    *Segment
	segments   []*Segment
	serialized bool
}

// NewInterchange creates an empty interchange with the given envelope
// metadata. The reference is the interchange control reference
// (0020), typically a record ID of the calling system.
func NewInterchange(
	sender Party,
	recipient Party,
	reference string,
	syntax SyntaxIdentifier,
	opts ...InterchangeOption,
) *Interchange {
	ic := &Interchange{
		sender:     sender,
		recipient:  recipient,
		reference:  reference,
		syntax:     syntax,
		preparedAt: time.Now().UTC(),
		delimiters: DefaultDelimiters,
		counter:    SegmentCount,
		segments:   make([]*Segment, 0, defaultSegsPerMessage),
	}
	for _, opt := range opts {
		opt(ic)
	}
	return ic
}

// AddSegment appends a segment to the interchange body. No validation
// of the segment's tag or content happens here.
func (ic *Interchange) AddSegment(seg *Segment) {
	ic.segments = append(ic.segments, seg)
}

// AddSegments appends each of the given segments, in order
func (ic *Interchange) AddSegments(segs ...*Segment) {
	ic.segments = append(ic.segments, segs...)
}

// SetCounter replaces the CountFunc used to patch UNT segment counts
func (ic *Interchange) SetCounter(fn CountFunc) {
	ic.counter = fn
}

func (ic *Interchange) Sender() Party {
	return ic.sender
}

func (ic *Interchange) Recipient() Party {
	return ic.recipient
}

func (ic *Interchange) Reference() string {
	return ic.reference
}

func (ic *Interchange) Syntax() SyntaxIdentifier {
	return ic.syntax
}

func (ic *Interchange) PreparedAt() time.Time {
	return ic.preparedAt
}

func (ic *Interchange) Delimiters() Delimiters {
	return ic.delimiters
}

// Body returns all segments between UNB and UNZ, in document order
func (ic *Interchange) Body() []*Segment {
	return ic.segments
}

// Header returns the UNB segment. For interchanges which were read,
// this is the segment as it appeared on the wire.
func (ic *Interchange) Header() *Segment {
	if ic.header != nil {
		return ic.header
	}
	return &Segment{
		Tag: unbSegmentId,
		Elements: []Element{
			ic.syntax.element(),
			ic.sender.element(),
			ic.recipient.element(),
			{
				ic.preparedAt.Format(unbDateLayout),
				ic.preparedAt.Format(unbTimeLayout),
			},
			{ic.reference},
		},
	}
}

// Trailer returns the UNZ segment
func (ic *Interchange) Trailer() *Segment {
	if ic.trailer != nil {
		return ic.trailer
	}
	return &Segment{
		Tag: unzSegmentId,
		Elements: []Element{
			{strconv.Itoa(ic.messageCount())},
			{ic.reference},
		},
	}
}

// Segment returns the first body segment with the given tag, or nil
func (ic *Interchange) Segment(tag string) *Segment {
	for _, seg := range ic.segments {
		if seg.Tag == tag {
			return seg
		}
	}
	return nil
}

// Segments returns a sequence of all body segments with the given tag,
// in document order. Matching segments don't need to be contiguous. The
// sequence may be iterated more than once.
func (ic *Interchange) Segments(tag string) iter.Seq[*Segment] {
	return func(yield func(*Segment) bool) {
		for _, seg := range ic.segments {
			if seg.Tag != tag {
				continue
			}
			if !yield(seg) {
				return
			}
		}
	}
}

// SegmentsWithName returns a slice of all body segments with the given tag
func (ic *Interchange) SegmentsWithName(tag string) []*Segment {
	var segments []*Segment
	for seg := range ic.Segments(tag) {
		segments = append(segments, seg)
	}
	return segments
}

// MessageType returns the message type declared in the first UNH
func (ic *Interchange) MessageType() (MessageType, error) {
	unh := ic.Segment(unhSegmentId)
	if unh == nil {
		return "", newFormatError(0, unhSegmentId, ErrNoMessages)
	}
	return MessageType(
		unh.Component(unhIndexMessageIdentifier, msgIdIndexType),
	), nil
}

// MessageIdentifier returns the full message identifier of the first UNH
func (ic *Interchange) MessageIdentifier() (MessageIdentifier, error) {
	unh := ic.Segment(unhSegmentId)
	if unh == nil {
		return MessageIdentifier{}, newFormatError(0, unhSegmentId, ErrNoMessages)
	}
	return messageIdentifierFromElement(
		unh.Element(unhIndexMessageIdentifier),
	), nil
}

func (ic *Interchange) messageCount() int {
	var count int
	for _, seg := range ic.segments {
		if seg.Tag == unhSegmentId {
			count++
		}
	}
	return count
}

// finalize patches the segment count of every UNT in the body using the
// interchange CountFunc. An empty UNT message reference is filled in
// from the matching UNH. Every UNH must be closed by a UNT.
func (ic *Interchange) finalize() error {
	if ic.counter == nil {
		return nil
	}
	messages, err := groupByTag(ic.segments, unhSegmentId, untSegmentId)
	if err != nil {
		return err
	}
	for _, message := range messages {
		unt := message[len(message)-1]
		unt.setComponent(
			untIndexSegmentCount, 0,
			strconv.Itoa(ic.counter(message)),
		)
		if unt.Component(untIndexReference, 0) == "" {
			unt.setComponent(
				untIndexReference, 0,
				message[0].Component(unhIndexReference, 0),
			)
		}
	}
	return nil
}

// Serialize finalizes the interchange and returns its wire text: UNA
// (if requested), UNB, the body segments in insertion order, UNZ.
//
// Serialize patches UNT segment counts and may only be called once;
// later calls return ErrAlreadySerialized.
func (ic *Interchange) Serialize() (string, error) {
	if ic.serialized {
		return "", ErrAlreadySerialized
	}
	if err := ic.finalize(); err != nil {
		return "", err
	}
	ic.serialized = true
	return ic.format(), nil
}

// String returns the wire text of the interchange as it currently is,
// without finalizing it
func (ic *Interchange) String() string {
	return ic.format()
}

func (ic *Interchange) format() string {
	var b strings.Builder
	if ic.serviceAdvice {
		b.WriteString(ic.delimiters.ServiceAdvice())
	}
	b.WriteString(ic.Header().Format(ic.delimiters))
	for _, seg := range ic.segments {
		b.WriteString(seg.Format(ic.delimiters))
	}
	b.WriteString(ic.Trailer().Format(ic.delimiters))
	return b.String()
}

// Encode serializes the interchange and encodes the result with the
// character set implied by its syntax identifier
func (ic *Interchange) Encode() ([]byte, error) {
	text, err := ic.Serialize()
	if err != nil {
		return nil, err
	}
	return encodeText(text, ic.syntax.ID)
}

// MarshalText implements encoding.TextMarshaler
func (ic *Interchange) MarshalText() ([]byte, error) {
	text, err := ic.Serialize()
	return []byte(text), err
}
