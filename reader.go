package edifact

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/jf-tech/go-corelib/strs"
)

var _defaultReader = NewReader()

// ReaderOption configures a Reader
type ReaderOption func(r *Reader)

// WithMessageTypes adds message types accepted by the Reader, in
// addition to INVOIC, ORDERS and DESADV
func WithMessageTypes(types ...MessageType) ReaderOption {
	return func(r *Reader) {
		for _, t := range types {
			r.messageTypes[t] = true
		}
	}
}

// WithAnyMessageType disables the message type check
func WithAnyMessageType() ReaderOption {
	return func(r *Reader) {
		r.anyMessageType = true
	}
}

// Reader parses EDIFACT interchanges
type Reader struct {
	messageTypes   map[MessageType]bool
	anyMessageType bool
	mu             sync.RWMutex
}

// NewReader creates a Reader accepting the default message types plus
// any added with WithMessageTypes
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{messageTypes: make(map[MessageType]bool)}
	for _, t := range defaultMessageTypes {
		r.messageTypes[t] = true
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MessageTypes returns the message types accepted by the Reader
func (r *Reader) MessageTypes() []MessageType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]MessageType, 0, len(r.messageTypes))
	for t := range r.messageTypes {
		types = append(types, t)
	}
	return types
}

// Register adds message types accepted by the Reader
func (r *Reader) Register(types ...MessageType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		r.messageTypes[t] = true
	}
}

func (r *Reader) supports(t MessageType) bool {
	if r.anyMessageType {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.messageTypes[t]
}

// Read parses the given interchange bytes using the default Reader
func Read(data []byte) (*Interchange, error) {
	return _defaultReader.Read(data)
}

// Parse parses the given interchange text using the default Reader
func Parse(text string) (*Interchange, error) {
	return _defaultReader.Parse(text)
}

// Read decodes the given bytes with the character set declared by the
// UNB syntax identifier, then parses the result
func (r *Reader) Read(data []byte) (*Interchange, error) {
	head := data[:min(len(data), 64)]
	d, _, _, err := splitServiceAdvice(string(head))
	if err != nil {
		d = DefaultDelimiters
	}
	syntaxID := sniffSyntaxID(data, d)
	text, err := decodeText(data, syntaxID)
	if err != nil {
		return nil, newFormatError(0, unbSegmentId, err)
	}
	return r.Parse(text)
}

// Parse parses the given interchange text. Segments are split on the
// segment terminator, then on the element separator, then on the
// component separator, honoring the release character at each level.
//
// An error is returned when the UNB/UNZ envelope is missing, the last
// segment is not terminated, UNH/UNT segments don't pair up, or a
// message type isn't supported by the Reader.
func (r *Reader) Parse(text string) (*Interchange, error) {
	d, body, hasAdvice, err := splitServiceAdvice(text)
	if err != nil {
		return nil, newFormatError(0, unaSegmentId, err)
	}

	segments, err := tokenize(body, d)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, newFormatError(
			0, "", fmt.Errorf("%w: no segments found", ErrMissingHeader),
		)
	}

	header := segments[0]
	if header.Tag != unbSegmentId {
		return nil, newFormatError(
			header.position, header.Tag,
			fmt.Errorf("%w: first segment is '%s'", ErrMissingHeader, header.Tag),
		)
	}
	trailer := segments[len(segments)-1]
	if len(segments) == 1 || trailer.Tag != unzSegmentId {
		return nil, newFormatError(
			trailer.position, trailer.Tag,
			fmt.Errorf("%w: last segment is '%s'", ErrMissingTrailer, trailer.Tag),
		)
	}

	bodySegments := segments[1 : len(segments)-1]
	messages, err := groupByTag(bodySegments, unhSegmentId, untSegmentId)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, newFormatError(0, "", ErrNoMessages)
	}
	for _, msg := range messages {
		unh := msg[0]
		msgType := MessageType(
			unh.Component(unhIndexMessageIdentifier, msgIdIndexType),
		)
		if !r.supports(msgType) {
			return nil, newFormatError(
				unh.position, unh.Tag,
				fmt.Errorf("%w: '%s'", ErrUnsupportedMessage, msgType),
			)
		}
	}

	ic := &Interchange{
		sender: Party{
			ID:        header.Component(unbIndexSender, 0),
			Qualifier: header.Component(unbIndexSender, 1),
		},
		recipient: Party{
			ID:        header.Component(unbIndexRecipient, 0),
			Qualifier: header.Component(unbIndexRecipient, 1),
		},
		reference: header.Component(unbIndexReference, 0),
		syntax: SyntaxIdentifier{
			ID:      header.Component(unbIndexSyntax, 0),
			Version: header.Component(unbIndexSyntax, 1),
		},
		delimiters:    d,
		serviceAdvice: hasAdvice,
		header:        header,
		trailer:       trailer,
		segments:      bodySegments,
	}
	prepared, err := time.Parse(
		unbDateLayout+unbTimeLayout,
		header.Component(unbIndexPrepared, 0)+header.Component(unbIndexPrepared, 1),
	)
	if err == nil {
		ic.preparedAt = prepared
	}
	return ic, nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface,
// using the default Reader
func (ic *Interchange) UnmarshalText(data []byte) error {
	parsed, err := Read(data)
	if err != nil {
		return err
	}
	*ic = *parsed
	return nil
}

// splitServiceAdvice reads the optional UNA service string advice at
// the start of text, returning the delimiters it declares (or the
// defaults) and the remaining text
func splitServiceAdvice(text string) (
	d Delimiters,
	rest string,
	found bool,
	err error,
) {
	d = DefaultDelimiters
	trimmed := bytes.TrimLeft([]byte(text), " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte(unaSegmentId)) {
		return d, text, false, nil
	}
	runes := []rune(string(trimmed))
	if len(runes) < unaLength {
		return d, text, true, fmt.Errorf(
			"%w: expected %d characters, got %d",
			ErrInvalidServiceAdvice, unaLength, len(runes),
		)
	}
	d = Delimiters{
		Component: runes[3],
		Element:   runes[4],
		Decimal:   runes[5],
		Release:   runes[6],
		Reserved:  runes[7],
		Segment:   runes[8],
	}
	if err = d.validate(); err != nil {
		return DefaultDelimiters, text, true, err
	}
	return d, string(runes[unaLength:]), true, nil
}

// tokenize splits text into segments
func tokenize(text string, d Delimiters) ([]*Segment, error) {
	release := []byte(string(d.Release))
	pieces := strs.ByteSplitWithEsc(
		[]byte(text),
		[]byte(string(d.Segment)),
		release,
		defaultSegsPerMessage,
	)
	segments := make([]*Segment, 0, len(pieces))
	for ind, piece := range pieces {
		piece = bytes.TrimLeft(piece, " \t\r\n")
		// anything after the last terminator is a truncated segment
		if ind == len(pieces)-1 {
			if len(bytes.TrimSpace(piece)) != 0 {
				return segments, newFormatError(
					len(segments)+1,
					tagOf(piece),
					ErrUnterminatedSegment,
				)
			}
			break
		}
		if len(piece) == 0 {
			continue
		}
		seg, err := parseSegment(piece, len(segments)+1, d)
		if err != nil {
			return segments, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// parseSegment splits one segment (without its terminator) into its
// tag, elements and components, and unescapes each component
func parseSegment(data []byte, position int, d Delimiters) (*Segment, error) {
	release := []byte(string(d.Release))
	rawElements := strs.ByteSplitWithEsc(
		data,
		[]byte(string(d.Element)),
		release,
		defaultElemsPerSeg,
	)
	tag := string(rawElements[0])
	if err := validateTag(tag); err != nil {
		return nil, newFormatError(position, tag, err)
	}
	seg := &Segment{
		Tag:      tag,
		Elements: make([]Element, 0, len(rawElements)-1),
		position: position,
	}
	for ei, rawElement := range rawElements[1:] {
		rawComponents := strs.ByteSplitWithEsc(
			rawElement,
			[]byte(string(d.Component)),
			release,
			defaultCompsPerElem,
		)
		elem := make(Element, 0, len(rawComponents))
		for ci, rawComponent := range rawComponents {
			value, err := d.unescape(string(rawComponent))
			if err != nil {
				return nil, newFormatError(
					position, tag,
					fmt.Errorf("element %d component %d: %w", ei, ci, err),
				)
			}
			elem = append(elem, value)
		}
		seg.Elements = append(seg.Elements, elem)
	}
	return seg, nil
}

// tagOf returns the leading tag of a raw segment, for error reporting
func tagOf(piece []byte) string {
	piece = bytes.TrimSpace(piece)
	if len(piece) > tagLength {
		piece = piece[:tagLength]
	}
	return string(piece)
}

// groupByTag takes a list of segments and returns a list of groups,
// where each group starts with a segment tagged startTag and ends with
// a segment tagged endTag, inclusive. Segments outside of a group are
// ignored. An error is returned if startTag is seen again before
// endTag, if endTag is seen outside of a group, or if the last group
// is never closed.
func groupByTag(
	segments []*Segment,
	startTag string,
	endTag string,
) (groups [][]*Segment, err error) {
	start := -1
	for ind, seg := range segments {
		switch seg.Tag {
		case startTag:
			if start >= 0 {
				return groups, newFormatError(
					seg.position, seg.Tag,
					fmt.Errorf(
						"%w: found '%s' before '%s'",
						ErrInvalidMessageGroup, startTag, endTag,
					),
				)
			}
			start = ind
		case endTag:
			if start < 0 {
				return groups, newFormatError(
					seg.position, seg.Tag,
					fmt.Errorf(
						"%w: found '%s' without '%s'",
						ErrInvalidMessageGroup, endTag, startTag,
					),
				)
			}
			groups = append(groups, segments[start:ind+1])
			start = -1
		}
	}
	if start >= 0 {
		return groups, newFormatError(
			segments[start].position, startTag,
			fmt.Errorf(
				"%w: '%s' is never closed by '%s'",
				ErrInvalidMessageGroup, startTag, endTag,
			),
		)
	}
	return groups, nil
}
