package edifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrFormat is matched (via errors.Is) by every error caused by
	// malformed wire data or by values which cannot be put on the wire
	ErrFormat               = errors.New("edifact format error")
	ErrEscaping             = errors.New("unescaped reserved character")
	ErrInvalidTag           = errors.New("invalid segment tag")
	ErrUnsupportedValue     = errors.New("unsupported component value type")
	ErrMissingHeader        = errors.New("missing UNB interchange header")
	ErrMissingTrailer       = errors.New("missing UNZ interchange trailer")
	ErrUnterminatedSegment  = errors.New("segment is not terminated")
	ErrDanglingRelease      = errors.New("release character at end of value")
	ErrInvalidServiceAdvice = errors.New("invalid UNA service string advice")
	ErrInvalidMessageGroup  = errors.New("invalid UNH/UNT message envelope")
	ErrNoMessages           = errors.New("interchange contains no messages")
	ErrUnsupportedMessage   = errors.New("document type not supported")
	ErrAlreadySerialized    = errors.New("interchange already serialized")
)

// FormatError describes malformed EDIFACT data, referencing the position
// of the offending segment (one-indexed, zero when not applicable)
type FormatError struct {
	Position int
	Tag      string
	Err      error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	if e.Position > 0 {
		_, _ = fmt.Fprintf(&b, "position: %d ", e.Position)
	}
	if e.Tag != "" {
		_, _ = fmt.Fprintf(&b, "tag: '%s' ", e.Tag)
	}
	bs := strings.TrimSpace(b.String())
	if bs == "" {
		return fmt.Sprintf("%s: %s", ErrFormat, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", ErrFormat, bs, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func newFormatError(position int, tag string, err error) error {
	return &FormatError{Position: position, Tag: tag, Err: err}
}

// EscapingError is returned when a component holds a reserved service
// character and the segment was built without escaping
type EscapingError struct {
	Tag       string
	Element   int
	Component int
	Value     string
}

func (e *EscapingError) Error() string {
	return fmt.Sprintf(
		"segment '%s' element %d component %d: %s in %q",
		e.Tag, e.Element, e.Component, ErrEscaping, e.Value,
	)
}

func (e *EscapingError) Unwrap() error {
	return ErrEscaping
}

func (e *EscapingError) Is(target error) bool {
	return target == ErrFormat
}

// Delimiters holds the service characters used on the wire
type Delimiters struct {
	Component rune
	Element   rune
	Decimal   rune
	Release   rune
	Reserved  rune
	Segment   rune
}

// DefaultDelimiters are the UN/EDIFACT default service characters,
// equivalent to the advice `UNA:+.? '`
var DefaultDelimiters = Delimiters{
	Component: DefaultComponentSeparator,
	Element:   DefaultElementSeparator,
	Decimal:   DefaultDecimalMark,
	Release:   DefaultReleaseCharacter,
	Reserved:  DefaultRepetitionReserved,
	Segment:   DefaultSegmentTerminator,
}

// ServiceAdvice returns the UNA segment declaring these delimiters
func (d Delimiters) ServiceAdvice() string {
	return string(
		[]rune{
			'U', 'N', 'A',
			d.Component, d.Element, d.Decimal,
			d.Release, d.Reserved, d.Segment,
		},
	)
}

func (d Delimiters) reservedChars() string {
	return string([]rune{d.Segment, d.Element, d.Component, d.Release})
}

func (d Delimiters) validate() error {
	uq := uniqueElements(
		[]rune{d.Component, d.Element, d.Release, d.Segment},
	)
	if len(uq) != 4 {
		return fmt.Errorf(
			"%w: separators must be unique (got %q)",
			ErrInvalidServiceAdvice, uq,
		)
	}
	return nil
}

// escape prefixes every reserved character in s with the release
// character
func (d Delimiters) escape(s string) string {
	if !strings.ContainsAny(s, d.reservedChars()) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case d.Segment, d.Element, d.Component, d.Release:
			b.WriteRune(d.Release)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// unescape removes release characters from s. A release character
// followed by any character (reserved or not) yields that character
// literally. A trailing release character is an error.
func (d Delimiters) unescape(s string) (string, error) {
	if !strings.ContainsRune(s, d.Release) {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	released := false
	for _, r := range s {
		if released {
			b.WriteRune(r)
			released = false
			continue
		}
		if r == d.Release {
			released = true
			continue
		}
		b.WriteRune(r)
	}
	if released {
		return b.String(), ErrDanglingRelease
	}
	return b.String(), nil
}

// Element is an ordered sequence of components. A single component
// makes a simple element, more than one a composite element.
type Element []string

// Component returns the component at index i, or an empty string
// if the element has fewer components
func (e Element) Component(i int) string {
	if i < 0 || i >= len(e) {
		return ""
	}
	return e[i]
}

// Segment is a tag followed by an ordered list of elements. Values are
// held unescaped; escaping happens in Format.
type Segment struct {
	Tag      string
	Elements []Element
	// position is the one-indexed position of the segment in the
	// document it was read from, zero for built segments
	position int
}

// NewSegment creates a segment from a tag and a list of element values.
// An element value may be a string, integer, float, time.Time
// (formatted as CCYYMMDD), fmt.Stringer, or nil for an empty element.
// []string, []any and Element values produce composite elements.
//
// Components containing a reserved service character are rejected
// with an EscapingError. Use NewEscapedSegment to escape them instead.
func NewSegment(tag string, elements ...any) (*Segment, error) {
	seg, err := newSegment(tag, elements...)
	if err != nil {
		return nil, err
	}
	reserved := DefaultDelimiters.reservedChars()
	for ei, elem := range seg.Elements {
		for ci, comp := range elem {
			if strings.ContainsAny(comp, reserved) {
				return nil, &EscapingError{
					Tag:       tag,
					Element:   ei,
					Component: ci,
					Value:     comp,
				}
			}
		}
	}
	return seg, nil
}

// NewEscapedSegment is like NewSegment, but accepts reserved service
// characters in component values. They are escaped with the release
// character when the segment is formatted.
func NewEscapedSegment(tag string, elements ...any) (*Segment, error) {
	return newSegment(tag, elements...)
}

// MustSegment is like NewEscapedSegment but panics on error. It is
// intended for segments with static, known-good values.
func MustSegment(tag string, elements ...any) *Segment {
	seg, err := NewEscapedSegment(tag, elements...)
	if err != nil {
		panic(err)
	}
	return seg
}

func newSegment(tag string, elements ...any) (*Segment, error) {
	if err := validateTag(tag); err != nil {
		return nil, newFormatError(0, tag, err)
	}
	seg := &Segment{Tag: tag, Elements: make([]Element, 0, len(elements))}
	for ind, v := range elements {
		elem, err := toElement(v)
		if err != nil {
			return nil, newFormatError(
				0,
				tag,
				fmt.Errorf("element %d: %w", ind, err),
			)
		}
		seg.Elements = append(seg.Elements, elem)
	}
	return seg, nil
}

func validateTag(tag string) error {
	if len(tag) != tagLength {
		return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] < 'A' || tag[i] > 'Z' {
			return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
		}
	}
	return nil
}

func toElement(v any) (Element, error) {
	switch t := v.(type) {
	case Element:
		elem := make(Element, len(t))
		copy(elem, t)
		return elem, nil
	case []string:
		elem := make(Element, len(t))
		copy(elem, t)
		return elem, nil
	case []any:
		elem := make(Element, 0, len(t))
		for ind, c := range t {
			comp, err := toComponent(c)
			if err != nil {
				return nil, fmt.Errorf("component %d: %w", ind, err)
			}
			elem = append(elem, comp)
		}
		return elem, nil
	default:
		comp, err := toComponent(v)
		if err != nil {
			return nil, err
		}
		return Element{comp}, nil
	}
}

func toComponent(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case time.Time:
		if t.IsZero() {
			return "", nil
		}
		return t.Format(dateLayouts[DateFormatCCYYMMDD]), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// Element returns the element at index j, or nil if out of range
func (s *Segment) Element(j int) Element {
	if s == nil || j < 0 || j >= len(s.Elements) {
		return nil
	}
	return s.Elements[j]
}

// Component returns component i of element j. EDIFACT omits trailing
// optional elements and components, so missing values are returned as
// an empty string.
func (s *Segment) Component(j, i int) string {
	return s.Element(j).Component(i)
}

// Qualifier returns the first component of the first element, which
// is the qualifier code for most segments (DTM, RFF, NAD, MOA, ...)
func (s *Segment) Qualifier() string {
	return s.Component(0, 0)
}

// Len returns the number of elements in the segment
func (s *Segment) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Elements)
}

// Position returns the one-indexed position of the segment in the
// document it was read from, or zero
func (s *Segment) Position() int {
	return s.position
}

// setComponent sets component i of element j, growing the segment
// as needed
func (s *Segment) setComponent(j, i int, value string) {
	for len(s.Elements) <= j {
		s.Elements = append(s.Elements, Element{""})
	}
	elem := s.Elements[j]
	for len(elem) <= i {
		elem = append(elem, "")
	}
	elem[i] = value
	s.Elements[j] = elem
}

// Clone returns a deep copy of the segment
func (s *Segment) Clone() *Segment {
	c := &Segment{
		Tag:      s.Tag,
		Elements: make([]Element, len(s.Elements)),
		position: s.position,
	}
	for ind, elem := range s.Elements {
		c.Elements[ind] = make(Element, len(elem))
		copy(c.Elements[ind], elem)
	}
	return c
}

// Equal reports whether both segments have the same tag, elements and
// components. Trailing empty elements/components are ignored, since
// they are not represented on the wire.
func (s *Segment) Equal(other *Segment) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Tag != other.Tag {
		return false
	}
	a := s.trimmed()
	b := other.trimmed()
	if len(a) != len(b) {
		return false
	}
	for ind := range a {
		if len(a[ind]) != len(b[ind]) {
			return false
		}
		for ci := range a[ind] {
			if a[ind][ci] != b[ind][ci] {
				return false
			}
		}
	}
	return true
}

// trimmed returns the elements with trailing empty components and
// trailing empty elements removed
func (s *Segment) trimmed() [][]string {
	elems := make([][]string, 0, len(s.Elements))
	for _, elem := range s.Elements {
		elems = append(elems, removeTrailingEmptyElements(elem))
	}
	for i := len(elems) - 1; i >= 0; i-- {
		if len(elems[i]) != 0 {
			return elems[:i+1]
		}
	}
	return [][]string{}
}

// Format returns the wire representation of the segment using the
// given delimiters, including the segment terminator. Every component
// is escaped, and trailing empty components and elements are omitted.
func (s *Segment) Format(d Delimiters) string {
	var b strings.Builder
	b.WriteString(s.Tag)
	for _, elem := range s.trimmed() {
		b.WriteRune(d.Element)
		for ci, comp := range elem {
			if ci > 0 {
				b.WriteRune(d.Component)
			}
			b.WriteString(d.escape(comp))
		}
	}
	b.WriteRune(d.Segment)
	return b.String()
}

// String returns the wire representation using DefaultDelimiters
func (s *Segment) String() string {
	return s.Format(DefaultDelimiters)
}

type segmentData struct {
	Tag      string     `json:"tag"`
	Elements [][]string `json:"elements"`
}

func (s *Segment) MarshalJSON() ([]byte, error) {
	data := segmentData{Tag: s.Tag, Elements: make([][]string, len(s.Elements))}
	for ind, elem := range s.Elements {
		data.Elements[ind] = elem
	}
	return json.Marshal(data)
}

func (s *Segment) UnmarshalJSON(b []byte) error {
	var data segmentData
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}
	if err := validateTag(data.Tag); err != nil {
		return newFormatError(0, data.Tag, err)
	}
	s.Tag = data.Tag
	s.Elements = make([]Element, len(data.Elements))
	for ind, elem := range data.Elements {
		s.Elements[ind] = elem
	}
	return nil
}

// removeTrailingEmptyElements removes trailing empty values from a
// slice of components. These are truncated on the wire, so a segment
// `NAD+BY+123::9++` is written as `NAD+BY+123::9`
func removeTrailingEmptyElements(elements []string) []string {
	for i := len(elements) - 1; i >= 0; i-- {
		if elements[i] != "" {
			newSlice := make([]string, i+1)
			copy(newSlice, elements)
			return newSlice
		}
	}
	return []string{}
}

// uniqueElements returns a slice containing each unique element in
// the given slice, ex: ["a", "b", "a", "c"] -> ["a", "b", "c"]
func uniqueElements[V comparable](elements []V) []V {
	keysSeen := make(map[V]bool)
	result := make([]V, 0, len(elements))

	for _, v := range elements {
		if _, seen := keysSeen[v]; !seen {
			keysSeen[v] = true
			result = append(result, v)
		}
	}
	return result
}

// sliceContains returns true if the given value is present in the given slice
func sliceContains[V comparable](row []V, val V) bool {
	for _, v := range row {
		if v == val {
			return true
		}
	}
	return false
}
