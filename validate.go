package edifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidMessageEnvelope     = errors.New("invalid UNH/UNT message envelope")
	ErrInvalidInterchangeEnvelope = errors.New("invalid UNB/UNZ interchange envelope")
	ErrRequiredElementMissing     = errors.New("missing required element")
)

// SegmentError is an error which provides context about an error by
// referencing the segment related to the error
type SegmentError struct {
	Segment *Segment
	Err     error
}

type segmentErrorData struct {
	Tag      string `json:"tag,omitempty"`
	Position int    `json:"position,omitempty"`
	Error    string `json:"error"`
}

func (e *SegmentError) MarshalJSON() ([]byte, error) {
	data := segmentErrorData{Error: e.Err.Error()}
	if e.Segment != nil {
		data.Tag = e.Segment.Tag
		data.Position = e.Segment.position
	}
	return json.Marshal(data)
}

func (e *SegmentError) Error() string {
	var b strings.Builder
	if e.Segment != nil {
		if e.Segment.Tag != "" {
			_, _ = fmt.Fprintf(&b, "tag: '%s' ", e.Segment.Tag)
		}
		if e.Segment.position > 0 {
			_, _ = fmt.Fprintf(&b, "position: %d ", e.Segment.position)
		}
	}
	bs := strings.TrimSpace(b.String())
	if bs == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("[%s]: %s", bs, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

func newSegmentError(seg *Segment, err error) error {
	return &SegmentError{Segment: seg, Err: err}
}

// ValidatorOption configures a Validator
type ValidatorOption func(v *Validator)

// WithCountRule sets the CountFunc used to check UNT segment counts.
// Defaults to SegmentCount.
func WithCountRule(fn CountFunc) ValidatorOption {
	return func(v *Validator) {
		v.counter = fn
	}
}

// Validator checks the UNB/UNZ and UNH/UNT envelopes of an Interchange
type Validator struct {
	interchange *Interchange
	counter     CountFunc
	errorLog    []error
	ctx         context.Context
}

func NewValidator(
	ctx context.Context,
	ic *Interchange,
	opts ...ValidatorOption,
) *Validator {
	v := &Validator{
		interchange: ic,
		counter:     SegmentCount,
		ctx:         ctx,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs validation on the interchange using the given options,
// returning a joined error of every problem found
func Validate(ic *Interchange, opts ...ValidatorOption) error {
	return NewValidator(context.Background(), ic, opts...).Validate()
}

func (v *Validator) Validate() error {
	if v.ctx == nil {
		v.ctx = context.Background()
	}
	return v.ValidateWithContext(v.ctx)
}

func (v *Validator) ValidateWithContext(ctx context.Context) error {
	v.ctx = ctx
	v.errorLog = nil
	v.validateInterchange()
	return v.Err()
}

// Err returns a wrapped list of all errors encountered
func (v *Validator) Err() error {
	return errors.Join(v.errorLog...)
}

// ErrorList returns a flat list of all validation errors encountered
func (v *Validator) ErrorList() []SegmentError {
	errs := make([]SegmentError, 0, len(v.errorLog))
	for _, e := range v.errorLog {
		se := &SegmentError{}
		if errors.As(e, &se) {
			errs = append(errs, *se)
		} else {
			errs = append(errs, SegmentError{Err: e})
		}
	}
	return errs
}

// addError adds the given error to the error log, if it's not nil- in
// which case, it will be wrapped into a SegmentError
func (v *Validator) addError(seg *Segment, err error) {
	if err != nil {
		v.errorLog = append(v.errorLog, newSegmentError(seg, err))
	}
}

func (v *Validator) validateInterchange() {
	ic := v.interchange
	header := ic.Header()
	trailer := ic.Trailer()

	for _, ind := range []int{unbIndexSyntax, unbIndexSender, unbIndexRecipient, unbIndexReference} {
		if header.Component(ind, 0) == "" {
			v.addError(
				header, fmt.Errorf(
					"%w: UNB element %d",
					ErrRequiredElementMissing,
					ind,
				),
			)
		}
	}

	unbRef := header.Component(unbIndexReference, 0)
	unzRef := trailer.Component(unzIndexReference, 0)
	if unbRef != unzRef {
		v.addError(
			trailer, fmt.Errorf(
				"%w: UNB control reference %s does not match UNZ control reference %s",
				ErrInvalidInterchangeEnvelope,
				unbRef,
				unzRef,
			),
		)
	}

	messages, err := groupByTag(ic.segments, unhSegmentId, untSegmentId)
	if err != nil {
		v.addError(nil, fmt.Errorf("%w: %w", ErrInvalidMessageEnvelope, err))
	}

	unzCount, err := strconv.Atoi(trailer.Component(unzIndexMessageCount, 0))
	if err != nil {
		v.addError(
			trailer, fmt.Errorf(
				"%w: message count: %w",
				ErrInvalidInterchangeEnvelope,
				err,
			),
		)
	} else if unzCount != ic.messageCount() {
		v.addError(
			trailer, fmt.Errorf(
				"%w: expected %d messages from UNZ trailer count, got %d",
				ErrInvalidInterchangeEnvelope,
				unzCount,
				ic.messageCount(),
			),
		)
	}

	for _, msg := range messages {
		if err = v.ctx.Err(); err != nil {
			v.addError(nil, err)
			return
		}
		v.validateMessage(msg)
	}
}

// validateMessage checks the UNH message identifier, and that UNT
// matches UNH and holds the expected segment count
func (v *Validator) validateMessage(msg []*Segment) {
	header := msg[0]
	trailer := msg[len(msg)-1]

	ident := messageIdentifierFromElement(header.Element(unhIndexMessageIdentifier))
	if ident.Type == "" || ident.Version == "" || ident.Release == "" || ident.Agency == "" {
		v.addError(
			header, fmt.Errorf(
				"%w: incomplete message identifier '%s:%s:%s:%s'",
				ErrRequiredElementMissing,
				ident.Type,
				ident.Version,
				ident.Release,
				ident.Agency,
			),
		)
	}

	unhRef := header.Component(unhIndexReference, 0)
	untRef := trailer.Component(untIndexReference, 0)
	if unhRef != untRef {
		v.addError(
			trailer, fmt.Errorf(
				"%w: UNH message reference %s does not match UNT message reference %s",
				ErrInvalidMessageEnvelope,
				unhRef,
				untRef,
			),
		)
	}

	untCount, err := strconv.Atoi(trailer.Component(untIndexSegmentCount, 0))
	if err != nil {
		v.addError(
			trailer, fmt.Errorf(
				"%w: segment count: %w",
				ErrInvalidMessageEnvelope,
				err,
			),
		)
		return
	}
	if v.counter == nil {
		return
	}
	if expected := v.counter(msg); untCount != expected {
		v.addError(
			trailer, fmt.Errorf(
				"%w: expected %d segments, UNT trailer count is %d",
				ErrInvalidMessageEnvelope,
				expected,
				untCount,
			),
		)
	}
}
