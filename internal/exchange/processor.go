package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/arcward/edifact"
	"github.com/arcward/edifact/internal/logging"
)

var ErrNoTransport = errors.New("no transport configured")

// Option configures a Processor
type Option func(p *Processor)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		p.logger = logging.Component(logger, "exchange")
	}
}

// WithReader sets the Reader used to parse inbound files
func WithReader(r *edifact.Reader) Option {
	return func(p *Processor) {
		p.reader = r
	}
}

// WithTransport sets where outbound files are delivered
func WithTransport(t Transport) Option {
	return func(p *Processor) {
		p.transport = t
	}
}

// WithValidation enables envelope validation of inbound interchanges
// using the given count rule. A nil rule uses edifact.SegmentCount.
func WithValidation(rule edifact.CountFunc) Option {
	return func(p *Processor) {
		p.validate = true
		p.countRule = rule
	}
}

// Processor receives and sends exchange files, keeping a Record for each
type Processor struct {
	reader    *edifact.Reader
	transport Transport
	logger    *zap.Logger
	validate  bool
	countRule edifact.CountFunc
	mu        sync.Mutex
	records   []*Record
}

func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		reader: edifact.NewReader(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Records returns the records created so far, in creation order
func (p *Processor) Records() []*Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Record(nil), p.records...)
}

func (p *Processor) track(r *Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, r)
}

// Receive decodes an inbound file and extracts its business document:
// an *edifact.Invoice for INVOIC, an *edifact.Order for ORDERS and
// DESADV. The record is returned even when processing fails, in the
// error state.
func (p *Processor) Receive(
	ctx context.Context,
	filename string,
	data []byte,
) (*Record, any, error) {
	rec := NewRecord(Input, filename)
	p.track(rec)
	logger := p.logger.With(
		zap.String("record", rec.ID.String()),
		zap.String("filename", filename),
		zap.String("op", "Receive"),
	)
	logger.Debug("received file", zap.Int("size", len(data)))

	doc, err := p.receive(ctx, rec, data)
	if err != nil {
		_ = rec.Transition(StateInputError, err)
		logger.Error("failed to process file", zap.Error(err))
		return rec, nil, err
	}
	if err := rec.Transition(StateInputProcessed, nil); err != nil {
		return rec, nil, err
	}
	logger.Info(
		"processed file",
		zap.String("type", string(rec.Type)),
		zap.String("state", string(rec.State)),
	)
	return rec, doc, nil
}

func (p *Processor) receive(ctx context.Context, rec *Record, data []byte) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ic, err := p.reader.Read(data)
	if err != nil {
		return nil, err
	}
	msgType, err := ic.MessageType()
	if err != nil {
		return nil, err
	}
	rec.Type = msgType

	if p.validate {
		var opts []edifact.ValidatorOption
		if p.countRule != nil {
			opts = append(opts, edifact.WithCountRule(p.countRule))
		}
		v := edifact.NewValidator(ctx, ic, opts...)
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	switch msgType {
	case edifact.MessageInvoice:
		return edifact.ExtractInvoice(ic)
	case edifact.MessageOrder, edifact.MessageDespatchAdvice:
		return edifact.ExtractOrder(ic)
	default:
		return nil, fmt.Errorf("%w: '%s'", edifact.ErrUnsupportedMessage, msgType)
	}
}

// ReceiveAll lists the files of t and receives each of them. Failed files
// do not stop processing; their errors are joined.
func (p *Processor) ReceiveAll(ctx context.Context, t Transport) ([]*Record, error) {
	names, err := t.List(ctx)
	if err != nil {
		return nil, err
	}
	var records []*Record
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		data, err := t.Get(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		rec, _, err := p.Receive(ctx, name, data)
		records = append(records, rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return records, errors.Join(errs...)
}

// Send serializes ic and delivers it through the transport as filename
func (p *Processor) Send(
	ctx context.Context,
	filename string,
	ic *edifact.Interchange,
) (*Record, error) {
	rec := NewRecord(Output, filename)
	p.track(rec)
	if msgType, err := ic.MessageType(); err == nil {
		rec.Type = msgType
	}
	logger := p.logger.With(
		zap.String("record", rec.ID.String()),
		zap.String("filename", filename),
		zap.String("op", "Send"),
	)

	if p.transport == nil {
		_ = rec.Transition(StateOutputError, ErrNoTransport)
		logger.Error("failed to send file", zap.Error(ErrNoTransport))
		return rec, ErrNoTransport
	}

	data, err := ic.Encode()
	if err != nil {
		_ = rec.Transition(StateOutputError, err)
		logger.Error("failed to generate file", zap.Error(err))
		return rec, err
	}
	if err := rec.Transition(StateOutputGenerated, nil); err != nil {
		return rec, err
	}
	logger.Debug("generated file", zap.Int("size", len(data)))

	if err := p.transport.Put(ctx, filename, data); err != nil {
		_ = rec.Transition(StateOutputError, err)
		logger.Error("failed to send file", zap.Error(err))
		return rec, err
	}
	if err := rec.Transition(StateOutputSent, nil); err != nil {
		return rec, err
	}
	logger.Info("sent file", zap.String("type", string(rec.Type)))
	return rec, nil
}
