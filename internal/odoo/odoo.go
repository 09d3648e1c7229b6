// Package odoo stores exchange files as Odoo attachments over XML-RPC
package odoo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"
	"go.uber.org/zap"

	"github.com/arcward/edifact/internal/logging"
)

const (
	commonEndpoint = "/xmlrpc/2/common"
	objectEndpoint = "/xmlrpc/2/object"

	attachmentModel = "ir.attachment"
	// DefaultResModel is the model attachments are linked to
	DefaultResModel = "edi.exchange.record"
	mimeType        = "application/EDIFACT"
)

var (
	ErrAuthenticationFailed = errors.New("odoo: authentication failed")
	ErrRPC                  = errors.New("odoo: XML-RPC call failed")
	ErrNotFound             = errors.New("odoo: attachment not found")
	ErrInvalidResponse      = errors.New("odoo: invalid response")
)

// Option configures a Transport
type Option func(t *Transport)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Transport) {
		t.logger = logging.Component(logger, "odoo")
	}
}

// WithRoundTripper sets the HTTP transport of the XML-RPC clients
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(t *Transport) {
		t.roundTripper = rt
	}
}

// WithResModel sets the model attachments are linked to
func WithResModel(model string) Option {
	return func(t *Transport) {
		t.resModel = model
	}
}

// WithAuthTimeout sets how long an authenticated session is reused
func WithAuthTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.authTimeout = d
	}
}

// WithTimeout bounds how long a call waits for the response headers.
// It applies to the default HTTP transport, not to one set with
// WithRoundTripper.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.timeout = d
	}
}

// Transport implements exchange.Transport on top of ir.attachment
// records. Each file is one attachment, linked to ResModel and
// named after the file.
type Transport struct {
	url          string
	db           string
	username     string
	password     string
	resModel     string
	authTimeout  time.Duration
	timeout      time.Duration
	roundTripper http.RoundTripper
	logger       *zap.Logger

	mu       sync.Mutex
	uid      int64
	object   *xmlrpc.Client
	lastAuth time.Time
}

// New creates a Transport. No connection is made until the first call.
func New(urlStr, db, username, password string, opts ...Option) (*Transport, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Odoo URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return nil, fmt.Errorf("invalid Odoo URL scheme: %s, must be http or https", parsed.Scheme)
	}
	t := &Transport{
		url:         urlStr,
		db:          db,
		username:    username,
		password:    password,
		resModel:    DefaultResModel,
		authTimeout: time.Hour,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.roundTripper == nil && t.timeout > 0 {
		rt := http.DefaultTransport.(*http.Transport).Clone()
		rt.ResponseHeaderTimeout = t.timeout
		t.roundTripper = rt
	}
	return t, nil
}

// Close releases the XML-RPC connection
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.object == nil {
		return nil
	}
	err := t.object.Close()
	t.object = nil
	t.uid = 0
	return err
}

func (t *Transport) authenticate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	common, err := xmlrpc.NewClient(t.url+commonEndpoint, t.roundTripper)
	if err != nil {
		return fmt.Errorf("failed to connect to Odoo common endpoint: %w", err)
	}
	defer common.Close()

	var reply any
	err = common.Call(
		"authenticate",
		[]any{t.db, t.username, t.password, map[string]any{}},
		&reply,
	)
	if err != nil {
		t.logger.Error(
			"authentication failed",
			zap.Error(err),
			zap.String("db", t.db),
			zap.String("username", t.username),
			zap.String("op", "authenticate"),
		)
		return fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	uid, ok := reply.(int64)
	if !ok || uid == 0 {
		return fmt.Errorf("%w: invalid credentials for '%s'", ErrAuthenticationFailed, t.username)
	}

	object, err := xmlrpc.NewClient(t.url+objectEndpoint, t.roundTripper)
	if err != nil {
		return fmt.Errorf("failed to connect to Odoo object endpoint: %w", err)
	}
	t.uid = uid
	t.object = object
	t.lastAuth = time.Now()
	t.logger.Info(
		"authenticated",
		zap.Int64("uid", uid),
		zap.String("db", t.db),
		zap.String("op", "authenticate"),
	)
	return nil
}

func (t *Transport) connection(ctx context.Context) (int64, *xmlrpc.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.uid == 0 || t.object == nil || time.Since(t.lastAuth) >= t.authTimeout {
		if t.object != nil {
			t.object.Close()
			t.object = nil
		}
		if err := t.authenticate(ctx); err != nil {
			return 0, nil, err
		}
	}
	return t.uid, t.object, nil
}

// execute calls execute_kw on the object endpoint. The blocking call
// runs in a goroutine so a canceled context returns early.
func (t *Transport) execute(
	ctx context.Context,
	model, method string,
	args []any,
	kwargs map[string]any,
	reply any,
) error {
	uid, client, err := t.connection(ctx)
	if err != nil {
		return err
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	callArgs := []any{t.db, uid, t.password, model, method, args, kwargs}

	done := make(chan error, 1)
	go func() {
		done <- client.Call("execute_kw", callArgs, reply)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err = <-done:
		if err != nil {
			t.logger.Error(
				"call failed",
				zap.Error(err),
				zap.String("model", model),
				zap.String("method", method),
			)
			return fmt.Errorf("%w: %s.%s: %w", ErrRPC, model, method, err)
		}
	}
	return nil
}

type attachment struct {
	ID    int64  `xmlrpc:"id"`
	Name  string `xmlrpc:"name"`
	Datas any    `xmlrpc:"datas"`
}

func (t *Transport) domain(extra ...[]any) []any {
	domain := []any{[]any{"res_model", "=", t.resModel}}
	for _, d := range extra {
		domain = append(domain, d)
	}
	return domain
}

// Put creates an attachment holding data
func (t *Transport) Put(ctx context.Context, name string, data []byte) error {
	values := map[string]any{
		"name":      name,
		"datas":     base64.StdEncoding.EncodeToString(data),
		"res_model": t.resModel,
		"mimetype":  mimeType,
	}
	var id int64
	if err := t.execute(ctx, attachmentModel, "create", []any{values}, nil, &id); err != nil {
		return err
	}
	t.logger.Debug(
		"created attachment",
		zap.Int64("id", id),
		zap.String("name", name),
		zap.Int("size", len(data)),
		zap.String("op", "Put"),
	)
	return nil
}

// List returns the names of the attachments linked to the model,
// oldest first
func (t *Transport) List(ctx context.Context) ([]string, error) {
	var records []attachment
	err := t.execute(
		ctx, attachmentModel, "search_read",
		[]any{t.domain()},
		map[string]any{"fields": []any{"name"}, "order": "id asc"},
		&records,
	)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return names, nil
}

// Get returns the content of the most recent attachment with the given
// name
func (t *Transport) Get(ctx context.Context, name string) ([]byte, error) {
	var records []attachment
	err := t.execute(
		ctx, attachmentModel, "search_read",
		[]any{t.domain([]any{"name", "=", name})},
		map[string]any{"fields": []any{"name", "datas"}, "order": "id desc", "limit": 1},
		&records,
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}
	encoded, ok := records[0].Datas.(string)
	if !ok {
		return nil, fmt.Errorf("%w: attachment '%s' has no content", ErrInvalidResponse, name)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return data, nil
}
