// Package dispatch turns an authenticated request into a validated,
// lifecycle managed action execution:
//
//	AUTHENTICATING -> RESOLVING -> VALIDATING -> SETTING_UP -> RUNNING -> RESPONDING
//
// with REJECTED and FAILED reachable from every step. A fresh action instance
// is created for each call and nothing outlives the call except what the
// response carries.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/console"
	"github.com/balazsgrill/actiongate/internal/ctxlog"
	"github.com/balazsgrill/actiongate/internal/execctx"
	"github.com/balazsgrill/actiongate/internal/registry"
	"github.com/balazsgrill/actiongate/internal/resolver"
	"github.com/balazsgrill/actiongate/internal/token"
	"github.com/balazsgrill/actiongate/internal/validate"
	"github.com/google/uuid"
)

type State string

const (
	Authenticating State = "AUTHENTICATING"
	Resolving      State = "RESOLVING"
	Validating     State = "VALIDATING"
	SettingUp      State = "SETTING_UP"
	Running        State = "RUNNING"
	Responding     State = "RESPONDING"
	Rejected       State = "REJECTED"
	Failed         State = "FAILED"
)

// Outcome summarises a finished run for observers.
type Outcome struct {
	ExecutionID string          `json:"execution_id"`
	ServiceID   string          `json:"service_id"`
	ActionID    string          `json:"action_id"`
	Port        string          `json:"port"`
	Console     []console.Entry `json:"console"`
}

// Notifier is told about every completed run.
type Notifier interface {
	Executed(ctx context.Context, outcome Outcome)
}

// ExecutionRequest is the body of a run call.
type ExecutionRequest struct {
	Context actiongate.Document `json:"context" validate:"required"`
	Params  actiongate.Document `json:"params" validate:"required"`
	Init    actiongate.Document `json:"init" validate:"required"`
}

// ExecutionResult is the body of a successful run response.
type ExecutionResult struct {
	Result  actiongate.Result   `json:"result"`
	Context actiongate.Document `json:"context"`
	Console []console.Entry     `json:"console"`
}

// ValidationRequest is the body of a config validation call.
type ValidationRequest struct {
	Config      actiongate.Document `json:"config" validate:"required"`
	Credentials actiongate.Document `json:"credentials"`
}

// FormResponse carries the default configuration and editor of an action.
type FormResponse struct {
	Init actiongate.Document `json:"init"`
	Form *registry.Form      `json:"form"`
}

type Dispatcher struct {
	codec    *token.Codec
	registry *registry.Registry
	resolver *resolver.Resolver
	notifier Notifier
	logger   *slog.Logger
}

type Option func(*Dispatcher)

func WithNotifier(n Notifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func New(codec *token.Codec, reg *registry.Registry, res *resolver.Resolver, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		codec:    codec,
		registry: reg,
		resolver: res,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type execIDKey struct{}

// Begin opens the execution scope of one request. The returned context
// carries the execution id and a logger annotated with it.
func (d *Dispatcher) Begin(ctx context.Context) context.Context {
	id := uuid.NewString()
	ctx = context.WithValue(ctx, execIDKey{}, id)
	return ctxlog.WithLogger(ctx, d.logger.With("execution_id", id))
}

// ExecutionID returns the id assigned by Begin, or an empty string.
func ExecutionID(ctx context.Context) string {
	id, _ := ctx.Value(execIDKey{}).(string)
	return id
}

type execution struct {
	log   *slog.Logger
	state State
}

func track(ctx context.Context, start State) *execution {
	e := &execution{log: ctxlog.FromContext(ctx), state: start}
	e.log.Debug("execution state", "state", start)
	return e
}

func (e *execution) enter(s State) {
	e.log.Debug("execution state", "from", e.state, "state", s)
	e.state = s
}

// stop moves the execution to REJECTED or FAILED and returns err unchanged.
func (e *execution) stop(err error) error {
	if rejection(err) {
		e.enter(Rejected)
	} else {
		e.enter(Failed)
		e.log.Error("execution failed", "error", err)
	}
	return err
}

func rejection(err error) bool {
	var authErr *AuthError
	var fieldErr *validate.Error
	return errors.As(err, &authErr) ||
		errors.As(err, &fieldErr) ||
		errors.Is(err, resolver.ErrNotAllowed) ||
		errors.Is(err, resolver.ErrNotFound)
}

// Authenticate checks a raw Authorization header.
func (d *Dispatcher) Authenticate(ctx context.Context, header string) error {
	e := track(ctx, Authenticating)
	if header == "" {
		return e.stop(&AuthError{Detail: "Not authenticated"})
	}
	scheme, credentials, _ := strings.Cut(header, " ")
	if scheme != "Bearer" {
		return e.stop(&AuthError{Detail: "Invalid authentication scheme."})
	}
	if err := d.codec.Authorize(strings.TrimSpace(credentials)); err != nil {
		return e.stop(&AuthError{Detail: "Invalid token.", Err: err})
	}
	return nil
}

// Issue mints a bearer token for key.
func (d *Dispatcher) Issue(key string) (string, error) {
	tok, err := d.codec.Issue(key)
	if err != nil {
		return "", &AuthError{Detail: "Wrong Api Key", Err: err}
	}
	return tok, nil
}

// Listing is an ordered id to name mapping with its size.
type Listing []registry.Entry

func (l Listing) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `{"total":%d,"result":{`, len(l))
	for i, e := range l {
		if i > 0 {
			b.WriteByte(',')
		}
		id, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		name, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		b.Write(id)
		b.WriteByte(':')
		b.Write(name)
	}
	b.WriteString("}}")
	return []byte(b.String()), nil
}

func (d *Dispatcher) Services() Listing {
	return Listing(d.registry.Services())
}

func (d *Dispatcher) Actions(serviceID string) Listing {
	return Listing(d.registry.Actions(serviceID))
}

func (d *Dispatcher) Form(serviceID, actionID string) FormResponse {
	init, form := d.registry.Form(serviceID, actionID)
	if init == nil {
		init = actiongate.Document{}
	}
	return FormResponse{Init: init, Form: form}
}

// Resource returns the resource descriptor without its validator.
func (d *Dispatcher) Resource(serviceID string) *registry.Resource {
	return d.registry.Resource(serviceID)
}

func (d *Dispatcher) PluginRegistry(serviceID string) *registry.Plugin {
	return d.registry.PluginRegistry(serviceID)
}

// ValidateResource checks a credential or location document against the
// service resource schema.
func (d *Dispatcher) ValidateResource(ctx context.Context, serviceID string, raw []byte) (bool, error) {
	e := track(ctx, Resolving)
	res := d.registry.Resource(serviceID)
	if res == nil {
		return false, e.stop(&ConfigurationError{Message: fmt.Sprintf("service %s has no resource defined", serviceID)})
	}
	if res.Validator == nil {
		return false, e.stop(&ConfigurationError{Message: fmt.Sprintf("service %s has no resource validator", serviceID)})
	}

	e.enter(Validating)
	var doc actiongate.Document
	if err := validate.DecodeJSON(raw, &doc); err != nil {
		return false, e.stop(err)
	}
	if _, err := res.Validator(ctx, doc, nil); err != nil {
		return false, e.stop(err)
	}
	e.enter(Responding)
	return true, nil
}

// Validate checks an action configuration, optionally against credentials.
func (d *Dispatcher) Validate(ctx context.Context, serviceID, actionID string, raw []byte) (interface{}, error) {
	e := track(ctx, Resolving)
	var req ValidationRequest
	if err := validate.DecodeJSON(raw, &req); err != nil {
		return nil, e.stop(err)
	}
	validator, err := d.registry.Validator(serviceID, actionID)
	if err != nil {
		return nil, e.stop(err)
	}

	e.enter(Validating)
	out, err := validator(ctx, req.Config, req.Credentials)
	if err != nil {
		return nil, e.stop(err)
	}
	e.enter(Responding)
	return out, nil
}

// Run executes an action. An unknown service or action yields a nil result
// and no error.
func (d *Dispatcher) Run(ctx context.Context, serviceID, actionID string, raw []byte) (*ExecutionResult, error) {
	e := track(ctx, Resolving)
	var req ExecutionRequest
	if err := validate.DecodeJSON(raw, &req); err != nil {
		return nil, e.stop(err)
	}
	factory := d.registry.Factory(serviceID, actionID)
	if factory == nil {
		e.log.Debug("action not found", "service_id", serviceID, "action_id", actionID)
		e.enter(Responding)
		return nil, nil
	}

	action := factory()
	className, module := typeName(action)
	con := console.New(className)
	if a, ok := action.(console.Attacher); ok {
		a.AttachConsole(con)
	}

	if req.Context == nil {
		req.Context = actiongate.Document{}
	}
	node, ok := req.Context[execctx.KeyNode].(actiongate.Document)
	if !ok {
		node = actiongate.Document{}
		req.Context[execctx.KeyNode] = node
	}
	node["className"] = className
	node["module"] = module
	execctx.Set(action, req.Context, execctx.DefaultInclude)

	e.enter(SettingUp)
	if err := action.SetUp(ctx, req.Init); err != nil {
		return nil, e.stop(fmt.Errorf("set up %s: %w", className, err))
	}

	e.enter(Running)
	result, err := action.Run(ctx, req.Params)
	if err != nil {
		return nil, e.stop(fmt.Errorf("run %s: %w", className, err))
	}

	e.enter(Responding)
	out := &ExecutionResult{
		Result:  result,
		Context: execctx.Get(action, execctx.DefaultInclude),
		Console: con.Entries(),
	}
	if d.notifier != nil {
		d.notifier.Executed(ctx, Outcome{
			ExecutionID: ExecutionID(ctx),
			ServiceID:   serviceID,
			ActionID:    actionID,
			Port:        result.Port,
			Console:     out.Console,
		})
	}
	return out, nil
}

// Call invokes an ad-hoc helper endpoint.
func (d *Dispatcher) Call(ctx context.Context, module, fn string, raw []byte) (interface{}, error) {
	e := track(ctx, Resolving)
	if d.resolver == nil {
		return nil, e.stop(fmt.Errorf("%w: no helper endpoints registered", resolver.ErrNotFound))
	}
	if _, err := d.resolver.Lookup(module, fn); err != nil {
		return nil, e.stop(err)
	}

	e.enter(Running)
	out, err := d.resolver.Call(ctx, module, fn, raw)
	if err != nil {
		return nil, e.stop(err)
	}
	e.enter(Responding)
	return out, nil
}

func typeName(v interface{}) (name, pkg string) {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name(), t.PkgPath()
}
