package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/execctx"
	"github.com/balazsgrill/actiongate/internal/registry"
	"github.com/balazsgrill/actiongate/internal/resolver"
	"github.com/balazsgrill/actiongate/internal/token"
	"github.com/balazsgrill/actiongate/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

type greetConfig struct {
	Greeting string `json:"greeting" validate:"required"`
}

type greeter struct {
	execctx.Instance
	config greetConfig
}

func (g *greeter) Validate(_ context.Context, config, _ actiongate.Document) (interface{}, error) {
	var c greetConfig
	if err := validate.Decode(config, &c); err != nil {
		return nil, err
	}
	return c, nil
}

func (g *greeter) SetUp(_ context.Context, init actiongate.Document) error {
	return validate.Decode(init, &g.config)
}

func (g *greeter) Run(_ context.Context, params actiongate.Document) (actiongate.Result, error) {
	name, _ := params["name"].(string)
	if name == "" {
		return actiongate.Result{}, errors.New("nobody to greet")
	}
	g.Console().Infof("greeting %s", name)
	g.Node()["greeted"] = name
	return actiongate.Result{Port: actiongate.PortResponse, Value: g.config.Greeting + " " + name}, nil
}

func newGreeter() actiongate.Action { return &greeter{} }

type recorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *recorder) Executed(_ context.Context, o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func newDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	reg, err := registry.New(registry.Service{
		ID:   "svc",
		Name: "Greetings",
		Resource: &registry.Resource{
			Init: actiongate.Document{"greeting": ""},
			Validator: func(_ context.Context, config, _ actiongate.Document) (interface{}, error) {
				var c greetConfig
				return c, validate.Decode(config, &c)
			},
		},
		Actions: []registry.Action{
			{ID: "hello", Name: "Hello", Factory: newGreeter, Validator: actiongate.ValidatorOf(newGreeter),
				Registry: registry.Plugin{Spec: registry.Spec{Init: actiongate.Document{"greeting": "Hello"}}}},
		},
	}, registry.Service{ID: "bare", Name: "Bare"})
	require.NoError(t, err)

	res, err := resolver.New("services", resolver.Module{
		Path: "services.greet",
		Endpoints: map[string]resolver.Endpoint{
			"echo": func(_ context.Context, body actiongate.Document) (interface{}, error) { return body, nil },
		},
	})
	require.NoError(t, err)

	return New(token.New("secret", testKey), reg, res, opts...)
}

func TestAuthenticate(t *testing.T) {
	d := newDispatcher(t)
	ctx := d.Begin(context.Background())

	tok, err := d.Issue(testKey)
	require.NoError(t, err)
	assert.NoError(t, d.Authenticate(ctx, "Bearer "+tok))

	for _, header := range []string{"", "bearer " + tok, "Basic " + tok, "Bearer", "Bearer garbage"} {
		err := d.Authenticate(ctx, header)
		var authErr *AuthError
		assert.ErrorAs(t, err, &authErr, header)
	}

	_, err = d.Issue("wrong")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, token.ErrKeyMismatch)
}

func TestListingJSONKeepsOrder(t *testing.T) {
	d := newDispatcher(t)
	b, err := json.Marshal(d.Services())
	require.NoError(t, err)
	assert.Equal(t, `{"total":2,"result":{"svc":"Greetings","bare":"Bare"}}`, string(b))

	b, err = json.Marshal(d.Actions("missing"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":0,"result":{}}`, string(b))
}

func TestForm(t *testing.T) {
	d := newDispatcher(t)
	assert.Equal(t, actiongate.Document{"greeting": "Hello"}, d.Form("svc", "hello").Init)
	missing := d.Form("svc", "missing")
	assert.Equal(t, actiongate.Document{}, missing.Init)
	assert.Nil(t, missing.Form)
}

func TestRun(t *testing.T) {
	rec := &recorder{}
	d := newDispatcher(t, WithNotifier(rec))
	ctx := d.Begin(context.Background())

	body := `{"context":{"node":{"id":"n1"},"event":{"id":"e1"}},"params":{"name":"Ada"},"init":{"greeting":"Hi"}}`
	out, err := d.Run(ctx, "svc", "hello", []byte(body))
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, actiongate.Result{Port: "response", Value: "Hi Ada"}, out.Result)
	node := actiongate.Object(out.Context["node"])
	assert.Equal(t, "n1", node["id"])
	assert.Equal(t, "greeter", node["className"])
	assert.Equal(t, "github.com/balazsgrill/actiongate/internal/dispatch", node["module"])
	assert.Equal(t, "Ada", node["greeted"])
	_, leaked := out.Context["event"]
	assert.False(t, leaked)
	require.Len(t, out.Console, 1)
	assert.Equal(t, "greeting Ada", out.Console[0].Message)

	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, ExecutionID(ctx), rec.outcomes[0].ExecutionID)
	assert.NotEmpty(t, rec.outcomes[0].ExecutionID)
	assert.Equal(t, "response", rec.outcomes[0].Port)
}

func TestRunCreatesMissingNode(t *testing.T) {
	d := newDispatcher(t)
	out, err := d.Run(context.Background(), "svc", "hello",
		[]byte(`{"context":{},"params":{"name":"Bob"},"init":{"greeting":"Yo"}}`))
	require.NoError(t, err)
	assert.Equal(t, "greeter", actiongate.Object(out.Context["node"])["className"])
}

func TestRunUnknownActionIsEmpty(t *testing.T) {
	d := newDispatcher(t)
	out, err := d.Run(context.Background(), "svc", "missing", []byte(`{"context":{},"params":{},"init":{}}`))
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestRunErrors(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	_, err := d.Run(ctx, "svc", "hello", []byte(`{"context":{},"params":{}}`))
	var fieldErr *validate.Error
	require.ErrorAs(t, err, &fieldErr)
	assert.Contains(t, fieldErr.Fields, "init")

	_, err = d.Run(ctx, "svc", "hello", []byte(`{"context":{},"params":{"name":"x"},"init":{}}`))
	require.ErrorAs(t, err, &fieldErr)
	assert.Contains(t, fieldErr.Fields, "greeting")

	_, err = d.Run(ctx, "svc", "hello", []byte(`{"context":{},"params":{},"init":{"greeting":"Hi"}}`))
	require.Error(t, err)
	assert.False(t, errors.As(err, &fieldErr))
	assert.True(t, strings.HasPrefix(err.Error(), "run greeter"))
}

func TestValidate(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	out, err := d.Validate(ctx, "svc", "hello", []byte(`{"config":{"greeting":"Hi"}}`))
	require.NoError(t, err)
	assert.Equal(t, greetConfig{Greeting: "Hi"}, out)

	_, err = d.Validate(ctx, "svc", "hello", []byte(`{"config":{}}`))
	var fieldErr *validate.Error
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, []string{"field required"}, fieldErr.Fields["greeting"])

	_, err = d.Validate(ctx, "svc", "missing", []byte(`{"config":{}}`))
	assert.ErrorIs(t, err, registry.ErrMissingValidator)
}

func TestValidateResource(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	ok, err := d.ValidateResource(ctx, "svc", []byte(`{"greeting":"Hi"}`))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = d.ValidateResource(ctx, "svc", []byte(`{}`))
	var fieldErr *validate.Error
	assert.ErrorAs(t, err, &fieldErr)

	_, err = d.ValidateResource(ctx, "bare", []byte(`{}`))
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCall(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	out, err := d.Call(ctx, "services.greet", "echo", []byte(`{"x":"y"}`))
	require.NoError(t, err)
	assert.Equal(t, actiongate.Document{"x": "y"}, out)

	_, err = d.Call(ctx, "os", "exec", nil)
	assert.ErrorIs(t, err, resolver.ErrNotAllowed)
	_, err = d.Call(ctx, "services.greet", "nope", nil)
	assert.ErrorIs(t, err, resolver.ErrNotFound)
}
