package resolver

import (
	"context"
	"testing"

	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(_ context.Context, body actiongate.Document) (interface{}, error) {
	return body, nil
}

func newResolver(t *testing.T) *Resolver {
	r, err := New("services",
		Module{Path: "services.echo", Endpoints: map[string]Endpoint{
			"echo": echo,
			"ping": NoArg(func(context.Context) (interface{}, error) { return "pong", nil }),
		}},
	)
	require.NoError(t, err)
	return r
}

func TestCall(t *testing.T) {
	r := newResolver(t)

	out, err := r.Call(context.Background(), "services.echo", "echo", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, actiongate.Document{"a": float64(1)}, out)

	out, err = r.Call(context.Background(), "services.echo", "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

func TestInvalidBodyBecomesEmptyDocument(t *testing.T) {
	r := newResolver(t)
	for _, raw := range []string{"", "not json", "[1,2]", "null"} {
		out, err := r.Call(context.Background(), "services.echo", "echo", []byte(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, actiongate.Document{}, out, raw)
	}
}

func TestRejectsOutsidePrefix(t *testing.T) {
	r := newResolver(t)
	for _, module := range []string{"os", "servicesx", "app.services.echo", ""} {
		_, err := r.Call(context.Background(), module, "echo", nil)
		assert.ErrorIs(t, err, ErrNotAllowed, module)
	}
}

func TestNotFound(t *testing.T) {
	r := newResolver(t)
	_, err := r.Call(context.Background(), "services.missing", "echo", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Call(context.Background(), "services.echo", "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRejectsBadModules(t *testing.T) {
	_, err := New("services", Module{Path: "other.x"})
	assert.Error(t, err)
	_, err = New("services", Module{Path: "services.a"}, Module{Path: "services.a"})
	assert.Error(t, err)
}

type greetRequest struct {
	Name string `json:"name" validate:"required"`
}

func TestWithBody(t *testing.T) {
	ep := WithBody(func(_ context.Context, req greetRequest) (interface{}, error) {
		return "hello " + req.Name, nil
	})
	r, err := New("services", Module{Path: "services.greet", Endpoints: map[string]Endpoint{"greet": ep}})
	require.NoError(t, err)

	out, err := r.Call(context.Background(), "services.greet", "greet", []byte(`{"name":"Ann"}`))
	require.NoError(t, err)
	assert.Equal(t, "hello Ann", out)

	_, err = r.Call(context.Background(), "services.greet", "greet", []byte(`{}`))
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"field required"}, verr.Fields["name"])
}
