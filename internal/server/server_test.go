package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/dispatch"
	"github.com/balazsgrill/actiongate/internal/execctx"
	"github.com/balazsgrill/actiongate/internal/registry"
	"github.com/balazsgrill/actiongate/internal/resolver"
	"github.com/balazsgrill/actiongate/internal/token"
	"github.com/balazsgrill/actiongate/internal/validate"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = strings.Repeat("a", 32)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type echoConfig struct {
	Prefix string `json:"prefix" validate:"required"`
}

type echoAction struct {
	execctx.Instance
	config echoConfig
}

func (a *echoAction) Validate(_ context.Context, config, _ actiongate.Document) (interface{}, error) {
	var c echoConfig
	if err := validate.Decode(config, &c); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *echoAction) SetUp(_ context.Context, init actiongate.Document) error {
	return validate.Decode(init, &a.config)
}

func (a *echoAction) Run(_ context.Context, params actiongate.Document) (actiongate.Result, error) {
	if params["boom"] == true {
		panic("kaboom")
	}
	a.Console().Info("echo")
	return actiongate.Result{Port: actiongate.PortResponse, Value: a.config.Prefix + ":" + dotString(params["text"])}, nil
}

func dotString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func newEcho() actiongate.Action { return &echoAction{} }

type fakeHealth bool

func (f fakeHealth) IsConnected() bool { return bool(f) }

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	reg, err := registry.New(registry.Service{
		ID:   "svc",
		Name: "Echo",
		Resource: &registry.Resource{
			Form: &registry.Form{Groups: []registry.FormGroup{{Name: "Connection", Fields: []registry.FormField{{ID: "prefix", Name: "Prefix"}}}}},
			Init: actiongate.Document{"prefix": ""},
			Validator: func(_ context.Context, config, _ actiongate.Document) (interface{}, error) {
				var c echoConfig
				if err := validate.Decode(config, &c); err != nil {
					return nil, err
				}
				return c, nil
			},
		},
		Plugin: registry.Plugin{Metadata: registry.Metadata{Name: "Echo Microservice"}},
		Actions: []registry.Action{{
			ID: "echo", Name: "Echo", Factory: newEcho, Validator: actiongate.ValidatorOf(newEcho),
			Registry: registry.Plugin{Spec: registry.Spec{
				Init: actiongate.Document{"prefix": ">"},
				Form: &registry.Form{Groups: []registry.FormGroup{{Name: "Plugin configuration"}}},
			}},
		}},
	}, registry.Service{ID: "bare", Name: "Bare"})
	require.NoError(t, err)

	res, err := resolver.New("services", resolver.Module{
		Path: "services.echo",
		Endpoints: map[string]resolver.Endpoint{
			"upper": func(_ context.Context, body actiongate.Document) (interface{}, error) {
				return strings.ToUpper(dotString(body["text"])), nil
			},
			"strict": func(_ context.Context, body actiongate.Document) (interface{}, error) {
				var c echoConfig
				if err := validate.Decode(body, &c); err != nil {
					return nil, err
				}
				return c, nil
			},
		},
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := dispatch.New(token.New("secret", testKey), reg, res, dispatch.WithLogger(logger))
	return New(":0", d, logger, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, target, auth, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, h http.Handler) string {
	w := do(t, h, http.MethodGet, "/api-key/"+testKey, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tok TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.AccessToken)
	return "Bearer " + tok.AccessToken
}

func TestTokenExchange(t *testing.T) {
	h := newTestServer(t)
	auth := bearer(t, h)

	w := do(t, h, http.MethodGet, "/services", auth, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"total":2,"result":{"svc":"Echo","bare":"Bare"}}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/api-key/wrong", "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"detail":"Wrong Api Key"}`, w.Body.String())
}

func TestAuthRequired(t *testing.T) {
	h := newTestServer(t)
	auth := bearer(t, h)

	for _, header := range []string{"", "Basic abc", "Bearer garbage", strings.Replace(auth, "Bearer", "bearer", 1)} {
		w := do(t, h, http.MethodGet, "/services", header, "")
		assert.Equal(t, http.StatusForbidden, w.Code, header)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Detail)
	}

	other := token.New("secret", strings.Repeat("b", 32))
	tok, err := other.Issue(strings.Repeat("b", 32))
	require.NoError(t, err)
	w := do(t, h, http.MethodGet, "/services", "Bearer "+tok, "")
	assert.Equal(t, http.StatusForbidden, w.Code, "token for another key")
}

func TestListActions(t *testing.T) {
	h := newTestServer(t)
	auth := bearer(t, h)

	w := do(t, h, http.MethodGet, "/actions?service_id=svc", auth, "")
	assert.Equal(t, `{"total":1,"result":{"echo":"Echo"}}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/actions?service_id=missing", auth, "")
	assert.JSONEq(t, `{"total":0,"result":{}}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/actions", auth, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"service_id":["field required"]}`, w.Body.String())
}

func TestPluginForm(t *testing.T) {
	h := newTestServer(t)
	auth := bearer(t, h)

	w := do(t, h, http.MethodGet, "/plugin/form?service_id=svc&action_id=echo", auth, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Init actiongate.Document `json:"init"`
		Form *registry.Form      `json:"form"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, actiongate.Document{"prefix": ">"}, got.Init)
	require.NotNil(t, got.Form)
	assert.Equal(t, "Plugin configuration", got.Form.Groups[0].Name)

	w = do(t, h, http.MethodGet, "/plugin/form?service_id=svc&action_id=nope", auth, "")
	assert.JSONEq(t, `{"init":{},"form":null}`, w.Body.String())
}

func TestServiceResourceAndRegistry(t *testing.T) {
	h := newTestServer(t)
	auth := bearer(t, h)

	w := do(t, h, http.MethodGet, "/service/resource?service_id=svc", auth, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "alidator")
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, map[string]interface{}{"prefix": ""}, res["init"])

	w = do(t, h, http.MethodGet, "/service/resource?service_id=missing", auth, "")
	assert.Equal(t, "null", w.Body.String())

	w = do(t, h, http.MethodGet, "/plugin/registry?service_id=svc", auth, "")
	assert.Contains(t, w.Body.String(), `"name":"Echo Microservice"`)
	w = do(t, h, http.MethodGet, "/plugin/registry?service_id=missing", auth, "")
	assert.Equal(t, "null", w.Body.String())
}

func TestValidateResource(t *testing.T) {
	h := newTestServer(t)
	auth := bearer(t, h)

	w := do(t, h, http.MethodPost, "/service/resource/validate?service_id=svc", auth, `{"prefix":"x"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Body.String())

	w = do(t, h, http.MethodPost, "/service/resource/validate?service_id=svc", auth, `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"prefix":["field required"]}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/service/resource/validate?service_id=bare", auth, `{}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"details"`)
}

func TestValidatePlugin(t *testing.T) {
	h := newTestServer(t)
	auth := bearer(t, h)

	w := do(t, h, http.MethodPost, "/plugin/validate?service_id=svc&action_id=echo", auth, `{"config":{"prefix":"p"}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"prefix":"p"}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/plugin/validate?service_id=svc&action_id=echo", auth, `{"config":{"prefix":3}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"prefix"`)
}

func TestRunPlugin(t *testing.T) {
	h := newTestServer(t)
	auth := bearer(t, h)

	body := `{"context":{"node":{"id":"n"},"profile":{"id":"p"}},"params":{"text":"hi"},"init":{"prefix":">"}}`
	w := do(t, h, http.MethodPost, "/plugin/run?service_id=svc&action_id=echo", auth, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got struct {
		Result  actiongate.Result   `json:"result"`
		Context actiongate.Document `json:"context"`
		Console []map[string]string `json:"console"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, actiongate.Result{Port: "response", Value: ">:hi"}, got.Result)
	assert.Equal(t, []string{"node"}, keys(got.Context))
	assert.Equal(t, "echoAction", actiongate.Object(got.Context["node"])["className"])
	require.Len(t, got.Console, 1)
	assert.Equal(t, "echo", got.Console[0]["message"])

	_, err := strconv.ParseFloat(w.Header().Get(ProcessTimeHeader), 64)
	assert.NoError(t, err)
}

func keys(doc actiongate.Document) []string {
	out := make([]string, 0, len(doc))
	for k := range doc {
		out = append(out, k)
	}
	return out
}

func TestRunUnknownActionReturnsEmptyObject(t *testing.T) {
	h := newTestServer(t)
	auth := bearer(t, h)

	w := do(t, h, http.MethodPost, "/plugin/run?service_id=svc&action_id=missing", auth, `{"context":{},"params":{},"init":{}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "{}", w.Body.String())
}

func TestRunValidationAndPanic(t *testing.T) {
	h := newTestServer(t)
	auth := bearer(t, h)

	w := do(t, h, http.MethodPost, "/plugin/run?service_id=svc&action_id=echo", auth, `{"context":{},"params":{},"init":{}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"prefix":["field required"]}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/plugin/run?service_id=svc&action_id=echo", auth, `{"context":{},"params":{"boom":true},"init":{"prefix":"x"}}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"details":"kaboom"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(ProcessTimeHeader))
}

func TestHelperEndpoints(t *testing.T) {
	h := newTestServer(t)
	auth := bearer(t, h)

	w := do(t, h, http.MethodPost, "/plugin/services.echo/upper", auth, `{"text":"abc"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"ABC"`, w.Body.String())

	w = do(t, h, http.MethodPost, "/plugin/services.echo/upper", auth, `not json`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `""`, w.Body.String())

	w = do(t, h, http.MethodPost, "/plugin/services.echo/strict", auth, `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	for _, target := range []string{"/plugin/os/exit", "/plugin/services.echo/missing", "/plugin/services.nope/upper"} {
		w = do(t, h, http.MethodPost, target, auth, `{}`)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Contains(t, w.Body.String(), `"detail"`, target)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/services", nil)
	req.Header.Set("Origin", "https://console.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "Authorization, X-Tenant-Trace")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "https://console.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Authorization, X-Tenant-Trace", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, newTestServer(t, WithHealth(fakeHealth(false))), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","detail":"MQTT not connected"}`, w.Body.String())
}
