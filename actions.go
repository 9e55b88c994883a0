package actiongate

import "context"

// Document is a decoded JSON object exchanged with the orchestrator.
type Document = map[string]interface{}

// Result is what an action returns: the outcome port it selected and the value
// travelling on it. The gateway forwards it without interpreting the port.
type Result struct {
	Port  string      `json:"port"`
	Value interface{} `json:"value"`
}

// Action is the capability every invocable unit implements. A fresh instance
// is created for each call.
type Action interface {
	// Validate checks a raw configuration document, optionally against the
	// service credentials, and returns the normalised configuration.
	Validate(ctx context.Context, config, credentials Document) (interface{}, error)
	// SetUp builds the typed configuration from the init document.
	SetUp(ctx context.Context, init Document) error
	// Run executes the action with the call parameters.
	Run(ctx context.Context, params Document) (Result, error)
}

// Factory returns a new, unconfigured action instance.
type Factory func() Action

// Validator checks a raw configuration document before execution.
type Validator func(ctx context.Context, config, credentials Document) (interface{}, error)

// ValidatorOf builds a Validator that delegates to a throwaway instance.
func ValidatorOf(factory Factory) Validator {
	return func(ctx context.Context, config, credentials Document) (interface{}, error) {
		return factory().Validate(ctx, config, credentials)
	}
}

const (
	PortResponse = "response"
	PortError    = "error"
)

// Lookup walks nested objects along path.
func Lookup(doc Document, path ...string) (interface{}, bool) {
	var cur interface{} = doc
	for _, key := range path {
		obj, ok := cur.(Document)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Object returns v as a Document, or an empty one when v is not an object.
func Object(v interface{}) Document {
	if obj, ok := v.(Document); ok && obj != nil {
		return obj
	}
	return Document{}
}
