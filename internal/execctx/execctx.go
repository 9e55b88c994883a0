// Package execctx moves the declared context keys onto a freshly created
// action instance before it runs and reads them back afterwards. Keys that
// are not declared never reach the instance and are never returned.
package execctx

import (
	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/console"
)

// KeyNode is the workflow node identity carried in every execution context.
const KeyNode = "node"

// DefaultInclude is the set of context keys exchanged with an action.
var DefaultInclude = []string{KeyNode}

// Contextual is implemented by action instances that accept context values.
type Contextual interface {
	SetContextValue(key string, value interface{})
	ContextValue(key string) (interface{}, bool)
}

// Set copies the included keys of doc onto instance.
func Set(instance interface{}, doc actiongate.Document, include []string) {
	c, ok := instance.(Contextual)
	if !ok {
		return
	}
	for _, key := range include {
		if v, found := doc[key]; found {
			c.SetContextValue(key, v)
		}
	}
}

// Get reads the included keys back from instance.
func Get(instance interface{}, include []string) actiongate.Document {
	out := actiongate.Document{}
	c, ok := instance.(Contextual)
	if !ok {
		return out
	}
	for _, key := range include {
		if v, found := c.ContextValue(key); found {
			out[key] = v
		}
	}
	return out
}

// Instance is embedded by actions to receive context values and the console.
type Instance struct {
	values  actiongate.Document
	console *console.Console
}

func (i *Instance) SetContextValue(key string, value interface{}) {
	if i.values == nil {
		i.values = actiongate.Document{}
	}
	i.values[key] = value
}

func (i *Instance) ContextValue(key string) (interface{}, bool) {
	v, ok := i.values[key]
	return v, ok
}

func (i *Instance) AttachConsole(c *console.Console) {
	i.console = c
}

// Console never returns nil.
func (i *Instance) Console() *console.Console {
	if i.console == nil {
		i.console = console.New("")
	}
	return i.console
}

// Node returns the node document of the current execution.
func (i *Instance) Node() actiongate.Document {
	v, _ := i.ContextValue(KeyNode)
	return actiongate.Object(v)
}

// Resource returns the service resource (credentials or locations) the
// orchestrator attached to the node.
func (i *Instance) Resource() actiongate.Document {
	v, _ := actiongate.Lookup(i.Node(), "microservice", "plugin", "resource")
	return actiongate.Object(v)
}
