package registry

import "github.com/balazsgrill/actiongate"

// Plugin is the registry metadata the orchestrator shows for a service or
// an action.
type Plugin struct {
	Start    bool     `json:"start"`
	Spec     Spec     `json:"spec"`
	Metadata Metadata `json:"metadata"`
}

type Spec struct {
	Module    string              `json:"module"`
	ClassName string              `json:"className"`
	Inputs    []string            `json:"inputs"`
	Outputs   []string            `json:"outputs"`
	Init      actiongate.Document `json:"init"`
	Form      *Form               `json:"form"`
	Version   string              `json:"version"`
	License   string              `json:"license"`
	Author    string              `json:"author"`
	Manual    string              `json:"manual,omitempty"`
}

type Metadata struct {
	Name          string         `json:"name"`
	Desc          string         `json:"desc"`
	Icon          string         `json:"icon"`
	Tags          []string       `json:"tags"`
	Group         []string       `json:"group"`
	Remote        bool           `json:"remote"`
	Frontend      bool           `json:"frontend"`
	Pro           bool           `json:"pro"`
	Documentation *Documentation `json:"documentation"`
}

type Documentation struct {
	Inputs  map[string]PortDoc `json:"inputs"`
	Outputs map[string]PortDoc `json:"outputs"`
}

type PortDoc struct {
	Desc string `json:"desc"`
}

// Form describes the configuration editor rendered by the orchestrator.
type Form struct {
	Groups []FormGroup `json:"groups"`
}

type FormGroup struct {
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Fields      []FormField `json:"fields"`
}

type FormField struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Required    bool          `json:"required"`
	Component   FormComponent `json:"component"`
}

type FormComponent struct {
	Type  string              `json:"type"`
	Props actiongate.Document `json:"props"`
}

// PayloadPorts is the port documentation shared by actions that take a
// payload and answer on response or error.
func PayloadPorts(response, failure string) *Documentation {
	return &Documentation{
		Inputs: map[string]PortDoc{
			"payload": {Desc: "This port takes payload object."},
		},
		Outputs: map[string]PortDoc{
			actiongate.PortResponse: {Desc: response},
			actiongate.PortError:    {Desc: failure},
		},
	}
}

// MicroservicePlugin is the registry entry the orchestrator uses to place a
// whole service on a workflow. Only the metadata differs between services.
func MicroservicePlugin(meta Metadata) Plugin {
	meta.Documentation = PayloadPorts(
		"This port returns microservice response.",
		"This port returns microservice error.",
	)
	return Plugin{
		Spec: Spec{
			Module:    "tracardi.process_engine.action.v1.microservice.plugin",
			ClassName: "MicroserviceAction",
			Inputs:    []string{"payload"},
			Outputs:   []string{actiongate.PortResponse, actiongate.PortError},
			Version:   "0.7.2",
			License:   "MIT",
			Author:    "Risto Kowaczewski",
		},
		Metadata: meta,
	}
}
