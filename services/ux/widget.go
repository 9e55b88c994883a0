package ux

import (
	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/dotpath"
	"github.com/balazsgrill/actiongate/internal/execctx"
	"github.com/balazsgrill/actiongate/internal/registry"
	"github.com/balazsgrill/actiongate/internal/validate"
	"github.com/google/uuid"
)

// Fragment is one element the front end appends to the page.
type Fragment struct {
	Tag   string              `json:"tag"`
	Props actiongate.Document `json:"props"`
}

func script(src string) Fragment {
	return Fragment{Tag: "script", Props: actiongate.Document{"src": src}}
}

// widget is what all widget actions share: the bundle location from the node
// resource and the response shape.
type widget struct {
	execctx.Instance
	location Location
}

func (w *widget) setUpLocation() error {
	return validate.Decode(w.Resource(), &w.location)
}

func (w *widget) dot(params actiongate.Document) *dotpath.Accessor {
	return dotpath.New(map[string]interface{}{
		"payload": actiongate.Object(params["payload"]),
		"node":    w.Node(),
	})
}

// respond passes the payload through unchanged, with the fragments next to it.
func respond(params actiongate.Document, fragments ...Fragment) actiongate.Result {
	return actiongate.Result{
		Port: actiongate.PortResponse,
		Value: actiongate.Document{
			"payload": actiongate.Object(params["payload"]),
			"ux":      fragments,
		},
	}
}

// visitor holds the ids widgets report events back with. They come from the
// event and session the orchestrator sends along with the payload.
type visitor struct {
	source, profile, session string
}

func visitorOf(params actiongate.Document) visitor {
	str := func(path ...string) string {
		v, _ := actiongate.Lookup(params, path...)
		s, _ := v.(string)
		return s
	}
	v := visitor{
		source:  str("event", "source", "id"),
		profile: str("event", "profile", "id"),
		session: str("session", "id"),
	}
	if v.session == "" {
		v.session = uuid.NewString()
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func theme(dark bool) string {
	if dark {
		return "dark"
	}
	return ""
}

func widgetPlugin(className, name, desc, author, manual string, init actiongate.Document, groups ...registry.FormGroup) registry.Plugin {
	return registry.Plugin{
		Spec: registry.Spec{
			Module:    ModuleName,
			ClassName: className,
			Inputs:    []string{"payload"},
			Outputs:   []string{actiongate.PortResponse, actiongate.PortError},
			Init:      init,
			Form:      &registry.Form{Groups: groups},
			Version:   version,
			License:   "MIT",
			Author:    author,
			Manual:    manual,
		},
		Metadata: registry.Metadata{
			Name:     name,
			Desc:     desc,
			Icon:     "react",
			Group:    []string{group},
			Frontend: true,
			Documentation: &registry.Documentation{
				Inputs:  map[string]registry.PortDoc{"payload": {Desc: "This port takes payload object."}},
				Outputs: map[string]registry.PortDoc{"response": {Desc: "This port returns given payload with the widget fragments."}},
			},
		},
	}
}

func field(id, name, desc, kind, label string) registry.FormField {
	return registry.FormField{
		ID:          id,
		Name:        name,
		Description: desc,
		Component:   registry.FormComponent{Type: kind, Props: actiongate.Document{"label": label}},
	}
}

func selectField(id, name, desc, label string, items actiongate.Document) registry.FormField {
	f := field(id, name, desc, "select", label)
	f.Component.Props["items"] = items
	return f
}

func horizontalField(id, desc string) registry.FormField {
	return selectField(id, "Horizontal position", desc, "Horizontal position",
		actiongate.Document{"left": "Left", "center": "Center", "right": "Right"})
}

func verticalField(id, desc string) registry.FormField {
	return selectField(id, "Vertical position", desc, "Vertical position",
		actiongate.Document{"top": "Top", "bottom": "Bottom"})
}

func darkThemeField() registry.FormField {
	return field("dark_theme", "Dark theme", "You can switch to dark mode for your popup. Default theme is bright.", "bool", "Dark mode")
}

func saveEventField() registry.FormField {
	return field("save_event", "Save event", "Please determine whether sent event should be saved or not.", "bool", "Save event")
}
