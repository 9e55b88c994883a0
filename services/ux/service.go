// Package ux provides actions that hand front-end widget fragments back to the
// orchestrator, which injects them into the visitor's page.
package ux

import (
	"context"
	"strings"

	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/registry"
	"github.com/balazsgrill/actiongate/internal/resolver"
	"github.com/balazsgrill/actiongate/internal/validate"
)

const (
	ServiceID    = "597da587-f25a-49ba-9f95-f3424dd3b159"
	SnackbarID   = "3d0828b8-9e17-4ae8-ab0c-d82fd3638b3d"
	RatingID     = "bb7ecaf8-e3c9-424a-a3bd-df79e006e897"
	QuestionID   = "aaaecaf8-efc9-c24b-a34d-df79e003486"
	CTAMessageID = "730e35c1-d973-4672-9630-bad52c8d67ed"
	ContactID    = "4d98e211-7f80-4807-8616-3d9a24570122"
	ModuleName   = "services.ux"

	DefaultSource = "http://localhost:20000"
)

const (
	version = "0.7.2"
	group   = "UIX Widgets"
)

// Location is the service resource: where the widget bundles are served from.
type Location struct {
	Source string `json:"uix_mf_source" validate:"required,http_url"`
}

// Asset returns the URL of a file of the named widget bundle.
func (l Location) Asset(widget, file string) string {
	return strings.TrimSuffix(l.Source, "/") + "/uix/" + widget + "/" + file
}

type widgetDef struct {
	id      string
	name    string
	factory actiongate.Factory
	plugin  func() registry.Plugin
}

var widgets = []widgetDef{
	{SnackbarID, "Info pop-up", func() actiongate.Action { return &Snackbar{} }, snackbarPlugin},
	{RatingID, "Rating widget", func() actiongate.Action { return &RatingPopup{} }, ratingPlugin},
	{QuestionID, "Question pop-up", func() actiongate.Action { return &QuestionPopup{} }, questionPlugin},
	{CTAMessageID, "CTA message", func() actiongate.Action { return &CTAMessage{} }, ctaPlugin},
	{ContactID, "Contact form", func() actiongate.Action { return &ContactPopup{} }, contactPlugin},
}

func Service() registry.Service {
	actions := make([]registry.Action, 0, len(widgets))
	for _, w := range widgets {
		actions = append(actions, registry.Action{
			ID:        w.id,
			Name:      w.name,
			Factory:   w.factory,
			Validator: actiongate.ValidatorOf(w.factory),
			Registry:  w.plugin(),
		})
	}
	return registry.Service{
		ID:   ServiceID,
		Name: "UIX Widgets",
		Resource: &registry.Resource{
			Form: &registry.Form{Groups: []registry.FormGroup{{
				Name: "UIX resource configuration",
				Fields: []registry.FormField{{
					ID:   "uix_mf_source",
					Name: "Micro-front-end source location",
					Description: "This service needs to download micro-front-end code. Please provide the location " +
						"of the micro-front-end javascript code. Usually it is the micro-service URL or the CDN that " +
						"the code was uploaded to.",
					Component: registry.FormComponent{Type: "text", Props: actiongate.Document{"label": "URL"}},
				}},
			}}},
			Init:      actiongate.Document{"uix_mf_source": DefaultSource},
			Validator: validateLocation,
		},
		Plugin: registry.MicroservicePlugin(registry.Metadata{
			Name:   "UIX Widgets Microservice",
			Desc:   "Microservice that runs UIX widget plugins.",
			Icon:   "react",
			Tags:   []string{"microservice", "remote", "uix"},
			Group:  []string{group},
			Remote: true,
		}),
		Actions: actions,
	}
}

func validateLocation(_ context.Context, config, _ actiongate.Document) (interface{}, error) {
	var loc Location
	if err := validate.Decode(config, &loc); err != nil {
		return nil, err
	}
	return loc, nil
}

// Module exposes the helper endpoints of the widget service.
func Module() resolver.Module {
	return resolver.Module{
		Path: ModuleName,
		Endpoints: map[string]resolver.Endpoint{
			"location": resolver.WithBody(func(_ context.Context, loc Location) (interface{}, error) {
				return loc, nil
			}),
			"widgets": resolver.NoArg(func(context.Context) (interface{}, error) {
				out := make([]registry.Entry, 0, len(widgets))
				for _, w := range widgets {
					out = append(out, registry.Entry{ID: w.id, Name: w.name})
				}
				return out, nil
			}),
		},
	}
}
