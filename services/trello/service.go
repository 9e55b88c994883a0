// Package trello exposes Trello board operations as gateway actions.
package trello

import (
	"context"

	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/registry"
	"github.com/balazsgrill/actiongate/internal/resolver"
	"github.com/balazsgrill/actiongate/internal/validate"
)

const (
	ServiceID    = "a307b281-2629-4c12-b6e3-df1ec9bca35a"
	AddCardID    = "a04381af-c008-4328-ab61-0e73825903ce"
	MoveCardID   = "9062083f-6bb5-4208-ae31-c2562161ab9b"
	DeleteCardID = "b5a5ad32-95a8-4a50-bd36-d29f3e98c523"
	AddMemberID  = "0c52a414-8fc6-40ff-b3c7-27183285c753"
	ModuleName   = "services.trello"
)

const (
	modulePath = ModuleName
	version    = "0.7.2"
	author     = "Dawid Kruk, Risto Kowaczewski"
)

// Service returns the Trello catalog entry. Every action instance shares api.
func Service(api *API) registry.Service {
	action := func(id, name string, plugin registry.Plugin, factory actiongate.Factory) registry.Action {
		return registry.Action{
			ID:        id,
			Name:      name,
			Factory:   factory,
			Validator: actiongate.ValidatorOf(factory),
			Registry:  plugin,
		}
	}
	return registry.Service{
		ID:   ServiceID,
		Name: "Trello",
		Resource: &registry.Resource{
			Form: &registry.Form{Groups: []registry.FormGroup{{
				Name:        "Service connection configuration",
				Description: "This service needs to connect to Trello. Please provide API credentials.",
				Fields: []registry.FormField{
					textField("api_key", "Trello API KEY", "Please Provide Trello API KEY.", "API KEY"),
					textField("token", "Trello TOKEN", "Please Provide Trello TOKEN.", "TOKEN"),
				},
			}}},
			Init: actiongate.Document{"api_key": "", "token": ""},
			Validator: func(_ context.Context, config, _ actiongate.Document) (interface{}, error) {
				var creds Credentials
				if err := validate.Decode(config, &creds); err != nil {
					return nil, err
				}
				return creds, nil
			},
		},
		Plugin: servicePlugin(),
		Actions: []registry.Action{
			action(AddCardID, "Add card", addCardPlugin(), func() actiongate.Action {
				return &CardAdder{plugin: plugin{api: api}}
			}),
			action(MoveCardID, "Move card", moveCardPlugin(), func() actiongate.Action {
				return &CardMover{plugin: plugin{api: api}}
			}),
			action(DeleteCardID, "Delete card", deleteCardPlugin(), func() actiongate.Action {
				return &CardRemover{plugin: plugin{api: api}}
			}),
			action(AddMemberID, "Add Member", addMemberPlugin(), func() actiongate.Action {
				return &MemberAdder{plugin: plugin{api: api}}
			}),
		},
	}
}

type listsRequest struct {
	Credentials Credentials `json:"credentials"`
	BoardURL    string      `json:"board_url" validate:"required"`
}

// Module exposes helper endpoints for the configuration editor.
func Module(api *API) resolver.Module {
	return resolver.Module{
		Path: ModuleName,
		Endpoints: map[string]resolver.Endpoint{
			"lists": resolver.WithBody(func(ctx context.Context, req listsRequest) (interface{}, error) {
				lists, err := api.Client(req.Credentials).Lists(ctx, req.BoardURL)
				if err != nil {
					return nil, err
				}
				if lists == nil {
					lists = []List{}
				}
				return lists, nil
			}),
		},
	}
}

func servicePlugin() registry.Plugin {
	return registry.MicroservicePlugin(registry.Metadata{
		Name:   "Trello Microservice",
		Desc:   "Microservice that runs Trello plugins.",
		Icon:   "trello",
		Tags:   []string{"microservice", "remote"},
		Group:  []string{"Connectors"},
		Remote: true,
	})
}

func textField(id, name, desc, label string) registry.FormField {
	return registry.FormField{
		ID:          id,
		Name:        name,
		Description: desc,
		Component:   registry.FormComponent{Type: "text", Props: actiongate.Document{"label": label}},
	}
}

func boardField() registry.FormField {
	return registry.FormField{
		ID:          "board_url",
		Name:        "URL of Trello board",
		Description: "Please provide the URL of your board.",
		Required:    true,
		Component:   registry.FormComponent{Type: "text", Props: actiongate.Document{"label": "Board URL"}},
	}
}

func listField(id, name, desc string) registry.FormField {
	return registry.FormField{
		ID:          id,
		Name:        name,
		Description: desc,
		Required:    true,
		Component:   registry.FormComponent{Type: "text", Props: actiongate.Document{"label": "List name"}},
	}
}

func dotPathField(id, name, desc, label string) registry.FormField {
	return registry.FormField{
		ID:          id,
		Name:        name,
		Description: desc,
		Component: registry.FormComponent{Type: "dotPath", Props: actiongate.Document{
			"label":       label,
			"defaultMode": "2",
		}},
	}
}

func trelloPorts() *registry.Documentation {
	return registry.PayloadPorts(
		"This port returns a response from Trello API.",
		"This port gets triggered if an error occurs.",
	)
}
