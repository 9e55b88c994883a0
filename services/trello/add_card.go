package trello

import (
	"context"
	"errors"
	"fmt"

	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/dotpath"
	"github.com/balazsgrill/actiongate/internal/registry"
	"github.com/balazsgrill/actiongate/internal/validate"
)

// CardTemplate holds references into the payload, except Desc which is a
// template.
type CardTemplate struct {
	Name        string `json:"name" validate:"required"`
	Desc        string `json:"desc"`
	URLSource   string `json:"urlSource"`
	Coordinates string `json:"coordinates"`
	Due         string `json:"due"`
}

type AddCardConfig struct {
	BoardURL string       `json:"board_url" validate:"required"`
	ListName string       `json:"list_name" validate:"required"`
	ListID   string       `json:"list_id,omitempty"`
	Card     CardTemplate `json:"card"`
}

type CardAdder struct {
	plugin
	config AddCardConfig
}

func (a *CardAdder) Validate(ctx context.Context, config, credentials actiongate.Document) (interface{}, error) {
	var cfg AddCardConfig
	if err := validate.Decode(config, &cfg); err != nil {
		return nil, err
	}
	client, err := credentialsClient(a.api, credentials)
	if err != nil {
		return nil, err
	}
	if cfg.ListID, err = resolveList(ctx, client, cfg.BoardURL, cfg.ListName, "list_name"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *CardAdder) SetUp(_ context.Context, init actiongate.Document) error {
	if err := validate.Decode(init, &a.config); err != nil {
		return err
	}
	return a.setUpTrello()
}

func (a *CardAdder) Run(ctx context.Context, params actiongate.Document) (actiongate.Result, error) {
	card, err := a.card(a.dot(params))
	if err != nil {
		return a.failure(err, message(err)), nil
	}
	out, err := a.client.AddCard(ctx, a.config.ListID, card)
	if err != nil {
		return a.failure(err, message(err)), nil
	}
	return actiongate.Result{Port: actiongate.PortResponse, Value: out}, nil
}

// card resolves the references of the template; the description is rendered
// as text instead.
func (a *CardAdder) card(dot *dotpath.Accessor) (NewCard, error) {
	tpl := a.config.Card
	shaped, err := dot.Reshape(map[string]interface{}{
		"name":        tpl.Name,
		"urlSource":   tpl.URLSource,
		"coordinates": tpl.Coordinates,
		"due":         tpl.Due,
	})
	if err != nil {
		return NewCard{}, err
	}
	fields := shaped.(map[string]interface{})

	card := NewCard{
		Name:      dotpath.Stringify(fields["name"]),
		Desc:      dot.Render(tpl.Desc),
		URLSource: dotpath.Stringify(fields["urlSource"]),
		Due:       dotpath.Stringify(fields["due"]),
	}
	if geo, ok := fields["coordinates"].(map[string]interface{}); ok {
		card.Coordinates = fmt.Sprintf("%s,%s", dotpath.Stringify(geo["latitude"]), dotpath.Stringify(geo["longitude"]))
	} else {
		card.Coordinates = dotpath.Stringify(fields["coordinates"])
	}
	if card.Name == "" {
		return card, errors.New("card name cannot be empty")
	}
	return card, nil
}

func addCardPlugin() registry.Plugin {
	return registry.Plugin{
		Spec: registry.Spec{
			Module:    modulePath,
			ClassName: "CardAdder",
			Inputs:    []string{"payload"},
			Outputs:   []string{actiongate.PortResponse, actiongate.PortError},
			Version:   version,
			License:   "MIT",
			Author:    author,
			Manual:    "trello/add_trello_card_action",
			Init: actiongate.Document{
				"board_url": "",
				"list_name": "",
				"card": actiongate.Document{
					"name":        "",
					"desc":        "",
					"urlSource":   "",
					"coordinates": "",
					"due":         "",
				},
			},
			Form: &registry.Form{Groups: []registry.FormGroup{{
				Name: "Plugin configuration",
				Fields: []registry.FormField{
					boardField(),
					listField("list_name", "Name of Trello list", "Please provide the name of your Trello list."),
					dotPathField("card.name", "Name of your card", "Please provide path to the name of the card that you want to add.", "Card name"),
					{
						ID:          "card.desc",
						Name:        "Card description",
						Description: "Please provide description of your card. It's fully functional in terms of using templates.",
						Component:   registry.FormComponent{Type: "textarea", Props: actiongate.Document{"label": "Card description"}},
					},
					dotPathField("card.urlSource", "Card link", "You can add an URL to your card as an attachment.", "Card link"),
					dotPathField("card.coordinates", "Card coordinates", "You can add location coordinates to your card. This should be a path to an object, containing 'longitude' and 'latitude' fields.", "Card coordinates"),
					dotPathField("card.due", "Card due date", "You can add due date to your card. Various formats should work, but UTC format seems to be the best option.", "Card due date"),
				},
			}}},
		},
		Metadata: registry.Metadata{
			Name:          "Add Trello card",
			Desc:          "Adds card to given list on given board in Trello.",
			Icon:          "trello",
			Group:         []string{"Trello"},
			Pro:           true,
			Documentation: trelloPorts(),
		},
	}
}
