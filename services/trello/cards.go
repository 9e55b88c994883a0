package trello

import (
	"context"

	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/registry"
	"github.com/balazsgrill/actiongate/internal/validate"
)

type MoveCardConfig struct {
	BoardURL  string `json:"board_url" validate:"required"`
	ListName1 string `json:"list_name1" validate:"required"`
	ListID1   string `json:"list_id1,omitempty"`
	ListName2 string `json:"list_name2" validate:"required"`
	ListID2   string `json:"list_id2,omitempty"`
	CardName  string `json:"card_name" validate:"required"`
}

type CardMover struct {
	plugin
	config MoveCardConfig
}

func (a *CardMover) Validate(ctx context.Context, config, credentials actiongate.Document) (interface{}, error) {
	var cfg MoveCardConfig
	if err := validate.Decode(config, &cfg); err != nil {
		return nil, err
	}
	client, err := credentialsClient(a.api, credentials)
	if err != nil {
		return nil, err
	}
	if cfg.ListID1, err = resolveList(ctx, client, cfg.BoardURL, cfg.ListName1, "list_name1"); err != nil {
		return nil, err
	}
	if cfg.ListID2, err = resolveList(ctx, client, cfg.BoardURL, cfg.ListName2, "list_name2"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *CardMover) SetUp(_ context.Context, init actiongate.Document) error {
	if err := validate.Decode(init, &a.config); err != nil {
		return err
	}
	return a.setUpTrello()
}

func (a *CardMover) Run(ctx context.Context, params actiongate.Document) (actiongate.Result, error) {
	cardName, err := text(a.dot(params), a.config.CardName)
	if err != nil {
		return a.failure(err, message(err)), nil
	}
	out, err := a.client.MoveCard(ctx, a.config.ListID1, a.config.ListID2, cardName)
	if err != nil {
		return a.failure(err, message(err)), nil
	}
	return actiongate.Result{Port: actiongate.PortResponse, Value: out}, nil
}

// CardListConfig addresses one card on one list.
type CardListConfig struct {
	BoardURL string `json:"board_url" validate:"required"`
	ListName string `json:"list_name" validate:"required"`
	ListID   string `json:"list_id,omitempty"`
	CardName string `json:"card_name" validate:"required"`
}

type CardRemover struct {
	plugin
	config CardListConfig
}

func (a *CardRemover) Validate(ctx context.Context, config, credentials actiongate.Document) (interface{}, error) {
	var cfg CardListConfig
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

func (a *CardRemover) SetUp(_ context.Context, init actiongate.Document) error {
	if err := validate.Decode(init, &a.config); err != nil {
		return err
	}
	return a.setUpTrello()
}

func (a *CardRemover) Run(ctx context.Context, params actiongate.Document) (actiongate.Result, error) {
	cardName, err := text(a.dot(params), a.config.CardName)
	if err != nil {
		return a.failure(err, message(err)), nil
	}
	out, err := a.client.DeleteCard(ctx, a.config.ListID, cardName)
	if err != nil {
		return a.failure(err, message(err)), nil
	}
	return actiongate.Result{Port: actiongate.PortResponse, Value: out}, nil
}

type AddMemberConfig struct {
	BoardURL string `json:"board_url" validate:"required"`
	ListName string `json:"list_name" validate:"required"`
	ListID   string `json:"list_id,omitempty"`
	CardName string `json:"card_name" validate:"required"`
	MemberID string `json:"member_id" validate:"required"`
}

type MemberAdder struct {
	plugin
	config AddMemberConfig
}

func (a *MemberAdder) Validate(ctx context.Context, config, credentials actiongate.Document) (interface{}, error) {
	var cfg AddMemberConfig
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

func (a *MemberAdder) SetUp(_ context.Context, init actiongate.Document) error {
	if err := validate.Decode(init, &a.config); err != nil {
		return err
	}
	return a.setUpTrello()
}

// Run sends the untouched payload to the error port when Trello refuses.
func (a *MemberAdder) Run(ctx context.Context, params actiongate.Document) (actiongate.Result, error) {
	payload := actiongate.Object(params["payload"])
	dot := a.dot(params)
	memberID, err := text(dot, a.config.MemberID)
	if err != nil {
		return a.failure(err, payload), nil
	}
	cardName, err := text(dot, a.config.CardName)
	if err != nil {
		return a.failure(err, payload), nil
	}
	out, err := a.client.AddMember(ctx, a.config.ListID, cardName, memberID)
	if err != nil {
		return a.failure(err, payload), nil
	}
	return actiongate.Result{Port: actiongate.PortResponse, Value: out}, nil
}

func moveCardPlugin() registry.Plugin {
	return registry.Plugin{
		Spec: registry.Spec{
			Module:    modulePath,
			ClassName: "CardMover",
			Inputs:    []string{"payload"},
			Outputs:   []string{actiongate.PortResponse, actiongate.PortError},
			Version:   version,
			License:   "MIT",
			Author:    author,
			Manual:    "trello/move_trello_card_action",
			Init: actiongate.Document{
				"board_url":  nil,
				"list_name1": nil,
				"list_name2": nil,
				"card_name":  nil,
			},
			Form: &registry.Form{Groups: []registry.FormGroup{{
				Name: "Trello Move Card Configuration",
				Fields: []registry.FormField{
					boardField(),
					listField("list_name1", "Name of current Trello list", "Please provide the name of your Trello list that card is currently on."),
					listField("list_name2", "Name of target Trello list", "Please provide the name of your Trello list that you want to move your card to."),
					dotPathField("card_name", "Name of your card", "Please provide path to the name of the card that you want to move.", "Card name"),
				},
			}}},
		},
		Metadata: registry.Metadata{
			Name:          "Move Trello Card",
			Desc:          "Moves card from given list on given board to another list on that board in Trello.",
			Icon:          "trello",
			Group:         []string{"Trello"},
			Documentation: trelloPorts(),
		},
	}
}

func deleteCardPlugin() registry.Plugin {
	return registry.Plugin{
		Spec: registry.Spec{
			Module:    modulePath,
			ClassName: "CardRemover",
			Inputs:    []string{"payload"},
			Outputs:   []string{actiongate.PortResponse, actiongate.PortError},
			Version:   version,
			License:   "MIT",
			Author:    author,
			Manual:    "trello/delete_trello_card_action",
			Init: actiongate.Document{
				"board_url": nil,
				"list_name": nil,
				"card_name": nil,
			},
			Form: &registry.Form{Groups: []registry.FormGroup{{
				Name: "Trello Delete Card Configuration",
				Fields: []registry.FormField{
					boardField(),
					listField("list_name", "Name of Trello list", "Please provide the name of your Trello list."),
					dotPathField("card_name", "Name of your card", "Please provide path to the name of the card that you want to delete.", "Card name"),
				},
			}}},
		},
		Metadata: registry.Metadata{
			Name:          "Delete Trello Card",
			Desc:          "Deletes card from given list on given board in Trello.",
			Icon:          "trello",
			Group:         []string{"Trello"},
			Documentation: trelloPorts(),
		},
	}
}

func addMemberPlugin() registry.Plugin {
	return registry.Plugin{
		Spec: registry.Spec{
			Module:    modulePath,
			ClassName: "MemberAdder",
			Inputs:    []string{"payload"},
			Outputs:   []string{actiongate.PortResponse, actiongate.PortError},
			Version:   version,
			License:   "MIT",
			Author:    author,
			Manual:    "trello/add_trello_member_action",
			Init: actiongate.Document{
				"board_url": nil,
				"card_name": nil,
				"list_name": nil,
				"member_id": nil,
			},
			Form: &registry.Form{Groups: []registry.FormGroup{{
				Name: "Trello Add Member Configuration",
				Fields: []registry.FormField{
					boardField(),
					listField("list_name", "Name of Trello list", "Please provide the name of your Trello list."),
					dotPathField("card_name", "Name of your card", "Please provide path to the name of the card that you want to add member to.", "Card name"),
					dotPathField("member_id", "ID of the member", "Please provide the path to the field containing ID of the member that you want to add.", "ID of the member"),
				},
			}}},
		},
		Metadata: registry.Metadata{
			Name:          "Add Trello Member",
			Desc:          "Adds a member to given card on given list in Trello.",
			Icon:          "trello",
			Group:         []string{"Trello"},
			Documentation: trelloPorts(),
		},
	}
}
