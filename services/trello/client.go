package trello

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/balazsgrill/actiongate"
	"resty.dev/v3"
)

var (
	ErrConnection   = errors.New("trello request failed")
	ErrBoardURL     = errors.New("given board URL is not valid")
	ErrListNotFound = errors.New("given list name does not exist")
	ErrCardNotFound = errors.New("given card name does not exist")
)

// Credentials is the service resource of the Trello service.
type Credentials struct {
	APIKey string `json:"api_key" validate:"required"`
	Token  string `json:"token" validate:"required"`
}

// Settings are the process wide client options.
type Settings struct {
	BaseURL    string
	Retries    int
	HTTPClient *http.Client
}

type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Card struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IDList string `json:"idList"`
}

// NewCard is the content of a card to create.
type NewCard struct {
	Name        string
	Desc        string
	URLSource   string
	Coordinates string
	Due         string
}

// API is the connection to Trello shared by every action and helper call. It
// owns the only HTTP transport; credentials travel with each request.
type API struct {
	rest    *resty.Client
	retries int
}

func NewAPI(settings Settings) *API {
	rest := resty.New()
	if settings.HTTPClient != nil {
		rest = resty.NewWithClient(settings.HTTPClient)
	}
	rest.SetBaseURL(settings.BaseURL)
	return &API{rest: rest, retries: settings.Retries}
}

// Client returns a view of the API acting with creds.
func (a *API) Client(creds Credentials) *Client {
	return &Client{api: a, creds: creds, retries: a.retries}
}

// Client talks to the Trello REST API with one set of credentials.
type Client struct {
	api     *API
	creds   Credentials
	retries int
}

// SetRetries overrides the retry count, e.g. from the node settings.
func (c *Client) SetRetries(n int) {
	c.retries = n
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.api.rest.R().
		SetContext(ctx).
		SetRetryCount(c.retries).
		SetQueryParams(map[string]string{
			"key":   c.creds.APIKey,
			"token": c.creds.Token,
		})
}

var boardPattern = regexp.MustCompile(`/b/([^/?#]+)`)

// BoardID extracts the short board id from a board URL such as
// https://trello.com/b/abc123/my-board.
func BoardID(boardURL string) (string, error) {
	m := boardPattern.FindStringSubmatch(boardURL)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrBoardURL, boardURL)
	}
	return m[1], nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s %s: %s", ErrConnection, resp.Request.Method, resp.Request.URL, resp.Status())
	}
	return nil
}

func (c *Client) Lists(ctx context.Context, boardURL string) ([]List, error) {
	boardID, err := BoardID(boardURL)
	if err != nil {
		return nil, err
	}
	var lists []List
	resp, err := c.request(ctx).
		SetPathParam("board", boardID).
		SetResult(&lists).
		Get("/boards/{board}/lists")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return lists, nil
}

// ListID finds a list of the board by name.
func (c *Client) ListID(ctx context.Context, boardURL, listName string) (string, error) {
	lists, err := c.Lists(ctx, boardURL)
	if err != nil {
		return "", err
	}
	for _, l := range lists {
		if l.Name == listName {
			return l.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrListNotFound, listName)
}

func (c *Client) Cards(ctx context.Context, listID string) ([]Card, error) {
	var cards []Card
	resp, err := c.request(ctx).
		SetPathParam("list", listID).
		SetResult(&cards).
		Get("/lists/{list}/cards")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return cards, nil
}

// CardID finds a card of the list by name.
func (c *Client) CardID(ctx context.Context, listID, cardName string) (string, error) {
	cards, err := c.Cards(ctx, listID)
	if err != nil {
		return "", err
	}
	for _, card := range cards {
		if card.Name == cardName {
			return card.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrCardNotFound, cardName)
}

func (c *Client) AddCard(ctx context.Context, listID string, card NewCard) (actiongate.Document, error) {
	params := map[string]string{"idList": listID, "name": card.Name}
	for k, v := range map[string]string{
		"desc":        card.Desc,
		"urlSource":   card.URLSource,
		"coordinates": card.Coordinates,
		"due":         card.Due,
	} {
		if v != "" {
			params[k] = v
		}
	}
	var out actiongate.Document
	resp, err := c.request(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Post("/cards")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MoveCard(ctx context.Context, fromListID, toListID, cardName string) (actiongate.Document, error) {
	cardID, err := c.CardID(ctx, fromListID, cardName)
	if err != nil {
		return nil, err
	}
	var out actiongate.Document
	resp, err := c.request(ctx).
		SetPathParam("card", cardID).
		SetQueryParam("idList", toListID).
		SetResult(&out).
		Put("/cards/{card}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteCard(ctx context.Context, listID, cardName string) (actiongate.Document, error) {
	cardID, err := c.CardID(ctx, listID, cardName)
	if err != nil {
		return nil, err
	}
	var out actiongate.Document
	resp, err := c.request(ctx).
		SetPathParam("card", cardID).
		SetResult(&out).
		Delete("/cards/{card}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddMember(ctx context.Context, listID, cardName, memberID string) (interface{}, error) {
	cardID, err := c.CardID(ctx, listID, cardName)
	if err != nil {
		return nil, err
	}
	var out interface{}
	resp, err := c.request(ctx).
		SetPathParam("card", cardID).
		SetQueryParam("value", memberID).
		SetResult(&out).
		Post("/cards/{card}/idMembers")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}
