package trello

import (
	"context"
	"errors"

	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/dotpath"
	"github.com/balazsgrill/actiongate/internal/execctx"
	"github.com/balazsgrill/actiongate/internal/validate"
)

// plugin is the part every Trello action shares: the client built from the
// node resource and the error port handling.
type plugin struct {
	execctx.Instance
	api      *API
	client   *Client
}

func (p *plugin) setUpTrello() error {
	var creds Credentials
	if err := validate.Decode(p.Resource(), &creds); err != nil {
		return err
	}
	p.client = p.api.Client(creds)
	if n, ok := p.Node()["on_connection_error_repeat"].(float64); ok && n >= 0 {
		p.client.SetRetries(int(n))
	}
	return nil
}

func (p *plugin) dot(params actiongate.Document) *dotpath.Accessor {
	return dotpath.New(map[string]interface{}{
		"payload": actiongate.Object(params["payload"]),
		"node":    p.Node(),
	})
}

// text resolves a reference that must produce a value.
func text(dot *dotpath.Accessor, ref string) (string, error) {
	v, err := dot.Get(ref)
	if err != nil {
		return "", err
	}
	return dotpath.Stringify(v), nil
}

// failure logs err to the console and routes value to the error port.
func (p *plugin) failure(err error, value interface{}) actiongate.Result {
	p.Console().Error(err.Error())
	return actiongate.Result{Port: actiongate.PortError, Value: value}
}

func message(err error) actiongate.Document {
	return actiongate.Document{"message": err.Error()}
}

// credentialsClient builds a throwaway client for configuration validation.
func credentialsClient(api *API, credentials actiongate.Document) (*Client, error) {
	var creds Credentials
	if err := validate.Decode(credentials, &creds); err != nil {
		return nil, err
	}
	return api.Client(creds), nil
}

// resolveList turns a list name into its id; a missing list is reported
// against the field that named it.
func resolveList(ctx context.Context, c *Client, boardURL, listName, field string) (string, error) {
	id, err := c.ListID(ctx, boardURL, listName)
	if errors.Is(err, ErrListNotFound) || errors.Is(err, ErrBoardURL) {
		return "", validate.Field(field, err.Error())
	}
	return id, err
}
