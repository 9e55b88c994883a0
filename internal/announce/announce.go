// Package announce publishes the service catalog and the outcome of every run
// to an MQTT broker. Descriptors are retained so late subscribers still see
// the full catalog.
package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/balazsgrill/actiongate/internal/dispatch"
	"github.com/balazsgrill/actiongate/internal/registry"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const TopicPrefix = "actiongate/"

// publishTimeout bounds how long a publish may hold up its caller.
const publishTimeout = 5 * time.Second

func ServiceTopic(serviceID string) string {
	return fmt.Sprintf("%sservices/%s", TopicPrefix, serviceID)
}

func ResultTopic(executionID string) string {
	return fmt.Sprintf("%sexec/%s/result", TopicPrefix, executionID)
}

// Descriptor is the retained announcement of one service.
type Descriptor struct {
	ID       string            `json:"-"`
	Name     string            `json:"name"`
	Actions  map[string]string `json:"actions"`
	Registry *registry.Plugin  `json:"registry"`
}

// Descriptors snapshots the registry for announcing.
func Descriptors(reg *registry.Registry) []Descriptor {
	var out []Descriptor
	for _, e := range reg.Services() {
		svc, ok := reg.Service(e.ID)
		if !ok {
			continue
		}
		actions := make(map[string]string, len(svc.Actions))
		for _, a := range svc.Actions {
			actions[a.ID] = a.Name
		}
		plugin := svc.Plugin
		out = append(out, Descriptor{
			ID:       svc.ID,
			Name:     svc.Name,
			Actions:  actions,
			Registry: &plugin,
		})
	}
	return out
}

type Announcer struct {
	client      mqtt.Client
	descriptors []Descriptor
	logger      *slog.Logger
}

// New prepares an announcer; nothing is sent before Connect.
func New(brokerURL string, descriptors []Descriptor, logger *slog.Logger) *Announcer {
	a := &Announcer{descriptors: descriptors, logger: logger}

	opts := mqtt.NewClientOptions().AddBroker(brokerURL)
	opts.SetClientID("actiongate-" + uuid.New().String())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		a.logger.Info("connected to MQTT broker", "broker", brokerURL)
		a.announceServices(c)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		a.logger.Warn("MQTT connection lost", "error", err)
	})

	a.client = mqtt.NewClient(opts)
	return a
}

// Connect blocks until the broker accepted the connection or ctx is done.
func (a *Announcer) Connect(ctx context.Context) error {
	token := a.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("connect to MQTT: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsConnected reports an open broker connection. A client that is still
// retrying its first connect is not connected.
func (a *Announcer) IsConnected() bool {
	return a.client.IsConnectionOpen()
}

func (a *Announcer) Close() {
	a.client.Disconnect(250)
}

func (a *Announcer) announceServices(c mqtt.Client) {
	for _, d := range a.descriptors {
		payload, err := json.Marshal(d)
		if err != nil {
			a.logger.Error("failed to encode service descriptor", "service_id", d.ID, "error", err)
			continue
		}
		token := c.Publish(ServiceTopic(d.ID), 1, true, payload)
		if !token.WaitTimeout(publishTimeout) {
			a.logger.Error("timed out announcing service", "service_id", d.ID)
			continue
		}
		if token.Error() != nil {
			a.logger.Error("failed to announce service", "service_id", d.ID, "error", token.Error())
		}
	}
}

// Executed publishes the outcome of a run. Failures are only logged and the
// wait for the broker is bounded by publishTimeout.
func (a *Announcer) Executed(_ context.Context, outcome dispatch.Outcome) {
	if !a.IsConnected() {
		a.logger.Debug("skipping outcome, MQTT not connected", "execution_id", outcome.ExecutionID)
		return
	}
	payload, err := json.Marshal(outcome)
	if err != nil {
		a.logger.Error("failed to encode outcome", "execution_id", outcome.ExecutionID, "error", err)
		return
	}
	token := a.client.Publish(ResultTopic(outcome.ExecutionID), 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		a.logger.Warn("outcome publish timed out", "execution_id", outcome.ExecutionID)
		return
	}
	if token.Error() != nil {
		a.logger.Error("failed to publish outcome", "execution_id", outcome.ExecutionID, "error", token.Error())
	}
}
