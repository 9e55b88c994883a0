// Package registry holds the immutable catalog of services and their actions.
// It is built once at startup and only read afterwards, so lookups need no
// locking.
package registry

import (
	"errors"
	"fmt"

	"github.com/balazsgrill/actiongate"
)

var ErrMissingValidator = errors.New("missing validator configuration")

// Resource describes the per-service document (credentials or locations) the
// orchestrator stores and sends back with every run.
type Resource struct {
	Form      *Form                `json:"form"`
	Init      actiongate.Document  `json:"init"`
	Validator actiongate.Validator `json:"-"`
}

// Action is a single invocable unit of a service.
type Action struct {
	ID        string
	Name      string
	Validator actiongate.Validator
	Factory   actiongate.Factory
	Registry  Plugin
}

// Service groups actions behind one resource and one registry entry.
type Service struct {
	ID       string
	Name     string
	Resource *Resource
	Plugin   Plugin
	Actions  []Action
}

// Entry is an id/name pair used in listings.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Registry struct {
	order    []string
	services map[string]*service
}

type service struct {
	Service
	actions map[string]*Action
}

// New builds the registry. Service ids must be unique, and action ids must be
// unique within their service.
func New(services ...Service) (*Registry, error) {
	r := &Registry{services: make(map[string]*service, len(services))}
	for _, s := range services {
		if s.ID == "" {
			return nil, fmt.Errorf("service %q has no id", s.Name)
		}
		if _, dup := r.services[s.ID]; dup {
			return nil, fmt.Errorf("duplicate service id %s", s.ID)
		}
		entry := &service{Service: s, actions: make(map[string]*Action, len(s.Actions))}
		for i := range entry.Service.Actions {
			a := &entry.Service.Actions[i]
			if _, dup := entry.actions[a.ID]; dup {
				return nil, fmt.Errorf("duplicate action id %s in service %s", a.ID, s.ID)
			}
			if a.Factory == nil {
				return nil, fmt.Errorf("action %s in service %s has no factory", a.ID, s.ID)
			}
			entry.actions[a.ID] = a
		}
		r.services[s.ID] = entry
		r.order = append(r.order, s.ID)
	}
	return r, nil
}

// Services lists every service in registration order.
func (r *Registry) Services() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, Entry{ID: id, Name: r.services[id].Name})
	}
	return out
}

// Actions lists the actions of a service; unknown services yield none.
func (r *Registry) Actions(serviceID string) []Entry {
	s, ok := r.services[serviceID]
	if !ok {
		return []Entry{}
	}
	out := make([]Entry, 0, len(s.Service.Actions))
	for _, a := range s.Service.Actions {
		out = append(out, Entry{ID: a.ID, Name: a.Name})
	}
	return out
}

func (r *Registry) Service(id string) (*Service, bool) {
	s, ok := r.services[id]
	if !ok {
		return nil, false
	}
	return &s.Service, true
}

func (r *Registry) Resource(serviceID string) *Resource {
	s, ok := r.services[serviceID]
	if !ok {
		return nil
	}
	return s.Resource
}

// PluginRegistry returns the service level registry entry.
func (r *Registry) PluginRegistry(serviceID string) *Plugin {
	s, ok := r.services[serviceID]
	if !ok {
		return nil
	}
	p := s.Plugin
	return &p
}

func (r *Registry) action(serviceID, actionID string) *Action {
	s, ok := r.services[serviceID]
	if !ok {
		return nil
	}
	return s.actions[actionID]
}

func (r *Registry) Factory(serviceID, actionID string) actiongate.Factory {
	if a := r.action(serviceID, actionID); a != nil {
		return a.Factory
	}
	return nil
}

// Validator returns the config validator of an action. Unlike the other
// getters a miss is an error.
func (r *Registry) Validator(serviceID, actionID string) (actiongate.Validator, error) {
	a := r.action(serviceID, actionID)
	if a == nil || a.Validator == nil {
		return nil, fmt.Errorf("%w for service %s and action %s", ErrMissingValidator, serviceID, actionID)
	}
	return a.Validator, nil
}

// Form returns the default init document and the form of an action.
func (r *Registry) Form(serviceID, actionID string) (actiongate.Document, *Form) {
	a := r.action(serviceID, actionID)
	if a == nil {
		return nil, nil
	}
	return a.Registry.Spec.Init, a.Registry.Spec.Form
}
