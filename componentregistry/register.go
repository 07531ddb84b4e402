// Package componentregistry provides component registration for the eventscape platform.
package componentregistry

import (
	"errors"

	"github.com/c360/eventscape/component"
	"github.com/c360/eventscape/engine"
	pkgerrors "github.com/c360/eventscape/errors"
	"github.com/c360/eventscape/input/domainevent"
	"github.com/c360/eventscape/output/websocket"
)

// Register registers all eventscape components with the provided registry:
//
//   - DomainEvent input (NATS event subscription and windowed buffering)
//   - Engine processor (flow graph derivation and force-directed layout)
//   - WebSocket output (frame broadcasting to visualization clients)
func Register(registry *component.Registry) error {
	// CRITICAL: Nil registry is a programming error (fatal), not invalid input
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"ComponentRegistry", "Register", "registry validation")
	}

	if err := domainevent.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "domain event input component registration")
	}

	if err := engine.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "engine processor component registration")
	}

	if err := websocket.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "WebSocket output component registration")
	}

	return nil
}
