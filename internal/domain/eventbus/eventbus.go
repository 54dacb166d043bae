package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// New creates a synchronous event bus.
func New() evbus.Bus {
	return evbus.New()
}
