//go:build !ebiten

package window

import (
	"context"
	"errors"

	"lifescreen/internal/transport"
)

// ErrNoGUI is returned when the binary was built without the ebiten tag.
var ErrNoGUI = errors.New("window: transport requires building with the 'ebiten' tag")

// Run always reports that the GUI build tag is missing.
func Run(context.Context, transport.Options, int, func(context.Context, transport.Display) error) error {
	return ErrNoGUI
}
