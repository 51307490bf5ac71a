package app

import (
	"context"
	"errors"
	"time"

	"lifescreen/internal/transport"
)

// Opener connects to a display.
type Opener func() (transport.Display, error)

// OpenTransport returns an Opener for the transport named in cfg.
func OpenTransport(cfg *Config) Opener {
	return func() (transport.Display, error) {
		return transport.Open(cfg.Transport, cfg.TransportOptions())
	}
}

// Supervise runs sessions of r on displays from open. With failsafe enabled a
// failed connection or session is retried after the configured delay;
// otherwise the first error is returned. A cancelled ctx ends supervision
// without error.
func Supervise(ctx context.Context, cfg *Config, r *Runner, open Opener) error {
	log := Logger()
	for {
		err := runOnce(ctx, cfg, r, open)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			return nil
		}
		if !cfg.Failsafe {
			return err
		}
		log.Warn("session failed, restarting", "delay", cfg.RetryDelay, "err", err)
		if err := sleep(ctx, cfg.RetryDelay); err != nil {
			return nil
		}
	}
}

func runOnce(ctx context.Context, cfg *Config, r *Runner, open Opener) (err error) {
	Logger().Info("connecting",
		"transport", cfg.Transport, "device", cfg.Device,
		"background", cfg.Background, "alive", cfg.Alive, "dead", cfg.Dead)
	d, err := open()
	if err != nil {
		Logger().Error("connect failed", "err", err)
		return err
	}
	defer func() {
		if cerr := d.Close(); cerr != nil && err == nil && !errors.Is(cerr, transport.ErrClosed) {
			err = cerr
		}
	}()
	return r.Session(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
