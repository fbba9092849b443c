package spotify

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"

	"github.com/osa030/blindbox/internal/domain/track"
)

// DeviceBackend streams tracks to a Spotify Connect device over the Web API
// player endpoints. Unlike the preview backend it can play any track, but an
// unready device is fatal to starting a session at all.
type DeviceBackend struct {
	mu       sync.Mutex
	client   *spotify.Client
	deviceID spotify.ID
	ready    bool
}

// NewDeviceBackend registers the playback device and transfers playback to
// it (paused). deviceID may be empty, in which case the first available
// device is used.
func NewDeviceBackend(ctx context.Context, c *Client, deviceID string) (*DeviceBackend, error) {
	b := &DeviceBackend{client: c.client}

	if deviceID == "" {
		devices, err := c.client.PlayerDevices(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list playback devices")
		}
		if len(devices) == 0 {
			return nil, errors.New("no playback device available")
		}
		deviceID = string(devices[0].ID)
		zlog.Info().Msgf("spotify: using playback device %s (%s)", devices[0].Name, deviceID)
	}
	b.deviceID = spotify.ID(deviceID)

	// Transfer without starting playback; the coordinator decides when to play.
	if err := c.client.TransferPlayback(ctx, b.deviceID, false); err != nil {
		return nil, errors.Wrap(err, "failed to transfer playback to device")
	}
	b.ready = true

	return b, nil
}

// Name returns the backend name.
func (b *DeviceBackend) Name() string {
	return "device"
}

// CanPlay reports whether the device can start the track. A registered
// device streams full tracks, so no preview reference is needed.
func (b *DeviceBackend) CanPlay(_ track.Track) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Start begins playback of the track on the device.
func (b *DeviceBackend) Start(ctx context.Context, t track.Track) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.ready {
		return errors.New("playback device is not ready")
	}

	err := b.client.PlayOpt(ctx, &spotify.PlayOptions{
		DeviceID: &b.deviceID,
		URIs:     []spotify.URI{spotify.URI(t.URI())},
	})
	if err != nil {
		// A device that vanished mid-session stays unready until re-created.
		b.ready = false
		return errors.Wrapf(err, "failed to start playback of %s", t.ID)
	}
	return nil
}

// Stop pauses playback on the device. Safe when nothing is playing.
func (b *DeviceBackend) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.ready {
		return nil
	}

	err := b.client.PauseOpt(ctx, &spotify.PlayOptions{DeviceID: &b.deviceID})
	if err != nil {
		// Pausing an already-paused player returns a restriction error; not a fault.
		zlog.Debug().Msgf("spotify: pause returned: %v", err)
	}
	return nil
}
