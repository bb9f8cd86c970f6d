package updates

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/digiplay/digiplay-server/internal/models"
)

// ErrUnknownVersion is returned when applying a version that was never published
var ErrUnknownVersion = errors.New("unknown version")

// Releases tracks the latest published web client version and which
// version each owner has applied.
type Releases struct {
	mu           sync.RWMutex
	latest       string
	applied      map[string]string
	pollInterval time.Duration
	hub          *Hub
}

// NewReleases starts with current as the latest version
func NewReleases(current string, pollInterval time.Duration, hub *Hub) *Releases {
	return &Releases{
		latest:       current,
		applied:      make(map[string]string),
		pollInterval: pollInterval,
		hub:          hub,
	}
}

// Latest returns the latest published version
func (r *Releases) Latest() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Version reports whether a client running clientVersion should refresh. An
// empty clientVersion means the version the owner last applied, if any.
func (r *Releases) Version(ownerID, clientVersion string) models.VersionResponse {
	r.mu.RLock()
	defer r.mu.RUnlock()

	running := clientVersion
	if running == "" {
		running = r.applied[ownerID]
	}
	return models.VersionResponse{
		Version:      r.latest,
		NeedRefresh:  running != "" && running != r.latest,
		PollInterval: int(r.pollInterval / time.Second),
	}
}

// Publish makes version the latest and tells every client an update is waiting
func (r *Releases) Publish(version string) {
	r.mu.Lock()
	r.latest = version
	r.mu.Unlock()

	r.hub.Broadcast(EventUpdateAvailable, version)
}

// OfflineReady tells the owner's clients that the app is cached for offline use
func (r *Releases) OfflineReady(ownerID string) {
	r.hub.Notify(ownerID, EventOfflineReady, r.Latest())
}

// Apply records that the owner's client now runs version
func (r *Releases) Apply(ownerID, version string) error {
	r.mu.Lock()
	if version != r.latest {
		r.mu.Unlock()
		return errors.Wrapf(ErrUnknownVersion, "%s", version)
	}
	r.applied[ownerID] = version
	r.mu.Unlock()

	r.hub.Notify(ownerID, EventUpdateApplied, version)
	return nil
}
