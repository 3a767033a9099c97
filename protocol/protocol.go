// Package protocol defines the JSON types exchanged with the driverpool daemon.
package protocol

import "time"

// AcquireRequest asks for the pooled driver matching a capability set.
type AcquireRequest struct {
	Capabilities map[string]any `json:"capabilities"`
}

// DriverInfo describes one tracked driver.
type DriverInfo struct {
	ID           string         `json:"id"`
	Fingerprint  string         `json:"fingerprint"`
	Browser      string         `json:"browser"`
	Capabilities map[string]any `json:"capabilities"`
	ContainerID  string         `json:"container_id,omitempty"`
	Endpoint     string         `json:"endpoint,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// DismissAllResult reports a bulk dismissal. Every driver is untracked even
// when some of them failed to quit.
type DismissAllResult struct {
	Dismissed int      `json:"dismissed"`
	Errors    []string `json:"errors,omitempty"`
}

// MaxCapabilityKeys bounds the top-level size of an acquire request.
const MaxCapabilityKeys = 256
