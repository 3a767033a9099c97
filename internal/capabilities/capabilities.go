// Package capabilities models the key/value capability sets that describe a
// browser driver session and derives the fingerprints used to pool them.
package capabilities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// BrowserNameKey is the capability naming the requested browser.
const BrowserNameKey = "browserName"

var ErrUnencodable = errors.New("capabilities are not encodable")

// Capabilities is a set of capability descriptors. Two sets are equal for
// pooling purposes when their key/value content is equal, regardless of key
// order or identity of the map.
type Capabilities map[string]any

// Fingerprint is a comparable key derived from the content of a capability
// set. It is safe to use as a map key.
type Fingerprint struct {
	canonical string
}

// String returns a short digest suitable for logs and container labels.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(f.canonical))
}

// Canonical returns the canonical JSON encoding the fingerprint was derived from.
func (f Fingerprint) Canonical() string {
	return f.canonical
}

func (f Fingerprint) IsZero() bool {
	return f.canonical == ""
}

// Snapshot returns an immutable copy of c together with its fingerprint.
// The copy shares no memory with c, so later mutation of c has no effect on it.
func (c Capabilities) Snapshot() (Capabilities, Fingerprint, error) {
	canonical, err := c.canonical()
	if err != nil {
		return nil, Fingerprint{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(canonical))
	dec.UseNumber()
	var snap Capabilities
	if err := dec.Decode(&snap); err != nil {
		return nil, Fingerprint{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, Fingerprint{canonical: string(canonical)}, nil
}

// Fingerprint derives the pooling key of c's current content.
func (c Capabilities) Fingerprint() (Fingerprint, error) {
	canonical, err := c.canonical()
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{canonical: string(canonical)}, nil
}

// canonical encodes c with sorted keys at every nesting level.
func (c Capabilities) canonical() ([]byte, error) {
	m := map[string]any(c)
	if m == nil {
		m = map[string]any{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnencodable, err)
	}
	return data, nil
}

// BrowserName returns the browserName capability, or "" if absent.
func (c Capabilities) BrowserName() string {
	name, _ := c[BrowserNameKey].(string)
	return name
}

// Clone returns a deep copy of nested maps and slices in c.
func (c Capabilities) Clone() Capabilities {
	if c == nil {
		return nil
	}
	out := make(Capabilities, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Capabilities(t).Clone())
	case Capabilities:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Merge returns a new set holding defaults overlaid with overrides.
// Keys present in overrides win; neither input is modified.
func Merge(defaults, overrides Capabilities) Capabilities {
	out := defaults.Clone()
	if out == nil {
		out = make(Capabilities, len(overrides))
	}
	for k, v := range overrides {
		out[k] = cloneValue(v)
	}
	return out
}

// Parse decodes a capability set from YAML or JSON.
func Parse(data []byte) (Capabilities, error) {
	var caps Capabilities
	if err := yaml.Unmarshal(data, &caps); err != nil {
		return nil, fmt.Errorf("parsing capabilities: %w", err)
	}
	if caps == nil {
		caps = Capabilities{}
	}
	return caps, nil
}
