package api

import (
	"fmt"
	"regexp"

	"github.com/p-arndt/driverpool/protocol"
)

// driverIDPattern matches pool entry IDs: hex digits and hyphens.
var driverIDPattern = regexp.MustCompile(`^[a-f0-9][a-f0-9-]{0,63}$`)

func validateAcquireRequest(req protocol.AcquireRequest) error {
	if req.Capabilities == nil {
		return fmt.Errorf("capabilities is required")
	}
	if len(req.Capabilities) > protocol.MaxCapabilityKeys {
		return fmt.Errorf("capabilities must not exceed %d keys", protocol.MaxCapabilityKeys)
	}
	for k := range req.Capabilities {
		if k == "" {
			return fmt.Errorf("capability names must not be empty")
		}
	}
	return nil
}

func ValidateDriverID(id string) error {
	if !driverIDPattern.MatchString(id) {
		return fmt.Errorf("invalid driver id %q", id)
	}
	return nil
}
