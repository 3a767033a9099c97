package docker

import (
	"context"
)

// ContainerDriver is a browser session running in its own container.
type ContainerDriver struct {
	client      *Client
	id          string
	containerID string
	browser     string
	endpoint    string
}

// IsAlive reports whether the container is still running.
func (d *ContainerDriver) IsAlive(ctx context.Context) (bool, error) {
	return d.client.IsContainerRunning(ctx, d.containerID)
}

// Quit removes the container.
func (d *ContainerDriver) Quit(ctx context.Context) error {
	if err := d.client.RemoveContainer(ctx, d.containerID); err != nil {
		return err
	}
	d.client.logger.Debug("browser container removed", "driver_id", d.id, "container", shortID(d.containerID))
	return nil
}

func (d *ContainerDriver) ID() string          { return d.id }
func (d *ContainerDriver) ContainerID() string { return d.containerID }
func (d *ContainerDriver) Browser() string     { return d.browser }

// Endpoint is the WebDriver URL of the session, empty when the container
// has no published port.
func (d *ContainerDriver) Endpoint() string { return d.endpoint }
