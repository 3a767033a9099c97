package docker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"
	"github.com/google/uuid"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/p-arndt/driverpool/internal/capabilities"
	"github.com/p-arndt/driverpool/internal/config"
	"github.com/p-arndt/driverpool/internal/pool"
)

const labelPrefix = "driverpool."

var ErrUnknownBrowser = errors.New("no image configured for browser")

// dockerAPI is the subset of the Docker Engine client used here.
type dockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	Close() error
}

type Client struct {
	docker dockerAPI
	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return newWithAPI(cli, cfg, logger), nil
}

func newWithAPI(api dockerAPI, cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{docker: api, cfg: cfg, logger: logger}
}

func (c *Client) Close() error {
	return c.docker.Close()
}

// Ping verifies the Docker daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.docker.Ping(ctx)
	return err
}

// Factory adapts CreateDriver to a pool.Factory.
func (c *Client) Factory() pool.Factory {
	return func(ctx context.Context, caps capabilities.Capabilities) (pool.Driver, error) {
		d, err := c.CreateDriver(ctx, caps)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

// CreateDriver starts a browser container for caps and returns a driver
// bound to it. The image is chosen by the browserName capability.
func (c *Client) CreateDriver(ctx context.Context, caps capabilities.Capabilities) (*ContainerDriver, error) {
	browser := caps.BrowserName()
	image, ok := c.cfg.ImageFor(browser)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBrowser, browser)
	}

	fp, err := caps.Fingerprint()
	if err != nil {
		return nil, err
	}

	driverID := uuid.New().String()[:12]
	defaults := c.cfg.Defaults

	port, err := nat.NewPort("tcp", strconv.Itoa(defaults.WebDriverPort))
	if err != nil {
		return nil, fmt.Errorf("webdriver port: %w", err)
	}

	labels := map[string]string{
		labelPrefix + "managed":     "true",
		labelPrefix + "driver_id":   driverID,
		labelPrefix + "fingerprint": fp.String(),
		labelPrefix + "browser":     browser,
	}

	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			NanoCPUs:  int64(defaults.CPULimit * 1e9),
			Memory:    int64(defaults.MemLimitMB) * units.MiB,
			PidsLimit: int64Ptr(int64(defaults.PidsLimit)),
		},
		ShmSize:     int64(defaults.ShmSizeMB) * units.MiB,
		AutoRemove:  false,
		SecurityOpt: []string{"no-new-privileges"},
	}

	containerCfg := &container.Config{
		Image:  image,
		Labels: labels,
		Tty:    false,
	}

	publish := defaults.NetworkMode != "none"
	if defaults.NetworkMode != "" {
		hostCfg.NetworkMode = container.NetworkMode(defaults.NetworkMode)
	}
	if publish {
		containerCfg.ExposedPorts = nat.PortSet{port: struct{}{}}
		hostCfg.PortBindings = nat.PortMap{
			port: []nat.PortBinding{{HostIP: defaults.BindAddress, HostPort: ""}},
		}
	}

	resp, err := c.docker.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "driverpool-"+driverID)
	if err != nil {
		return nil, fmt.Errorf("container create: %w", err)
	}

	if err := c.docker.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		// Clean up on start failure.
		c.docker.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("container start: %w", err)
	}

	d := &ContainerDriver{
		client:      c,
		id:          driverID,
		containerID: resp.ID,
		browser:     browser,
	}

	if publish {
		endpoint, err := c.resolveEndpoint(ctx, resp.ID, port)
		if err != nil {
			c.docker.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
			return nil, err
		}
		d.endpoint = endpoint
	}

	c.logger.Debug("browser container started", "driver_id", driverID, "container", shortID(resp.ID), "image", image, "endpoint", d.endpoint)
	return d, nil
}

func (c *Client) resolveEndpoint(ctx context.Context, containerID string, port nat.Port) (string, error) {
	info, err := c.docker.ContainerInspect(ctx, containerID)
	if err != nil {
		return "", fmt.Errorf("container inspect: %w", err)
	}
	if info.NetworkSettings == nil {
		return "", fmt.Errorf("container %s has no network settings", shortID(containerID))
	}
	bindings := info.NetworkSettings.Ports[port]
	if len(bindings) == 0 || bindings[0].HostPort == "" {
		return "", fmt.Errorf("container %s: port %s not published", shortID(containerID), port)
	}
	host := bindings[0].HostIP
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, bindings[0].HostPort), nil
}

// RemoveContainer force-removes a container. A missing container is not an error.
func (c *Client) RemoveContainer(ctx context.Context, containerID string) error {
	err := c.docker.ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})
	if err != nil && !client.IsErrNotFound(err) {
		return fmt.Errorf("container remove: %w", err)
	}
	return nil
}

// IsContainerRunning checks if a container is currently running.
func (c *Client) IsContainerRunning(ctx context.Context, containerID string) (bool, error) {
	info, err := c.docker.ContainerInspect(ctx, containerID)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return info.State != nil && info.State.Running, nil
}

// ContainerInfo holds basic info about a managed browser container.
type ContainerInfo struct {
	ContainerID string
	DriverID    string
	Fingerprint string
	CreatedAt   time.Time
}

// ListManagedContainers returns all containers carrying driverpool labels.
func (c *Client) ListManagedContainers(ctx context.Context) ([]ContainerInfo, error) {
	f := filters.NewArgs()
	f.Add("label", labelPrefix+"managed=true")

	containers, err := c.docker.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: f,
	})
	if err != nil {
		return nil, fmt.Errorf("container list: %w", err)
	}

	var result []ContainerInfo
	for _, ctr := range containers {
		driverID := ctr.Labels[labelPrefix+"driver_id"]
		if driverID == "" {
			continue
		}
		result = append(result, ContainerInfo{
			ContainerID: ctr.ID,
			DriverID:    driverID,
			Fingerprint: ctr.Labels[labelPrefix+"fingerprint"],
			CreatedAt:   time.Unix(ctr.Created, 0).UTC(),
		})
	}
	return result, nil
}

func int64Ptr(v int64) *int64 {
	return &v
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
