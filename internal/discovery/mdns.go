// Package discovery advertises room servers on the local network and finds
// them again from drawing clients.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sort"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_roomboard._tcp"

// DefaultBrowseTimeout bounds a lookup when the caller gives no timeout.
const DefaultBrowseTimeout = 2 * time.Second

// Advertiser keeps a service record announced until Shutdown.
type Advertiser struct {
	server *mdns.Server
}

// Advertise announces a server listening on port. An empty instance uses
// the host name.
func Advertise(port int, instance string) (*Advertiser, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		instance = host
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, []string{"RoomBoard"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	slog.Info("advertising on local network", "service", ServiceType, "instance", instance, "port", port)
	return &Advertiser{server: server}, nil
}

func (a *Advertiser) Shutdown() error {
	return a.server.Shutdown()
}

// Browse looks up advertised servers and returns their host:port addresses,
// sorted and without duplicates.
func Browse(ctx context.Context, timeout time.Duration) ([]string, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	entries := make(chan *mdns.ServiceEntry, 8)
	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.QueryContext(ctx, params)
		close(entries)
	}()

	seen := make(map[string]struct{})
	for e := range entries {
		if addr, ok := entryAddr(e); ok {
			seen[addr] = struct{}{}
		}
	}
	if err := <-errc; err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("mDNS lookup: %w", err)
	}

	found := make([]string, 0, len(seen))
	for addr := range seen {
		found = append(found, addr)
	}
	sort.Strings(found)
	slog.Debug("mDNS lookup finished", "service", ServiceType, "found", len(found))
	return found, nil
}

func entryAddr(e *mdns.ServiceEntry) (string, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return "", false
	}
	return net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)), true
}
