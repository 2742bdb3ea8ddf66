// Package discovery advertises the daemon on the LAN via mDNS so
// companion apps can find it without a configured host/port.
package discovery

import (
	"fmt"
	"os"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog/log"
)

// Announcer wraps an mDNS responder advertising this daemon instance.
type Announcer struct {
	server *mdns.Server
}

// Start begins advertising "_audiocontrold._tcp" on port, with name
// defaulting to the local hostname when empty.
func Start(name string, port int) (*Announcer, error) {
	if name == "" {
		h, err := os.Hostname()
		if err != nil {
			h = "audiocontrold"
		}
		name = h
	}

	service, err := mdns.NewMDNSService(
		name,
		"_audiocontrold._tcp",
		"", "",
		port,
		nil,
		[]string{"path=/api"},
	)
	if err != nil {
		return nil, fmt.Errorf("discovery: build service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("discovery: start server: %w", err)
	}

	log.Info().Str("name", name).Int("port", port).Msg("mdns advertising")
	return &Announcer{server: server}, nil
}

// Shutdown stops the mDNS responder.
func (a *Announcer) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	if err := a.server.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("mdns shutdown")
	}
}
