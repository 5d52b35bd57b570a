package discovery

import (
	"net"
	"strings"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryAddr(t *testing.T) {
	tests := []struct {
		name  string
		entry *mdns.ServiceEntry
		want  string
		ok    bool
	}{
		{"nil", nil, "", false},
		{"no address", &mdns.ServiceEntry{Port: 8080}, "", false},
		{"no port", &mdns.ServiceEntry{AddrV4: net.IPv4(10, 0, 0, 2)}, "", false},
		{"complete", &mdns.ServiceEntry{AddrV4: net.IPv4(10, 0, 0, 2), Port: 8080}, "10.0.0.2:8080", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := entryAddr(tt.entry)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutgoingIPParses(t *testing.T) {
	ip, err := OutgoingIP()
	require.NoError(t, err)
	assert.NotNil(t, net.ParseIP(ip), ip)
}

func TestShareAddress(t *testing.T) {
	addr := ShareAddress(9000)
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	assert.Equal(t, "9000", port)
	assert.NotEmpty(t, strings.TrimSpace(host))
}
