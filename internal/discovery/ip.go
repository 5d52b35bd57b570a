package discovery

import (
	"log/slog"
	"net"
	"strconv"
)

// OutgoingIP finds the preferred local IP address to share with other
// clients.
func OutgoingIP() (string, error) {
	// UDP dial sends nothing; it only picks a route.
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return localIPFallback()
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

// localIPFallback is used on networks without a default route.
func localIPFallback() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String(), nil
		}
	}
	slog.Warn("no routable local address found, using loopback")
	return "127.0.0.1", nil
}

// ShareAddress is the host:port other clients should dial to reach a server
// on port.
func ShareAddress(port int) string {
	ip, err := OutgoingIP()
	if err != nil {
		slog.Warn("could not determine local address", "error", err)
		ip = "127.0.0.1"
	}
	return net.JoinHostPort(ip, strconv.Itoa(port))
}
