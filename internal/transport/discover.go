package transport

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// Relays announce themselves under this service type so clients on the
// same network can join without typing an address.
const serviceType = "_netsketch._tcp"

// Advertise announces a relay on the local network via mDNS. Shut the
// returned server down when the relay stops.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("transport: hostname for mdns: %w", err)
	}
	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"netsketch"})
	if err != nil {
		return nil, fmt.Errorf("transport: mdns service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("transport: mdns server: %w", err)
	}
	return server, nil
}

// Discover browses the local network for relays and returns their
// session URLs, oldest answer first.
func Discover(timeout time.Duration) ([]string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	collected := make(chan []string, 1)
	go func() {
		var urls []string
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			urls = append(urls, fmt.Sprintf("ws://%s:%d%s", e.AddrV4, e.Port, DefaultPath))
		}
		collected <- urls
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	if timeout > 0 {
		params.Timeout = timeout
	}
	err := mdns.Query(params)
	close(entries)
	urls := <-collected
	if err != nil {
		return urls, fmt.Errorf("transport: mdns query: %w", err)
	}
	return urls, nil
}

// LocalIP guesses the address peers on this network can reach us at.
// The UDP dial never sends a packet; it only asks the kernel which
// interface would route out.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			return addr.IP.String()
		}
	}
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return "127.0.0.1"
}
