package link

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// Static implements Link for links the OS manages on its own (wired
// ethernet, pre-configured wifi). Connect only re-checks the interface.
type Static struct {
	iface string
}

// NewStatic creates a Static link on the named interface. An empty name
// accepts any non-loopback interface.
func NewStatic(iface string) (*Static, error) {
	if iface != "" {
		if _, err := net.InterfaceByName(iface); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrModuleAbsent, iface, err)
		}
	}
	return &Static{iface: iface}, nil
}

// Status implements Link.Status.
func (s *Static) Status() State {
	if len(s.addrs()) > 0 {
		return Up
	}
	return Down
}

// Connect implements Link.Connect.
func (s *Static) Connect(ctx context.Context, creds Credentials) State {
	return s.Status()
}

// Identity implements Link.Identity.
func (s *Static) Identity() string {
	return strings.Join(s.addrs(), ", ")
}

// Close implements Link.Close.
func (s *Static) Close() error {
	return nil
}

// addrs lists the global unicast addresses on usable interfaces.
func (s *Static) addrs() []string {
	var ifaces []net.Interface
	if s.iface != "" {
		ifi, err := net.InterfaceByName(s.iface)
		if err != nil {
			return nil
		}
		ifaces = []net.Interface{*ifi}
	} else {
		all, err := net.Interfaces()
		if err != nil {
			return nil
		}
		ifaces = all
	}

	var out []string
	for _, ifi := range ifaces {
		out = append(out, interfaceAddrs(ifi)...)
	}
	return out
}

func interfaceAddrs(ifi net.Interface) []string {
	if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
		return nil
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil
	}
	var out []string
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || !ipnet.IP.IsGlobalUnicast() {
			continue
		}
		out = append(out, fmt.Sprintf("%s %s", ifi.Name, ipnet.IP))
	}
	return out
}
