package link

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	nmDest      = "org.freedesktop.NetworkManager"
	nmPath      = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmIface     = "org.freedesktop.NetworkManager"
	nmDevState  = "org.freedesktop.NetworkManager.Device.State"
	nmActivated = 100 // NM_DEVICE_STATE_ACTIVATED
	nmFailed    = 120 // NM_DEVICE_STATE_FAILED

	activationTimeout = 20 * time.Second
	activationPoll    = 250 * time.Millisecond
)

// NetworkManager implements Link by driving NetworkManager over the system D-Bus.
type NetworkManager struct {
	conn    *dbus.Conn
	iface   string
	device  dbus.ObjectPath
	profile dbus.ObjectPath // connection profile created by the first Connect
}

// NewNetworkManager attaches to the NetworkManager device for iface.
func NewNetworkManager(iface string) (*NetworkManager, error) {
	if iface == "" {
		iface = "wlan0"
	}

	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: system bus: %v", ErrModuleAbsent, err)
	}

	var device dbus.ObjectPath
	obj := conn.Object(nmDest, nmPath)
	if err := obj.Call(nmIface+".GetDeviceByIpIface", 0, iface).Store(&device); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModuleAbsent, iface, err)
	}
	log.Printf("NetworkManager device for %s: %s", iface, device)

	return &NetworkManager{conn: conn, iface: iface, device: device}, nil
}

// Status implements Link.Status.
func (n *NetworkManager) Status() State {
	if n.deviceState() == nmActivated {
		return Up
	}
	return Down
}

// Connect implements Link.Connect. The first call creates a connection
// profile for creds; later calls re-activate it.
func (n *NetworkManager) Connect(ctx context.Context, creds Credentials) State {
	obj := n.conn.Object(nmDest, nmPath)

	if n.profile != "" {
		call := obj.CallWithContext(ctx, nmIface+".ActivateConnection", 0, n.profile, n.device, dbus.ObjectPath("/"))
		if call.Err != nil {
			log.Printf("NetworkManager activate %s: %v", n.profile, call.Err)
			return Down
		}
	} else {
		var profile, active dbus.ObjectPath
		call := obj.CallWithContext(ctx, nmIface+".AddAndActivateConnection", 0, wifiSettings(creds), n.device, dbus.ObjectPath("/"))
		if err := call.Store(&profile, &active); err != nil {
			log.Printf("NetworkManager connect %q: %v", creds.SSID, err)
			return Down
		}
		n.profile = profile
	}

	return n.waitActivated(ctx)
}

// Identity implements Link.Identity.
func (n *NetworkManager) Identity() string {
	ifi, err := net.InterfaceByName(n.iface)
	if err != nil {
		return n.iface
	}
	return strings.Join(interfaceAddrs(*ifi), ", ")
}

// Close implements Link.Close.
func (n *NetworkManager) Close() error {
	return n.conn.Close()
}

func (n *NetworkManager) deviceState() uint32 {
	v, err := n.conn.Object(nmDest, n.device).GetProperty(nmDevState)
	if err != nil {
		return 0
	}
	state, _ := v.Value().(uint32)
	return state
}

func (n *NetworkManager) waitActivated(ctx context.Context) State {
	deadline := time.Now().Add(activationTimeout)
	for time.Now().Before(deadline) {
		switch n.deviceState() {
		case nmActivated:
			return Up
		case nmFailed:
			return Down
		}
		select {
		case <-ctx.Done():
			return Down
		case <-time.After(activationPoll):
		}
	}
	return Down
}

func wifiSettings(creds Credentials) map[string]map[string]dbus.Variant {
	settings := map[string]map[string]dbus.Variant{
		"connection": {
			"id":   dbus.MakeVariant("cardrelay-" + creds.SSID),
			"type": dbus.MakeVariant("802-11-wireless"),
		},
		"802-11-wireless": {
			"ssid": dbus.MakeVariant([]byte(creds.SSID)),
			"mode": dbus.MakeVariant("infrastructure"),
		},
	}
	if creds.PSK != "" {
		settings["802-11-wireless-security"] = map[string]dbus.Variant{
			"key-mgmt": dbus.MakeVariant("wpa-psk"),
			"psk":      dbus.MakeVariant(creds.PSK),
		}
	}
	return settings
}
