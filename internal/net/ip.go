package net

import (
	"errors"
	"net"
)

// LocalIP picks the IPv4 address collaborators on the LAN should dial:
// the first private address on an interface that is up and not loopback.
// Addresses outside the private ranges are kept as a last resort.
func LocalIP() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	var fallback net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipnet.IP.To4()
			if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}
			if ip.IsPrivate() {
				return ip.String(), nil
			}
			if fallback == nil {
				fallback = ip
			}
		}
	}
	if fallback != nil {
		return fallback.String(), nil
	}
	return "", errors.New("no usable IPv4 interface")
}
