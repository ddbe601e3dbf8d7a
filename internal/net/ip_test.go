package net

import (
	"net"
	"testing"
)

func TestLocalIPIsRoutableIPv4(t *testing.T) {
	ip, err := LocalIP()
	if err != nil {
		t.Skipf("no usable interface here: %v", err)
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		t.Fatalf("LocalIP() = %q, not an IPv4 address", ip)
	}
	if parsed.IsLoopback() || parsed.IsLinkLocalUnicast() {
		t.Fatalf("LocalIP() = %q, not dialable from the LAN", ip)
	}
}
