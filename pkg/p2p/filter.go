// Copyright 2026 The CodeChain-Go Authors

package p2p

import (
	"net"
	"sync"
)

// Filter is a CIDR-based IP allow/deny gate that covers both inbound
// accept and outbound connect; enable/disable is independent per
// list. An enabled allow-list admits only addresses inside one of its
// networks, so an enabled but empty allow-list rejects everything; the
// deny list always applies when enabled, independent of the allow
// list's state.
type Filter struct {
	mu sync.RWMutex

	allowEnabled bool
	denyEnabled  bool
	allow        []*net.IPNet
	deny         []*net.IPNet
}

func NewFilter() *Filter {
	return &Filter{}
}

// EnableAllow / DisableAllow toggle the allow-list independently of
// the deny list.
func (f *Filter) EnableAllow(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowEnabled = enabled
}

// EnableDeny toggles the deny list.
func (f *Filter) EnableDeny(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.denyEnabled = enabled
}

// AddAllow / AddDeny register a CIDR range into the respective list.
func (f *Filter) AddAllow(cidr *net.IPNet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allow = append(f.allow, cidr)
}

func (f *Filter) AddDeny(cidr *net.IPNet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deny = append(f.deny, cidr)
}

// Permits reports whether ip may connect (inbound accept or outbound
// connect both call this). The deny list, when enabled, rejects
// unconditionally; the allow list, when enabled, is then required to
// contain ip.
func (f *Filter) Permits(ip net.IP) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.denyEnabled && containsAny(f.deny, ip) {
		return false
	}
	if f.allowEnabled && !containsAny(f.allow, ip) {
		return false
	}
	return true
}

func containsAny(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
