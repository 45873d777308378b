// Package xnsconfig loads the server's JSON configuration file: the
// local interface name, the reachable-network table RIP answers from,
// host aliases, and the local time-zone/DST rule the Time responder
// reports. Grounded on internal/config/config.go's JSON
// load/atomic-rewrite pattern, adapted from a single ledger-RPC/program-ID
// pair to this stack's network/host/time tables.
package xnsconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xnsstack/xnsd/internal/wire"
)

// NetworkEntry is one directly-reachable network; hop=0 marks the local
// net the server's interface sits on.
type NetworkEntry struct {
	Name string  `json:"name"`
	Net  wire.Net `json:"net"`
	Hop  uint16  `json:"hop"`
}

// HostEntry is one human-readable alias for a host address.
type HostEntry struct {
	Name  string    `json:"name"`
	Value HostValue `json:"value"`
}

// TimeConfig is the local time-zone/DST rule the Time responder reports
// verbatim; it is never computed from the system clock's zone.
type TimeConfig struct {
	OffsetDirection wire.TimeDirection `json:"offsetDirection"`
	OffsetHours     uint16             `json:"offsetHours"`
	OffsetMinutes   uint16             `json:"offsetMinutes"`
	DSTStart        uint16             `json:"dstStart"`
	DSTEnd          uint16             `json:"dstEnd"`
}

type networkConfig struct {
	Interface string         `json:"interface"`
	List      []NetworkEntry `json:"list"`
}

// fileConfig is the exact JSON document shape; Config wraps it with a
// mutex and the loaded-from path.
type fileConfig struct {
	Network networkConfig `json:"network"`
	Host    struct {
		List []HostEntry `json:"list"`
	} `json:"host"`
	Time TimeConfig `json:"time"`
}

// Config is the server's live configuration. All accessors are
// goroutine-safe; Reload swaps the whole document under the lock.
type Config struct {
	path string
	mu   sync.RWMutex
	doc  fileConfig
}

// Load reads and parses path, returning an error if the file is missing
// or malformed. It does not validate cross-field invariants (exactly one
// hop=0 network, etc.) — callers needing that call Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var doc fileConfig
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &Config{path: path, doc: doc}, nil
}

// Reload re-reads the file at the path Load was given, replacing the
// in-memory document atomically. The old document is kept if re-reading
// fails.
func (c *Config) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var doc fileConfig
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	c.mu.Lock()
	c.doc = doc
	c.mu.Unlock()
	return nil
}

// Save rewrites the config file at c.path with the in-memory document,
// via a temp file in the same directory renamed over the original so a
// concurrent reader never observes a partial write.
func (c *Config) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.doc, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".xnsconfig-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Interface returns the configured Ethernet device name.
func (c *Config) Interface() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.Network.Interface
}

// Networks returns a copy of the configured network list.
func (c *Config) Networks() []NetworkEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]NetworkEntry, len(c.doc.Network.List))
	copy(out, c.doc.Network.List)
	return out
}

// LocalNet returns the network entry with hop=0, the net the server's
// own interface sits on.
func (c *Config) LocalNet() (wire.Net, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, n := range c.doc.Network.List {
		if n.Hop == 0 {
			return n.Net, true
		}
	}
	return wire.NetUnknown, false
}

// LookupNet returns the hop count configured for net, for building a RIP
// response to a specific-net request.
func (c *Config) LookupNet(net wire.Net) (NetworkEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, n := range c.doc.Network.List {
		if n.Net == net {
			return n, true
		}
	}
	return NetworkEntry{}, false
}

// Hosts returns a copy of the configured host alias list.
func (c *Config) Hosts() []HostEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]HostEntry, len(c.doc.Host.List))
	copy(out, c.doc.Host.List)
	return out
}

// LookupHost resolves a host alias to its address.
func (c *Config) LookupHost(name string) (wire.Host, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, h := range c.doc.Host.List {
		if h.Name == name {
			return wire.Host(h.Value), true
		}
	}
	return wire.HostUnknown, false
}

// Time returns the configured time-zone/DST rule.
func (c *Config) Time() TimeConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.Time
}

// Validate checks the cross-field invariants Load does not: exactly one
// hop=0 network must be present, since that's what identifies the local
// net to the IDP transmit path.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	local := 0
	for _, n := range c.doc.Network.List {
		if n.Hop == 0 {
			local++
		}
	}
	switch {
	case local == 0:
		return fmt.Errorf("xnsconfig: no network with hop=0 (local net)")
	case local > 1:
		return fmt.Errorf("xnsconfig: %d networks with hop=0, want exactly one", local)
	}
	if c.doc.Network.Interface == "" {
		return fmt.Errorf("xnsconfig: network.interface is required")
	}
	return nil
}
