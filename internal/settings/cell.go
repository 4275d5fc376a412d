package settings

import (
	"strings"
	"sync"
)

// DefaultRegion is the platform used until one is configured.
const DefaultRegion = "euw1"

// Credentials is a point-in-time copy of the upstream access settings.
type Credentials struct {
	APIKey string
	Region string
}

// Configured reports whether an API key is present.
func (c Credentials) Configured() bool {
	return c.APIKey != ""
}

// Cell holds the process-wide API key and region.
// Callers take a Snapshot at the start of each upstream call; a change made
// through SetAPIKey or SetRegion applies to the next call.
type Cell struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewCell creates a Cell with no API key and the given region.
func NewCell(region string) *Cell {
	region = normalizeRegion(region)
	if region == "" {
		region = DefaultRegion
	}
	return &Cell{creds: Credentials{Region: region}}
}

// Snapshot returns the current credentials.
func (c *Cell) Snapshot() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// SetAPIKey replaces the API key.
func (c *Cell) SetAPIKey(key string) {
	c.mu.Lock()
	c.creds.APIKey = strings.TrimSpace(key)
	c.mu.Unlock()
}

// SetRegion replaces the platform region.
func (c *Cell) SetRegion(region string) {
	c.mu.Lock()
	c.creds.Region = normalizeRegion(region)
	c.mu.Unlock()
}

func normalizeRegion(region string) string {
	return strings.ToLower(strings.TrimSpace(region))
}
