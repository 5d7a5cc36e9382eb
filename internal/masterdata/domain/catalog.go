package masterdata

import (
	"strings"

	telemetry "odcv-analytics/internal/telemetry/domain"
)

// Default naming patterns of the exported datasets: occupancy sensors
// report as "<room> presence", zone controllers as BACnet binary values
// ("BV200", "BV201", ...).
const (
	DefaultSensorSubstring = "presence"
	DefaultZonePrefix      = "BV"
)

// Catalog classifies raw device names into sensors and zones. Pattern
// rules cover the common case; explicit overrides win for devices that
// do not follow the site naming convention.
type Catalog struct {
	sensorSubstring string
	zonePrefix      string
	overrides       map[string]telemetry.DeviceKind
}

// CatalogOption configures a catalog.
type CatalogOption func(*Catalog)

// WithSensorSubstring overrides the sensor naming pattern.
func WithSensorSubstring(substring string) CatalogOption {
	return func(c *Catalog) {
		if substring != "" {
			c.sensorSubstring = substring
		}
	}
}

// WithZonePrefix overrides the zone naming pattern.
func WithZonePrefix(prefix string) CatalogOption {
	return func(c *Catalog) {
		if prefix != "" {
			c.zonePrefix = prefix
		}
	}
}

// WithOverride pins a device name to a kind regardless of patterns.
func WithOverride(deviceName string, kind telemetry.DeviceKind) CatalogOption {
	return func(c *Catalog) {
		c.overrides[deviceName] = kind
	}
}

// NewCatalog builds a catalog with the default naming patterns.
func NewCatalog(opts ...CatalogOption) *Catalog {
	catalog := &Catalog{
		sensorSubstring: DefaultSensorSubstring,
		zonePrefix:      DefaultZonePrefix,
		overrides:       make(map[string]telemetry.DeviceKind),
	}
	for _, opt := range opts {
		opt(catalog)
	}
	return catalog
}

// Classify resolves the kind of a device name.
func (c *Catalog) Classify(deviceName string) telemetry.DeviceKind {
	if kind, ok := c.overrides[deviceName]; ok {
		return kind
	}
	if strings.Contains(deviceName, c.sensorSubstring) {
		return telemetry.DeviceKindSensor
	}
	if strings.HasPrefix(deviceName, c.zonePrefix) {
		return telemetry.DeviceKindZone
	}
	return telemetry.DeviceKindUnknown
}
