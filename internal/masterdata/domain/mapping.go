package masterdata

import (
	"fmt"
	"sort"
)

// Pair associates one sensor with the zone it drives.
type Pair struct {
	SensorID string
	ZoneID   string
}

// Mapping is the bijective sensor-to-zone association of a dataset.
// Built once per load, immutable during analysis.
type Mapping struct {
	bySensor map[string]string
}

// NewMapping validates and builds a mapping from explicit pairs.
func NewMapping(pairs map[string]string) (*Mapping, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("mapping: no pairs")
	}
	bySensor := make(map[string]string, len(pairs))
	seenZones := make(map[string]string, len(pairs))
	for sensorID, zoneID := range pairs {
		if sensorID == "" || zoneID == "" {
			return nil, fmt.Errorf("mapping: empty sensor or zone id")
		}
		if other, ok := seenZones[zoneID]; ok {
			return nil, fmt.Errorf("mapping: zone %s mapped from both %s and %s", zoneID, other, sensorID)
		}
		seenZones[zoneID] = sensorID
		bySensor[sensorID] = zoneID
	}
	return &Mapping{bySensor: bySensor}, nil
}

// InferMapping pairs sorted sensor names with sorted zone names by
// ordinal position. Deterministic and total when cardinalities match;
// otherwise the caller must supply an explicit mapping.
func InferMapping(sensorIDs, zoneIDs []string) (*Mapping, error) {
	if len(sensorIDs) != len(zoneIDs) {
		return nil, fmt.Errorf("mapping: %d sensors vs %d zones: %w",
			len(sensorIDs), len(zoneIDs), ErrMappingCardinalityMismatch)
	}
	if len(sensorIDs) == 0 {
		return nil, fmt.Errorf("mapping: no devices to pair")
	}
	sensors := append([]string(nil), sensorIDs...)
	zones := append([]string(nil), zoneIDs...)
	sort.Strings(sensors)
	sort.Strings(zones)

	pairs := make(map[string]string, len(sensors))
	for i, sensorID := range sensors {
		pairs[sensorID] = zones[i]
	}
	return NewMapping(pairs)
}

// ZoneFor resolves the zone a sensor drives.
func (m *Mapping) ZoneFor(sensorID string) (string, bool) {
	zoneID, ok := m.bySensor[sensorID]
	return zoneID, ok
}

// Pairs returns all associations sorted by sensor id.
func (m *Mapping) Pairs() []Pair {
	pairs := make([]Pair, 0, len(m.bySensor))
	for sensorID, zoneID := range m.bySensor {
		pairs = append(pairs, Pair{SensorID: sensorID, ZoneID: zoneID})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].SensorID < pairs[j].SensorID })
	return pairs
}

// Len returns the number of sensor-zone pairs.
func (m *Mapping) Len() int { return len(m.bySensor) }
