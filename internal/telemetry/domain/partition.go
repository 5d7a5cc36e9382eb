package telemetry

import "sort"

// DeviceKind classifies a raw device name.
type DeviceKind int

const (
	DeviceKindUnknown DeviceKind = iota
	DeviceKindSensor
	DeviceKindZone
)

// Classifier decides the kind of a raw device name.
type Classifier interface {
	Classify(deviceName string) DeviceKind
}

// SkippedRecord is a raw record excluded from a run, with the reason.
type SkippedRecord struct {
	Record RawRecord
	Reason string
}

// Partition holds the per-device event streams of a dataset, sorted
// ascending by timestamp with load order preserved on ties.
type Partition struct {
	Sensors map[string][]SensorEvent
	Zones   map[string][]ZoneEvent
	Skipped []SkippedRecord
}

// SensorIDs returns the sensor ids present, sorted.
func (p *Partition) SensorIDs() []string {
	ids := make([]string, 0, len(p.Sensors))
	for id := range p.Sensors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ZoneIDs returns the zone ids present, sorted.
func (p *Partition) ZoneIDs() []string {
	ids := make([]string, 0, len(p.Zones))
	for id := range p.Zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PartitionRecords splits raw records into per-sensor and per-zone event
// streams. Records whose device classifies as neither, or whose value is
// not a 0/1 state, are skipped and reported, never fatal. Exact duplicate
// timestamps per device resolve last-write-wins.
func PartitionRecords(records []RawRecord, classifier Classifier) *Partition {
	part := &Partition{
		Sensors: make(map[string][]SensorEvent),
		Zones:   make(map[string][]ZoneEvent),
	}

	for _, record := range records {
		if record.At.IsZero() {
			part.Skipped = append(part.Skipped, SkippedRecord{Record: record, Reason: "zero timestamp"})
			continue
		}
		if record.Value != 0 && record.Value != 1 {
			part.Skipped = append(part.Skipped, SkippedRecord{Record: record, Reason: "value is not a binary state"})
			continue
		}
		switch classifier.Classify(record.DeviceName) {
		case DeviceKindSensor:
			part.Sensors[record.DeviceName] = append(part.Sensors[record.DeviceName], SensorEvent{
				SensorID: record.DeviceName,
				At:       record.At,
				Occupied: record.Value == 1,
			})
		case DeviceKindZone:
			mode := ZoneModeOccupied
			if record.Value == 1 {
				mode = ZoneModeStandby
			}
			part.Zones[record.DeviceName] = append(part.Zones[record.DeviceName], ZoneEvent{
				ZoneID: record.DeviceName,
				At:     record.At,
				Mode:   mode,
			})
		default:
			part.Skipped = append(part.Skipped, SkippedRecord{Record: record, Reason: "unknown device kind"})
		}
	}

	for id, events := range part.Sensors {
		sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })
		part.Sensors[id] = dedupeSensor(events)
	}
	for id, events := range part.Zones {
		sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })
		part.Zones[id] = dedupeZone(events)
	}
	return part
}

// dedupeSensor keeps the last event of each equal-timestamp run. The
// stable sort leaves equal timestamps in load order, so the last one is
// the latest write.
func dedupeSensor(events []SensorEvent) []SensorEvent {
	if len(events) < 2 {
		return events
	}
	out := events[:0]
	for i, event := range events {
		if i+1 < len(events) && events[i+1].At.Equal(event.At) {
			continue
		}
		out = append(out, event)
	}
	return out
}

func dedupeZone(events []ZoneEvent) []ZoneEvent {
	if len(events) < 2 {
		return events
	}
	out := events[:0]
	for i, event := range events {
		if i+1 < len(events) && events[i+1].At.Equal(event.At) {
			continue
		}
		out = append(out, event)
	}
	return out
}
