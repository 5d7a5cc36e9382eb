package rules

import (
	"fmt"
	"sort"
	"time"
)

// DefaultProfileName is the profile every installation carries.
const DefaultProfileName = "default"

// Profile is a named set of timing thresholds. Expected delays are the
// minimum dwell the BMS must observe before switching a zone; the
// tolerances widen the band still classified as a correct response.
// Profiles are immutable once loaded.
type Profile struct {
	Name                string
	UnoccupiedToStandby time.Duration
	OccupiedToActive    time.Duration
	StandbyTolerance    time.Duration
	ActiveTolerance     time.Duration
}

// Validate checks profile invariants.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("rules: empty profile name")
	}
	if p.UnoccupiedToStandby <= 0 {
		return fmt.Errorf("rules: profile %s: unoccupied-to-standby delay must be positive", p.Name)
	}
	if p.OccupiedToActive <= 0 {
		return fmt.Errorf("rules: profile %s: occupied-to-active delay must be positive", p.Name)
	}
	if p.StandbyTolerance < 0 || p.ActiveTolerance < 0 {
		return fmt.Errorf("rules: profile %s: negative tolerance", p.Name)
	}
	return nil
}

// DefaultProfile is the documented base rule: 15 minutes unoccupied
// before standby, 5 minutes occupied before active, no tolerance.
func DefaultProfile() Profile {
	return Profile{
		Name:                DefaultProfileName,
		UnoccupiedToStandby: 15 * time.Minute,
		OccupiedToActive:    5 * time.Minute,
	}
}

// ProfileSet is a named, immutable profile catalog. A set always
// contains the default profile.
type ProfileSet struct {
	profiles map[string]Profile
}

// NewProfileSet builds a set from the given profiles, adding the
// built-in default when absent.
func NewProfileSet(profiles ...Profile) (*ProfileSet, error) {
	byName := make(map[string]Profile, len(profiles)+1)
	for _, profile := range profiles {
		if err := profile.Validate(); err != nil {
			return nil, err
		}
		if _, ok := byName[profile.Name]; ok {
			return nil, fmt.Errorf("rules: duplicate profile %s", profile.Name)
		}
		byName[profile.Name] = profile
	}
	if _, ok := byName[DefaultProfileName]; !ok {
		byName[DefaultProfileName] = DefaultProfile()
	}
	return &ProfileSet{profiles: byName}, nil
}

// Get resolves a profile by name. A missing name is fatal for the
// requesting run; there is no fallback.
func (s *ProfileSet) Get(name string) (Profile, error) {
	profile, ok := s.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("rules: profile %q: %w", name, ErrInvalidProfile)
	}
	return profile, nil
}

// Names lists the available profile names, sorted.
func (s *ProfileSet) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the profiles sorted by name.
func (s *ProfileSet) All() []Profile {
	profiles := make([]Profile, 0, len(s.profiles))
	for _, name := range s.Names() {
		profiles = append(profiles, s.profiles[name])
	}
	return profiles
}
