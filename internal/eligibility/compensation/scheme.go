// Package compensation resolves a delay into a statutory refund percentage.
//
// A Scheme is a closed set of rule sets; each Scheme owns a threshold table
// whose bands partition delay-space. Resolution picks the band with the
// highest threshold not exceeding the delay.
package compensation

import (
	"fmt"
	"strings"
)

// Scheme identifies a compensation rule set. The zero value is not a valid
// scheme; only the constants below can be produced by ParseScheme.
type Scheme uint8

const (
	schemeUnknown Scheme = iota
	// SchemeDR15 pays from 15 minutes of delay.
	SchemeDR15
	// SchemeDR30 pays from 30 minutes of delay.
	SchemeDR30
)

var schemeNames = map[Scheme]string{
	SchemeDR15: "DR15",
	SchemeDR30: "DR30",
}

// Schemes lists every valid scheme in a stable order.
func Schemes() []Scheme {
	return []Scheme{SchemeDR15, SchemeDR30}
}

// ParseScheme accepts a scheme name case-insensitively.
func ParseScheme(s string) (Scheme, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for scheme, n := range schemeNames {
		if n == name {
			return scheme, nil
		}
	}
	return schemeUnknown, fmt.Errorf("unknown compensation scheme %q", s)
}

func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsValid reports whether s is one of the defined schemes.
func (s Scheme) IsValid() bool {
	_, ok := schemeNames[s]
	return ok
}

// MinimumThreshold is the smallest delay, in minutes, that can pay out.
func (s Scheme) MinimumThreshold() int {
	switch s {
	case SchemeDR15:
		return 15
	case SchemeDR30:
		return 30
	default:
		return 0
	}
}

// DefaultBands is the statutory threshold table for the scheme. Reference
// data may override the table per deployment.
func (s Scheme) DefaultBands() []Band {
	switch s {
	case SchemeDR15:
		return []Band{{15, 25}, {30, 50}, {60, 100}, {120, 100}}
	case SchemeDR30:
		return []Band{{30, 50}, {60, 100}, {120, 100}}
	default:
		return nil
	}
}

// MarshalText encodes the scheme as its name.
func (s Scheme) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("cannot marshal invalid scheme %d", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a scheme name.
func (s *Scheme) UnmarshalText(text []byte) error {
	parsed, err := ParseScheme(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
