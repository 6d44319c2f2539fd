package token

import (
	"fmt"
	"time"
)

// Version is one entry of a Set.
type Version struct {
	Version   int       `yaml:"version"`
	Token     string    `yaml:"token"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Set is the versioned join token record of one cluster.
type Set struct {
	Cluster  string    `yaml:"cluster"`
	Versions []Version `yaml:"versions"`
}

// Current returns the highest version.
func (s *Set) Current() (Version, bool) {
	if s == nil || len(s.Versions) == 0 {
		return Version{}, false
	}
	current := s.Versions[0]
	for _, v := range s.Versions[1:] {
		if v.Version > current.Version {
			current = v
		}
	}
	return current, true
}

// CurrentToken parses the token of the highest version.
func (s *Set) CurrentToken() (Token, error) {
	v, ok := s.Current()
	if !ok {
		return Token{}, fmt.Errorf("token set has no versions")
	}
	return Parse(v.Token)
}

// Append records tok as a new version one above the current highest.
func (s *Set) Append(tok Token, now time.Time) Version {
	next := 1
	if current, ok := s.Current(); ok {
		next = current.Version + 1
	}
	v := Version{Version: next, Token: tok.String(), CreatedAt: now.UTC()}
	s.Versions = append(s.Versions, v)
	return v
}

// Validate checks that versions are positive and unique and that every
// token parses.
func (s *Set) Validate() error {
	seen := make(map[int]bool, len(s.Versions))
	for _, v := range s.Versions {
		if v.Version < 1 {
			return fmt.Errorf("token version %d: versions start at 1", v.Version)
		}
		if seen[v.Version] {
			return fmt.Errorf("token version %d appears more than once", v.Version)
		}
		seen[v.Version] = true
		if _, err := Parse(v.Token); err != nil {
			return fmt.Errorf("token version %d: %w", v.Version, err)
		}
	}
	return nil
}
