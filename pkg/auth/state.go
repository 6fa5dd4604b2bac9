package auth

import (
	"encoding/json"
	"fmt"
	"time"
)

// Cookie is one browser cookie captured during the bootstrap login
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"http_only,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"same_site,omitempty"`
}

// StorageEntry is one localStorage key/value pair
type StorageEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Origin holds localStorage captured for a single origin
type Origin struct {
	Origin       string         `json:"origin"`
	LocalStorage []StorageEntry `json:"local_storage,omitempty"`
}

// State is the serialized browser session state for one platform:
// cookies plus per-origin localStorage. It is produced once by the
// interactive bootstrap flow and consumed read-only by scrape runs.
type State struct {
	Platform  string    `json:"platform"`
	Cookies   []Cookie  `json:"cookies"`
	Origins   []Origin  `json:"origins,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// Marshal serializes the state for persistence
func (s *State) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auth state: %w", err)
	}
	return data, nil
}

// UnmarshalState parses persisted session state
func UnmarshalState(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse auth state: %w", err)
	}
	return &s, nil
}
