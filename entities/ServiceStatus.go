package entities

import "time"

// AIStatus is the outcome of the last probe of the classifier API.
// A zero CheckedAt means no probe has run yet.
type AIStatus struct {
	Online    bool          `json:"online"`
	Latency   time.Duration `json:"-"`
	Endpoint  string        `json:"endpoint"`
	CheckedAt time.Time     `json:"checkedAt"`
	Error     string        `json:"error,omitempty"`
}

// Known reports whether a probe has completed.
func (s AIStatus) Known() bool {
	return !s.CheckedAt.IsZero()
}

// PurgeReport records the last refresh token purge.
type PurgeReport struct {
	At      time.Time `json:"at"`
	Removed int64     `json:"removed"`
}

// StaleReport records the last count of demandes left pending too long.
type StaleReport struct {
	At      time.Time `json:"at"`
	Pending int       `json:"pending"`
}
