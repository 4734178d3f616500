package monitor

import "time"

type Status struct {
	Services   map[string]bool `json:"services"`
	Buffer     bool            `json:"buffer"`
	BufferSize int             `json:"buffer_size"`
	LastCheck  time.Time       `json:"last_check"`
}

// Online is false until the first check has run.
func (s Status) Online() bool {
	if s.LastCheck.IsZero() {
		return false
	}
	for _, up := range s.Services {
		if !up {
			return false
		}
	}
	return true
}
