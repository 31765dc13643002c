package models

import "time"

// WizardState holds the transient per-user state of the booking wizard.
// Revision guards against stale completions of the simulated inventory
// fetch: any mutation bumps it, and a fetch result is discarded when the
// revision it started from no longer matches.
type WizardState struct {
	UserID   int64                  `json:"user_id"`
	Step     string                 `json:"step"`
	Mode     string                 `json:"mode"`
	Revision int64                  `json:"revision"`
	TempData map[string]interface{} `json:"temp_data"`
}

func (s *WizardState) GetInt64(key string) int64 {
	if s.TempData == nil {
		return 0
	}
	val, ok := s.TempData[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}

func (s *WizardState) GetString(key string) string {
	if s.TempData == nil {
		return ""
	}
	val, ok := s.TempData[key]
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func (s *WizardState) GetBool(key string) bool {
	if s.TempData == nil {
		return false
	}
	val, ok := s.TempData[key]
	if !ok {
		return false
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return false
}

func (s *WizardState) GetTime(key string) time.Time {
	if s.TempData == nil {
		return time.Time{}
	}
	val, ok := s.TempData[key]
	if !ok {
		return time.Time{}
	}
	switch v := val.(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}
		}
		return t
	default:
		return time.Time{}
	}
}

// Clone returns a copy with its own TempData map, so two holders of the
// same session never mutate one map.
func (s *WizardState) Clone() *WizardState {
	out := *s
	if s.TempData != nil {
		out.TempData = make(map[string]interface{}, len(s.TempData))
		for k, v := range s.TempData {
			out.TempData[k] = v
		}
	}
	return &out
}

// Set stores a value in TempData, allocating the map on first use.
func (s *WizardState) Set(key string, value interface{}) {
	if s.TempData == nil {
		s.TempData = make(map[string]interface{})
	}
	s.TempData[key] = value
}
