package model

// Profile is the public self-description of an agent.
type Profile struct {
	Identity    Identity        `json:"identity"`
	DisplayName string          `json:"display_name" validate:"required,max=128"`
	Summary     string          `json:"summary,omitempty" validate:"max=2048"`
	Avatar      *GlobalEntryRef `json:"avatar,omitempty"`
	UpdatedAt   Timestamp       `json:"updated_at"`
}
