package model

// Version constants recorded on stored entries.
const (
	// SchemaVersion is the entry schema version.
	SchemaVersion = "1"

	// EngineVersion is the socialdna engine version.
	EngineVersion = "0.1.0"
)
