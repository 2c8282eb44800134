package model

// Post is one entry in a collective's communication log.
type Post struct {
	Hash       Hash           `json:"hash"`
	Collective PartitionID    `json:"collective"`
	Ref        GlobalEntryRef `json:"ref"`
	Author     Identity       `json:"author"`
	CreatedAt  Timestamp      `json:"created_at"`
}

// CommunicationMethod is a partition a collective also communicates in.
type CommunicationMethod struct {
	Collective   PartitionID `json:"collective"`
	Partition    PartitionID `json:"partition_id"`
	RegisteredBy Identity    `json:"registered_by"`
	CreatedAt    Timestamp   `json:"created_at"`
}
