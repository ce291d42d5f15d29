// Package domain holds the core sample types shared by the journal and backends.
package domain

// Sample is one validated (name, value, timestamp) measurement destined for a
// metrics backend. Name and the serialized value carry no whitespace; the
// journal wire format is whitespace-delimited.
type Sample struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	CollectedAt int64   `json:"collected_at"`
	Instance    string  `json:"instance,omitempty"`
}

// Batch is the upload payload sent to a remote metrics gateway.
type Batch struct {
	Timestamp    int64    `json:"timestamp"`
	ProtoVersion int      `json:"proto_version"`
	Data         []Sample `json:"data"`
}

// ProtoVersion is the only wire protocol revision the gateway speaks.
const ProtoVersion = 1
