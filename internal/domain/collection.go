package domain

import "time"

// CollectionStatus is the in-memory report over the last collection run.
// It resets to empty at process start and is never persisted; callers must
// poll it, not assume durability.
type CollectionStatus struct {
	TotalEntities  int               `json:"total_entities"`
	Sources        map[string]string `json:"sources"`
	LastCollection time.Time         `json:"last_collection"`
}

// Per-source status values: "success", or "error: <message>". There is no
// partial-success state within a single source.
const SourceStatusSuccess = "success"
