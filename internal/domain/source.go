package domain

import "context"

// NativeRecord is one record in a catalog's own schema, decoded from JSON
// before any field mapping is applied.
type NativeRecord map[string]any

// Catalog fetches one remote catalog's rows in their native shape.
// Implementations differ by protocol family (flat-list, feature-collection,
// SQL envelope) but share this contract; normalization happens downstream
// via a per-source FieldMap.
type Catalog interface {
	// Origin identifies the source system, e.g. "austin".
	Origin() string

	// FetchBatch retrieves up to the configured row cap of native records.
	FetchBatch(ctx context.Context) ([]NativeRecord, error)
}

// FieldMap names the native fields backing each canonical field for one
// source. It is plain configuration data: adding a source of an existing
// protocol family requires no new code, only a new mapping.
type FieldMap struct {
	ID       string // native unique identifier; empty means derive a content hash
	Location string // required; records without it are dropped
	Category string
	Value    string
	Party    string
	Date     string
	Status   string
	AreaKey  string
	Notes    string

	// EpochMillisDates marks date fields encoded as epoch-millisecond
	// numbers (ArcGIS style) rather than ISO strings.
	EpochMillisDates bool

	// StatusFallback is used when the native status field is absent or
	// empty, e.g. "issued" for catalogs that only publish issued permits.
	StatusFallback string
}
