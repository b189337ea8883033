package domain

// Distance is the similarity metric of a vector collection.
type Distance string

// Supported distance metrics.
const (
	DistanceCosine    Distance = "cosine"
	DistanceDot       Distance = "dot"
	DistanceEuclid    Distance = "euclid"
	DistanceManhattan Distance = "manhattan"
)

// IsValid returns true if the distance metric is recognised.
func (d Distance) IsValid() bool {
	switch d {
	case DistanceCosine, DistanceDot, DistanceEuclid, DistanceManhattan:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d Distance) String() string {
	return string(d)
}

// CollectionSpec describes the collection that is rebuilt on each run.
type CollectionSpec struct {
	// Name is the collection name.
	Name string

	// Dimensions is the vector size. It must match the embedding model.
	Dimensions int

	// Distance is the similarity metric.
	Distance Distance
}

// Payload keys written with every record.
const (
	// PayloadKeyPath carries the document path key. The key is "id" so
	// existing consumers of the collection keep working.
	PayloadKeyPath = "id"

	PayloadKeyKind     = "kind"
	PayloadKeyPosition = "position"
	PayloadKeyContent  = "content"
	PayloadKeyTitle    = "title"
	PayloadKeyRun      = "run_id"
)

// IndexRecord is one point upserted into the vector index.
type IndexRecord struct {
	// ID is unique within the run. Its value carries no other meaning.
	ID uint64

	// Vector is the embedding of the chunk.
	Vector []float32

	// Payload is the metadata stored alongside the vector.
	Payload map[string]any
}

// DocumentPath returns the path key from the payload, or "".
func (r IndexRecord) DocumentPath() string {
	path, _ := r.Payload[PayloadKeyPath].(string)
	return path
}
