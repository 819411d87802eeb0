package tsinfer

import (
	uuid "github.com/hashicorp/go-uuid"
	"github.com/segmentio/ksuid"
)

// NewEntityTag mints an opaque per-ancestor/per-sample identifier for
// pass-through metadata records, the same way the teacher tags every
// in-memory genotype node with a ksuid.KSUID
// (_examples/kentwait-contagion/genotype.go). SQLiteAncestorSink.Append
// stamps one onto every row it inserts.
func NewEntityTag() string {
	return ksuid.New().String()
}

// NewRunToken mints a per-process run identifier for a CLI invocation's
// provenance record, distinct from the per-entity tags above. bin/infer
// logs one at startup and on completion so separate runs against the
// same telemetry/ancestor store can be told apart.
func NewRunToken() (string, error) {
	return uuid.GenerateUUID()
}
