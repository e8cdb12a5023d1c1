package types

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/herbtrace/herbtrace-backend/internal/canonical"
)

func TestProductContentHashCoversTraceImage(t *testing.T) {
	base := Product{
		ID:          uuid.New(),
		ProductName: "Ashwagandha Churna",
		BatchCode:   "B-1",
		SpeciesName: "Ashwagandha",
		TraceCode:   "http://localhost:3000/trace/B-1",
		TraceImage:  "aGVsbG8=",
		CreatedAt:   time.Now().UTC(),
	}
	altered := base
	altered.TraceImage = "d29ybGQ="

	baseHash, err := canonical.Digest(&base)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	alteredHash, err := canonical.Digest(&altered)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if baseHash == alteredHash {
		t.Fatalf("changing the trace image did not change the content hash")
	}
}
