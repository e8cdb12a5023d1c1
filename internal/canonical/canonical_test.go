package canonical

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeRecord struct {
	fields map[string]any
}

func (f *fakeRecord) CanonicalFields() map[string]any {
	return f.fields
}

func TestDigestIsDeterministic(t *testing.T) {
	id := uuid.New()
	when := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	rec := &fakeRecord{fields: map[string]any{
		"id":       id,
		"batch":    "B-001",
		"quantity": 12.5,
		"when":     when,
	}}

	first, err := Digest(rec)
	if err != nil {
		t.Fatalf("digest failed: %v", err)
	}
	second, err := Digest(rec)
	if err != nil {
		t.Fatalf("second digest failed: %v", err)
	}
	if first != second {
		t.Fatalf("digest not deterministic: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}

func TestDigestIndependentOfConstructionOrder(t *testing.T) {
	a := map[string]any{}
	a["alpha"] = "1"
	a["beta"] = "2"
	a["gamma"] = "3"

	b := map[string]any{}
	b["gamma"] = "3"
	b["alpha"] = "1"
	b["beta"] = "2"

	da, err := DigestFields(a)
	if err != nil {
		t.Fatalf("digest a: %v", err)
	}
	db, err := DigestFields(b)
	if err != nil {
		t.Fatalf("digest b: %v", err)
	}
	if da != db {
		t.Fatalf("insertion order changed digest: %q vs %q", da, db)
	}
}

func TestDigestChangesWhenAnyFieldChanges(t *testing.T) {
	base := map[string]any{
		"species":  "Ashwagandha",
		"latitude": 18.5,
		"grade":    "A",
	}
	baseDigest, err := DigestFields(base)
	if err != nil {
		t.Fatalf("base digest: %v", err)
	}

	mutations := []map[string]any{
		{"species": "Tulsi", "latitude": 18.5, "grade": "A"},
		{"species": "Ashwagandha", "latitude": 18.500001, "grade": "A"},
		{"species": "Ashwagandha", "latitude": 18.5, "grade": "B"},
	}
	for i, m := range mutations {
		d, err := DigestFields(m)
		if err != nil {
			t.Fatalf("mutation %d digest: %v", i, err)
		}
		if d == baseDigest {
			t.Fatalf("mutation %d did not change digest", i)
		}
	}
}

func TestDigestTimeIsZoneInsensitive(t *testing.T) {
	utc := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	kolkata := utc.In(time.FixedZone("IST", 5*3600+1800))

	du, err := DigestFields(map[string]any{"at": utc})
	if err != nil {
		t.Fatalf("utc digest: %v", err)
	}
	dk, err := DigestFields(map[string]any{"at": kolkata})
	if err != nil {
		t.Fatalf("kolkata digest: %v", err)
	}
	if du != dk {
		t.Fatalf("same instant in different zones digested differently")
	}
}

func TestDigestRejectsNonFiniteFloats(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := DigestFields(map[string]any{"value": bad})
		if !errors.Is(err, ErrEncoding) {
			t.Fatalf("expected ErrEncoding for %v, got %v", bad, err)
		}
	}
}

func TestDigestRejectsUnsupportedTypes(t *testing.T) {
	_, err := DigestFields(map[string]any{"ch": make(chan int)})
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}

func TestDigestNestedStructures(t *testing.T) {
	nested := map[string]any{
		"ingredients": []string{"root", "leaf"},
		"meta": map[string]any{
			"organic": true,
			"scores":  []any{1.0, 2.0},
		},
	}
	first, err := DigestFields(nested)
	if err != nil {
		t.Fatalf("nested digest: %v", err)
	}
	second, err := DigestFields(map[string]any{
		"meta": map[string]any{
			"scores":  []any{1.0, 2.0},
			"organic": true,
		},
		"ingredients": []string{"root", "leaf"},
	})
	if err != nil {
		t.Fatalf("reordered nested digest: %v", err)
	}
	if first != second {
		t.Fatalf("nested digests differ")
	}
}
