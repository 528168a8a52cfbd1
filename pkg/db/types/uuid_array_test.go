package dbtypes

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDArrayRoundTrip(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	arr := UUIDArray{a, b}

	value, err := arr.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded UUIDArray
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != a || decoded[1] != b {
		t.Fatalf("unexpected decoded array %v", decoded)
	}
}

func TestUUIDArrayScanEmpty(t *testing.T) {
	var arr UUIDArray
	if err := arr.Scan("{}"); err != nil {
		t.Fatalf("scan empty: %v", err)
	}
	if len(arr) != 0 {
		t.Fatalf("expected empty array, got %v", arr)
	}

	if err := arr.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if len(arr) != 0 {
		t.Fatalf("expected empty array, got %v", arr)
	}
}

func TestUUIDArrayScanRejectsJunk(t *testing.T) {
	var arr UUIDArray
	if err := arr.Scan("{not-a-uuid}"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestUUIDArraySetHelpers(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	arr := UUIDArray{a}
	if !arr.Contains(a) {
		t.Fatal("expected membership")
	}
	if arr.Contains(b) {
		t.Fatal("unexpected membership")
	}

	arr = arr.Append(b)
	arr = arr.Append(b)
	if len(arr) != 2 {
		t.Fatalf("append should dedupe, got %v", arr)
	}

	arr = arr.Remove(a)
	if arr.Contains(a) || len(arr) != 1 {
		t.Fatalf("remove failed, got %v", arr)
	}
}
