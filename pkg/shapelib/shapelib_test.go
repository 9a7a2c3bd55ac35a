package shapelib

import (
	"path/filepath"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/go-cmp/cmp"
)

func TestBuiltinsPresent(t *testing.T) {
	l := New()
	for _, key := range []string{"cross", "arrow", "cube", "pin", "pinDouble", "orient", "gear"} {
		e, err := l.Shape(key)
		if err != nil {
			t.Errorf("Shape(%q): %v", key, err)
			continue
		}
		if len(e) == 0 || len(e[0].Points) < 2 {
			t.Errorf("Shape(%q) is degenerate: %v", key, e)
		}
	}
}

func TestMissingKeyIsHardError(t *testing.T) {
	if _, err := New().Shape("nope"); err == nil {
		t.Fatal("Shape on missing key returned nil error")
	}
}

func TestShapeReturnsCopy(t *testing.T) {
	l := New()
	e, _ := l.Shape("cross")
	e[0].Points[0] = v3.Vec{X: 99}
	again, _ := l.Shape("cross")
	if again[0].Points[0].X == 99 {
		t.Error("mutating a returned entry leaked into the library")
	}
}

func TestStoreValidation(t *testing.T) {
	l := New()
	if err := l.Store("", Entry{{Name: "a", Points: []v3.Vec{{}, {X: 1}}}}); err == nil {
		t.Error("empty key accepted")
	}
	if err := l.Store("bad", Entry{{Name: "a", Points: []v3.Vec{{}}}}); err == nil {
		t.Error("single-point loop accepted")
	}
	if err := l.Store("ok", Entry{{Name: "a", Points: []v3.Vec{{}, {X: 1}}}}); err != nil {
		t.Errorf("valid store failed: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapes.json")

	src := New()
	custom := Entry{{Name: "zig", Points: []v3.Vec{{}, {X: 1, Y: 2}, {X: 3}}}}
	if err := src.Store("zig", custom); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := src.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := New()
	if err := dst.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := dst.Shape("zig")
	if err != nil {
		t.Fatalf("Shape after load: %v", err)
	}
	if diff := cmp.Diff(custom, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestDefaultIsProcessWide(t *testing.T) {
	if Default() != Default() {
		t.Error("Default returned two different libraries")
	}
}
