package registry

import (
	"errors"
	"testing"

	"github.com/gencrypto/gencrypto/codegen"
	"github.com/gencrypto/gencrypto/platform"
)

func noopGenerator(g *codegen.Generator) error { return nil }

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	e := Entry{Name: "aes", Variant: "128", Platform: "arm32", Generator: noopGenerator}
	if err := r.Register(e); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := r.Lookup("aes:128:arm32")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Name != "aes" || got.Variant != "128" || got.Platform != "arm32" {
		t.Errorf("Lookup returned %+v, want matching entry", got)
	}
}

func TestQualifiedNameOmitsEmptyFields(t *testing.T) {
	cases := []struct {
		e    Entry
		want string
	}{
		{Entry{Name: "ascon"}, "ascon"},
		{Entry{Name: "ascon", Variant: "128a"}, "ascon:128a"},
		{Entry{Name: "ascon", Platform: "avr"}, "ascon:avr"},
		{Entry{Name: "ascon", Variant: "128a", Platform: "avr"}, "ascon:128a:avr"},
	}
	for _, c := range cases {
		if got := c.e.QualifiedName(); got != c.want {
			t.Errorf("QualifiedName(%+v) = %q, want %q", c.e, got, c.want)
		}
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := New()
	e := Entry{Name: "sha256", Generator: noopGenerator}
	if err := r.Register(e); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := r.Register(e)
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("second Register error = %v (%T), want *DuplicateError", err, err)
	}
	if dup.QualifiedName != "sha256" {
		t.Errorf("DuplicateError.QualifiedName = %q, want %q", dup.QualifiedName, "sha256")
	}
}

func TestRegisterRejectsEmptyNameAndNilGenerator(t *testing.T) {
	r := New()
	if err := r.Register(Entry{Generator: noopGenerator}); err == nil {
		t.Error("Register with empty name: want error, got nil")
	}
	if err := r.Register(Entry{Name: "x"}); err == nil {
		t.Error("Register with nil generator: want error, got nil")
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := New()
	e := Entry{Name: "tinyjambu", Generator: noopGenerator}
	r.MustRegister(e)

	defer func() {
		if recover() == nil {
			t.Error("MustRegister on duplicate: want panic, got none")
		}
	}()
	r.MustRegister(e)
}

func TestLookupMissingReturnsNotFoundError(t *testing.T) {
	r := New()
	_, err := r.Lookup("xoodoo")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Lookup error = %v (%T), want *NotFoundError", err, err)
	}
}

func TestListIsLexicographicallyOrdered(t *testing.T) {
	r := New()
	entries := []Entry{
		{Name: "sha256", Generator: noopGenerator},
		{Name: "aes", Variant: "256", Generator: noopGenerator},
		{Name: "aes", Variant: "128", Generator: noopGenerator},
		{Name: "aes", Variant: "128", Platform: "avr", Generator: noopGenerator},
		{Name: "ascon", Generator: noopGenerator},
	}
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			t.Fatalf("Register(%+v): %v", e, err)
		}
	}

	got := r.List()
	want := []string{"aes:128", "aes:128:avr", "aes:256", "ascon", "sha256"}
	if len(got) != len(want) {
		t.Fatalf("List() returned %d entries, want %d", len(got), len(want))
	}
	for i, e := range got {
		if qn := e.QualifiedName(); qn != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, qn, want[i])
		}
	}
}

func TestFreezeSnapshotIsReadOnlyAndStable(t *testing.T) {
	r := New()
	if err := r.Register(Entry{Name: "aes", Generator: noopGenerator}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	snap := r.Freeze()
	if snap.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", snap.Len())
	}

	// Registering into r after Freeze must not retroactively affect snap.
	if err := r.Register(Entry{Name: "sha256", Generator: noopGenerator}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if snap.Len() != 1 {
		t.Errorf("Len() after later Register = %d, want 1 (snapshot must be frozen)", snap.Len())
	}

	if _, err := snap.Lookup("sha256"); err == nil {
		t.Error("snapshot Lookup found an entry registered after Freeze")
	}
	if _, err := snap.Lookup("aes"); err != nil {
		t.Errorf("snapshot Lookup(aes): %v", err)
	}
}

func TestGlobalSnapshotIsMemoized(t *testing.T) {
	// GlobalSnapshot freezes the package-level Global registry exactly
	// once; calling it twice must return the same contents even though
	// Global itself is mutable process-wide state shared across tests.
	first := GlobalSnapshot()
	second := GlobalSnapshot()
	if first.Len() != second.Len() {
		t.Errorf("GlobalSnapshot() lengths differ across calls: %d vs %d", first.Len(), second.Len())
	}
}

func TestEntryCarriesTestHook(t *testing.T) {
	called := false
	testFn := func(p *platform.Platform, buf []byte) error {
		called = true
		return nil
	}
	r := New()
	e := Entry{Name: "aes", Generator: noopGenerator, Test: testFn}
	if err := r.Register(e); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := r.Lookup("aes")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err := got.Test(nil, nil); err != nil {
		t.Fatalf("Test hook: %v", err)
	}
	if !called {
		t.Error("Test hook was not invoked")
	}
}
