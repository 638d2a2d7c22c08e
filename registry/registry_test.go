package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	reg := New()
	if reg == nil {
		t.Fatal("New() returned nil")
	}
	if reg.entries == nil {
		t.Error("Registry.entries is nil")
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
}

func TestRegister_Success(t *testing.T) {
	reg := New()

	err := reg.Register(&Entry{ID: "logger", Lifetime: "singleton", Value: "stdout"})
	if err != nil {
		t.Errorf("Register() returned error: %v", err)
	}

	if !reg.Has("logger") {
		t.Error("entry not found after Register()")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	reg := New()

	if err := reg.Register(&Entry{ID: "logger"}); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}

	err := reg.Register(&Entry{ID: "logger"})
	if err == nil {
		t.Fatal("Register() should return error for duplicate id")
	}

	var exists *AlreadyExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("expected AlreadyExistsError, got %T", err)
	}
	if exists.ID != "logger" {
		t.Errorf("AlreadyExistsError.ID = %q, want %q", exists.ID, "logger")
	}
}

func TestRegister_NilEntry(t *testing.T) {
	reg := New()

	if err := reg.Register(nil); err == nil {
		t.Error("Register(nil) should return error")
	}
}

func TestRegister_EmptyIDIsAnEntry(t *testing.T) {
	reg := New()

	if err := reg.Register(&Entry{Value: 1}); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}
	if !reg.Has("") {
		t.Error("entry with empty id not found")
	}
}

func TestGet_Success(t *testing.T) {
	reg := New()
	entry := &Entry{ID: "db", Value: 42}
	_ = reg.Register(entry)

	got, err := reg.Get("db")
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if got != entry {
		t.Error("Get() returned a different entry")
	}
	if got.Value != 42 {
		t.Errorf("Value = %v, want 42", got.Value)
	}
}

func TestGet_NotFound(t *testing.T) {
	reg := New()

	entry, err := reg.Get("missing")
	if err == nil {
		t.Fatal("Get() should return error for unknown id")
	}
	if entry != nil {
		t.Error("Get() should return nil entry for unknown id")
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %T", err)
	}
	if notFound.ID != "missing" {
		t.Errorf("NotFoundError.ID = %q, want %q", notFound.ID, "missing")
	}
}

func TestHas(t *testing.T) {
	reg := New()
	_ = reg.Register(&Entry{ID: "a"})

	if !reg.Has("a") {
		t.Error("Has(a) = false, want true")
	}
	if reg.Has("b") {
		t.Error("Has(b) = true, want false")
	}
}

func TestIDs_RegistrationOrder(t *testing.T) {
	reg := New()
	want := []string{"zeta", "alpha", "mu"}
	for _, id := range want {
		_ = reg.Register(&Entry{ID: id})
	}

	got := reg.IDs()
	if len(got) != len(want) {
		t.Fatalf("IDs() returned %d ids, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Mutating the result must not affect the registry
	got[0] = "changed"
	if reg.IDs()[0] != "zeta" {
		t.Error("IDs() exposes internal state")
	}
}

func TestEntries(t *testing.T) {
	reg := New()
	_ = reg.Register(&Entry{ID: "b", Value: 2})
	_ = reg.Register(&Entry{ID: "a", Value: 1})

	entries := reg.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries() returned %d entries, want 2", len(entries))
	}
	if entries[0].ID != "b" || entries[1].ID != "a" {
		t.Errorf("Entries() order = [%s %s], want [b a]", entries[0].ID, entries[1].ID)
	}
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}
}

func TestLock(t *testing.T) {
	reg := New()
	_ = reg.Register(&Entry{ID: "a"})

	if reg.Locked() {
		t.Fatal("new registry should not be locked")
	}
	reg.Lock()
	if !reg.Locked() {
		t.Fatal("Locked() = false after Lock()")
	}

	err := reg.Register(&Entry{ID: "b"})
	var locked *LockedError
	if !errors.As(err, &locked) {
		t.Fatalf("expected LockedError, got %v", err)
	}
	if locked.ID != "b" {
		t.Errorf("LockedError.ID = %q, want %q", locked.ID, "b")
	}

	// Reads keep working once locked
	if _, err := reg.Get("a"); err != nil {
		t.Errorf("Get() after Lock() returned error: %v", err)
	}
	if reg.Has("b") {
		t.Error("rejected entry should not be stored")
	}
}

func TestLock_DuplicateReportsLocked(t *testing.T) {
	reg := New()
	_ = reg.Register(&Entry{ID: "a"})
	reg.Lock()

	var locked *LockedError
	if err := reg.Register(&Entry{ID: "a"}); !errors.As(err, &locked) {
		t.Errorf("expected LockedError, got %v", err)
	}
}

func TestEntry_Transient(t *testing.T) {
	tests := []struct {
		lifetime string
		want     bool
	}{
		{"transient", true},
		{"singleton", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.lifetime, func(t *testing.T) {
			e := &Entry{Lifetime: tt.lifetime}
			if got := e.Transient(); got != tt.want {
				t.Errorf("Transient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrors_Messages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&AlreadyExistsError{ID: "a"}, `entry already exists for id "a"`},
		{&NotFoundError{ID: "a"}, `entry not found for id "a"`},
		{&LockedError{ID: "a"}, `registry is locked, can't register "a"`},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	reg := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = reg.Register(&Entry{ID: fmt.Sprintf("entry.%d", n), Value: n})
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = reg.Has(fmt.Sprintf("entry.%d", n))
			_ = reg.IDs()
		}(i)
	}
	wg.Wait()

	if reg.Len() != 50 {
		t.Errorf("Len() = %d, want 50", reg.Len())
	}
	for i := 0; i < 50; i++ {
		entry, err := reg.Get(fmt.Sprintf("entry.%d", i))
		if err != nil {
			t.Errorf("Get(entry.%d) returned error: %v", i, err)
			continue
		}
		if entry.Value != i {
			t.Errorf("entry.%d Value = %v, want %d", i, entry.Value, i)
		}
	}
}
