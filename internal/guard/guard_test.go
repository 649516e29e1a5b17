package guard

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"tde/internal/errors"
	"tde/internal/logging"
)

func TestRunHappyPath(t *testing.T) {
	mutated := false
	outcome, err := Run(Mutation{
		Snapshot: func() (func() error, error) { return func() error { return nil }, nil },
		Mutate:   func() error { mutated = true; return nil },
		Verify:   func() error { return nil },
	}, logging.Nop())

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !mutated {
		t.Error("mutation did not run")
	}
	if !outcome.SnapshotTaken || outcome.RolledBack {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestRunMutateFailureRollsBack(t *testing.T) {
	restored := false
	outcome, err := Run(Mutation{
		Snapshot: func() (func() error, error) { return func() error { restored = true; return nil }, nil },
		Mutate:   func() error { return fmt.Errorf("transform failed") },
	}, logging.Nop())

	if err == nil || err.Error() != "transform failed" {
		t.Errorf("error = %v, want transform failed", err)
	}
	if !restored {
		t.Error("restore did not run")
	}
	if !outcome.RolledBack || !outcome.SnapshotTaken {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestRunVerifyFailureRollsBack(t *testing.T) {
	restored := false
	_, err := Run(Mutation{
		Snapshot: func() (func() error, error) { return func() error { restored = true; return nil }, nil },
		Mutate:   func() error { return nil },
		Verify:   func() error { return fmt.Errorf("tests failed") },
	}, logging.Nop())

	if err == nil || err.Error() != "tests failed" {
		t.Errorf("error = %v, want tests failed", err)
	}
	if !restored {
		t.Error("verify failure must trigger rollback")
	}
}

func TestRunRollbackFailureIsUnsafeState(t *testing.T) {
	_, err := Run(Mutation{
		Snapshot: func() (func() error, error) {
			return func() error { return fmt.Errorf("disk gone") }, nil
		},
		Mutate: func() error { return fmt.Errorf("transform failed") },
	}, logging.Nop())

	if errors.CodeOf(err) != errors.UnsafeState {
		t.Errorf("error = %v, want UNSAFE_STATE", err)
	}
}

func TestRunWithoutSnapshot(t *testing.T) {
	outcome, err := Run(Mutation{
		Mutate: func() error { return fmt.Errorf("boom") },
	}, logging.Nop())

	if err == nil {
		t.Fatal("want mutation error")
	}
	if outcome.SnapshotTaken || outcome.RolledBack {
		t.Errorf("outcome = %+v, nothing should be snapshot or rolled back", outcome)
	}
}

func TestSnapshotAndRestore(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "src", "a.ts")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("original content"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(t.TempDir())
	backup, err := store.Snapshot(root, []string{"src/a.ts", "src/new.ts"})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	// Mutate: overwrite one file, create the other
	if err := os.WriteFile(path, []byte("mutated"), 0644); err != nil {
		t.Fatal(err)
	}
	newPath := filepath.Join(root, "src", "new.ts")
	if err := os.WriteFile(newPath, []byte("created"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := backup.Restore(); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "original content" {
		t.Errorf("restored content = %q", content)
	}
	if _, err := os.Stat(newPath); !os.IsNotExist(err) {
		t.Error("file created after snapshot should be removed on restore")
	}
}

func TestOpenPersistedSnapshot(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "package.json")
	if err := os.WriteFile(path, []byte(`{"name":"app"}`), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(t.TempDir())
	backup, err := store.Snapshot(root, []string{"package.json"})
	if err != nil {
		t.Fatal(err)
	}

	// A fresh handle to the same snapshot restores identically
	reopened, err := store.Open(backup.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := reopened.Restore(); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != `{"name":"app"}` {
		t.Errorf("restored content = %q", content)
	}
}
