package guard

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Store keeps zstd-compressed file snapshots under a backup directory.
// Each snapshot gets its own id-named subdirectory with a manifest, so
// snapshots survive process restarts and can be restored independently.
type Store struct {
	dir string
}

// NewStore creates a snapshot store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// manifest records what a snapshot contains
type manifest struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Root      string    `json:"root"`
	Entries   []entry   `json:"entries"`
}

type entry struct {
	// Path is relative to the snapshot root
	Path string `json:"path"`

	// Archive is the compressed file name inside the snapshot directory
	Archive string `json:"archive"`

	Mode os.FileMode `json:"mode"`

	// Missing marks a path that did not exist at snapshot time; restore
	// deletes it if the mutation created it
	Missing bool `json:"missing,omitempty"`
}

// Backup is one taken snapshot
type Backup struct {
	ID    string
	store *Store
	man   manifest
}

// Snapshot captures the given root-relative paths. Paths that do not exist
// yet are recorded as missing so Restore can remove them again.
func (s *Store) Snapshot(root string, relPaths []string) (*Backup, error) {
	id := uuid.NewString()
	snapDir := filepath.Join(s.dir, id)
	if err := os.MkdirAll(snapDir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	man := manifest{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Root:      root,
	}

	for i, rel := range relPaths {
		src := filepath.Join(root, rel)
		info, err := os.Stat(src)
		if os.IsNotExist(err) {
			man.Entries = append(man.Entries, entry{Path: rel, Missing: true})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", rel, err)
		}

		archive := fmt.Sprintf("%d.zst", i)
		if err := compressFile(src, filepath.Join(snapDir, archive)); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", rel, err)
		}
		man.Entries = append(man.Entries, entry{
			Path:    rel,
			Archive: archive,
			Mode:    info.Mode().Perm(),
		})
	}

	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(snapDir, "manifest.json"), data, 0644); err != nil {
		return nil, fmt.Errorf("write snapshot manifest: %w", err)
	}

	return &Backup{ID: id, store: s, man: man}, nil
}

// Open loads a previously taken snapshot by id
func (s *Store) Open(id string) (*Backup, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", id, err)
	}
	var man manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("parse snapshot manifest: %w", err)
	}
	return &Backup{ID: id, store: s, man: man}, nil
}

// Restore puts every snapshotted path back to its captured state
func (b *Backup) Restore() error {
	snapDir := filepath.Join(b.store.dir, b.ID)

	for _, e := range b.man.Entries {
		dst := filepath.Join(b.man.Root, e.Path)

		if e.Missing {
			if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove %s: %w", e.Path, err)
			}
			continue
		}

		mode := e.Mode
		if mode == 0 {
			mode = 0644
		}
		if err := decompressFile(filepath.Join(snapDir, e.Archive), dst, mode); err != nil {
			return fmt.Errorf("restore %s: %w", e.Path, err)
		}
	}
	return nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return err
	}
	if _, err := io.Copy(enc, in); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func decompressFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return err
	}
	defer dec.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, dec.IOReadCloser())
	return err
}
