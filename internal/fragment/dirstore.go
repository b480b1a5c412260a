package fragment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirStore persists one <name>.sql file per fragment in a workspace
// directory. Writes are staged to a temp file and renamed into place,
// so a crash mid-write never leaves a half-written fragment behind.
type DirStore struct {
	dir string
}

// NewDirStore opens dir as a fragment workspace, creating it if
// needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the workspace directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// Path returns the file path a fragment name maps to.
func (s *DirStore) Path(name string) string {
	return filepath.Join(s.dir, name+".sql")
}

// Get reads and decodes one fragment file. The filename wins over a
// conflicting name in the header.
func (s *DirStore) Get(name string) (*Fragment, error) {
	content, err := os.ReadFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("read fragment %s: %w", name, err)
	}

	f, err := Decode(string(content))
	if err != nil {
		return nil, fmt.Errorf("fragment %s: %w", name, err)
	}
	f.Name = name
	return f, nil
}

// Put writes a single fragment file via a staged rename.
func (s *DirStore) Put(f *Fragment) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return s.writeStaged(f)
}

// PutAll stages every fragment file first and renames them into place
// only after all of them encoded and wrote cleanly. A failure during
// staging removes the temp files and leaves the workspace untouched.
func (s *DirStore) PutAll(fragments []*Fragment) error {
	seen := make(map[string]struct{}, len(fragments))
	for _, f := range fragments {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate fragment name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	staged := make(map[string]string, len(fragments)) // temp path -> final path
	cleanup := func() {
		for tmp := range staged {
			os.Remove(tmp)
		}
	}

	for _, f := range fragments {
		tmp, err := s.stage(f)
		if err != nil {
			cleanup()
			return err
		}
		staged[tmp] = s.Path(f.Name)
	}

	for tmp, final := range staged {
		if err := os.Rename(tmp, final); err != nil {
			cleanup()
			return fmt.Errorf("commit fragment file %s: %w", final, err)
		}
		delete(staged, tmp)
	}
	return nil
}

// List decodes every *.sql file in the workspace, sorted by name.
// Files whose basename is not a valid fragment name are skipped.
func (s *DirStore) List() ([]*Fragment, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read workspace %s: %w", s.dir, err)
	}

	var out []*Fragment
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".sql")
		if !ValidName.MatchString(name) {
			continue
		}
		f, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a fragment file.
func (s *DirStore) Delete(name string) error {
	err := os.Remove(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return &NotFoundError{Name: name}
	}
	if err != nil {
		return fmt.Errorf("delete fragment %s: %w", name, err)
	}
	return nil
}

func (s *DirStore) writeStaged(f *Fragment) error {
	tmp, err := s.stage(f)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, s.Path(f.Name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit fragment file %s: %w", s.Path(f.Name), err)
	}
	return nil
}

func (s *DirStore) stage(f *Fragment) (string, error) {
	content, err := Encode(f)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, "."+f.Name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("stage fragment %s: %w", f.Name, err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("stage fragment %s: %w", f.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("stage fragment %s: %w", f.Name, err)
	}
	return tmp.Name(), nil
}
