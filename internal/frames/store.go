// Package frames is the ordered on-disk store of one recording's extracted
// frames, addressable by natural (numeric-aware) filename order.
package frames

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/maruel/natural"
)

// Store is an ordered view over the frame files of one directory. The
// ordering is natural, so frame_2 sorts before frame_10.
type Store struct {
	dir   string
	paths []string
}

// Open lists the directory and fixes the frame order.
func Open(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame dir %s: %w", dir, err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Slice(paths, func(i, j int) bool {
		return natural.Less(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})
	return &Store{dir: dir, paths: paths}, nil
}

func (s *Store) Len() int { return len(s.paths) }

// Paths returns the ordered frame paths. Callers must not mutate the slice.
func (s *Store) Paths() []string { return s.paths }

// Index locates a frame by base filename.
func (s *Store) Index(name string) (int, error) {
	base := filepath.Base(name)
	for i, fp := range s.paths {
		if filepath.Base(fp) == base {
			return i, nil
		}
	}
	return 0, fmt.Errorf("frame %s not in store", base)
}

// Window expands [start, end] by margin frames on both sides, clamped to
// the store's bounds. Start and end may arrive swapped.
func (s *Store) Window(start, end, margin int) (lo, hi int) {
	if start > end {
		start, end = end, start
	}
	lo = start - margin
	if lo < 0 {
		lo = 0
	}
	hi = end + margin
	if hi > len(s.paths)-1 {
		hi = len(s.paths) - 1
	}
	return lo, hi
}

// CopyWindow copies the frames of [lo, hi] into destDir renumbered from
// zero, preserving the source extension, and returns the new paths in order.
func (s *Store) CopyWindow(lo, hi int, destDir string) ([]string, error) {
	if lo < 0 || hi >= len(s.paths) || lo > hi {
		return nil, fmt.Errorf("window [%d,%d] outside store of %d frames", lo, hi, len(s.paths))
	}
	out := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		ext := filepath.Ext(s.paths[i])
		dest := filepath.Join(destDir, fmt.Sprintf("%05d%s", i-lo, ext))
		if err := copyFile(s.paths[i], dest); err != nil {
			return nil, err
		}
		out = append(out, dest)
	}
	return out, nil
}

// Prune deletes every frame outside [lo, hi]. Destructive and intentional:
// the retained window is all the fluency analysis needs, the rest is space.
// Returns the retained paths in order.
func (s *Store) Prune(lo, hi int) ([]string, error) {
	if lo < 0 || hi >= len(s.paths) || lo > hi {
		return nil, fmt.Errorf("window [%d,%d] outside store of %d frames", lo, hi, len(s.paths))
	}
	retained := make([]string, 0, hi-lo+1)
	for i, fp := range s.paths {
		if i < lo || i > hi {
			if err := os.Remove(fp); err != nil {
				return nil, fmt.Errorf("prune frame %s: %w", fp, err)
			}
			continue
		}
		retained = append(retained, fp)
	}
	s.paths = retained
	return retained, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}
