package xltpl

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// archive holds every entry of the ZIP container fully in memory, in the
// order the container listed them, so an unmodified document saves back
// with the same entry set and ordering.
type archive struct {
	names   []string
	entries map[string][]byte
}

func newArchive() *archive {
	return &archive{entries: make(map[string][]byte)}
}

// readArchive reads the container at path into memory.
func readArchive(path string) (*archive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", path, err)
	}
	defer r.Close()

	a := newArchive()
	for _, f := range r.File {
		if err := a.readEntry(f); err != nil {
			return nil, fmt.Errorf("archive %q: %w", path, err)
		}
	}
	return a, nil
}

// readArchiveReader reads a container from r. ZIP needs random access, so
// the stream is buffered in full first.
func readArchiveReader(r io.Reader) (*archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a := newArchive()
	for _, f := range zr.File {
		if err := a.readEntry(f); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *archive) readEntry(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %q: %w", f.Name, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("read entry %q: %w", f.Name, err)
	}
	a.setEntry(f.Name, data)
	return nil
}

// entry returns the current bytes stored under name.
func (a *archive) entry(name string) ([]byte, bool) {
	data, ok := a.entries[name]
	return data, ok
}

// setEntry replaces the bytes stored under name, appending the name to the
// save order if it is new.
func (a *archive) setEntry(name string, data []byte) {
	if _, ok := a.entries[name]; !ok {
		a.names = append(a.names, name)
	}
	a.entries[name] = data
}

// writeTo writes a new deflate-compressed container holding exactly the
// current entry set, each entry verbatim, in load order.
func (a *archive) writeTo(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, name := range a.names {
		f, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("create entry %q: %w", name, err)
		}
		if _, err := f.Write(a.entries[name]); err != nil {
			return fmt.Errorf("write entry %q: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}
