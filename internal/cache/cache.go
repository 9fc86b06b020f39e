// Package cache keeps check results on disk, keyed by dump content.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"phpc/internal/diag"
	"phpc/internal/source"
	"phpc/internal/tinf"
)

// bump when Entry changes
const schemaVersion uint16 = 2

const storedFile source.FileID = 1

// Digest - SHA-256 ключ записи.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Key hashes the dump path and content together with the enabled checks. A dump
// without a file: field is reported under its own path, so the path is part of the key.
func Key(path string, content []byte, checks tinf.IssetFlags) Digest {
	h := sha256.New()
	var buf [14]byte
	binary.LittleEndian.PutUint16(buf[:2], schemaVersion)
	binary.LittleEndian.PutUint32(buf[2:6], uint32(checks))
	binary.LittleEndian.PutUint64(buf[6:], uint64(len(path)))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(path))
	_, _ = h.Write(content)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Entry is the result of checking one dump. Stored spans use storedFile for File;
// Restore maps them back into a FileSet.
type Entry struct {
	Schema      uint16            `msgpack:"schema"`
	File        string            `msgpack:"file"`
	Source      []byte            `msgpack:"source,omitempty"`
	Diagnostics []diag.Diagnostic `msgpack:"diags,omitempty"`
	Sites       int               `msgpack:"sites"`
	Reported    int               `msgpack:"reported"`
}

// NewEntry detaches diagnostics about file from the FileSet they were reported in.
func NewEntry(fs *source.FileSet, file source.FileID, diags []diag.Diagnostic) *Entry {
	f := fs.Get(file)
	e := &Entry{Schema: schemaVersion}
	if f != nil {
		e.File = f.Path
		e.Source = f.Content
	}
	e.Diagnostics = make([]diag.Diagnostic, len(diags))
	for i, d := range diags {
		e.Diagnostics[i] = remap(d, file, storedFile)
	}
	return e
}

// Restore registers the cached file in fs and returns diagnostics pointing at it.
func (e *Entry) Restore(fs *source.FileSet) (source.FileID, []diag.Diagnostic) {
	id := fs.AddVirtual(e.File, e.Source)
	out := make([]diag.Diagnostic, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		out[i] = remap(d, storedFile, id)
	}
	return id, out
}

func remap(d diag.Diagnostic, from, to source.FileID) diag.Diagnostic {
	move := func(sp source.Span) source.Span {
		if sp != source.NoSpan && sp.File == from {
			sp.File = to
		}
		return sp
	}
	d.Primary = move(d.Primary)
	if len(d.Notes) > 0 {
		notes := make([]diag.Note, len(d.Notes))
		for i, n := range d.Notes {
			notes[i] = diag.Note{Span: move(n.Span), Msg: n.Msg}
		}
		d.Notes = notes
	}
	return d
}

// Disk хранит записи в каталоге; безопасен для конкурентного доступа.
type Disk struct {
	mu  sync.RWMutex
	dir string
}

// Open creates dir when needed.
func Open(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Disk) Dir() string { return c.dir }

func (c *Disk) pathFor(key Digest) string {
	return filepath.Join(c.dir, "results", key.String()+".mp")
}

// Put serializes and writes an entry. A nil cache ignores writes.
func (c *Disk) Put(key Digest, e *Entry) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(e); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads an entry. Entries written by another schema count as misses.
func (c *Disk) Get(key Digest) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var e Entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	if e.Schema != schemaVersion {
		return nil, false, nil
	}
	return &e, true, nil
}

// DropAll removes every entry.
func (c *Disk) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог, потом удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
