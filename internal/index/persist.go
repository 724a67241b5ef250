package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// On-disk layout under the index root:
//
//	CURRENT                      name of the live snapshot
//	snapshots/<id>/index.vec     header + little-endian float32 vectors
//	snapshots/<id>/meta.jsonl    one MetadataRecord per line, line i = entry i
const (
	CurrentFile  = "CURRENT"
	SnapshotsDir = "snapshots"
	VectorFile   = "index.vec"
	MetadataFile = "meta.jsonl"

	stagingSuffix = ".tmp"
	formatVersion = uint32(1)
	maxLineBytes  = 16 << 20
)

var (
	magic      = [8]byte{'S', 'R', 'A', 'G', 'V', 'E', 'C', '1'}
	snapshotID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

	removeAll = os.RemoveAll
)

// ErrPruneFailed is returned by Save when the new snapshot is live but older
// snapshots could not be removed. The save itself succeeded.
var ErrPruneFailed = errors.New("snapshot saved, pruning old snapshots failed")

type vectorHeader struct {
	Magic     [8]byte
	Version   uint32
	Dimension uint32
	Count     uint64
	Digest    [blake2b.Size256]byte // BLAKE2b-256 of the paired meta.jsonl
}

// SnapshotPath returns the directory of snapshot id under root.
func SnapshotPath(root, id string) string {
	return filepath.Join(root, SnapshotsDir, id)
}

// ValidSnapshotID reports whether id can name a snapshot directory.
func ValidSnapshotID(id string) bool {
	return snapshotID.MatchString(id) && !strings.HasSuffix(id, stagingSuffix)
}

// Save writes s as snapshot id and makes it the live snapshot. The previous
// snapshot stays live until the CURRENT pointer is atomically replaced, so a
// failure before that point leaves it intact. Other snapshots are pruned
// afterwards; a pruning failure is reported as ErrPruneFailed with the new
// snapshot already live.
func Save(root string, s *Store, id string) error {
	if !ValidSnapshotID(id) {
		return fmt.Errorf("%w: snapshot id %q", domain.ErrInvalidInput, id)
	}
	if s.Len() == 0 {
		return fmt.Errorf("%w: refusing to save an empty index", domain.ErrInvalidInput)
	}

	if live, err := Current(root); err == nil && live == id {
		return fmt.Errorf("%w: snapshot %s is live", domain.ErrInvalidInput, id)
	}

	final := SnapshotPath(root, id)
	staging := final + stagingSuffix
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear staging dir: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	if err := writeSnapshot(staging, s); err != nil {
		_ = os.RemoveAll(staging)
		return err
	}
	if err := os.RemoveAll(final); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("clear snapshot dir: %w", err)
	}
	if err := os.Rename(staging, final); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("publish snapshot dir: %w", err)
	}
	if err := syncDir(filepath.Join(root, SnapshotsDir)); err != nil {
		return err
	}

	if err := Activate(root, id); err != nil {
		return err
	}
	if err := Prune(root); err != nil {
		return fmt.Errorf("%w: %v", ErrPruneFailed, err)
	}
	return nil
}

// writeSnapshot writes the metadata log first so its digest can go in the vector header.
func writeSnapshot(dir string, s *Store) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	digest, err := writeMetadata(filepath.Join(dir, MetadataFile), s.records)
	if err != nil {
		return err
	}

	hdr := vectorHeader{
		Magic:     magic,
		Version:   formatVersion,
		Dimension: uint32(s.dim),
		Count:     uint64(len(s.records)),
		Digest:    digest,
	}
	return writeFileSync(filepath.Join(dir, VectorFile), func(w io.Writer) error {
		if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
			return err
		}
		if err := writeModel(w, s.model); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, s.vectors)
	})
}

func writeMetadata(path string, records []domain.MetadataRecord) ([blake2b.Size256]byte, error) {
	var digest [blake2b.Size256]byte
	h, err := blake2b.New256(nil)
	if err != nil {
		return digest, err
	}

	err = writeFileSync(path, func(w io.Writer) error {
		enc := json.NewEncoder(io.MultiWriter(w, h))
		enc.SetEscapeHTML(false)
		for i := range records {
			if err := enc.Encode(&records[i]); err != nil {
				return err
			}
		}
		return nil
	})
	copy(digest[:], h.Sum(nil))
	return digest, err
}

func writeModel(w io.Writer, model string) error {
	if len(model) > 0xffff {
		return fmt.Errorf("%w: model name too long", domain.ErrInvalidInput)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(model))); err != nil {
		return err
	}
	_, err := io.WriteString(w, model)
	return err
}

// writeFileSync creates path, streams content through a buffer and fsyncs it.
func writeFileSync(path string, content func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	bw := bufio.NewWriter(f)
	if err := content(bw); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Activate atomically points CURRENT at snapshot id.
func Activate(root, id string) error {
	if !ValidSnapshotID(id) {
		return fmt.Errorf("%w: snapshot id %q", domain.ErrInvalidInput, id)
	}
	tmp := filepath.Join(root, CurrentFile+stagingSuffix)
	if err := writeFileSync(tmp, func(w io.Writer) error {
		_, err := io.WriteString(w, id+"\n")
		return err
	}); err != nil {
		return err
	}
	if err := os.Rename(tmp, filepath.Join(root, CurrentFile)); err != nil {
		return fmt.Errorf("swap %s: %w", CurrentFile, err)
	}
	return syncDir(root)
}

// Current returns the live snapshot id, or domain.ErrNotFound if none was saved.
func Current(root string) (string, error) {
	b, err := os.ReadFile(filepath.Join(root, CurrentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: no index at %s", domain.ErrNotFound, root)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", CurrentFile, err)
	}
	id := strings.TrimSpace(string(b))
	if !ValidSnapshotID(id) {
		return "", fmt.Errorf("%w: %s names invalid snapshot %q", domain.ErrIndexConsistency, CurrentFile, id)
	}
	return id, nil
}

// Exists reports whether a live snapshot with both of its files is present.
// It does not read or verify the files.
func Exists(root string) (bool, error) {
	id, err := Current(root)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, name := range []string{VectorFile, MetadataFile} {
		if _, err := os.Stat(filepath.Join(SnapshotPath(root, id), name)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

// Load reads the live snapshot. Any disagreement between the vector file and
// the metadata log fails with domain.ErrIndexConsistency; nothing partial is returned.
func Load(root string) (*Store, string, error) {
	id, err := Current(root)
	if err != nil {
		return nil, "", err
	}
	s, err := LoadSnapshot(SnapshotPath(root, id))
	if err != nil {
		return nil, "", err
	}
	return s, id, nil
}

// LoadSnapshot reads and verifies the pair in dir.
func LoadSnapshot(dir string) (*Store, error) {
	meta, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read metadata: %v", domain.ErrIndexConsistency, err)
	}
	records, err := decodeMetadata(meta)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(dir, VectorFile))
	if err != nil {
		return nil, fmt.Errorf("%w: open vectors: %v", domain.ErrIndexConsistency, err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var hdr vectorHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: read vector header: %v", domain.ErrIndexConsistency, err)
	}
	if hdr.Magic != magic {
		return nil, fmt.Errorf("%w: %s is not a vector file", domain.ErrIndexConsistency, VectorFile)
	}
	if hdr.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported vector file version %d", domain.ErrIndexConsistency, hdr.Version)
	}
	if hdr.Count != uint64(len(records)) {
		return nil, fmt.Errorf("%w: %d vectors, %d metadata records", domain.ErrIndexConsistency, hdr.Count, len(records))
	}
	if hdr.Dimension == 0 || hdr.Count == 0 {
		return nil, fmt.Errorf("%w: empty vector file", domain.ErrIndexConsistency)
	}
	if blake2b.Sum256(meta) != hdr.Digest {
		return nil, fmt.Errorf("%w: metadata log does not match vector file", domain.ErrIndexConsistency)
	}

	var modelLen uint16
	if err := binary.Read(r, binary.LittleEndian, &modelLen); err != nil {
		return nil, fmt.Errorf("%w: read model name: %v", domain.ErrIndexConsistency, err)
	}
	model := make([]byte, modelLen)
	if _, err := io.ReadFull(r, model); err != nil {
		return nil, fmt.Errorf("%w: read model name: %v", domain.ErrIndexConsistency, err)
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat vectors: %v", domain.ErrIndexConsistency, err)
	}
	want := int64(binary.Size(hdr)) + 2 + int64(modelLen) + int64(hdr.Count)*int64(hdr.Dimension)*4
	if fi.Size() != want {
		return nil, fmt.Errorf("%w: vector file is %d bytes, header implies %d", domain.ErrIndexConsistency, fi.Size(), want)
	}

	vectors := make([]float32, hdr.Count*uint64(hdr.Dimension))
	if err := binary.Read(r, binary.LittleEndian, vectors); err != nil {
		return nil, fmt.Errorf("%w: read vectors: %v", domain.ErrIndexConsistency, err)
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after vectors", domain.ErrIndexConsistency)
	}

	return &Store{
		model:   string(model),
		dim:     int(hdr.Dimension),
		vectors: vectors,
		records: records,
	}, nil
}

func decodeMetadata(meta []byte) ([]domain.MetadataRecord, error) {
	var records []domain.MetadataRecord
	sc := bufio.NewScanner(bytes.NewReader(meta))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for line := 1; sc.Scan(); line++ {
		dec := json.NewDecoder(bytes.NewReader(sc.Bytes()))
		dec.DisallowUnknownFields()

		var rec domain.MetadataRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: metadata line %d: %v", domain.ErrIndexConsistency, line, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: metadata line %d: %v", domain.ErrIndexConsistency, line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan metadata: %v", domain.ErrIndexConsistency, err)
	}
	return records, nil
}

// Prune removes every snapshot and staging directory except the live one.
func Prune(root string) error {
	live, err := Current(root)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(filepath.Join(root, SnapshotsDir))
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	for _, e := range entries {
		if e.Name() == live {
			continue
		}
		if err := removeAll(filepath.Join(root, SnapshotsDir, e.Name())); err != nil {
			return fmt.Errorf("prune snapshot %s: %w", e.Name(), err)
		}
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open dir %s: %w", dir, err)
	}
	defer d.Close()
	// Some filesystems do not support fsync on directories.
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return fmt.Errorf("sync dir %s: %w", dir, err)
	}
	return nil
}
