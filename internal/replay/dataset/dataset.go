package dataset

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// FormatVersion is written into every header.
const FormatVersion = "1.0"

// ChunkSize is the number of entries per chunk file.
const ChunkSize = 1000

// ErrNotFound is returned by Open when no dataset exists at the locator.
var ErrNotFound = errors.New("dataset not found")

// Header contains metadata about a stored dataset.
type Header struct {
	Version      string   `json:"version"`
	CreatedNs    int64    `json:"created_ns"`
	RunID        string   `json:"run_id"`
	Tree         string   `json:"tree"`
	Detector     string   `json:"detector"`
	Branches     []string `json:"branches"`
	TotalEntries uint64   `json:"total_entries"`
}

// IndexEntry is an entry in the seek index.
type IndexEntry struct {
	EntryID uint64
	ChunkID uint32
	Offset  uint32
}

func chunkPath(base string, chunkIdx int) string {
	return filepath.Join(base, "chunks", fmt.Sprintf("chunk_%04d.zst", chunkIdx))
}

// Writer appends entries to a new dataset.
type Writer struct {
	basePath string
	header   Header
	index    []IndexEntry
	enc      *zstd.Encoder

	currentChunk int
	chunkFile    *os.File
	chunkOffset  uint32
	entryCount   uint64

	mu     sync.Mutex
	closed bool
}

// Create starts a new dataset at loc declaring the given branches.
func Create(loc Locator, tree, detector string, branches []string) (*Writer, error) {
	basePath := loc.Path()
	if err := os.MkdirAll(filepath.Join(basePath, "chunks"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	w := &Writer{
		basePath:     basePath,
		currentChunk: -1,
		enc:          enc,
		header: Header{
			Version:   FormatVersion,
			CreatedNs: time.Now().UnixNano(),
			RunID:     uuid.New().String(),
			Tree:      tree,
			Detector:  detector,
			Branches:  append([]string(nil), branches...),
		},
	}
	return w, nil
}

// WriteEntry appends one entry. Each value is JSON-encoded under its branch
// name; the writer does not check that every declared branch is present.
func (w *Writer) WriteEntry(collections map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("dataset writer is closed")
	}

	chunkIdx := int(w.entryCount / ChunkSize)
	if chunkIdx != w.currentChunk {
		if err := w.rotateChunk(chunkIdx); err != nil {
			return err
		}
	}

	raw, err := json.Marshal(collections)
	if err != nil {
		return fmt.Errorf("failed to encode entry %d: %w", w.entryCount, err)
	}
	data := w.enc.EncodeAll(raw, nil)

	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(data)))
	if _, err := w.chunkFile.Write(lenBuf); err != nil {
		return fmt.Errorf("failed to write entry length: %w", err)
	}
	if _, err := w.chunkFile.Write(data); err != nil {
		return fmt.Errorf("failed to write entry data: %w", err)
	}

	w.index = append(w.index, IndexEntry{
		EntryID: w.entryCount,
		ChunkID: uint32(chunkIdx),
		Offset:  w.chunkOffset,
	})
	w.chunkOffset += uint32(4 + len(data))
	w.entryCount++
	return nil
}

func (w *Writer) rotateChunk(chunkIdx int) error {
	if w.chunkFile != nil {
		if err := w.chunkFile.Close(); err != nil {
			return err
		}
	}
	f, err := os.Create(chunkPath(w.basePath, chunkIdx))
	if err != nil {
		return fmt.Errorf("failed to create chunk file: %w", err)
	}
	w.chunkFile = f
	w.currentChunk = chunkIdx
	w.chunkOffset = 0
	return nil
}

// Close finalises the dataset by writing the header and index.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.chunkFile != nil {
		if err := w.chunkFile.Close(); err != nil {
			return fmt.Errorf("failed to close chunk: %w", err)
		}
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}

	w.header.TotalEntries = w.entryCount
	headerData, err := json.MarshalIndent(w.header, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.basePath, "header.json"), headerData, 0644); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	indexFile, err := os.Create(filepath.Join(w.basePath, "index.bin"))
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer indexFile.Close()

	for _, entry := range w.index {
		if err := binary.Write(indexFile, binary.LittleEndian, entry); err != nil {
			return fmt.Errorf("failed to write index: %w", err)
		}
	}
	return nil
}

// Path returns the dataset directory.
func (w *Writer) Path() string { return w.basePath }

// EntryCount returns the number of entries written so far.
func (w *Writer) EntryCount() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.entryCount
}

// Dataset is an opened dataset.
type Dataset struct {
	basePath string
	header   Header
	index    []IndexEntry
	dec      *zstd.Decoder

	currentChunk int
	chunkData    []byte
}

// Open reads the header and index of the dataset at loc.
func Open(loc Locator) (*Dataset, error) {
	basePath := loc.Path()
	d := &Dataset{basePath: basePath, currentChunk: -1}

	headerData, err := os.ReadFile(filepath.Join(basePath, "header.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, basePath)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := json.Unmarshal(headerData, &d.header); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	indexFile, err := os.Open(filepath.Join(basePath, "index.bin"))
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer indexFile.Close()

	indexInfo, err := indexFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat index: %w", err)
	}
	// The header is untrusted; size the slice from the index file instead.
	capacity := indexInfo.Size() / int64(binary.Size(IndexEntry{}))
	if d.header.TotalEntries < uint64(capacity) {
		capacity = int64(d.header.TotalEntries)
	}
	d.index = make([]IndexEntry, 0, capacity)
	for {
		var entry IndexEntry
		if err := binary.Read(indexFile, binary.LittleEndian, &entry); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read index: %w", err)
		}
		d.index = append(d.index, entry)
	}
	if uint64(len(d.index)) != d.header.TotalEntries {
		return nil, fmt.Errorf("index holds %d entries, header declares %d", len(d.index), d.header.TotalEntries)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	d.dec = dec
	return d, nil
}

// Header returns the dataset header.
func (d *Dataset) Header() Header { return d.header }

// Entries returns the number of stored entries.
func (d *Dataset) Entries() int { return len(d.index) }

// Branches returns the declared branch names.
func (d *Dataset) Branches() []string {
	return append([]string(nil), d.header.Branches...)
}

// HasBranch reports whether name is declared in the header.
func (d *Dataset) HasBranch(name string) bool {
	for _, b := range d.header.Branches {
		if b == name {
			return true
		}
	}
	return false
}

// ReadEntry returns the raw collections of entry i keyed by branch name. It
// returns io.EOF when i is past the last entry.
func (d *Dataset) ReadEntry(i int) (map[string]json.RawMessage, error) {
	if i < 0 || i >= len(d.index) {
		return nil, io.EOF
	}
	entry := d.index[i]

	if int(entry.ChunkID) != d.currentChunk {
		data, err := os.ReadFile(chunkPath(d.basePath, int(entry.ChunkID)))
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk: %w", err)
		}
		d.chunkData = data
		d.currentChunk = int(entry.ChunkID)
	}

	offset := entry.Offset
	if uint64(offset)+4 > uint64(len(d.chunkData)) {
		return nil, fmt.Errorf("invalid entry offset for entry %d", i)
	}
	n := binary.LittleEndian.Uint32(d.chunkData[offset:])
	offset += 4
	if uint64(offset)+uint64(n) > uint64(len(d.chunkData)) {
		return nil, fmt.Errorf("invalid entry length for entry %d", i)
	}

	raw, err := d.dec.DecodeAll(d.chunkData[offset:offset+n], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress entry %d: %w", i, err)
	}
	var collections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &collections); err != nil {
		return nil, fmt.Errorf("failed to decode entry %d: %w", i, err)
	}
	return collections, nil
}

// Close releases the decoder.
func (d *Dataset) Close() error {
	if d.dec != nil {
		d.dec.Close()
		d.dec = nil
	}
	d.chunkData = nil
	return nil
}
