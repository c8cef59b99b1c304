// Package snapshot writes and reads crash-safe state files for the frontier,
// the barrels and the gateway.
//
// File layout (little endian):
//
//	offset  size  field
//	0       4     magic, one per kind of state
//	4       4     schema version
//	8       8     payload length
//	16      4     CRC-32 (IEEE) of the payload
//	20      4     reserved, zero
//	24      n     JSON payload of the caller's versioned schema type
//
// Writes go to "<path>.tmp", are fsynced, then renamed over path, so a crash
// mid-write leaves the previous snapshot intact.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
)

const HeaderSize = 24

// Format identifies one kind of state file and the newest schema version
// this build understands.
type Format struct {
	Magic   uint32
	Version uint32
}

// ErrNoSnapshot is returned by Read when no file exists yet.
var ErrNoSnapshot = errors.New("no snapshot")

// Write atomically replaces path with v encoded under format.
func Write(path string, format Format, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", apperrors.ErrPersistence, path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: creating snapshot directory: %v", apperrors.ErrPersistence, err)
	}

	header := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], format.Magic)
	binary.LittleEndian.PutUint32(header[4:8], format.Version)
	binary.LittleEndian.PutUint64(header[8:16], uint64(len(payload)))
	binary.LittleEndian.PutUint32(header[16:20], crc32.ChecksumIEEE(payload))

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: creating temp snapshot: %v", apperrors.ErrPersistence, err)
	}
	if _, err := f.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("%w: writing header: %v", apperrors.ErrPersistence, err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return fmt.Errorf("%w: writing payload: %v", apperrors.ErrPersistence, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: syncing snapshot: %v", apperrors.ErrPersistence, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing snapshot: %v", apperrors.ErrPersistence, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: renaming snapshot: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// Read decodes path into v and returns the schema version it was written
// with. A missing file yields ErrNoSnapshot; a damaged or foreign file yields
// an error wrapping errors.ErrPersistence.
func Read(path string, format Format, v any) (uint32, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, ErrNoSnapshot
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading %s: %v", apperrors.ErrPersistence, path, err)
	}
	if len(data) < HeaderSize {
		return 0, fmt.Errorf("%w: %s: truncated header", apperrors.ErrPersistence, path)
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != format.Magic {
		return 0, fmt.Errorf("%w: %s: bad magic bytes %x", apperrors.ErrPersistence, path, magic)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version == 0 || version > format.Version {
		return 0, fmt.Errorf("%w: %s: unsupported schema version %d", apperrors.ErrPersistence, path, version)
	}
	length := binary.LittleEndian.Uint64(data[8:16])
	payload := data[HeaderSize:]
	if uint64(len(payload)) != length {
		return 0, fmt.Errorf("%w: %s: payload is %d bytes, header says %d", apperrors.ErrPersistence, path, len(payload), length)
	}
	if sum := crc32.ChecksumIEEE(payload); sum != binary.LittleEndian.Uint32(data[16:20]) {
		return 0, fmt.Errorf("%w: %s: checksum mismatch", apperrors.ErrPersistence, path)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return 0, fmt.Errorf("%w: decoding %s: %v", apperrors.ErrPersistence, path, err)
	}
	return version, nil
}
