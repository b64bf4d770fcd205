package pqvolume

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/qwamos/pqvolume/internal/crypto"
	"github.com/qwamos/pqvolume/internal/header"
	"github.com/qwamos/pqvolume/internal/sector"
)

// progressStride is how many sectors pass between progress events during
// migration.
const progressStride = 256

// MigrationReport summarizes a completed legacy migration.
type MigrationReport struct {
	// Sectors is the number of sectors re-encrypted.
	Sectors uint64
	// Bytes is the plaintext payload carried over.
	Bytes uint64
	// Duration covers the whole migration including verification.
	Duration time.Duration
	// Verified reports that every migrated sector was read back and
	// compared against the source before the output was published.
	Verified bool
}

// MigrateLegacy re-encrypts the legacy volume at inputPath into a new
// current-format volume at outputPath, keyed under the same password with
// the given cost profile. Every sector is decrypted, re-sealed and then
// verified by a full read-back pass before the output file appears; on any
// failure the partial output is removed. The input is never modified.
func (m *Manager) MigrateLegacy(inputPath, outputPath string, password []byte, profile Profile, opts ...CreateOption) (*MigrationReport, error) {
	start := time.Now()

	if _, err := os.Stat(outputPath); err == nil {
		return nil, &IOError{Op: "migrate", Path: outputPath, Sector: -1, Err: ErrVolumeExists}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, &IOError{Op: "migrate", Path: outputPath, Sector: -1, Err: err}
	}

	m.cfg.emit(1, 4, "Opening legacy volume", false)
	lv, err := m.openLegacyVolume(inputPath, password)
	if err != nil {
		return nil, err
	}
	defer lv.Close()

	count := lv.SectorCount()
	if count == 0 {
		return nil, &FormatError{Path: inputPath, Err: errors.New("legacy volume has no sectors")}
	}
	size := count * sector.PlaintextSize

	var cc createConfig
	for _, opt := range opts {
		opt(&cc)
	}

	m.cfg.emit(2, 4, "Preparing output volume", false)
	mat, err := m.buildVolumeMaterial(password, size, profile, cc, nil)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(mat.masterKey)

	tmp, tmpPath, err := newTempVolume(outputPath, mat)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()
	if err := tmp.Truncate(header.CurrentBodyOffset + sector.BodySize(size)); err != nil {
		return nil, &IOError{Op: "truncate", Path: outputPath, Sector: -1, Err: err}
	}

	m.cfg.emit(3, 4, "Re-encrypting sectors", false)
	var done atomic.Uint64
	err = m.forEachSector(count, func(index uint64) error {
		plain, err := lv.ReadSector(index)
		if err != nil {
			return err
		}
		sealed, err := crypto.Seal(mat.masterKey, sector.Nonce(mat.nonceBase, index), plain, nil)
		if err != nil {
			return &CryptoError{Op: "seal sector", Err: err}
		}
		if _, err := tmp.WriteAt(sealed, sector.Offset(header.CurrentBodyOffset, index)); err != nil {
			return &IOError{Op: "write", Path: outputPath, Sector: int64(index), Err: err}
		}
		if n := done.Add(1); n%progressStride == 0 {
			m.cfg.emit(int(n), int(count), "Re-encrypting sectors", false)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.cfg.emit(4, 4, "Verifying migrated sectors", false)
	var verified atomic.Uint64
	err = m.forEachSector(count, func(index uint64) error {
		want, err := lv.ReadSector(index)
		if err != nil {
			return err
		}
		stored := make([]byte, sector.StoredSize)
		if _, err := tmp.ReadAt(stored, sector.Offset(header.CurrentBodyOffset, index)); err != nil {
			return &IOError{Op: "read", Path: outputPath, Sector: int64(index), Err: err}
		}
		got, err := crypto.Open(mat.masterKey, sector.Nonce(mat.nonceBase, index), stored, nil)
		if err != nil {
			return &IntegrityError{Path: outputPath, Sector: int64(index), Detail: "sector authentication failed"}
		}
		if !bytes.Equal(got, want) {
			return &IntegrityError{Path: outputPath, Sector: int64(index), Detail: "verification mismatch"}
		}
		if n := verified.Add(1); n%progressStride == 0 {
			m.cfg.emit(int(n), int(count), "Verifying migrated sectors", false)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := commitTempVolume(tmp, tmpPath, outputPath); err != nil {
		return nil, err
	}
	committed = true
	m.cfg.emit(4, 4, fmt.Sprintf("Migrated %d sectors", count), true)

	return &MigrationReport{
		Sectors:  count,
		Bytes:    size,
		Duration: time.Since(start),
		Verified: true,
	}, nil
}

// forEachSector runs fn over every sector index in [0, count) on the
// manager's worker pool, stopping at the first error. fn must be safe for
// concurrent use.
func (m *Manager) forEachSector(count uint64, fn func(index uint64) error) error {
	workers := m.cfg.workers
	if workers < 1 {
		workers = 1
	}
	if uint64(workers) > count {
		workers = int(count)
	}

	jobs := make(chan uint64)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		failed   atomic.Bool
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				if failed.Load() {
					continue
				}
				if err := fn(index); err != nil {
					once.Do(func() { firstErr = err })
					failed.Store(true)
				}
			}
		}()
	}

	for index := uint64(0); index < count && !failed.Load(); index++ {
		jobs <- index
	}
	close(jobs)
	wg.Wait()
	return firstErr
}
