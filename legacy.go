package pqvolume

import (
	"errors"
	"io"
	"os"

	"github.com/qwamos/pqvolume/internal/crypto"
	"github.com/qwamos/pqvolume/internal/header"
	"github.com/qwamos/pqvolume/internal/sector"
)

// legacyVolume is a read-only view of a first-generation volume, opened for
// migration. Its sector reads are safe for concurrent use.
type legacyVolume struct {
	f         *os.File
	path      string
	hdr       *header.LegacyHeader
	masterKey []byte
	mlocked   bool
	count     uint64
	retry     *sector.RetryConfig
}

// openLegacyVolume authenticates a legacy volume with password. The key hash
// decides wrong-password before the header MAC decides tampering, so a bad
// password never masquerades as corruption.
func (m *Manager) openLegacyVolume(path string, password []byte) (*legacyVolume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Sector: -1, Err: err}
	}
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()

	if err := lockVolumeFile(f); err != nil {
		if errors.Is(err, ErrVolumeLocked) {
			return nil, err
		}
		return nil, &IOError{Op: "lock", Path: path, Sector: -1, Err: err}
	}

	buf := make([]byte, header.LegacyHeaderSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, &IOError{Op: "read header", Path: path, Sector: -1, Err: err}
	}
	hdr, err := header.Parse(buf[:n])
	if err != nil {
		return nil, wrapParseError(path, err)
	}
	if hdr.Format != header.FormatLegacy {
		return nil, &FormatError{Path: path, Err: errors.New("volume is already in the current format")}
	}
	leg := hdr.Legacy

	params := crypto.LegacyParams{N: leg.ScryptN, R: leg.ScryptR, P: leg.ScryptP}
	masterKey, err := crypto.DeriveLegacyKey(password, leg.Salt, params)
	if err != nil {
		return nil, &KdfError{Err: err}
	}

	if !leg.VerifyKeyHash(masterKey) {
		crypto.Zero(masterKey)
		return nil, &AuthError{}
	}
	if err := leg.VerifyMAC(masterKey); err != nil {
		crypto.Zero(masterKey)
		return nil, &IntegrityError{Path: path, Sector: -1, Detail: "legacy header MAC mismatch"}
	}

	st, err := f.Stat()
	if err != nil {
		crypto.Zero(masterKey)
		return nil, &IOError{Op: "stat", Path: path, Sector: -1, Err: err}
	}

	v := &legacyVolume{
		f:         f,
		path:      path,
		hdr:       leg,
		masterKey: masterKey,
		count:     sector.CountFromStored(st.Size() - header.LegacyBodyOffset),
		retry:     m.cfg.retry,
	}
	if err := crypto.LockMemory(masterKey); err == nil {
		v.mlocked = true
	}
	ok = true
	return v, nil
}

// SectorCount returns the number of whole sectors in the body.
func (v *legacyVolume) SectorCount() uint64 {
	return v.count
}

// ReadSector reads and opens one sector of the legacy body.
func (v *legacyVolume) ReadSector(index uint64) ([]byte, error) {
	stored := make([]byte, sector.StoredSize)
	err := v.retry.Do(func() error {
		_, err := v.f.ReadAt(stored, sector.Offset(header.LegacyBodyOffset, index))
		return err
	})
	if err != nil {
		return nil, &IOError{Op: "read", Path: v.path, Sector: int64(index), Err: err}
	}
	plain, err := crypto.Open(v.masterKey, sector.LegacyNonce(index), stored, nil)
	if err != nil {
		return nil, &IntegrityError{Path: v.path, Sector: int64(index), Detail: "sector authentication failed"}
	}
	return plain, nil
}

// Close zeroes the key material and releases the file.
func (v *legacyVolume) Close() error {
	crypto.Zero(v.masterKey)
	if v.mlocked {
		crypto.UnlockMemory(v.masterKey)
	}
	return v.f.Close()
}
