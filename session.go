package pqvolume

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/qwamos/pqvolume/internal/crypto"
	"github.com/qwamos/pqvolume/internal/header"
	"github.com/qwamos/pqvolume/internal/sector"
)

// writeStripes is the size of the per-sector lock table. Sector index modulo
// writeStripes picks the stripe, so sectors that share a stripe serialize
// against each other and everything else proceeds in parallel.
const writeStripes = 64

var (
	errNegativeOffset = errors.New("negative offset")
	errWriteBeyondEnd = errors.New("write extends past end of volume")
)

// Session is an unlocked volume. It exposes the plaintext body as a flat
// byte range via ReadAt and WriteAt; sector framing, nonces and
// authentication stay internal.
//
// A Session is safe for concurrent use. Reads of a sector block only while
// that sector (or a stripe neighbor) is being written.
type Session struct {
	mu     sync.RWMutex
	closed bool

	f    *os.File
	path string
	hdr  *header.CurrentHeader
	size uint64

	masterKey []byte
	mlocked   bool

	retry   *sector.RetryConfig
	stripes [writeStripes]sync.RWMutex
}

func newSession(f *os.File, path string, hdr *header.CurrentHeader, masterKey []byte, retry *sector.RetryConfig) *Session {
	s := &Session{
		f:         f,
		path:      path,
		hdr:       hdr,
		size:      hdr.VolumeSize,
		masterKey: masterKey,
		retry:     retry,
	}
	if err := crypto.LockMemory(masterKey); err == nil {
		s.mlocked = true
	}
	return s
}

// Info returns the descriptor of the unlocked volume.
func (s *Session) Info() *Volume {
	return volumeFromCurrent(s.path, s.hdr)
}

// Size returns the volume's plaintext capacity in bytes.
func (s *Session) Size() uint64 {
	return s.size
}

// ReadAt implements io.ReaderAt over the volume plaintext. Reads that reach
// the end of the volume return io.EOF with the bytes read so far.
func (s *Session) ReadAt(p []byte, off int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	if off < 0 {
		return 0, &IOError{Op: "read", Path: s.path, Sector: -1, Err: errNegativeOffset}
	}
	if len(p) == 0 {
		return 0, nil
	}
	if uint64(off) >= s.size {
		return 0, io.EOF
	}

	eof := false
	if uint64(off)+uint64(len(p)) > s.size {
		p = p[:s.size-uint64(off)]
		eof = true
	}

	n := 0
	for _, ext := range sector.Extents(off, len(p)) {
		plain, err := s.readExtent(ext)
		if err != nil {
			return n, err
		}
		n += copy(p[ext.BufOff:], plain[ext.Start:ext.End])
	}
	if eof {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt over the volume plaintext. The volume never
// grows: a write extending past the end is rejected whole, before any sector
// is touched.
func (s *Session) WriteAt(p []byte, off int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	if off < 0 {
		return 0, &IOError{Op: "write", Path: s.path, Sector: -1, Err: errNegativeOffset}
	}
	if len(p) == 0 {
		return 0, nil
	}
	if uint64(off)+uint64(len(p)) > s.size {
		return 0, &IOError{Op: "write", Path: s.path, Sector: -1, Err: errWriteBeyondEnd}
	}

	n := 0
	for _, ext := range sector.Extents(off, len(p)) {
		if err := s.writeExtent(ext, p[ext.BufOff:ext.BufOff+ext.Len()]); err != nil {
			return n, err
		}
		n += ext.Len()
	}
	return n, nil
}

// readExtent reads one sector under its stripe's read lock.
func (s *Session) readExtent(ext sector.Extent) ([]byte, error) {
	stripe := &s.stripes[ext.Index%writeStripes]
	stripe.RLock()
	defer stripe.RUnlock()
	return s.readSector(ext.Index)
}

// writeExtent writes one sector's worth of the request under that sector's
// stripe lock, reading the sector back first when the write is partial.
func (s *Session) writeExtent(ext sector.Extent, data []byte) error {
	stripe := &s.stripes[ext.Index%writeStripes]
	stripe.Lock()
	defer stripe.Unlock()

	if ext.IsFull() {
		return s.writeSector(ext.Index, data)
	}

	plain, err := s.readSector(ext.Index)
	if err != nil {
		return err
	}
	copy(plain[ext.Start:ext.End], data)
	return s.writeSector(ext.Index, plain)
}

// readSector reads and opens one sector. I/O failures are retried per the
// session policy; authentication failures never are. Callers hold the
// sector's stripe lock.
func (s *Session) readSector(index uint64) ([]byte, error) {
	stored := make([]byte, sector.StoredSize)
	err := s.retry.Do(func() error {
		_, err := s.f.ReadAt(stored, sector.Offset(header.CurrentBodyOffset, index))
		return err
	})
	if err != nil {
		return nil, &IOError{Op: "read", Path: s.path, Sector: int64(index), Err: err}
	}
	plain, err := crypto.Open(s.masterKey, sector.Nonce(s.hdr.NonceBase, index), stored, nil)
	if err != nil {
		return nil, &IntegrityError{Path: s.path, Sector: int64(index), Detail: "sector authentication failed"}
	}
	return plain, nil
}

func (s *Session) writeSector(index uint64, plain []byte) error {
	sealed, err := crypto.Seal(s.masterKey, sector.Nonce(s.hdr.NonceBase, index), plain, nil)
	if err != nil {
		return &CryptoError{Op: "seal sector", Err: err}
	}
	err = s.retry.Do(func() error {
		_, err := s.f.WriteAt(sealed, sector.Offset(header.CurrentBodyOffset, index))
		return err
	})
	if err != nil {
		return &IOError{Op: "write", Path: s.path, Sector: int64(index), Err: err}
	}
	return nil
}

// Sync flushes written sectors to stable storage.
func (s *Session) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.f.Sync(); err != nil {
		return &IOError{Op: "sync", Path: s.path, Sector: -1, Err: err}
	}
	return nil
}

// Lock zeroes the session's key material and closes the volume file,
// releasing the advisory lock. It is idempotent; all I/O after the first
// call fails with ErrSessionClosed.
func (s *Session) Lock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	crypto.Zero(s.masterKey)
	if s.mlocked {
		crypto.UnlockMemory(s.masterKey)
	}
	if err := s.f.Close(); err != nil {
		return &IOError{Op: "close", Path: s.path, Sector: -1, Err: err}
	}
	return nil
}

// Close locks the session. It exists so a Session satisfies io.Closer.
func (s *Session) Close() error {
	return s.Lock()
}
