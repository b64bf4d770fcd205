package pqvolume

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/qwamos/pqvolume/internal/crypto"
	"github.com/qwamos/pqvolume/internal/header"
	"github.com/qwamos/pqvolume/internal/sector"
)

// Manager creates, unlocks, rotates and migrates encrypted volumes. A
// Manager is safe for concurrent use; each Unlock yields an independent
// Session.
type Manager struct {
	cfg managerConfig
}

// New returns a Manager with the given options applied.
func New(opts ...Option) *Manager {
	cfg := defaultManagerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Manager{cfg: cfg}
}

// Format identifies a volume's on-disk layout by its magic tag.
type Format string

const (
	// FormatCurrent is the post-quantum layout all new volumes use.
	FormatCurrent Format = "QWAMOSPQ"
	// FormatLegacy is the retired scrypt layout, readable only for migration.
	FormatLegacy Format = "QWAMOSV1"
)

// Volume describes a volume file. It holds no key material; open the volume
// with [Manager.Unlock] to access its contents.
type Volume struct {
	Path    string
	Format  Format
	Version uint32
	// Size is the body plaintext capacity in bytes.
	Size uint64
	// Profile, VolumeID, Label and the timestamps are carried by
	// current-format headers only; they are zero for legacy volumes.
	Profile    Profile
	VolumeID   uuid.UUID
	Label      string
	CreatedAt  time.Time
	ModifiedAt time.Time
	// KeyStoreWrapped reports whether unlocking needs a configured KeyStore.
	KeyStoreWrapped bool
}

// kdfParamsForProfile resolves a profile's Argon2id costs. Tests override it
// to keep derivations cheap.
var kdfParamsForProfile = func(p Profile) (crypto.KdfParams, error) {
	return crypto.Params(crypto.Profile(p))
}

// volumeMaterial is everything needed to lay down a fresh current-format
// volume: the sealed header and private key blocks plus the live master key
// and nonce base for encrypting the body.
type volumeMaterial struct {
	hdr         *header.CurrentHeader
	headerBlock []byte
	privBlock   []byte
	masterKey   []byte
	nonceBase   []byte
}

// buildVolumeMaterial runs the key generation and wrap chain for a new
// volume: keypair, random material, password key, encapsulation, wrap key,
// master key wrap, private key seal. step is invoked before each of the
// seven preparation steps; writing the file is the caller's eighth step.
// The caller owns zeroing mat.masterKey.
func (m *Manager) buildVolumeMaterial(password []byte, size uint64, profile Profile, cc createConfig, step func(n int, msg string)) (*volumeMaterial, error) {
	if step == nil {
		step = func(int, string) {}
	}

	params, err := kdfParamsForProfile(profile)
	if err != nil {
		return nil, &KdfError{Err: err}
	}
	if err := params.Check(m.cfg.maxKDFMemoryKiB); err != nil {
		return nil, &KdfError{MemoryKiB: params.MemoryKiB, LimitKiB: m.cfg.maxKDFMemoryKiB, Err: err}
	}

	step(1, "Generating ML-KEM-1024 keypair")
	keyPair, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, &CryptoError{Op: "keypair generation", Err: err}
	}
	defer keyPair.Zero()

	step(2, "Generating master key and salt")
	masterKey, err := crypto.RandomBytes(crypto.MasterKeySize)
	if err != nil {
		return nil, &CryptoError{Op: "master key generation", Err: err}
	}
	ok := false
	defer func() {
		if !ok {
			crypto.Zero(masterKey)
		}
	}()

	salt, err := crypto.RandomBytes(crypto.SaltSize)
	if err != nil {
		return nil, &CryptoError{Op: "salt generation", Err: err}
	}
	nonceBase, err := crypto.RandomBytes(crypto.NonceSize)
	if err != nil {
		return nil, &CryptoError{Op: "nonce base generation", Err: err}
	}
	volumeID := uuid.New()

	step(3, "Deriving key from password")
	kdfKey, err := crypto.DeriveKey(password, salt, params)
	if err != nil {
		return nil, &KdfError{Err: err}
	}
	defer crypto.Zero(kdfKey)

	step(4, "Encapsulating shared secret")
	kemCiphertext, sharedSecret, err := crypto.Encapsulate(keyPair.PublicKey)
	if err != nil {
		return nil, &CryptoError{Op: "encapsulation", Err: err}
	}
	defer crypto.Zero(sharedSecret)

	step(5, "Deriving wrap key")
	wrapKey, err := crypto.DeriveWrapKey(kdfKey, sharedSecret, salt)
	if err != nil {
		return nil, &CryptoError{Op: "wrap key derivation", Err: err}
	}
	defer crypto.Zero(wrapKey)

	step(6, "Wrapping master key")
	wrappedMaster, err := crypto.Seal(wrapKey, crypto.ZeroNonce(), masterKey, nil)
	if err != nil {
		return nil, &CryptoError{Op: "master key wrap", Err: err}
	}

	step(7, "Sealing private key")
	privBlob, keyStoreWrapped, err := m.sealPrivateKey(kdfKey, keyPair.PrivateKey, volumeID[:])
	if err != nil {
		return nil, err
	}
	flags := cc.flags
	if keyStoreWrapped {
		flags |= FlagKeyStore
	}
	privBlock := make([]byte, header.PrivateKeyBlockSize)
	copy(privBlock, privBlob)

	now := uint64(time.Now().Unix())
	hdr := &header.CurrentHeader{
		Version:        header.CurrentVersion,
		Flags:          flags,
		ProfileID:      uint32(profile),
		MemoryKiB:      params.MemoryKiB,
		TimeCost:       params.TimeCost,
		Parallelism:    params.Parallelism,
		VolumeSize:     sector.RoundUp(size),
		Created:        now,
		Modified:       now,
		Salt:           salt,
		NonceBase:      nonceBase,
		VolumeID:       volumeID[:],
		Label:          cc.label,
		WrappedPrivLen: uint32(len(privBlob)),
		KemCiphertext:  kemCiphertext,
		WrappedMaster:  wrappedMaster,
	}
	headerBlock, err := hdr.Serialize()
	if err != nil {
		return nil, &FormatError{Err: err}
	}

	ok = true
	return &volumeMaterial{
		hdr:         hdr,
		headerBlock: headerBlock,
		privBlock:   privBlock,
		masterKey:   masterKey,
		nonceBase:   nonceBase,
	}, nil
}

// sealPrivateKey seals privateKey under kdfKey with a fresh nonce, bound to
// the volume identity, and applies the configured keystore wrap on top. The
// bool reports whether a keystore wrap was applied.
func (m *Manager) sealPrivateKey(kdfKey, privateKey, volumeID []byte) ([]byte, bool, error) {
	privNonce, err := crypto.RandomBytes(crypto.NonceSize)
	if err != nil {
		return nil, false, &CryptoError{Op: "private key nonce generation", Err: err}
	}
	sealed, err := crypto.Seal(kdfKey, privNonce, privateKey, volumeID)
	if err != nil {
		return nil, false, &CryptoError{Op: "private key seal", Err: err}
	}
	blob := append(privNonce, sealed...)

	if m.cfg.keyStore == nil {
		return blob, false, nil
	}
	wrapped, err := m.cfg.keyStore.Wrap(blob)
	if err != nil {
		return nil, false, &CryptoError{Op: "keystore wrap", Err: err}
	}
	if len(wrapped) > header.PrivateKeyBlockSize {
		return nil, false, &CryptoError{Op: "keystore wrap", Err: fmt.Errorf("wrapped blob is %d bytes, block holds %d", len(wrapped), header.PrivateKeyBlockSize)}
	}
	return wrapped, true, nil
}

// quiet returns a manager that emits no progress events, for the inner
// phases of compound operations.
func (m *Manager) quiet() *Manager {
	q := &Manager{cfg: m.cfg}
	q.cfg.progress = nil
	return q
}

// Create builds a new encrypted volume at path. The requested size is
// rounded up to a whole number of sectors and the body is written as
// encrypted zeros, so the file is immediately valid end to end. The file
// appears atomically: it is assembled in a temporary file in the same
// directory and renamed into place only when complete.
func (m *Manager) Create(path string, password []byte, size uint64, profile Profile, opts ...CreateOption) (*Volume, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("pqvolume: password must not be empty")
	}
	if size == 0 {
		return nil, fmt.Errorf("pqvolume: volume size must be positive")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, &IOError{Op: "create", Path: path, Sector: -1, Err: ErrVolumeExists}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, &IOError{Op: "create", Path: path, Sector: -1, Err: err}
	}

	var cc createConfig
	for _, opt := range opts {
		opt(&cc)
	}

	mat, err := m.buildVolumeMaterial(password, size, profile, cc, func(n int, msg string) {
		m.cfg.emit(n, 8, msg, false)
	})
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(mat.masterKey)

	m.cfg.emit(8, 8, "Writing volume", false)
	if err := writeVolumeFile(path, mat); err != nil {
		return nil, err
	}
	m.cfg.emit(8, 8, "Volume created", true)

	return volumeFromCurrent(path, mat.hdr), nil
}

// writeVolumeFile assembles a complete volume with a zero-filled body in a
// temporary file next to path and renames it into place. On any failure the
// temporary file is removed; path is never left half-written.
func writeVolumeFile(path string, mat *volumeMaterial) error {
	tmp, tmpPath, err := newTempVolume(path, mat)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	plaintext := make([]byte, sector.PlaintextSize)
	count := sector.Count(mat.hdr.VolumeSize)
	for index := uint64(0); index < count; index++ {
		sealed, err := crypto.Seal(mat.masterKey, sector.Nonce(mat.nonceBase, index), plaintext, nil)
		if err != nil {
			return &CryptoError{Op: "sector seal", Err: err}
		}
		if _, err := tmp.Write(sealed); err != nil {
			return &IOError{Op: "write", Path: path, Sector: int64(index), Err: err}
		}
	}

	if err := commitTempVolume(tmp, tmpPath, path); err != nil {
		return err
	}
	committed = true
	return nil
}

// newTempVolume opens a temporary file next to path and writes the header
// and private key blocks, leaving the write position at the body offset.
func newTempVolume(path string, mat *volumeMaterial) (*os.File, string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pqv-*")
	if err != nil {
		return nil, "", &IOError{Op: "create", Path: path, Sector: -1, Err: err}
	}

	if _, err := tmp.Write(mat.headerBlock); err == nil {
		_, err = tmp.Write(mat.privBlock)
	}
	if err != nil {
		tmpPath := tmp.Name()
		tmp.Close()
		os.Remove(tmpPath)
		return nil, "", &IOError{Op: "write header", Path: path, Sector: -1, Err: err}
	}
	return tmp, tmp.Name(), nil
}

// commitTempVolume durably publishes an assembled temporary volume at path.
func commitTempVolume(tmp *os.File, tmpPath, path string) error {
	if err := tmp.Sync(); err != nil {
		return &IOError{Op: "sync", Path: path, Sector: -1, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Sector: -1, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &IOError{Op: "rename", Path: path, Sector: -1, Err: err}
	}
	syncDir(filepath.Dir(path))
	return nil
}

// syncDir flushes a directory entry after a rename. Not supported on every
// platform; best effort.
func syncDir(dir string) {
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
}

// Info parses and integrity-checks a volume header without a password.
func (m *Manager) Info(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Sector: -1, Err: err}
	}
	defer f.Close()

	buf := make([]byte, header.LegacyHeaderSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, &IOError{Op: "read header", Path: path, Sector: -1, Err: err}
	}

	hdr, err := header.Parse(buf[:n])
	if err != nil {
		return nil, wrapParseError(path, err)
	}

	if hdr.Format == header.FormatLegacy {
		st, err := f.Stat()
		if err != nil {
			return nil, &IOError{Op: "stat", Path: path, Sector: -1, Err: err}
		}
		stored := st.Size() - header.LegacyBodyOffset
		return &Volume{
			Path:    path,
			Format:  FormatLegacy,
			Version: hdr.Legacy.Version,
			Size:    sector.CountFromStored(stored) * sector.PlaintextSize,
		}, nil
	}
	return volumeFromCurrent(path, hdr.Current), nil
}

func volumeFromCurrent(path string, h *header.CurrentHeader) *Volume {
	id, _ := uuid.FromBytes(h.VolumeID)
	return &Volume{
		Path:            path,
		Format:          FormatCurrent,
		Version:         h.Version,
		Size:            h.VolumeSize,
		Profile:         Profile(h.ProfileID),
		VolumeID:        id,
		Label:           h.Label,
		CreatedAt:       time.Unix(int64(h.Created), 0),
		ModifiedAt:      time.Unix(int64(h.Modified), 0),
		KeyStoreWrapped: h.Flags&FlagKeyStore != 0,
	}
}
