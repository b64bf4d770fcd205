//go:build integration

package integration

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"

	"github.com/qwamos/pqvolume"
	"github.com/qwamos/pqvolume/internal/crypto"
	"github.com/qwamos/pqvolume/internal/header"
	"github.com/qwamos/pqvolume/internal/sector"
)

// These tests run the real Argon2id and scrypt cost profiles end to end, so
// they allocate tens to hundreds of megabytes and take seconds per case.

var profile = pqvolume.ProfileLight

func TestMain(m *testing.M) {
	// Load .env file if it exists (won't error if missing)
	if err := godotenv.Load("../.env"); err != nil {
		os.Stderr.WriteString("Note: .env file not found at project root\n")
	}

	if os.Getenv("QWAMOS_INTEGRATION") == "" {
		os.Stderr.WriteString("Skipping integration tests: QWAMOS_INTEGRATION not set\n")
		os.Exit(0)
	}

	if name := os.Getenv("QWAMOS_TEST_PROFILE"); name != "" {
		p, err := pqvolume.ParseProfile(name)
		if err != nil {
			os.Stderr.WriteString("Bad QWAMOS_TEST_PROFILE: " + err.Error() + "\n")
			os.Exit(1)
		}
		profile = p
	}
	os.Stderr.WriteString("Running integration tests with profile " + profile.String() + "\n")

	os.Exit(m.Run())
}

func TestVolumeLifecycle(t *testing.T) {
	mgr := pqvolume.New()
	path := filepath.Join(t.TempDir(), "lifecycle.pqv")
	password := []byte("integration lifecycle password")

	const size = 8 << 20
	vol, err := mgr.Create(path, password, size, profile)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if vol.Size != size {
		t.Fatalf("Size = %d, want %d", vol.Size, size)
	}

	payload := make([]byte, 1<<20)
	if _, err := rand.Read(payload); err != nil {
		t.Fatal(err)
	}

	s, err := mgr.Unlock(path, password)
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if _, err := s.WriteAt(payload, 12345); err != nil {
		t.Fatalf("WriteAt() error = %v", err)
	}
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := s.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	s, err = mgr.Unlock(path, password)
	if err != nil {
		t.Fatalf("Unlock() after lock: error = %v", err)
	}
	defer s.Lock()
	got := make([]byte, len(payload))
	if _, err := s.ReadAt(got, 12345); err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("payload differs after a full lifecycle")
	}
}

func TestPasswordRotation(t *testing.T) {
	mgr := pqvolume.New()
	path := filepath.Join(t.TempDir(), "rotate.pqv")
	oldPassword := []byte("first password")
	newPassword := []byte("second password")

	if _, err := mgr.Create(path, oldPassword, 4<<20, profile); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	s, err := mgr.Unlock(path, oldPassword)
	if err != nil {
		t.Fatal(err)
	}
	marker := []byte("survives rotation")
	if _, err := s.WriteAt(marker, 0); err != nil {
		t.Fatal(err)
	}
	s.Lock()

	if err := mgr.RotatePassword(path, oldPassword, newPassword, profile); err != nil {
		t.Fatalf("RotatePassword() error = %v", err)
	}

	if _, err := mgr.Unlock(path, oldPassword); err == nil {
		t.Fatal("old password still unlocks after rotation")
	}
	s, err = mgr.Unlock(path, newPassword)
	if err != nil {
		t.Fatalf("Unlock() with new password: error = %v", err)
	}
	defer s.Lock()
	got := make([]byte, len(marker))
	if _, err := s.ReadAt(got, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, marker) {
		t.Fatal("marker differs after rotation")
	}
}

// TestLegacyMigration runs a migration against a volume built with the real
// production scrypt costs.
func TestLegacyMigration(t *testing.T) {
	password := []byte("migration password")
	params := crypto.DefaultLegacyParams()

	salt := make([]byte, crypto.LegacySaltSize)
	if _, err := rand.Read(salt); err != nil {
		t.Fatal(err)
	}
	masterKey, err := crypto.DeriveLegacyKey(password, salt, params)
	if err != nil {
		t.Fatalf("DeriveLegacyKey() error = %v", err)
	}
	hdr := &header.LegacyHeader{
		Version: header.LegacyVersion,
		Salt:    salt,
		ScryptN: params.N,
		ScryptR: params.R,
		ScryptP: params.P,
	}
	block, err := hdr.Serialize(masterKey)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	dir := t.TempDir()
	input := filepath.Join(dir, "legacy.vol")
	f, err := os.Create(input)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(block); err != nil {
		t.Fatal(err)
	}
	const count = 2560 // 10 MiB
	marker := []byte("QWAMOS Phase 4 Test Data")
	plain := make([]byte, sector.PlaintextSize)
	for i := uint64(0); i < count; i++ {
		copy(plain, marker)
		plain[len(marker)] = byte(i)
		sealed, err := crypto.Seal(masterKey, sector.LegacyNonce(i), plain, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write(sealed); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	mgr := pqvolume.New(pqvolume.WithSectorWorkers(8))
	output := filepath.Join(dir, "migrated.pqv")
	report, err := mgr.MigrateLegacy(input, output, password, profile)
	if err != nil {
		t.Fatalf("MigrateLegacy() error = %v", err)
	}
	if report.Sectors != count || !report.Verified {
		t.Fatalf("report = %+v, want %d verified sectors", report, count)
	}

	s, err := mgr.Unlock(output, password)
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	defer s.Lock()
	got := make([]byte, sector.PlaintextSize)
	for i := uint64(0); i < count; i++ {
		copy(plain, marker)
		plain[len(marker)] = byte(i)
		if _, err := s.ReadAt(got, int64(i)*sector.PlaintextSize); err != nil {
			t.Fatalf("ReadAt() sector %d: error = %v", i, err)
		}
		if !bytes.Equal(got, plain) {
			t.Fatalf("sector %d differs after migration", i)
		}
	}
}
