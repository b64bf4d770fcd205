package crypto

import (
	"bytes"
	"errors"
	"testing"
)

// testKdfParams keeps test derivations cheap; production profiles start at
// 64 MiB and would dominate the test run.
var testKdfParams = KdfParams{MemoryKiB: 1024, TimeCost: 1, Parallelism: 1}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{0x42}, SaltSize)

	k1, err := DeriveKey([]byte("correct horse battery staple"), salt, testKdfParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	k2, err := DeriveKey([]byte("correct horse battery staple"), salt, testKdfParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}

	if !bytes.Equal(k1, k2) {
		t.Error("identical inputs produced different keys")
	}
	if len(k1) != KeySize {
		t.Errorf("key size = %d, want %d", len(k1), KeySize)
	}
}

func TestDeriveKey_DistinctInputs(t *testing.T) {
	salt := bytes.Repeat([]byte{0x42}, SaltSize)
	otherSalt := bytes.Repeat([]byte{0x43}, SaltSize)

	base, err := DeriveKey([]byte("password"), salt, testKdfParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}

	tests := []struct {
		name     string
		password []byte
		salt     []byte
		params   KdfParams
	}{
		{"different password", []byte("Password"), salt, testKdfParams},
		{"different salt", []byte("password"), otherSalt, testKdfParams},
		{"different time cost", []byte("password"), salt, KdfParams{MemoryKiB: 1024, TimeCost: 2, Parallelism: 1}},
		{"different memory", []byte("password"), salt, KdfParams{MemoryKiB: 2048, TimeCost: 1, Parallelism: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveKey(tt.password, tt.salt, tt.params)
			if err != nil {
				t.Fatalf("DeriveKey() error = %v", err)
			}
			if bytes.Equal(base, got) {
				t.Error("distinct inputs produced the same key")
			}
		})
	}
}

func TestDeriveKey_InvalidSalt(t *testing.T) {
	_, err := DeriveKey([]byte("password"), make([]byte, SaltSize-1), testKdfParams)
	if !errors.Is(err, ErrInvalidSaltSize) {
		t.Errorf("DeriveKey() error = %v, want ErrInvalidSaltSize", err)
	}
}

func TestParams_Profiles(t *testing.T) {
	tests := []struct {
		profile   Profile
		name      string
		memoryKiB uint32
		timeCost  uint32
	}{
		{ProfileLight, "light", 64 * 1024, 3},
		{ProfileInteractive, "interactive", 256 * 1024, 3},
		{ProfileBalanced, "balanced", 512 * 1024, 5},
		{ProfileParanoid, "paranoid", 1024 * 1024, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := Params(tt.profile)
			if err != nil {
				t.Fatalf("Params(%v) error = %v", tt.profile, err)
			}
			if params.MemoryKiB != tt.memoryKiB {
				t.Errorf("MemoryKiB = %d, want %d", params.MemoryKiB, tt.memoryKiB)
			}
			if params.TimeCost != tt.timeCost {
				t.Errorf("TimeCost = %d, want %d", params.TimeCost, tt.timeCost)
			}
			if params.Parallelism == 0 {
				t.Error("Parallelism = 0")
			}

			if tt.profile.String() != tt.name {
				t.Errorf("String() = %q, want %q", tt.profile.String(), tt.name)
			}

			back, err := ProfileByName(tt.name)
			if err != nil {
				t.Fatalf("ProfileByName(%q) error = %v", tt.name, err)
			}
			if back != tt.profile {
				t.Errorf("ProfileByName(%q) = %v, want %v", tt.name, back, tt.profile)
			}
		})
	}
}

func TestParams_Unknown(t *testing.T) {
	if _, err := Params(Profile(99)); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Params(99) error = %v, want ErrUnknownProfile", err)
	}
	if _, err := ProfileByName("extreme"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("ProfileByName() error = %v, want ErrUnknownProfile", err)
	}
}

func TestKdfParams_Check(t *testing.T) {
	params := KdfParams{MemoryKiB: 512 * 1024, TimeCost: 5, Parallelism: 4}

	if err := params.Check(0); err != nil {
		t.Errorf("Check(0) error = %v, want nil (ceiling disabled)", err)
	}
	if err := params.Check(1024 * 1024); err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}
	if err := params.Check(256 * 1024); !errors.Is(err, ErrProfileTooLarge) {
		t.Errorf("Check() error = %v, want ErrProfileTooLarge", err)
	}

	zero := KdfParams{}
	if err := zero.Check(0); err == nil {
		t.Error("Check() on zero params succeeded, want error")
	}
}
