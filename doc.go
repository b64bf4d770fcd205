// Package pqvolume creates and operates QWAMOS encrypted volume files,
// password-protected containers hardened against quantum-capable attackers.
//
// Every volume binds its master key to a per-volume ML-KEM-1024 keypair and
// an Argon2id-derived password key, and encrypts its body in 4 KiB sectors
// under ChaCha20-Poly1305. Volumes in the retired scrypt-based format are
// supported read-only, through MigrateLegacy.
//
// Basic usage:
//
//	mgr := pqvolume.New()
//
//	// Create a 64 MiB volume
//	vol, err := mgr.Create("data.pqv", password, 64<<20, pqvolume.ProfileBalanced)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("created volume", vol.VolumeID)
//
//	// Unlock it and do some I/O
//	session, err := mgr.Unlock("data.pqv", password)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Lock()
//
//	if _, err := session.WriteAt([]byte("hello"), 0); err != nil {
//	    log.Fatal(err)
//	}
package pqvolume
