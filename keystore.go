package pqvolume

// KeyStore wraps the stored private key blob with device-resident key
// material (TPM, TrustZone, OS keychain). Implementations live outside this
// library; it only calls through the interface.
//
// Wrap output must fit the volume's 4096-byte private key block. Unwrap must
// reject blobs it did not produce.
type KeyStore interface {
	// Wrap seals data under the device key and returns the blob to store.
	Wrap(data []byte) ([]byte, error)
	// Unwrap opens a blob previously produced by Wrap.
	Unwrap(data []byte) ([]byte, error)
}
