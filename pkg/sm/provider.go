package sm

// CipherProvider is the external cipher/MAC collaborator the engine
// requires (spec §4.4.1). Key agreement, certificate validation, and the
// actual block-cipher/MAC algorithms are out of scope for this package;
// pkg/smcrypto ships concrete DES-EDE and AES implementations.
type CipherProvider interface {
	// BlockSize returns the cipher block size in bytes (8 for DES-EDE, 16 for AES),
	// which also fixes the width of the session's SSC.
	BlockSize() int

	// Init configures subsequent Encrypt/Decrypt/MAC calls with this key and
	// SSC. The SSC is used either as IV-derivation material or as a MAC
	// prefix, depending on the provider.
	Init(key, ssc []byte) error

	// Encrypt applies ISO/IEC 7816-4 padding (0x80 then zero-fill) and
	// CBC-encrypts.
	Encrypt(plain []byte) ([]byte, error)

	// Decrypt CBC-decrypts and strips ISO/IEC 7816-4 padding.
	Decrypt(cipher []byte) ([]byte, error)

	// AddPadding exposes the same padding function Encrypt uses, for callers
	// that need to pad MAC input without encrypting it.
	AddPadding(b []byte) []byte

	// MAC computes the retail-MAC (DES) or CMAC (AES) over input, returning
	// 8 bytes.
	MAC(input []byte) ([]byte, error)
}
