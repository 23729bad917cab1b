package smcrypto

import (
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"testing"
)

// RFC 4493 §4 test vectors for the untruncated CMAC, verifying the subkey
// derivation and chaining independent of TR-03110's 8-byte truncation.
func TestCMAC_RFC4493Vectors(t *testing.T) {
	key, _ := hex.DecodeString("2b7e151628aed2a6abf7158809cf4f3c")
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}

	msg16, _ := hex.DecodeString("6bc1bee22e409f96e93d7e117393172a")

	cases := []struct {
		name string
		msg  []byte
		want string
	}{
		{"Mlen0", nil, "bb1d6929e95937287fa37d129b756746"},
		{"Mlen128", msg16, "070a16b46b4d4144f79bdd9dd04a287c"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cmac(block, tc.msg)
			if err != nil {
				t.Fatalf("cmac: %v", err)
			}
			want, _ := hex.DecodeString(tc.want)
			if !bytes.Equal(got, want) {
				t.Errorf("cmac(%d bytes) = %X, want %X", len(tc.msg), got, want)
			}
		})
	}
}

func TestAESProvider_EncryptDecryptRoundTrip(t *testing.T) {
	p := NewAESProvider()
	key := bytes.Repeat([]byte{0x42}, 16)
	ssc := make([]byte, 16)
	if err := p.Init(key, ssc); err != nil {
		t.Fatalf("Init: %v", err)
	}

	plain := []byte("Vienna 1987 conference room")
	ciphertext, err := p.Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(ciphertext)%16 != 0 {
		t.Fatalf("ciphertext not block aligned: %d bytes", len(ciphertext))
	}

	got, err := p.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("round trip = %q, want %q", got, plain)
	}
}

func TestAESProvider_MACIsDeterministicAndKeyed(t *testing.T) {
	ssc := make([]byte, 16)
	p1 := NewAESProvider()
	if err := p1.Init(bytes.Repeat([]byte{0x01}, 16), ssc); err != nil {
		t.Fatalf("Init: %v", err)
	}
	p2 := NewAESProvider()
	if err := p2.Init(bytes.Repeat([]byte{0x02}, 16), ssc); err != nil {
		t.Fatalf("Init: %v", err)
	}

	input := []byte{0x0C, 0x82, 0x00, 0x00}
	mac1a, _ := p1.MAC(input)
	mac1b, _ := p1.MAC(input)
	if !bytes.Equal(mac1a, mac1b) {
		t.Errorf("MAC not deterministic: %X vs %X", mac1a, mac1b)
	}

	mac2, _ := p2.MAC(input)
	if bytes.Equal(mac1a, mac2) {
		t.Errorf("MAC did not depend on key")
	}
	if len(mac1a) != 8 {
		t.Errorf("MAC length = %d, want 8", len(mac1a))
	}
}
