package smcrypto

import (
	"crypto/des"
	"fmt"
)

// DES3Provider implements sm.CipherProvider for the PACE/CA/TA suites that
// negotiate 3DES (id-PACE-*-3DES-CBC-CBC and friends). It follows the same
// IV-from-SSC and retail-MAC shape as GlobalPlatform SCP02, adapted from a
// single static key to the TR-03110 session-key pair.
type DES3Provider struct {
	key24 []byte // K1 || K2 || K1, expanded from a 16- or 24-byte input key
	ssc   []byte // 8 bytes, fixes the CBC IV and prefixes the MAC input
}

// NewDES3Provider returns a provider ready for repeated Init/Encrypt/Decrypt/MAC calls.
func NewDES3Provider() *DES3Provider {
	return &DES3Provider{}
}

func (p *DES3Provider) BlockSize() int { return 8 }

// expandKey converts a 16-byte 2-key 3DES key to 24 bytes (K1||K2||K1); a
// 24-byte key passes through unchanged.
func expandKey(k []byte) ([]byte, error) {
	switch len(k) {
	case 16:
		out := make([]byte, 24)
		copy(out[0:16], k)
		copy(out[16:24], k[0:8])
		return out, nil
	case 24:
		return append([]byte(nil), k...), nil
	default:
		return nil, fmt.Errorf("smcrypto: 3DES key must be 16 or 24 bytes, got %d", len(k))
	}
}

func (p *DES3Provider) Init(key, ssc []byte) error {
	if len(ssc) != 8 {
		return fmt.Errorf("smcrypto: SSC must be 8 bytes for DES3, got %d", len(ssc))
	}
	expanded, err := expandKey(key)
	if err != nil {
		return err
	}
	p.key24 = expanded
	p.ssc = append([]byte(nil), ssc...)
	return nil
}

func (p *DES3Provider) AddPadding(b []byte) []byte {
	return pad(b, 8)
}

// deriveIV computes IV = 3DES-ECB(key, SSC), the single-block CBC encryption
// of the send-sequence counter, used as the chaining IV for both Encrypt and
// Decrypt (TR-03110 §9.8.6.2).
func (p *DES3Provider) deriveIV() ([]byte, error) {
	block, err := des.NewTripleDESCipher(p.key24)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, 8)
	block.Encrypt(iv, p.ssc)
	return iv, nil
}

func (p *DES3Provider) cbc(data []byte, iv []byte, encrypt bool) ([]byte, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("smcrypto: DES3 CBC data not block-aligned: %d bytes", len(data))
	}
	block, err := des.NewTripleDESCipher(p.key24)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	chain := make([]byte, 8)
	copy(chain, iv)

	if encrypt {
		buf := make([]byte, 8)
		for i := 0; i < len(data); i += 8 {
			xorBlock(buf, data[i:i+8], chain)
			block.Encrypt(out[i:i+8], buf)
			copy(chain, out[i:i+8])
		}
	} else {
		next := make([]byte, 8)
		for i := 0; i < len(data); i += 8 {
			copy(next, data[i:i+8])
			block.Decrypt(out[i:i+8], data[i:i+8])
			xorBlock(out[i:i+8], out[i:i+8], chain)
			copy(chain, next)
		}
	}
	return out, nil
}

func (p *DES3Provider) Encrypt(plain []byte) ([]byte, error) {
	iv, err := p.deriveIV()
	if err != nil {
		return nil, err
	}
	return p.cbc(pad(plain, 8), iv, true)
}

func (p *DES3Provider) Decrypt(cipher []byte) ([]byte, error) {
	iv, err := p.deriveIV()
	if err != nil {
		return nil, err
	}
	padded, err := p.cbc(cipher, iv, false)
	if err != nil {
		return nil, err
	}
	plain, ok := unpad(padded)
	if !ok {
		return nil, fmt.Errorf("smcrypto: invalid ISO 7816-4 padding after DES3 decrypt")
	}
	return plain, nil
}

// MAC computes ISO 9797-1 Algorithm 3 ("retail MAC") over SSC || input,
// ISO 7816-4 padded, with a zero ICV and final DES-ECB decrypt(K2)/encrypt(K1)
// transform, as in GlobalPlatform SCP02's C-MAC.
func (p *DES3Provider) MAC(input []byte) ([]byte, error) {
	k1 := p.key24[0:8]
	k2 := p.key24[8:16]

	msg := make([]byte, 0, len(p.ssc)+len(input))
	msg = append(msg, p.ssc...)
	msg = append(msg, input...)
	padded := pad(msg, 8)

	c1, err := des.NewCipher(k1)
	if err != nil {
		return nil, err
	}
	icv := make([]byte, 8)
	buf := make([]byte, 8)
	for i := 0; i < len(padded); i += 8 {
		xorBlock(buf, padded[i:i+8], icv)
		c1.Encrypt(icv, buf)
	}

	c2, err := des.NewCipher(k2)
	if err != nil {
		return nil, err
	}
	decrypted := make([]byte, 8)
	c2.Decrypt(decrypted, icv)

	final := make([]byte, 8)
	c1.Encrypt(final, decrypted)
	return final, nil
}
