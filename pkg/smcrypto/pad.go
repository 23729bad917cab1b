// Package smcrypto provides concrete sm.CipherProvider implementations for
// the two TR-03110 secure messaging algorithm suites: DES-EDE (3DES) with
// ISO 9797-1 Algorithm 3 retail MAC, and AES with CMAC (RFC 4493).
package smcrypto

// pad applies ISO/IEC 7816-4 padding: append 0x80, then zero-fill to a
// multiple of blockSize.
func pad(in []byte, blockSize int) []byte {
	out := make([]byte, len(in), len(in)+blockSize)
	copy(out, in)
	out = append(out, 0x80)
	for len(out)%blockSize != 0 {
		out = append(out, 0x00)
	}
	return out
}

// unpad reverses pad, reporting false if the trailing bytes are not a valid
// ISO/IEC 7816-4 padding.
func unpad(in []byte) ([]byte, bool) {
	idx := len(in) - 1
	for idx >= 0 && in[idx] == 0x00 {
		idx--
	}
	if idx < 0 || in[idx] != 0x80 {
		return nil, false
	}
	return in[:idx], true
}

func xorBlock(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}
