package sm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/abergman/eacsm/pkg/apdu"
	"github.com/abergman/eacsm/pkg/tlv"
)

// fakeProvider is a deterministic, reversible stand-in for a real
// DES-EDE/AES provider: XOR-stream "encryption" and an XOR-fold "MAC". It
// exists purely to exercise Session.Wrap/Unwrap without pulling in real
// crypto; it must never be used outside tests.
type fakeProvider struct {
	key []byte
	ssc []byte
}

func (f *fakeProvider) BlockSize() int { return 8 }

func (f *fakeProvider) Init(key, ssc []byte) error {
	f.key = append([]byte(nil), key...)
	f.ssc = append([]byte(nil), ssc...)
	return nil
}

func (f *fakeProvider) AddPadding(b []byte) []byte {
	padded := append([]byte(nil), b...)
	padded = append(padded, 0x80)
	for len(padded)%8 != 0 {
		padded = append(padded, 0x00)
	}
	return padded
}

func (f *fakeProvider) xorStream(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[i] ^ f.key[i%len(f.key)] ^ f.ssc[i%len(f.ssc)]
	}
	return out
}

func (f *fakeProvider) Encrypt(plain []byte) ([]byte, error) {
	return f.xorStream(f.AddPadding(plain)), nil
}

func (f *fakeProvider) Decrypt(cipher []byte) ([]byte, error) {
	padded := f.xorStream(cipher)
	i := len(padded) - 1
	for i >= 0 && padded[i] == 0x00 {
		i--
	}
	if i < 0 || padded[i] != 0x80 {
		return nil, errors.New("fakeProvider: bad padding")
	}
	return padded[:i], nil
}

func (f *fakeProvider) MAC(input []byte) ([]byte, error) {
	padded := f.AddPadding(input)
	mac := make([]byte, 8)
	for i, b := range padded {
		mac[i%8] ^= b
	}
	for i := range mac {
		mac[i] ^= f.key[i%len(f.key)]
		mac[i] ^= f.ssc[i%len(f.ssc)]
	}
	return mac, nil
}

var (
	testKEnc = []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	testKMac = []byte{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18}
)

func newTestSession(t *testing.T, initialSSC []byte) *Session {
	t.Helper()
	s, err := NewSession(&fakeProvider{}, testKEnc, testKMac, initialSSC, false)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

// buildCardResponse emulates the card side: encrypt plaintext (if any) into
// DO87, append DO99, and MAC the result with a SSC the caller must already
// have advanced exactly the way Unwrap will advance it (one increment).
func buildCardResponse(t *testing.T, ssc, plain []byte, sw1, sw2 byte) *apdu.Response {
	t.Helper()

	var do87 []byte
	if plain != nil {
		enc := &fakeProvider{}
		if err := enc.Init(testKEnc, ssc); err != nil {
			t.Fatalf("Init kEnc: %v", err)
		}
		ciphertext, err := enc.Encrypt(plain)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		do87, err = tlv.EncodeDO87(ciphertext)
		if err != nil {
			t.Fatalf("EncodeDO87: %v", err)
		}
	}

	do99, err := tlv.EncodeDO99(sw1, sw2)
	if err != nil {
		t.Fatalf("EncodeDO99: %v", err)
	}

	mac := &fakeProvider{}
	if err := mac.Init(testKMac, ssc); err != nil {
		t.Fatalf("Init kMac: %v", err)
	}
	macInput := append(append([]byte{}, do87...), do99...)
	tag, err := mac.MAC(macInput)
	if err != nil {
		t.Fatalf("MAC: %v", err)
	}
	do8E, err := tlv.EncodeDO8E(tag)
	if err != nil {
		t.Fatalf("EncodeDO8E: %v", err)
	}

	body := append(append(append([]byte{}, do87...), do99...), do8E...)
	return &apdu.Response{Data: body, SW1: 0x90, SW2: 0x00}
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	ssc := make([]byte, 8)
	session := newTestSession(t, ssc)

	cmd := apdu.NewCommand(0x00, 0xA4, 0x04, 0x0C, []byte{0x3F, 0x00}, 256)
	wrapped, err := session.Wrap(cmd)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if wrapped.CLA != 0x0C {
		t.Errorf("CLA = %02X, want 0C (SM bit set on 0C base)", wrapped.CLA)
	}
	if wrapped.Ne != 256 {
		t.Errorf("Ne = %d, want 256", wrapped.Ne)
	}

	// SSC after Wrap has been incremented once.
	afterWrapSSC := session.SSC()

	// Card processes the command and answers; its SM response is MACed and
	// encrypted against the SSC the terminal will reach after Unwrap's own
	// increment, i.e. afterWrapSSC + 1.
	expectedUnwrapSSC := append([]byte(nil), afterWrapSSC...)
	incrementSSC(expectedUnwrapSSC)

	plainResponse := []byte{0x6F, 0x1E}
	resp := buildCardResponse(t, expectedUnwrapSSC, plainResponse, 0x90, 0x00)

	out, err := session.Unwrap(resp)
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}

	want := append(append([]byte{}, plainResponse...), 0x90, 0x00)
	if !bytes.Equal(out, want) {
		t.Errorf("Unwrap result = % X, want % X", out, want)
	}
	if session.Failed() {
		t.Errorf("session unexpectedly Failed after successful round trip")
	}
}

func TestWrap_Case1_HeaderOnlyMAC(t *testing.T) {
	session := newTestSession(t, make([]byte, 8))

	cmd := apdu.NewCommand(0x00, 0x82, 0x00, 0x00, nil, 0)
	wrapped, err := session.Wrap(cmd)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	// Case1 has neither data nor Ne: body must be DO8E alone (tag, len, 8 bytes).
	if len(wrapped.Data) != 10 {
		t.Fatalf("body length = %d, want 10 (8E 08 + 8-byte MAC)", len(wrapped.Data))
	}
	if wrapped.Data[0] != tlv.TagChecksum8E || wrapped.Data[1] != 0x08 {
		t.Errorf("body = % X, want to start with 8E 08", wrapped.Data)
	}
}

func TestWrap_RejectsMalformedCommand(t *testing.T) {
	session := newTestSession(t, make([]byte, 8))

	// Data too long for even extended Lc triggers Bytes() failure upstream.
	cmd := apdu.NewCommand(0x00, 0xA4, 0x04, 0x0C, make([]byte, apdu.MaxExtendedLc+1), 0)
	ssc := session.SSC()

	_, err := session.Wrap(cmd)
	if !errors.Is(err, ErrMalformedAPDU) {
		t.Fatalf("err = %v, want ErrMalformedAPDU", err)
	}
	if !bytes.Equal(session.SSC(), ssc) {
		t.Errorf("SSC mutated on malformed-APDU abort: before % X, after % X", ssc, session.SSC())
	}
}

func TestSSCIncrementsAcrossWrapAndUnwrap(t *testing.T) {
	initial := []byte{0, 0, 0, 0, 0, 0, 0, 0xFE}
	session := newTestSession(t, initial)

	cmd := apdu.NewCommand(0x00, 0x82, 0x00, 0x00, nil, 0)
	if _, err := session.Wrap(cmd); err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	afterWrap := session.SSC()
	wantAfterWrap := []byte{0, 0, 0, 0, 0, 0, 0, 0xFF}
	if !bytes.Equal(afterWrap, wantAfterWrap) {
		t.Fatalf("SSC after Wrap = % X, want % X", afterWrap, wantAfterWrap)
	}

	resp := buildCardResponse(t, []byte{0, 0, 0, 0, 0, 0, 1, 0x00}, nil, 0x90, 0x00)
	if _, err := session.Unwrap(resp); err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	wantAfterUnwrap := []byte{0, 0, 0, 0, 0, 0, 1, 0x00}
	if !bytes.Equal(session.SSC(), wantAfterUnwrap) {
		t.Fatalf("SSC after Unwrap = % X, want % X", session.SSC(), wantAfterUnwrap)
	}
}

func TestUnwrap_MissingDO99(t *testing.T) {
	session := newTestSession(t, make([]byte, 8))

	do8E, _ := tlv.EncodeDO8E(make([]byte, 8))
	resp := &apdu.Response{Data: do8E, SW1: 0x90, SW2: 0x00}

	_, err := session.Unwrap(resp)
	if !errors.Is(err, ErrMissingDO99) {
		t.Fatalf("err = %v, want ErrMissingDO99", err)
	}
	if session.Failed() {
		t.Errorf("missing DO99 must not flip session to Failed")
	}
}

func TestUnwrap_BadMACFailsSessionPermanently(t *testing.T) {
	ssc := make([]byte, 8)
	session := newTestSession(t, ssc)

	expected := append([]byte(nil), ssc...)
	incrementSSC(expected)
	resp := buildCardResponse(t, expected, nil, 0x90, 0x00)

	// Flip a MAC bit.
	resp.Data[len(resp.Data)-1] ^= 0x01

	_, err := session.Unwrap(resp)
	if !errors.Is(err, ErrBadMAC) {
		t.Fatalf("err = %v, want ErrBadMAC", err)
	}
	if !session.Failed() {
		t.Fatalf("session must be Failed after a MAC mismatch")
	}

	_, err = session.Unwrap(resp)
	if !errors.Is(err, ErrSessionFailed) {
		t.Fatalf("err = %v, want ErrSessionFailed on subsequent call", err)
	}

	if _, err := session.Wrap(apdu.NewCommand(0, 0x82, 0, 0, nil, 0)); !errors.Is(err, ErrSessionFailed) {
		t.Fatalf("Wrap after Failed: err = %v, want ErrSessionFailed", err)
	}
}
