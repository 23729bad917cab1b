package sm

import (
	"crypto/subtle"
	"fmt"

	"github.com/abergman/eacsm/pkg/apdu"
	"github.com/abergman/eacsm/pkg/tlv"
)

// Wrap converts a plain command APDU into an authenticated-and-encrypted
// command per TR-03110 §D.4 / spec §4.4.2.
func (s *Session) Wrap(cmd *apdu.Command) (*apdu.Command, error) {
	if s.Failed() {
		return nil, ErrSessionFailed
	}

	raw, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAPDU, err)
	}
	caseID, err := apdu.Classify(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAPDU, err)
	}

	// 1. Increment SSC before anything else observable.
	incrementSSC(s.ssc)

	// 2. Header with the SM bit set.
	header := []byte{cmd.CLA | 0x0C, cmd.INS, cmd.P1, cmd.P2}

	var encDO []byte
	var do97 []byte

	// 4. Encrypted data object, DO85 for odd INS, DO87 for even INS.
	if caseID.HasData() {
		if err := s.provider.Init(s.kEnc, s.ssc); err != nil {
			s.state = sessionFailed
			return nil, fmt.Errorf("%w: %v", ErrCipherFailure, err)
		}
		ciphertext, err := s.provider.Encrypt(cmd.Data)
		if err != nil {
			s.state = sessionFailed
			return nil, fmt.Errorf("%w: %v", ErrCipherFailure, err)
		}

		oddINS := cmd.INS&0x01 == 1
		if oddINS {
			encDO, err = tlv.EncodeDO85(ciphertext)
		} else {
			encDO, err = tlv.EncodeDO87(ciphertext)
		}
		if err != nil {
			return nil, fmt.Errorf("sm: encoding encrypted data DO: %w", err)
		}
	}

	// 5. Expected-length object, from the original (unprotected) Ne.
	if caseID.ExpectsResponse() {
		var err error
		do97, err = tlv.EncodeDO97(cmd.Ne)
		if err != nil {
			return nil, fmt.Errorf("sm: encoding DO97: %w", err)
		}
	}

	// 6. MAC over SSC || padded(header) || DO85/87 || DO97, or SSC || header
	// unpadded when there is nothing else to MAC (the provider pads once).
	var macInput []byte
	if encDO != nil || do97 != nil {
		macInput = append(macInput, s.provider.AddPadding(header)...)
		macInput = append(macInput, encDO...)
		macInput = append(macInput, do97...)
	} else {
		macInput = header
	}

	if err := s.provider.Init(s.kMac, s.ssc); err != nil {
		s.state = sessionFailed
		return nil, fmt.Errorf("%w: %v", ErrCipherFailure, err)
	}
	mac, err := s.provider.MAC(macInput)
	if err != nil {
		s.state = sessionFailed
		return nil, fmt.Errorf("%w: %v", ErrCipherFailure, err)
	}

	do8E, err := tlv.EncodeDO8E(mac)
	if err != nil {
		return nil, fmt.Errorf("sm: encoding DO8E: %w", err)
	}

	// 7. Concatenate in order DO85|DO87, DO97, DO8E.
	var body []byte
	body = append(body, encDO...)
	body = append(body, do97...)
	body = append(body, do8E...)

	// 8. Emit with Ne selected by extended-length mode.
	ne := 256
	if s.extendedLength {
		ne = 65536
	}

	return apdu.NewCommand(header[0], header[1], header[2], header[3], body, ne), nil
}

// Unwrap reverses Wrap on a response APDU, verifying the MAC and
// decrypting DO87 if present, per spec §4.4.3. The returned bytes are the
// plaintext response data (if any) followed by SW1, SW2 recovered from
// DO99.
func (s *Session) Unwrap(resp *apdu.Response) ([]byte, error) {
	if s.Failed() {
		return nil, ErrSessionFailed
	}

	incrementSSC(s.ssc)

	dos, err := tlv.ParseDOs(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAPDU, err)
	}

	var do87, do99, do8E *tlv.DO
	for i := range dos {
		switch dos[i].Kind {
		case tlv.DOKindEnc87:
			do87 = &dos[i]
		case tlv.DOKindStatus99:
			do99 = &dos[i]
		case tlv.DOKindChecksum8E:
			do8E = &dos[i]
		}
	}

	if do99 == nil {
		return nil, ErrMissingDO99
	}
	if do8E == nil {
		return nil, fmt.Errorf("%w: missing DO8E", ErrMalformedAPDU)
	}

	var macInput []byte
	if do87 != nil {
		enc, err := tlv.EncodeDO(tlv.TagEncData87, do87.Value)
		if err != nil {
			return nil, fmt.Errorf("sm: re-encoding DO87 for MAC: %w", err)
		}
		macInput = append(macInput, enc...)
	}
	enc99, err := tlv.EncodeDO(tlv.TagStatusWord99, do99.Value)
	if err != nil {
		return nil, fmt.Errorf("sm: re-encoding DO99 for MAC: %w", err)
	}
	macInput = append(macInput, enc99...)

	if err := s.provider.Init(s.kMac, s.ssc); err != nil {
		s.state = sessionFailed
		return nil, fmt.Errorf("%w: %v", ErrCipherFailure, err)
	}
	computedMAC, err := s.provider.MAC(macInput)
	if err != nil {
		s.state = sessionFailed
		return nil, fmt.Errorf("%w: %v", ErrCipherFailure, err)
	}

	if subtle.ConstantTimeCompare(computedMAC, do8E.Value) != 1 {
		s.state = sessionFailed
		return nil, ErrBadMAC
	}

	if do87 == nil {
		return append([]byte(nil), do99.Value...), nil
	}

	if len(do87.Value) < 1 {
		return nil, fmt.Errorf("%w: DO87 missing padding-content indicator", ErrMalformedAPDU)
	}

	if err := s.provider.Init(s.kEnc, s.ssc); err != nil {
		s.state = sessionFailed
		return nil, fmt.Errorf("%w: %v", ErrCipherFailure, err)
	}
	plain, err := s.provider.Decrypt(do87.Value[1:])
	if err != nil {
		s.state = sessionFailed
		return nil, fmt.Errorf("%w: %v", ErrCipherFailure, err)
	}

	out := make([]byte, 0, len(plain)+len(do99.Value))
	out = append(out, plain...)
	out = append(out, do99.Value...)
	return out, nil
}
