package sm

import "fmt"

type sessionState int

const (
	sessionReady sessionState = iota
	sessionFailed
)

// Session holds the mutable state of one Secure Messaging channel: the
// session keys, the send-sequence counter, and the Ready/Failed state
// machine of spec §4.4.5. A Session is not safe for concurrent use; callers
// must serialize Wrap/Unwrap (spec §5).
type Session struct {
	provider CipherProvider

	kEnc []byte
	kMac []byte
	ssc  []byte

	extendedLength bool
	state          sessionState
}

// NewSession creates a Ready session. kEnc/kMac are copied; the caller
// retains ownership of its own copies. initialSSC must match
// provider.BlockSize() in length.
func NewSession(provider CipherProvider, kEnc, kMac, initialSSC []byte, extendedLength bool) (*Session, error) {
	bs := provider.BlockSize()
	if len(initialSSC) != bs {
		return nil, fmt.Errorf("sm: initial SSC length %d does not match block size %d", len(initialSSC), bs)
	}

	s := &Session{
		provider:       provider,
		kEnc:           append([]byte(nil), kEnc...),
		kMac:           append([]byte(nil), kMac...),
		ssc:            append([]byte(nil), initialSSC...),
		extendedLength: extendedLength,
		state:          sessionReady,
	}
	return s, nil
}

// SSC returns a copy of the current send-sequence counter, for diagnostics.
// It must not be used to mutate session state (spec §9).
func (s *Session) SSC() []byte {
	return append([]byte(nil), s.ssc...)
}

// Failed reports whether the session has entered the terminal Failed state.
func (s *Session) Failed() bool {
	return s.state == sessionFailed
}

// Close zeroizes the session keys. The session must not be used afterwards.
func (s *Session) Close() {
	zero(s.kEnc)
	zero(s.kMac)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// incrementSSC adds 1 to the fixed-width big-endian counter in place,
// carrying from the least-significant byte leftward. Overflow of the whole
// width wraps to zero (spec §4.4.4).
func incrementSSC(ssc []byte) {
	for i := len(ssc) - 1; i >= 0; i-- {
		ssc[i]++
		if ssc[i] != 0 {
			return
		}
	}
}
