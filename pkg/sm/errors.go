package sm

import "errors"

// Error kinds per spec §7. The engine never retries; every failure is
// surfaced to the caller as one of these sentinels (checked with errors.Is).
var (
	// ErrMalformedAPDU: the classifier rejected the command; Wrap aborts
	// without mutating the SSC.
	ErrMalformedAPDU = errors.New("sm: malformed command APDU")

	// ErrMissingDO99: the response lacks the mandatory DO99; Unwrap aborts.
	ErrMissingDO99 = errors.New("sm: response missing mandatory DO99")

	// ErrBadMAC: the computed MAC does not match DO8E; Unwrap aborts and the
	// session transitions to Failed.
	ErrBadMAC = errors.New("sm: MAC verification failed")

	// ErrCipherFailure: the cipher/MAC provider reported an error; Wrap or
	// Unwrap aborts and the session transitions to Failed.
	ErrCipherFailure = errors.New("sm: cipher or MAC provider failure")

	// ErrUnsupportedOperation: a requested optional feature (e.g. auxiliary
	// authenticated data, tag 0x67) is not implemented.
	ErrUnsupportedOperation = errors.New("sm: unsupported operation")

	// ErrSessionFailed: the session previously entered the terminal Failed
	// state and refuses further Wrap/Unwrap calls.
	ErrSessionFailed = errors.New("sm: session is in the Failed state")
)
