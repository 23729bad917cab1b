package iso7816

import (
	"fmt"

	"github.com/abergman/eacsm/pkg/apdu"
	"github.com/abergman/eacsm/pkg/sm"
)

// SendSecure wraps cmd with the given Secure Messaging session, transmits it
// through Send (so 61XX/6CXX transport handling still applies to the
// wrapped APDU), and unwraps the final response before returning it to the
// caller as a ResponseAPDU. The returned ResponseAPDU carries the recovered
// plaintext data and the status word lifted out of DO99; the outer
// transport-level status word (expected to be 9000) is discarded once
// Unwrap succeeds.
func (c *Client) SendSecure(session *sm.Session, cmd *CommandAPDU) (*ResponseAPDU, error) {
	claRaw, err := cmd.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("iso7816: encoding class for secure messaging: %w", err)
	}

	plain := apdu.NewCommand(claRaw, byte(cmd.Instruction.Raw), cmd.P1, cmd.P2, cmd.Data, cmd.Ne)

	wrapped, err := session.Wrap(plain)
	if err != nil {
		return nil, fmt.Errorf("iso7816: wrap: %w", err)
	}

	wrappedClass, err := NewClass(wrapped.CLA)
	if err != nil {
		return nil, fmt.Errorf("iso7816: decoding wrapped class: %w", err)
	}
	wrappedIns, err := NewInstruction(InsCode(wrapped.INS))
	if err != nil {
		return nil, fmt.Errorf("iso7816: decoding wrapped instruction: %w", err)
	}
	wrappedCmd := NewCommandAPDU(wrappedClass, wrappedIns, wrapped.P1, wrapped.P2, wrapped.Data, wrapped.Ne)

	trace, err := c.Send(wrappedCmd)
	if err != nil {
		return nil, err
	}
	if len(trace) == 0 {
		return nil, fmt.Errorf("iso7816: secure send produced no transaction")
	}
	finalResp := trace[len(trace)-1].Response

	plaintext, err := session.Unwrap(&apdu.Response{
		Data: finalResp.Data,
		SW1:  finalResp.Status.SW1(),
		SW2:  finalResp.Status.SW2(),
	})
	if err != nil {
		return nil, fmt.Errorf("iso7816: unwrap: %w", err)
	}

	return ParseResponseAPDU(plaintext)
}
