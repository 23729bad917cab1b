package pace

import (
	"github.com/abergman/eacsm/pkg/apdu"
	"github.com/abergman/eacsm/pkg/mseat"
)

// BuildPACE assembles the MSE:Set AT command that opens a PACE channel:
// template PACE, the negotiated mechanism OID, and the PIN/CAN/MRZ/PUK
// key reference. chat, when non-nil, is attached as the terminal's
// Certificate Holder Authorization Template.
func BuildPACE(mechanismOID []byte, keyRef int, chat []byte) (*apdu.Command, error) {
	b := mseat.NewBuilder().
		SetTemplate(mseat.TemplatePACE).
		SetProtocol(mechanismOID).
		SetKeyReferenceInteger(keyRef)
	if chat != nil {
		b = b.SetCHAT(chat)
	}
	return b.Build()
}

// BuildCA assembles the MSE:Set AT command that starts Chip
// Authentication: template CA, the negotiated mechanism OID, and the
// chip's private/domain-parameter key reference.
func BuildCA(mechanismOID []byte, privateKeyRef int) (*apdu.Command, error) {
	return mseat.NewBuilder().
		SetTemplate(mseat.TemplateCA).
		SetProtocol(mechanismOID).
		SetPrivateKeyReference(privateKeyRef).
		Build()
}

// BuildTA assembles the MSE:Set AT command that starts Terminal
// Authentication: template TA, the negotiated mechanism OID, the
// terminal's ephemeral public key (re-used from the preceding CA round,
// TR-03110 §7), and its CHAT.
func BuildTA(mechanismOID []byte, ephemeralPublicKey, chat []byte) (*apdu.Command, error) {
	b := mseat.NewBuilder().
		SetTemplate(mseat.TemplateTA).
		SetProtocol(mechanismOID).
		SetEphemeralPublicKey(ephemeralPublicKey)
	if chat != nil {
		b = b.SetCHAT(chat)
	}
	return b.Build()
}
