// Package mseat builds MANAGE SECURITY ENVIRONMENT : SET Authentication
// Template command APDUs (ISO/IEC 7816-4 INS 0x22, BSI TR-03110), selecting
// one of the PACE, Chip Authentication, or Terminal Authentication
// protocols and accumulating the optional tagged fields each protocol needs.
package mseat

import (
	"fmt"

	"github.com/abergman/eacsm/pkg/apdu"
	"github.com/abergman/eacsm/pkg/tlv"
)

// Template selects the authentication template and fixes P1.
type Template byte

const (
	// TemplateNone leaves P1 at 0x00; Builder does not enforce that a
	// template be selected before Build (permissive by design).
	TemplateNone Template = 0x00
	TemplatePACE Template = 0xC1
	TemplateCA   Template = 0x41
	TemplateTA   Template = 0x81
)

// Fixed header bytes for MSE:Set AT, per spec §4.3 / §6.
const (
	cla byte = 0x00
	ins byte = 0x22
	p2  byte = 0xA4
)

// Reserved key-reference-integer meanings for SetKeyReferenceInteger.
const (
	KeyRefMRZ = 1
	KeyRefCAN = 2
	KeyRefPIN = 3
	KeyRefPUK = 4
)

// Builder accumulates the optional tagged fields of an MSE:Set AT command
// until Build emits the final APDU. Setters are last-write-wins and
// idempotent; at most one of SetKeyReferenceInteger/SetKeyReferenceName is
// meaningful, but if both are called both are emitted, in call order
// (spec §3 invariant).
type Builder struct {
	p1 byte

	protocol        []byte // tag 80, encoded
	keyRefs         [][]byte // tag 83, encoded, in setter-call order
	privateKeyRef   []byte // tag 84, encoded
	ephemeralPubKey []byte // tag 91, encoded
	chat            []byte // tag 7F4C, encoded
}

// NewBuilder returns an empty Builder with no template selected (P1=0x00).
func NewBuilder() *Builder {
	return &Builder{}
}

// SetTemplate selects the authentication template, fixing P1.
func (b *Builder) SetTemplate(t Template) *Builder {
	b.p1 = byte(t)
	return b
}

// SetProtocol sets tag 80: the cryptographic mechanism reference, a DER-encoded
// OID given here as its pre-encoded DER bytes (ASN.1 OID encoding is an
// external collaborator; see SPEC_FULL.md §1).
func (b *Builder) SetProtocol(derOID []byte) *Builder {
	enc, _ := tlv.EncodeDO(tlv.TagCryptoMechanism, derOID)
	b.protocol = enc
	return b
}

// SetKeyReferenceInteger sets tag 83 with a DER-encoded small integer key
// reference (one of KeyRefMRZ/CAN/PIN/PUK, or a protocol-specific value).
func (b *Builder) SetKeyReferenceInteger(k int) *Builder {
	enc, _ := tlv.EncodeDO(tlv.TagKeyReference, derSmallInt(k))
	b.keyRefs = append(b.keyRefs, enc)
	return b
}

// SetKeyReferenceName sets tag 83 with a caller-encoded name, verbatim.
func (b *Builder) SetKeyReferenceName(name []byte) *Builder {
	enc, _ := tlv.EncodeDO(tlv.TagKeyReference, name)
	b.keyRefs = append(b.keyRefs, enc)
	return b
}

// SetPrivateKeyReference sets tag 84: a DER-encoded private key / domain
// parameter index.
func (b *Builder) SetPrivateKeyReference(i int) *Builder {
	enc, _ := tlv.EncodeDO(tlv.TagPrivateKeyRef, derSmallInt(i))
	b.privateKeyRef = enc
	return b
}

// SetEphemeralPublicKey sets tag 91: the caller-supplied compressed ephemeral
// public key point (TR-03110 A.2.2.3).
func (b *Builder) SetEphemeralPublicKey(pk []byte) *Builder {
	enc, _ := tlv.EncodeDO(tlv.TagEphemeralPubKey, pk)
	b.ephemeralPubKey = enc
	return b
}

// SetCHAT sets tag 7F4C: a pre-encoded Certificate Holder Authorization Template.
func (b *Builder) SetCHAT(chat []byte) *Builder {
	enc, _ := tlv.EncodeLongDO(tlv.TagCHAT, chat)
	b.chat = enc
	return b
}

// Build emits the command APDU: CLA=00 INS=22 P1 P2=A4, body in canonical
// DO order (80, 83, 84, 91, 7F4C) regardless of setter call order.
//
// Build cannot fail by construction — protocol OIDs and small integers
// cannot realistically fail DER encoding (see SPEC_FULL.md §4.3) — but returns
// error for API symmetry with apdu.Command.Bytes.
func (b *Builder) Build() (*apdu.Command, error) {
	var body []byte
	body = append(body, b.protocol...)
	for _, kr := range b.keyRefs {
		body = append(body, kr...)
	}
	body = append(body, b.privateKeyRef...)
	body = append(body, b.ephemeralPubKey...)
	body = append(body, b.chat...)

	return apdu.NewCommand(cla, ins, b.p1, p2, body, 0), nil
}

// derSmallInt returns the minimal-length DER encoding of a non-negative
// integer's content octets (no tag/length wrapper — callers wrap via
// tlv.EncodeDO).
func derSmallInt(k int) []byte {
	if k == 0 {
		return []byte{0x00}
	}
	if k < 0 {
		panic(fmt.Sprintf("mseat: negative key reference %d", k))
	}

	var out []byte
	for v := k; v > 0; v >>= 8 {
		out = append([]byte{byte(v)}, out...)
	}
	// DER integers are two's-complement; prepend 0x00 if the high bit of the
	// leading byte would otherwise make the value look negative.
	if out[0]&0x80 != 0 {
		out = append([]byte{0x00}, out...)
	}
	return out
}
