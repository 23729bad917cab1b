// Package pace supplies the standard BSI TR-03110 protocol OID catalog and
// three convenience constructors over pkg/mseat for the canonical
// PACE/Chip Authentication/Terminal Authentication MSE:Set AT flavors.
package pace

// bsiArc is the shared id-BSI-DE prefix (0.4.0.127.0.7.2.2) all eMRTD
// protocol OIDs in this catalog descend from.
var bsiArc = []byte{0x04, 0x00, 0x7F, 0x00, 0x07, 0x02, 0x02}

func oid(suffix ...byte) []byte {
	out := make([]byte, 0, len(bsiArc)+len(suffix))
	out = append(out, bsiArc...)
	out = append(out, suffix...)
	return out
}

// PACE mechanism OIDs: id-PACE-{DH,ECDH}-{GM,IM}-{3DES-CBC-CBC,AES-CBC-CMAC-*}.
var (
	OIDPACEDHGM3DESCBCCBC      = oid(0x04, 0x01, 0x01)
	OIDPACEDHGMAESCBCCMAC128   = oid(0x04, 0x01, 0x02)
	OIDPACEDHGMAESCBCCMAC192   = oid(0x04, 0x01, 0x03)
	OIDPACEDHGMAESCBCCMAC256   = oid(0x04, 0x01, 0x04)
	OIDPACEECDHGM3DESCBCCBC    = oid(0x04, 0x02, 0x01) // id-PACE-ECDH-GM-3DES-CBC-CBC
	OIDPACEECDHGMAESCBCCMAC128 = oid(0x04, 0x02, 0x02)
	OIDPACEECDHGMAESCBCCMAC192 = oid(0x04, 0x02, 0x03)
	OIDPACEECDHGMAESCBCCMAC256 = oid(0x04, 0x02, 0x04)
	OIDPACEDHIM3DESCBCCBC      = oid(0x04, 0x03, 0x01)
	OIDPACEECDHIM3DESCBCCBC    = oid(0x04, 0x04, 0x01)
)

// Chip Authentication mechanism OIDs: id-CA-{DH,ECDH}-{3DES-CBC-CBC,AES-CBC-CMAC-*}.
var (
	OIDCADH3DESCBCCBC        = oid(0x03, 0x01, 0x01)
	OIDCADHAESCBCCMAC128     = oid(0x03, 0x01, 0x02)
	OIDCADHAESCBCCMAC192     = oid(0x03, 0x01, 0x03)
	OIDCADHAESCBCCMAC256     = oid(0x03, 0x01, 0x04)
	OIDCAECDH3DESCBCCBC      = oid(0x03, 0x02, 0x01)
	OIDCAECDHAESCBCCMAC128   = oid(0x03, 0x02, 0x02)
	OIDCAECDHAESCBCCMAC192   = oid(0x03, 0x02, 0x03)
	OIDCAECDHAESCBCCMAC256   = oid(0x03, 0x02, 0x04)
)

// Terminal Authentication mechanism OIDs: id-TA-{RSA,ECDSA}.
var (
	OIDTARSAv1v5SHA1   = oid(0x02, 0x01, 0x01)
	OIDTARSAv1v5SHA256 = oid(0x02, 0x01, 0x02)
	OIDTAECDSASHA1     = oid(0x02, 0x02, 0x01)
	OIDTAECDSASHA256   = oid(0x02, 0x02, 0x02)
)
