// Command mse-at assembles a single MANAGE SECURITY ENVIRONMENT : SET
// Authentication Template command APDU (PACE, Chip Authentication, or
// Terminal Authentication) and prints its encoded bytes, without requiring
// a connected reader.
package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abergman/eacsm/pkg/apdu"
	"github.com/abergman/eacsm/pkg/mseat"
	"github.com/abergman/eacsm/pkg/pace"
)

var (
	protocolFlag      string
	keyRefFlag        int
	privateKeyRefFlag int
	ephemeralPubKey   string
	chatFlag          string
)

// namedOIDs lets --protocol take a catalog name instead of raw hex, so the
// CLI is usable without memorizing OID bytes.
var namedOIDs = map[string][]byte{
	"pace-dh-gm-3des":        pace.OIDPACEDHGM3DESCBCCBC,
	"pace-dh-gm-aes128":      pace.OIDPACEDHGMAESCBCCMAC128,
	"pace-dh-gm-aes192":      pace.OIDPACEDHGMAESCBCCMAC192,
	"pace-dh-gm-aes256":      pace.OIDPACEDHGMAESCBCCMAC256,
	"pace-ecdh-gm-3des":      pace.OIDPACEECDHGM3DESCBCCBC,
	"pace-ecdh-gm-aes128":    pace.OIDPACEECDHGMAESCBCCMAC128,
	"pace-ecdh-gm-aes192":    pace.OIDPACEECDHGMAESCBCCMAC192,
	"pace-ecdh-gm-aes256":    pace.OIDPACEECDHGMAESCBCCMAC256,
	"ca-dh-3des":             pace.OIDCADH3DESCBCCBC,
	"ca-ecdh-3des":           pace.OIDCAECDH3DESCBCCBC,
	"ca-ecdh-aes128":         pace.OIDCAECDHAESCBCCMAC128,
	"ta-rsa-sha1":            pace.OIDTARSAv1v5SHA1,
	"ta-rsa-sha256":          pace.OIDTARSAv1v5SHA256,
	"ta-ecdsa-sha1":          pace.OIDTAECDSASHA1,
	"ta-ecdsa-sha256":        pace.OIDTAECDSASHA256,
}

func resolveOID(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("--protocol is required (name or hex OID bytes)")
	}
	if oid, ok := namedOIDs[strings.ToLower(s)]; ok {
		return oid, nil
	}
	return hex.DecodeString(s)
}

func decodeOptionalHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func printCommand(cmd *apdu.Command) error {
	raw, err := cmd.Bytes()
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}
	fmt.Printf("CLA=%02X INS=%02X P1=%02X P2=%02X, %d data byte(s)\n",
		cmd.CLA, cmd.INS, cmd.P1, cmd.P2, len(cmd.Data))
	fmt.Println(strings.ToUpper(hex.EncodeToString(raw)))
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "mse-at",
	Short: "Build MANAGE SECURITY ENVIRONMENT : SET Authentication Template APDUs",
	Long: `mse-at builds the command APDU that selects one of the eMRTD
authentication templates (PACE, Chip Authentication, Terminal Authentication)
per BSI TR-03110, and prints its encoded bytes. It does not talk to a
reader; it is a construction/inspection tool for the MSE:Set AT layer.`,
}

var paceCmd = &cobra.Command{
	Use:   "pace",
	Short: "Build an MSE:Set AT command selecting the PACE template",
	RunE: func(cmd *cobra.Command, args []string) error {
		oid, err := resolveOID(protocolFlag)
		if err != nil {
			return err
		}
		chat, err := decodeOptionalHex(chatFlag)
		if err != nil {
			return fmt.Errorf("invalid --chat: %w", err)
		}
		apduCmd, err := pace.BuildPACE(oid, keyRefFlag, chat)
		if err != nil {
			return err
		}
		return printCommand(apduCmd)
	},
}

var caCmd = &cobra.Command{
	Use:   "ca",
	Short: "Build an MSE:Set AT command selecting the Chip Authentication template",
	RunE: func(cmd *cobra.Command, args []string) error {
		oid, err := resolveOID(protocolFlag)
		if err != nil {
			return err
		}
		apduCmd, err := pace.BuildCA(oid, privateKeyRefFlag)
		if err != nil {
			return err
		}
		return printCommand(apduCmd)
	},
}

var taCmd = &cobra.Command{
	Use:   "ta",
	Short: "Build an MSE:Set AT command selecting the Terminal Authentication template",
	RunE: func(cmd *cobra.Command, args []string) error {
		oid, err := resolveOID(protocolFlag)
		if err != nil {
			return err
		}
		pk, err := decodeOptionalHex(ephemeralPubKey)
		if err != nil {
			return fmt.Errorf("invalid --ephemeral-pubkey: %w", err)
		}
		chat, err := decodeOptionalHex(chatFlag)
		if err != nil {
			return fmt.Errorf("invalid --chat: %w", err)
		}
		apduCmd, err := pace.BuildTA(oid, pk, chat)
		if err != nil {
			return err
		}
		return printCommand(apduCmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&protocolFlag, "protocol", "",
		"mechanism OID: a catalog name (e.g. pace-ecdh-gm-aes128) or raw hex bytes")

	paceCmd.Flags().IntVar(&keyRefFlag, "key-ref", mseat.KeyRefMRZ,
		"key reference: 1=MRZ, 2=CAN, 3=PIN, 4=PUK")
	paceCmd.Flags().StringVar(&chatFlag, "chat", "", "hex-encoded Certificate Holder Authorization Template")

	caCmd.Flags().IntVar(&privateKeyRefFlag, "private-key-ref", 0,
		"chip private key / domain parameter reference")

	taCmd.Flags().StringVar(&ephemeralPubKey, "ephemeral-pubkey", "",
		"hex-encoded ephemeral public key carried over from Chip Authentication")
	taCmd.Flags().StringVar(&chatFlag, "chat", "", "hex-encoded Certificate Holder Authorization Template")

	rootCmd.AddCommand(paceCmd, caCmd, taCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
