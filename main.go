package main

import (
	"fmt"
	"log"

	"github.com/ebfe/scard"

	"github.com/abergman/eacsm/pkg/iso7816"
	"github.com/abergman/eacsm/pkg/mseat"
	"github.com/abergman/eacsm/pkg/pace"
	"github.com/abergman/eacsm/pkg/sm"
	"github.com/abergman/eacsm/pkg/smcrypto"
)

// eMRTDApplicationAID is the standard travel-document application
// identifier, ICAO Doc 9303 Part 10 §3.1.
var eMRTDApplicationAID = []byte{0xA0, 0x00, 0x00, 0x02, 0x47, 0x10, 0x01}

func main() {
	// --- 1. Hardware Setup ---
	ctx, card := connectToCard()

	defer func() {
		if err := ctx.Release(); err != nil {
			log.Printf("Warning: Failed to release context: %v", err)
		}
	}()

	defer func() {
		if err := card.Disconnect(scard.LeaveCard); err != nil {
			log.Printf("Warning: Failed to disconnect card: %v", err)
		}
	}()

	// --- 2. Logic Setup ---
	client := iso7816.NewClient(card)
	cls, _ := iso7816.NewClass(0x00)

	// --- 3. Execution Flow ---

	// Step 1: Select the eMRTD application (ICAO Doc 9303 Part 10).
	if err := step1SelectEMRTD(client, cls); err != nil {
		log.Fatalf("Step 1 failed: %v", err)
	}

	// Step 2: Build the MSE:Set AT command that opens a PACE channel and
	// send it. A real terminal would negotiate the mechanism OID from
	// EF.CardAccess; this demo selects the ECDH/Generic Mapping/AES-128
	// mechanism against the MRZ key reference.
	if err := step2SelectPACE(client, cls); err != nil {
		log.Fatalf("Step 2 failed: %v", err)
	}

	// Step 3: Once PACE has run and both sides hold the derived session
	// keys (KSenc/KSmac) and a reset Send Sequence Counter, demonstrate a
	// Secure Messaging round trip re-selecting the application under SM.
	step3SecureReselect(client, cls)

	fmt.Println("\n>> Demo Finished Successfully")
}

// =========================================================================
// Helper Functions
// =========================================================================

// connectToCard handles the PC/SC context establishment and reader connection.
func connectToCard() (*scard.Context, *scard.Card) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		log.Fatalf("Error establishing context: %s", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		if relErr := ctx.Release(); relErr != nil {
			log.Printf("Warning: Failed to release context during error handling: %v", relErr)
		}
		log.Fatal("No smart card reader found.")
	}

	fmt.Printf(">> Using reader: %s\n", readers[0])

	// Force T=0 or T=1 to avoid "Parameter Incorrect" errors (Error 57)
	card, err := ctx.Connect(readers[0], scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		if relErr := ctx.Release(); relErr != nil {
			log.Printf("Warning: Failed to release context during error handling: %v", relErr)
		}
		log.Fatalf("Error connecting to card: %s", err)
	}

	return ctx, card
}

// step1SelectEMRTD selects the travel document application by AID and
// prints a report of the selection.
func step1SelectEMRTD(client *iso7816.Client, cls iso7816.Class) error {
	fmt.Println("\n=============================================")
	fmt.Println(" Step 1: SELECT eMRTD APPLICATION")
	fmt.Println("=============================================")

	selectCmd := iso7816.SelectByAID(cls, eMRTDApplicationAID)
	trace, err := client.Send(selectCmd)
	if err != nil {
		return fmt.Errorf("transmission failed: %w", err)
	}

	res, err := iso7816.NewSelectResult(trace)
	if err != nil {
		return fmt.Errorf("result creation failed: %w", err)
	}

	fmt.Println(res.Describe())

	if !res.IsSuccess() {
		return fmt.Errorf("eMRTD selection failed with status: %s", res.Last().Response.Status.Verbose())
	}

	return nil
}

// step2SelectPACE assembles and sends the MSE:Set AT command that starts
// the PACE protocol, per BSI TR-03110 §4.2/§9.2.1.
func step2SelectPACE(client *iso7816.Client, cls iso7816.Class) error {
	fmt.Println("\n=============================================")
	fmt.Println(" Step 2: MSE:Set AT (PACE)")
	fmt.Println("=============================================")

	cmd, err := pace.BuildPACE(pace.OIDPACEECDHGMAESCBCCMAC128, mseat.KeyRefMRZ, nil)
	if err != nil {
		return fmt.Errorf("building MSE:Set AT: %w", err)
	}

	raw, err := cmd.Bytes()
	if err != nil {
		return fmt.Errorf("encoding MSE:Set AT: %w", err)
	}
	fmt.Printf(">> MSE:Set AT (PACE): % X\n", raw)

	ins, err := iso7816.NewInstruction(iso7816.INS_MANAGE_SECURITY_ENVIRONMENT)
	if err != nil {
		return fmt.Errorf("building instruction: %w", err)
	}
	paceCmd := iso7816.NewCommandAPDU(cls, ins, cmd.P1, cmd.P2, cmd.Data, 0)

	trace, err := client.Send(paceCmd)
	if err != nil {
		return fmt.Errorf("transmission failed: %w", err)
	}

	status := trace.Last().Response.Status
	fmt.Printf(">> Card responded: %s\n", status.Verbose())
	if status != iso7816.SW_NO_ERROR {
		return fmt.Errorf("PACE MSE:Set AT rejected: %s", status.Verbose())
	}

	return nil
}

// step3SecureReselect demonstrates Secure Messaging by re-selecting the
// eMRTD application under a freshly keyed session. In a real terminal the
// session keys below are derived from the PACE key agreement (TR-03110
// §4.3.3); here they stand in for that derivation so the Wrap/Unwrap path
// can be exercised end to end.
func step3SecureReselect(client *iso7816.Client, cls iso7816.Class) {
	fmt.Println("\n=============================================")
	fmt.Println(" Step 3: SECURE MESSAGING RE-SELECT")
	fmt.Println("=============================================")

	kEnc := make([]byte, 16)
	kMac := make([]byte, 16)
	ssc := make([]byte, 16)

	session, err := sm.NewSession(smcrypto.NewAESProvider(), kEnc, kMac, ssc, false)
	if err != nil {
		log.Printf(">> Could not start Secure Messaging session: %v", err)
		return
	}
	defer session.Close()

	selectCmd := iso7816.SelectByAID(cls, eMRTDApplicationAID)
	resp, err := client.SendSecure(session, selectCmd)
	if err != nil {
		fmt.Printf(">> Secure re-select failed: %v\n", err)
		return
	}

	fmt.Printf(">> Secure re-select status: %s\n", resp.Status.Verbose())
	if len(resp.Data) > 0 {
		fmt.Printf(">> Recovered plaintext FCI: % X\n", resp.Data)
	}
}
