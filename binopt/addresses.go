package binopt

import (
	"github.com/gagliardetto/solana-go"
)

// ProgramID is the deployed binary option program
var ProgramID = solana.MustPublicKeyFromBase58("betw959P4WToez4DkuXwNsJszqbpe3HuY56AcG5yevx")

// GetEscrowAuthorityPDA returns the escrow authority for a market, derived
// from its long and short mints. It signs escrow transfers and long/short
// mint operations on the program's behalf.
func GetEscrowAuthorityPDA(longMint, shortMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			longMint.Bytes(),
			shortMint.Bytes(),
			solana.TokenProgramID.Bytes(),
			ProgramID.Bytes(),
		},
		ProgramID,
	)
}
