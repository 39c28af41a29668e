package binopt

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// MarketAccountSize is the exact byte size of a binary option market account
const MarketAccountSize = 202

// Market is a binary option market account. Long and short tokens are minted
// pairwise against collateral held in the escrow until the market settles.
type Market struct {
	Decimals    uint8
	Circulation uint64
	Settled     bool
	EscrowMint  solana.PublicKey
	Escrow      solana.PublicKey
	LongMint    solana.PublicKey
	ShortMint   solana.PublicKey
	Owner       solana.PublicKey
	WinningSide solana.PublicKey
}

func (m *Market) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	m.Decimals, err = decoder.ReadUint8()
	if err != nil {
		return err
	}

	m.Circulation, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	m.Settled, err = decoder.ReadBool()
	if err != nil {
		return err
	}

	for _, key := range []*solana.PublicKey{
		&m.EscrowMint, &m.Escrow, &m.LongMint, &m.ShortMint, &m.Owner, &m.WinningSide,
	} {
		*key, err = readPublicKey(decoder)
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Market) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint8(m.Decimals)
	if err != nil {
		return err
	}

	if err = encoder.WriteUint64(m.Circulation, bin.LE); err != nil {
		return err
	}

	if err = encoder.WriteBool(m.Settled); err != nil {
		return err
	}

	for _, key := range []solana.PublicKey{
		m.EscrowMint, m.Escrow, m.LongMint, m.ShortMint, m.Owner, m.WinningSide,
	} {
		if err = encoder.WriteBytes(key[:], false); err != nil {
			return err
		}
	}
	return nil
}

// ParseMarket deserializes a market account. The layout is fixed size, so
// anything but exactly MarketAccountSize bytes is rejected.
func ParseMarket(data []byte) (*Market, error) {
	if len(data) != MarketAccountSize {
		return nil, fmt.Errorf("unexpected market account size %d, want %d", len(data), MarketAccountSize)
	}

	market := new(Market)
	if err := market.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, fmt.Errorf("failed to deserialize market: %w", err)
	}
	return market, nil
}

func readPublicKey(decoder *bin.Decoder) (solana.PublicKey, error) {
	var key solana.PublicKey
	data, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return key, err
	}
	copy(key[:], data)
	return key, nil
}
