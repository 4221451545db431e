package solana

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mr-tron/base58"
)

// MintAccountSize is the length of an SPL Token mint account.
// Token-2022 mints carry extensions after these bytes.
const MintAccountSize = 82

// Mint is a decoded SPL Token mint account.
type Mint struct {
	MintAuthority   string // empty when revoked
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority string // empty when revoked
}

// UISupply returns the supply adjusted for decimals.
func (m *Mint) UISupply() float64 {
	return float64(m.Supply) / math.Pow(10, float64(m.Decimals))
}

// DecodeMint parses base64 SPL Token mint account data.
// Layout:
//   - mintAuthority: COption<Pubkey> (4 + 32)
//   - supply: u64 (8)
//   - decimals: u8 (1)
//   - isInitialized: bool (1)
//   - freezeAuthority: COption<Pubkey> (4 + 32)
func DecodeMint(data string) (*Mint, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode mint data: %w", err)
	}
	if len(decoded) < MintAccountSize {
		return nil, fmt.Errorf("mint data too short: %d", len(decoded))
	}

	mintAuth, err := decodeCOptionPubkey(decoded[0:36])
	if err != nil {
		return nil, fmt.Errorf("mint authority: %w", err)
	}
	freezeAuth, err := decodeCOptionPubkey(decoded[46:82])
	if err != nil {
		return nil, fmt.Errorf("freeze authority: %w", err)
	}

	return &Mint{
		MintAuthority:   mintAuth,
		Supply:          binary.LittleEndian.Uint64(decoded[36:44]),
		Decimals:        decoded[44],
		IsInitialized:   decoded[45] == 1,
		FreezeAuthority: freezeAuth,
	}, nil
}

// decodeCOptionPubkey reads a 4-byte tag followed by a 32-byte key.
func decodeCOptionPubkey(b []byte) (string, error) {
	switch tag := binary.LittleEndian.Uint32(b[0:4]); tag {
	case 0:
		return "", nil
	case 1:
		return base58.Encode(b[4:36]), nil
	default:
		return "", fmt.Errorf("invalid option tag %d", tag)
	}
}

// EncodeMint serializes m into base64 account data. Used to build fixtures.
func EncodeMint(m *Mint) (string, error) {
	buf := make([]byte, MintAccountSize)
	if err := encodeCOptionPubkey(buf[0:36], m.MintAuthority); err != nil {
		return "", fmt.Errorf("mint authority: %w", err)
	}
	binary.LittleEndian.PutUint64(buf[36:44], m.Supply)
	buf[44] = m.Decimals
	if m.IsInitialized {
		buf[45] = 1
	}
	if err := encodeCOptionPubkey(buf[46:82], m.FreezeAuthority); err != nil {
		return "", fmt.Errorf("freeze authority: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func encodeCOptionPubkey(dst []byte, key string) error {
	if key == "" {
		return nil
	}
	pk, err := ParsePubkey(key)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(dst[0:4], 1)
	copy(dst[4:36], pk[:])
	return nil
}
