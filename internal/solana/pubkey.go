package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PubkeySize is the length of a Solana public key.
const PubkeySize = 32

// ParsePubkey decodes a base58 address into its 32 bytes.
func ParsePubkey(address string) ([PubkeySize]byte, error) {
	var pk [PubkeySize]byte
	b, err := base58.Decode(address)
	if err != nil {
		return pk, fmt.Errorf("decode base58: %w", err)
	}
	if len(b) != PubkeySize {
		return pk, fmt.Errorf("invalid pubkey length %d", len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// IsValidAddress reports whether address is a base58 32-byte key.
func IsValidAddress(address string) bool {
	_, err := ParsePubkey(address)
	return err == nil
}

// IsOnCurve reports whether the key is a valid ed25519 point. Program derived
// addresses are off-curve and cannot sign.
func IsOnCurve(pk [PubkeySize]byte) bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

// IsProgramAddress reports whether address decodes to an off-curve key.
// Invalid addresses return false.
func IsProgramAddress(address string) bool {
	pk, err := ParsePubkey(address)
	if err != nil {
		return false
	}
	return !IsOnCurve(pk)
}
