package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PubkeyLen is the raw length of a Solana public key.
const PubkeyLen = 32

// ValidateAddress checks that s is a well-formed base-58 Solana address.
func ValidateAddress(s string) error {
	if len(s) < 32 || len(s) > 44 {
		return fmt.Errorf("address length %d out of range", len(s))
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("decode base58: %w", err)
	}
	if len(decoded) != PubkeyLen {
		return fmt.Errorf("decoded length %d, want %d", len(decoded), PubkeyLen)
	}
	return nil
}

// IsOnCurve reports whether a 32-byte point lies on the ed25519 curve.
// Wallet addresses are on-curve; program derived addresses are not.
func IsOnCurve(point []byte) bool {
	if len(point) != PubkeyLen {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// FindProgramAddress derives a program derived address for the given seeds,
// searching bump values from 255 downward for the first off-curve point.
func FindProgramAddress(seeds [][]byte, programID string) (string, error) {
	program, err := base58.Decode(programID)
	if err != nil {
		return "", fmt.Errorf("decode program id: %w", err)
	}

	for bump := byte(255); bump > 0; bump-- {
		var data []byte
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, program...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)

		if !IsOnCurve(hash[:]) {
			return base58.Encode(hash[:]), nil
		}
	}

	return "", fmt.Errorf("no off-curve address found for seeds")
}
