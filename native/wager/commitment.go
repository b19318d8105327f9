package wager

import (
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// CommitmentLength is the size of a bet commitment digest in bytes.
const CommitmentLength = 32

// Commitment binds a hidden (guess, salt) pair chosen before the outcome is
// known. The digest is keccak256 over the guess as a single byte followed by
// the salt as eight little-endian bytes.
type Commitment [CommitmentLength]byte

// ComputeCommitment hashes the guess and salt into a commitment digest.
func ComputeCommitment(guess uint8, salt uint64) Commitment {
	var saltLE [8]byte
	binary.LittleEndian.PutUint64(saltLE[:], salt)
	var c Commitment
	copy(c[:], ethcrypto.Keccak256([]byte{guess}, saltLE[:]))
	return c
}

// Matches recomputes the digest from the supplied pair and requires bit-exact
// equality with the stored commitment.
func (c Commitment) Matches(guess uint8, salt uint64) bool {
	computed := ComputeCommitment(guess, salt)
	return subtle.ConstantTimeCompare(c[:], computed[:]) == 1
}

// String renders the commitment as 0x-prefixed hex.
func (c Commitment) String() string {
	return "0x" + hex.EncodeToString(c[:])
}

// ParseCommitment decodes a 32-byte commitment from hex, with or without a
// 0x prefix.
func ParseCommitment(value string) (Commitment, error) {
	var c Commitment
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return c, fmt.Errorf("wager: invalid commitment encoding: %w", err)
	}
	if len(raw) != CommitmentLength {
		return c, fmt.Errorf("wager: commitment must be %d bytes, got %d", CommitmentLength, len(raw))
	}
	copy(c[:], raw)
	return c, nil
}
