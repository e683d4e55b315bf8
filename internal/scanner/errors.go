package scanner

import "errors"

// Scan failure taxonomy. Metadata provider failures are deliberately not
// represented here: they degrade to missing metadata inside the resolver
// and surface only through risk issues.
var (
	// ErrInvalidAddress is returned when the owner identifier is not a
	// well-formed Solana address. The scan never starts.
	ErrInvalidAddress = errors.New("invalid owner address")

	// ErrUpstreamUnavailable is returned when the chain RPC call itself
	// fails. The whole scan fails atomically and may be retried.
	ErrUpstreamUnavailable = errors.New("chain RPC unavailable")
)
