package core

import "github.com/pkg/errors"

var (
	// ErrMiningCancelled is returned when the context is done before a nonce is found.
	ErrMiningCancelled = errors.New("Mining cancelled")
	// ErrIterationLimit is returned when the miner tried MaxIterations nonces without success.
	ErrIterationLimit = errors.New("Mining iteration limit reached")
	// ErrNonceOverflow is returned when the nonce space above the starting nonce is exhausted.
	ErrNonceOverflow = errors.New("Nonce space exhausted")
	// ErrInvalidIndex is returned when a block index does not follow its predecessor.
	ErrInvalidIndex = errors.New("Invalid block index")
	// ErrInvalidTimestamp is returned when a block timestamp precedes its predecessor.
	ErrInvalidTimestamp = errors.New("Invalid block timestamp")
)
