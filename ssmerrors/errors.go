// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ssmerrors defines the sentinel error values for the state space
// manager. Call sites wrap these with fmt.Errorf("%w: ...", ssmerrors.ErrX)
// so errors.Is keeps working through the call stack, matching the
// go-ethereum-derived convention used throughout luxfi/evm.
package ssmerrors

import "errors"

// Arithmetic errors (spec §4.1, §7).
var (
	ErrDivisionByZero    = errors.New("division by zero")
	ErrRoundingLoss      = errors.New("quotient does not fit in the target fixed-point width")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrArithmeticUnderflow = errors.New("arithmetic underflow")
)

// Event log errors (spec §4.2-4.4, §7).
var (
	ErrInvalidEventSignature = errors.New("log topic-0 does not match any known event for this pool")
	ErrMissingBlockNumber    = errors.New("log is missing a block number")
)

// Swap simulation errors (spec §4.2-4.4, §7).
var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for swap")
	ErrLiquidityUnderflow    = errors.New("liquidity would go negative")
	ErrInvalidTick           = errors.New("tick outside [MIN_TICK, MAX_TICK]")
)

// Reorg / change-cache errors (spec §4.5, §7).
var (
	ErrNoStateChangesInCache = errors.New("unwind target precedes recorded cache history")
	ErrCapacityInvariant     = errors.New("change cache capacity invariant violated")
)

// Factory / batch-request errors (spec §4.3, §4.8, §7).
var (
	ErrPoolDataError        = errors.New("batched pool initializer returned invalid data")
	ErrBatchDecodeMismatch  = errors.New("batch call result length or shape did not match the request")
	ErrInvalidERC4626Fee    = errors.New("vault preview fee schedule is not proportional")
	ErrUnknownFactory       = errors.New("log address is not a registered factory")
	ErrUnknownPool          = errors.New("log address is not a registered pool")
)

// Transport errors (spec §7) are surfaced unchanged from the Provider; this
// package does not define a sentinel for them; callers use errors.Is against
// the error Provider returns, per spec §1/§6 (transport is an external
// collaborator).
