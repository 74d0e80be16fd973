// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chainlog

import (
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/crypto"
)

// eventID computes the topic-0 signature hash for a canonical event
// signature string, the same way github.com/luxfi/geth/accounts/abi derives
// an Event.ID: keccak256 of the signature text. Deriving the hash at init
// time (instead of hardcoding the digest) means the canonical string is the
// single source of truth and is trivially auditable against the on-chain
// ABI.
func eventID(signature string) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(signature)))
}

// Canonical event signature strings, exactly as emitted on-chain.
const (
	SigSyncV2          = "Sync(uint112,uint112)"
	SigSwapV3          = "Swap(address,address,int256,int256,uint160,uint128,int24)"
	SigMintV3          = "Mint(address,address,int24,int24,uint128,uint256,uint256)"
	SigBurnV3          = "Burn(address,int24,int24,uint128,uint256,uint256)"
	SigDepositVault    = "Deposit(address,address,uint256,uint256)"
	SigWithdrawVault   = "Withdraw(address,address,address,uint256,uint256)"
	SigPairCreatedV2   = "PairCreated(address,address,address,uint256)"
	SigPoolCreatedV3   = "PoolCreated(address,address,uint24,int24,address)"
	SigSwapBalancerV2  = "Swap(bytes32,address,address,uint256,uint256)"
	SigPoolBalanceChangedBalancerV2 = "PoolBalanceChanged(bytes32,address,address[],int256[],uint256[])"
)

// Topic-0 signature hashes, computed once at package init.
var (
	TopicSyncV2        = eventID(SigSyncV2)
	TopicSwapV3         = eventID(SigSwapV3)
	TopicMintV3         = eventID(SigMintV3)
	TopicBurnV3         = eventID(SigBurnV3)
	TopicDepositVault   = eventID(SigDepositVault)
	TopicWithdrawVault  = eventID(SigWithdrawVault)
	TopicPairCreatedV2  = eventID(SigPairCreatedV2)
	TopicPoolCreatedV3  = eventID(SigPoolCreatedV3)
	TopicSwapBalancerV2 = eventID(SigSwapBalancerV2)
	TopicPoolBalanceChangedBalancerV2 = eventID(SigPoolBalanceChangedBalancerV2)
)
