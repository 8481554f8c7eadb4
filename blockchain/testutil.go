package blockchain

import (
	"context"
	"fmt"

	"github.com/thetatoken/hashchain/common"
	"github.com/thetatoken/hashchain/core"
)

// CreateTestChain creates a chain with a fixed genesis timestamp so that its
// hashes are reproducible.
func CreateTestChain(difficulty uint) *Chain {
	return newChain(Config{Difficulty: difficulty, Miner: core.MinerConfig{Workers: 1}},
		core.CreateGenesisBlock(core.TestTimestamp))
}

// CreateTestChainByData creates a test chain and appends one block per payload.
func CreateTestChainByData(difficulty uint, data ...string) *Chain {
	chain := CreateTestChain(difficulty)
	for i, d := range data {
		_, err := chain.Append(context.Background(), uint64(i+1), core.TestTimestamp+int64(i+1), common.Bytes(d))
		if err != nil {
			panic(fmt.Sprintf("Failed to append test block %v: %v", i+1, err))
		}
	}
	return chain
}
