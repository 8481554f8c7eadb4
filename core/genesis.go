package core

import "github.com/thetatoken/hashchain/common"

const (
	// GenesisData is the payload of every genesis block.
	GenesisData = "Genesis Block"
	// GenesisPrevHash is the sentinel predecessor hash of the genesis block.
	GenesisPrevHash = "0000"
)

// CreateGenesisBlock creates the predecessor-less first block. It is never mined.
func CreateGenesisBlock(timestamp int64) *Block {
	return NewBlock(0, timestamp, common.Bytes(GenesisData), GenesisPrevHash)
}
