package core

import "github.com/thetatoken/hashchain/common"

// TestTimestamp is the fixed timestamp of blocks created by CreateTestBlock.
const TestTimestamp int64 = 1700000000000

// CreateTestBlock creates an unmined block for testing.
func CreateTestBlock(index uint64, data string, prevHash string) *Block {
	return NewBlock(index, TestTimestamp, common.Bytes(data), prevHash)
}
