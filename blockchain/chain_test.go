package blockchain

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thetatoken/hashchain/common"
	"github.com/thetatoken/hashchain/common/result"
	"github.com/thetatoken/hashchain/core"
)

func TestBlockchain(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	chain := NewChain(2)
	_, err := chain.Append(context.Background(), 1, core.TestTimestamp, common.Bytes("First Block"))
	require.Nil(err)
	_, err = chain.Append(context.Background(), 2, core.TestTimestamp, common.Bytes("Second Block"))
	require.Nil(err)

	blocks := chain.Blocks()
	assert.True(chain.Validate(), spew.Sdump(blocks))
	assert.Equal(3, chain.Len())
	assert.Equal(3, len(blocks))
	assert.True(core.HasDifficulty(blocks[1].Hash, 2))
	assert.Equal("00", blocks[1].Hash[:2])
	assert.Equal(blocks[1].Hash, blocks[2].PrevHash)
	assert.Equal(blocks[0].Hash, blocks[1].PrevHash)
	assert.Equal(blocks[2], chain.Latest())
}

func TestGenesis(t *testing.T) {
	assert := assert.New(t)

	chain := NewChain(3)
	genesis, ok := chain.Block(0)
	assert.True(ok)
	assert.Equal(uint64(0), genesis.Index)
	assert.Equal(core.GenesisPrevHash, genesis.PrevHash)
	assert.Equal(core.GenesisData, genesis.Data.String())
	assert.Equal(uint64(0), genesis.Nonce)
	assert.True(genesis.HasValidHash())
	assert.Equal(uint(3), chain.Difficulty())
	assert.Equal(genesis, chain.Latest())
	assert.True(chain.Validate())

	_, ok = chain.Block(1)
	assert.False(ok)
	_, ok = chain.Block(-1)
	assert.False(ok)
}

func TestTamperData(t *testing.T) {
	assert := assert.New(t)

	chain := CreateTestChainByData(2, "First Block", "Second Block")
	assert.True(chain.Validate())

	b, _ := chain.Block(1)
	b.Data = common.Bytes("Tampered")
	assert.False(chain.Validate())

	res := chain.Verify()
	assert.Equal(result.CodeHashMismatch, res.Code)
	assert.Contains(res.Message, "Block 1")
	assert.Equal(1, res.BlockIndex)
}

func TestTamperFields(t *testing.T) {
	assert := assert.New(t)

	mutations := map[string]func(b *core.Block){
		"data":      func(b *core.Block) { b.Data = common.Bytes("Tampered") },
		"timestamp": func(b *core.Block) { b.Timestamp++ },
		"index":     func(b *core.Block) { b.Index = 42 },
		"nonce":     func(b *core.Block) { b.Nonce++ },
	}
	for field, mutate := range mutations {
		for _, i := range []int{1, 2} {
			chain := CreateTestChainByData(1, "First Block", "Second Block")
			b, _ := chain.Block(i)
			mutate(b)
			res := chain.Verify()
			assert.Equal(result.CodeHashMismatch, res.Code, "field=%v block=%v", field, i)
			assert.False(chain.Validate(), "field=%v block=%v", field, i)
		}
	}
}

func TestTamperPrevHash(t *testing.T) {
	assert := assert.New(t)

	chain := CreateTestChainByData(1, "First Block", "Second Block")
	b, _ := chain.Block(2)
	b.PrevHash = chain.Blocks()[0].Hash
	assert.False(chain.Validate())

	// Re-mining the tampered block restores its own hash but not the link.
	assert.Nil(b.Mine(context.Background(), 1))
	res := chain.Verify()
	assert.Equal(result.CodeBrokenLink, res.Code)
	assert.False(chain.Validate())
}

func TestTamperAndRemine(t *testing.T) {
	assert := assert.New(t)

	chain := CreateTestChainByData(1, "First Block", "Second Block")
	b, _ := chain.Block(1)
	b.Data = common.Bytes("Tampered")
	b.Nonce = 0
	assert.Nil(b.Mine(context.Background(), 1))

	// Block 1 is self-consistent again but block 2 still points at the old hash.
	res := chain.Verify()
	assert.Equal(result.CodeBrokenLink, res.Code)
	assert.Contains(res.Message, "Block 2")
}

func TestDifficultyZero(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	chain := CreateTestChain(0)
	b, err := chain.Append(context.Background(), 1, core.TestTimestamp, common.Bytes("First Block"))
	require.Nil(err)
	assert.Equal(uint64(0), b.Nonce)
	assert.True(b.HasValidHash())
	assert.True(chain.Validate())
}

func TestAddBlockOverwritesPrevHash(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	chain := CreateTestChain(1)
	block := core.CreateTestBlock(1, "First Block", "deadbeef")
	require.Nil(chain.AddBlock(context.Background(), block))

	genesis, _ := chain.Block(0)
	assert.Equal(genesis.Hash, block.PrevHash)
	assert.True(block.HasValidHash())
	assert.True(chain.Validate())
}

func TestAddBlockCancelled(t *testing.T) {
	assert := assert.New(t)

	chain := CreateTestChain(64)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := core.CreateTestBlock(1, "First Block", "deadbeef")
	orig := *block
	err := chain.AddBlock(ctx, block)
	assert.Equal(core.ErrMiningCancelled, errors.Cause(err))
	assert.Equal(1, chain.Len())
	assert.Equal(orig, *block)
	assert.True(chain.Validate())
}

func TestAddBlockCancelledWhileMining(t *testing.T) {
	assert := assert.New(t)

	chain := newChain(Config{Difficulty: 64, Miner: core.MinerConfig{Workers: 4}},
		core.CreateGenesisBlock(core.TestTimestamp))
	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(50*time.Millisecond, cancel)
	defer timer.Stop()

	block := core.CreateTestBlock(1, "First Block", "deadbeef")
	orig := *block
	err := chain.AddBlock(ctx, block)
	assert.Equal(core.ErrMiningCancelled, errors.Cause(err))
	assert.Equal(orig, *block)
	assert.Equal(1, chain.Len())
	assert.True(chain.Validate())
}

func TestAddBlockIterationLimit(t *testing.T) {
	assert := assert.New(t)

	chain := newChain(Config{Difficulty: 64, Miner: core.MinerConfig{MaxIterations: 100}},
		core.CreateGenesisBlock(core.TestTimestamp))
	_, err := chain.Append(context.Background(), 1, core.TestTimestamp, common.Bytes("First Block"))
	assert.Equal(core.ErrIterationLimit, errors.Cause(err))
	assert.Equal(1, chain.Len())
}

func TestStrictOrdering(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	chain := newChain(Config{Difficulty: 1, StrictOrdering: true}, core.CreateGenesisBlock(core.TestTimestamp))

	_, err := chain.Append(context.Background(), 2, core.TestTimestamp, common.Bytes("Gap"))
	assert.Equal(core.ErrInvalidIndex, errors.Cause(err))

	_, err = chain.Append(context.Background(), 1, core.TestTimestamp-1, common.Bytes("Early"))
	assert.Equal(core.ErrInvalidTimestamp, errors.Cause(err))
	assert.Equal(1, chain.Len())

	_, err = chain.Append(context.Background(), 1, core.TestTimestamp, common.Bytes("First Block"))
	require.Nil(err)
	_, err = chain.Append(context.Background(), 1, core.TestTimestamp, common.Bytes("Duplicate"))
	assert.Equal(core.ErrInvalidIndex, errors.Cause(err))
	assert.Equal(2, chain.Len())
}

func TestLenientOrdering(t *testing.T) {
	assert := assert.New(t)

	chain := CreateTestChain(1)
	_, err := chain.Append(context.Background(), 7, core.TestTimestamp-100, common.Bytes("Out of order"))
	assert.Nil(err)
	assert.True(chain.Validate())
}

func TestConcurrentAppends(t *testing.T) {
	assert := assert.New(t)

	chain := CreateTestChain(1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := chain.Append(context.Background(), uint64(i+1), core.TestTimestamp, common.Bytes("Block"))
			assert.Nil(err)
			assert.True(chain.Validate())
		}(i)
	}
	wg.Wait()

	assert.Equal(9, chain.Len())
	assert.True(chain.Validate())
}

func TestParallelMinerChain(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	sequential := CreateTestChainByData(2, "First Block", "Second Block")

	parallel := newChain(Config{Difficulty: 2, Miner: core.MinerConfig{Workers: 4}},
		core.CreateGenesisBlock(core.TestTimestamp))
	for i, d := range []string{"First Block", "Second Block"} {
		_, err := parallel.Append(context.Background(), uint64(i+1), core.TestTimestamp+int64(i+1), common.Bytes(d))
		require.Nil(err)
	}
	assert.Equal(sequential.Blocks(), parallel.Blocks())
}

func TestSerialize(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	chain := CreateTestChainByData(1, "First Block")
	raw, err := chain.Serialize()
	require.Nil(err)

	var decoded map[string]interface{}
	require.Nil(json.Unmarshal(raw, &decoded))
	assert.Equal(float64(1), decoded["difficulty"])
	blocks := decoded["blocks"].([]interface{})
	require.Len(blocks, 2)
	first := blocks[1].(map[string]interface{})
	for _, key := range []string{"index", "timestamp", "data", "prevHash", "hash", "nonce"} {
		assert.Contains(first, key)
	}
	assert.Equal("First Block", first["data"])

	restored, err := Deserialize(raw, core.MinerConfig{})
	require.Nil(err)
	assert.Equal(chain.Blocks(), restored.Blocks())
	assert.True(restored.Validate())

	_, err = Deserialize([]byte(`{"difficulty":1,"blocks":[]}`), core.MinerConfig{})
	assert.NotNil(err)
	_, err = Deserialize([]byte(`not json`), core.MinerConfig{})
	assert.NotNil(err)

	genesis, err := json.Marshal(chain.Blocks()[0])
	require.Nil(err)
	_, err = Deserialize([]byte(`{"difficulty":1,"blocks":[null]}`), core.MinerConfig{})
	assert.NotNil(err)
	_, err = Deserialize([]byte(`{"difficulty":1,"blocks":[`+string(genesis)+`,null]}`), core.MinerConfig{})
	assert.NotNil(err)
}

func TestSerializeBinaryPayload(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	chain := CreateTestChain(1)
	payload := common.Bytes{0xff, 0xfe, 0x00, 0x80}
	_, err := chain.Append(context.Background(), 1, core.TestTimestamp, payload)
	require.Nil(err)

	raw, err := chain.Serialize()
	require.Nil(err)
	restored, err := Deserialize(raw, core.MinerConfig{})
	require.Nil(err)

	assert.Equal(payload, restored.Blocks()[1].Data)
	assert.True(restored.Validate())
}

func TestDeserializePartialBlocks(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	inputs := []string{
		`{"blocks":[{}]}`,
		`{"blocks":[{},{}]}`,
		`{"blocks":[{"index":0},{"index":1,"data":"x"}]}`,
		`{"difficulty":2,"blocks":[{"hash":"00"},{"prevHash":"00","data":{"hex":"ff"}}]}`,
	}
	for _, input := range inputs {
		chain, err := Deserialize([]byte(input), core.MinerConfig{})
		require.Nil(err, input)
		assert.NotPanics(func() { chain.Validate() }, input)
		assert.NotPanics(func() { _ = chain.String() }, input)
	}

	chain, err := Deserialize([]byte(`{"blocks":[{},{"index":1}]}`), core.MinerConfig{})
	require.Nil(err)
	res := chain.Verify()
	assert.Equal(result.CodeHashMismatch, res.Code)
	assert.Equal(1, res.BlockIndex)
}

func TestVerifyMissingBlock(t *testing.T) {
	assert := assert.New(t)

	chain := CreateTestChainByData(1, "First Block", "Second Block")
	chain.blocks[2] = nil

	var res result.Result
	assert.NotPanics(func() { res = chain.Verify() })
	assert.Equal(result.CodeMissingBlock, res.Code)
	assert.Equal(2, res.BlockIndex)
	assert.False(chain.Validate())

	chain.blocks[0] = nil
	res = chain.Verify()
	assert.Equal(result.CodeMissingBlock, res.Code)
	assert.Equal(0, res.BlockIndex)

	res = verifyBlocks(nil)
	assert.Equal(result.CodeEmptyChain, res.Code)
}

func TestString(t *testing.T) {
	assert := assert.New(t)

	chain := CreateTestChain(2)
	assert.Contains(chain.String(), "Difficulty: 2, Length: 1")
}
