package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/thetatoken/hashchain/common"
	"github.com/thetatoken/hashchain/common/result"
	"github.com/thetatoken/hashchain/common/util"
	"github.com/thetatoken/hashchain/core"
	"github.com/thetatoken/hashchain/metrics"
)

var logger *log.Entry = util.GetLoggerForModule("blockchain")

// Config holds the parameters fixed at chain construction.
type Config struct {
	Difficulty uint
	Miner      core.MinerConfig
	// StrictOrdering rejects blocks whose index is not latest+1 or whose
	// timestamp is earlier than the latest block's.
	StrictOrdering bool
}

// DefaultConfig reads the chain settings from config.
func DefaultConfig() Config {
	return Config{
		Difficulty:     viper.GetUint(common.CfgChainDifficulty),
		Miner:          core.DefaultMinerConfig(),
		StrictOrdering: viper.GetBool(common.CfgChainStrictOrdering),
	}
}

// Chain is an append-only sequence of blocks, each linked to its predecessor
// by hash and mined to the chain's difficulty. Block 0 is the genesis block.
type Chain struct {
	config Config
	miner  *core.Miner
	blocks []*core.Block

	mu *sync.RWMutex
}

// NewChain creates a chain with the given difficulty and the configured miner.
func NewChain(difficulty uint) *Chain {
	config := DefaultConfig()
	config.Difficulty = difficulty
	return NewChainWithConfig(config)
}

// NewChainWithConfig creates a chain holding a genesis block stamped with the current time.
func NewChainWithConfig(config Config) *Chain {
	return newChain(config, core.CreateGenesisBlock(now()))
}

func newChain(config Config, genesis *core.Block) *Chain {
	chain := &Chain{
		config: config,
		miner:  core.NewMiner(config.Miner),
		blocks: []*core.Block{genesis},
		mu:     &sync.RWMutex{},
	}
	logger.WithFields(log.Fields{"difficulty": config.Difficulty, "genesis": genesis.Hash}).Debug("Chain created")
	return chain
}

func now() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// Difficulty returns the number of leading hex zeros required of mined blocks.
func (ch *Chain) Difficulty() uint {
	return ch.config.Difficulty
}

// Len returns the number of blocks, genesis included.
func (ch *Chain) Len() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.blocks)
}

// Latest returns the tail block.
func (ch *Chain) Latest() *core.Block {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.latest()
}

func (ch *Chain) latest() *core.Block {
	return ch.blocks[len(ch.blocks)-1]
}

// Block returns the block at position i.
func (ch *Chain) Block(i int) (*core.Block, bool) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	if i < 0 || i >= len(ch.blocks) {
		return nil, false
	}
	return ch.blocks[i], true
}

// Blocks returns a copy of the block list. The blocks themselves are shared.
func (ch *Chain) Blocks() []*core.Block {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	out := make([]*core.Block, len(ch.blocks))
	copy(out, ch.blocks)
	return out
}

// Append creates a block from the given fields and adds it to the chain.
func (ch *Chain) Append(ctx context.Context, index uint64, timestamp int64, data common.Bytes) (*core.Block, error) {
	block := core.NewBlock(index, timestamp, data, "")
	if err := ch.AddBlock(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// AddBlock links block to the tail, mines it and appends it. Any PrevHash set
// by the caller is replaced: the link always comes from the chain itself, so
// a caller cannot attach a block to anything but the current tail.
//
// Appends are serialized and hold the chain lock while mining. On error the
// chain and the block are left unchanged.
func (ch *Chain) AddBlock(ctx context.Context, block *core.Block) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	latest := ch.latest()
	if ch.config.StrictOrdering {
		if err := checkOrdering(latest, block); err != nil {
			metrics.Counter(metrics.MChainAppendRejected).Inc(1)
			return err
		}
	}

	candidate := *block
	candidate.PrevHash = latest.Hash
	candidate.UpdateHash()
	if err := ch.miner.Mine(ctx, &candidate, ch.config.Difficulty); err != nil {
		metrics.Counter(metrics.MChainAppendRejected).Inc(1)
		return errors.Wrapf(err, "Failed to mine block %v", block.Index)
	}

	*block = candidate
	ch.blocks = append(ch.blocks, block)
	metrics.Counter(metrics.MChainBlocksAppended).Inc(1)

	logger.WithFields(log.Fields{
		"index": block.Index,
		"hash":  block.Hash,
		"nonce": block.Nonce,
	}).Info("Block appended")
	return nil
}

func checkOrdering(latest *core.Block, block *core.Block) error {
	if block.Index != latest.Index+1 {
		return errors.Wrapf(core.ErrInvalidIndex, "expected %v, got %v", latest.Index+1, block.Index)
	}
	if block.Timestamp < latest.Timestamp {
		return errors.Wrapf(core.ErrInvalidTimestamp, "%v is earlier than %v", block.Timestamp, latest.Timestamp)
	}
	return nil
}

// Verify checks every block after genesis: its hash must match its content
// and its PrevHash must equal the predecessor's hash. The first violation is
// reported.
func (ch *Chain) Verify() result.Result {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	metrics.Counter(metrics.MChainValidations).Inc(1)
	res := verifyBlocks(ch.blocks)
	if res.IsError() {
		metrics.Counter(metrics.MChainInvalidValidation).Inc(1)
		logger.WithFields(log.Fields{"result": res}).Warn("Chain is invalid")
	}
	return res
}

func verifyBlocks(blocks []*core.Block) result.Result {
	if len(blocks) == 0 {
		return result.Failure(result.CodeEmptyChain, "Chain has no genesis block")
	}
	if blocks[0] == nil {
		return result.Failure(result.CodeMissingBlock, "Block 0 is missing").AtBlock(0)
	}
	for i := 1; i < len(blocks); i++ {
		prev, cur := blocks[i-1], blocks[i]
		if cur == nil {
			return result.Failure(result.CodeMissingBlock, "Block %v is missing", i).AtBlock(i)
		}
		if cur.Hash != cur.CalculateHash() {
			return result.Failure(result.CodeHashMismatch, "Block %v: stored hash %v does not match content", i, cur.Hash).
				AtBlock(i)
		}
		if cur.PrevHash != prev.Hash {
			return result.Failure(result.CodeBrokenLink, "Block %v: prevHash %v does not match hash of block %v", i, cur.PrevHash, i-1).
				AtBlock(i)
		}
	}
	return result.OK
}

// Validate reports whether the whole chain is intact.
func (ch *Chain) Validate() bool {
	return ch.Verify().IsOK()
}

type chainJSON struct {
	Difficulty uint          `json:"difficulty"`
	Blocks     []*core.Block `json:"blocks"`
}

// MarshalJSON implements json.Marshaler.
func (ch *Chain) MarshalJSON() ([]byte, error) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return json.Marshal(chainJSON{Difficulty: ch.config.Difficulty, Blocks: ch.blocks})
}

// Serialize returns the indented JSON form of the chain.
func (ch *Chain) Serialize() ([]byte, error) {
	return json.MarshalIndent(ch, "", "  ")
}

// Deserialize rebuilds a chain from its JSON form. The result is not
// validated; call Validate on it.
func Deserialize(raw []byte, miner core.MinerConfig) (*Chain, error) {
	var cj chainJSON
	if err := json.Unmarshal(raw, &cj); err != nil {
		return nil, errors.Wrap(err, "Failed to decode chain")
	}
	if len(cj.Blocks) == 0 {
		return nil, errors.New("Chain has no genesis block")
	}
	for i, block := range cj.Blocks {
		if block == nil {
			return nil, errors.Errorf("Block %v is null", i)
		}
	}
	chain := newChain(Config{Difficulty: cj.Difficulty, Miner: miner}, cj.Blocks[0])
	chain.blocks = cj.Blocks
	return chain, nil
}

func (ch *Chain) String() string {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return fmt.Sprintf("Chain{Difficulty: %v, Length: %v, Latest: %v}", ch.config.Difficulty, len(ch.blocks), ch.latest().Hash)
}
