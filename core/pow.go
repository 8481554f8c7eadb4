package core

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/thetatoken/hashchain/common"
	"github.com/thetatoken/hashchain/common/util"
	"github.com/thetatoken/hashchain/metrics"
)

const noSolution = math.MaxUint64

var logger *log.Entry = util.GetLoggerForModule("miner")

// HasDifficulty checks whether hash starts with at least difficulty '0' characters.
func HasDifficulty(hash string, difficulty uint) bool {
	if uint(len(hash)) < difficulty {
		return false
	}
	return strings.Count(hash[:difficulty], "0") == int(difficulty)
}

// hasLeadingZeroNibbles is HasDifficulty on the raw digest, one nibble per hex character.
func hasLeadingZeroNibbles(sum []byte, difficulty uint) bool {
	if difficulty > uint(len(sum))*2 {
		return false
	}
	full := difficulty / 2
	for i := uint(0); i < full; i++ {
		if sum[i] != 0 {
			return false
		}
	}
	if difficulty%2 == 1 && sum[full]>>4 != 0 {
		return false
	}
	return true
}

// MinerConfig controls the nonce search.
type MinerConfig struct {
	// Workers is the number of goroutines sharing the nonce space. Values below 1 mean 1.
	Workers int
	// MaxIterations bounds the number of nonces tried per block. Zero means unbounded.
	MaxIterations uint64
}

// DefaultMinerConfig reads the miner settings from config.
func DefaultMinerConfig() MinerConfig {
	return MinerConfig{
		Workers:       viper.GetInt(common.CfgMiningWorkers),
		MaxIterations: viper.GetUint64(common.CfgMiningMaxIterations),
	}
}

// Miner searches for the lowest nonce, counting up from a block's current
// nonce, whose hash satisfies the difficulty. The result does not depend on
// the number of workers.
type Miner struct {
	config MinerConfig
}

// NewMiner creates a new Miner instance.
func NewMiner(config MinerConfig) *Miner {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Miner{config: config}
}

// Config returns the effective miner config.
func (m *Miner) Config() MinerConfig {
	return m.config
}

// Mine sets block's Nonce and Hash to the first solution. The block is left
// untouched if the search fails.
func (m *Miner) Mine(ctx context.Context, block *Block, difficulty uint) error {
	start := time.Now()
	s := &search{
		input:      encodeHashInput(block.Index, block.Timestamp, block.Data, block.PrevHash, 0),
		startNonce: block.Nonce,
		difficulty: difficulty,
		best:       noSolution,
	}
	s.lastOffset, s.limited = m.lastOffset(block.Nonce)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < m.config.Workers; w++ {
		first := uint64(w)
		g.Go(func() error {
			return s.work(gctx, first, uint64(m.config.Workers))
		})
	}
	err := g.Wait()
	hashes := atomic.LoadUint64(&s.hashes)
	metrics.Counter(metrics.MMinerHashes).Inc(int64(hashes))

	if err == nil {
		best := atomic.LoadUint64(&s.best)
		if best == noSolution {
			if s.limited {
				err = ErrIterationLimit
			} else {
				err = ErrNonceOverflow
			}
		} else {
			block.Nonce = block.Nonce + best
			block.UpdateHash()
		}
	}
	if err != nil {
		metrics.Counter(metrics.MMinerAborted).Inc(1)
		logger.WithFields(log.Fields{"index": block.Index, "difficulty": difficulty, "hashes": hashes, "err": err}).Debug("Mining aborted")
		return err
	}

	metrics.Counter(metrics.MMinerBlocks).Inc(1)
	metrics.Timer(metrics.MMinerDuration).UpdateSince(start)
	logger.WithFields(log.Fields{
		"index":      block.Index,
		"difficulty": difficulty,
		"nonce":      block.Nonce,
		"hash":       block.Hash,
		"hashes":     hashes,
		"elapsed":    time.Since(start),
	}).Debug("Block mined")
	return nil
}

// lastOffset returns the largest offset from startNonce that may be tried,
// and whether it is set by MaxIterations rather than the nonce space.
func (m *Miner) lastOffset(startNonce uint64) (uint64, bool) {
	last := uint64(math.MaxUint64) - startNonce
	if last == noSolution {
		last--
	}
	if m.config.MaxIterations > 0 && m.config.MaxIterations-1 < last {
		return m.config.MaxIterations - 1, true
	}
	return last, false
}

type search struct {
	input      []byte
	startNonce uint64
	difficulty uint
	lastOffset uint64
	limited    bool

	best   uint64 // lowest solved offset, noSolution until found
	hashes uint64
}

// work tries offsets first, first+step, ... and stops once its offset passes
// the best solution found by any worker.
func (s *search) work(ctx context.Context, first uint64, step uint64) error {
	input := make([]byte, len(s.input))
	copy(input, s.input)
	nonceBytes := input[len(input)-8:]
	done := ctx.Done()

	var tried uint64
	defer func() {
		atomic.AddUint64(&s.hashes, tried)
	}()

	for offset := first; offset <= s.lastOffset; offset += step {
		if offset > atomic.LoadUint64(&s.best) {
			return nil
		}
		select {
		case <-done:
			return ErrMiningCancelled
		default:
		}

		binary.BigEndian.PutUint64(nonceBytes, s.startNonce+offset)
		sum := sha256.Sum256(input)
		tried++
		if hasLeadingZeroNibbles(sum[:], s.difficulty) {
			s.storeBest(offset)
			return nil
		}
		if s.lastOffset-offset < step {
			break
		}
	}
	return nil
}

func (s *search) storeBest(offset uint64) {
	for {
		cur := atomic.LoadUint64(&s.best)
		if offset >= cur || atomic.CompareAndSwapUint64(&s.best, cur, offset) {
			return
		}
	}
}

// Mine runs a single worker, unbounded search on the block.
func (b *Block) Mine(ctx context.Context, difficulty uint) error {
	return NewMiner(MinerConfig{Workers: 1}).Mine(ctx, b, difficulty)
}
