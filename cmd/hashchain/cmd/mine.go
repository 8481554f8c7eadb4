package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	isatty "github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thetatoken/hashchain/blockchain"
	"github.com/thetatoken/hashchain/common"
	"github.com/thetatoken/hashchain/metrics"
)

var (
	mineOutPath string
	mineDump    bool
)

var defaultPayloads = []string{"First Block", "Second Block"}

// mineCmd represents the mine command
var mineCmd = &cobra.Command{
	Use:   "mine [data...]",
	Short: "Build a chain, mining one block per argument, and print it.",
	Example: `hashchain mine --difficulty 4 "First Block" "Second Block"
hashchain mine --workers 8 --out chain.json hello world`,
	RunE: runMine,
}

func init() {
	RootCmd.AddCommand(mineCmd)

	mineCmd.Flags().Uint("difficulty", 2, "number of leading hex zeros required in block hashes")
	viper.BindPFlag(common.CfgChainDifficulty, mineCmd.Flags().Lookup("difficulty"))
	mineCmd.Flags().Int("workers", 1, "number of mining goroutines")
	viper.BindPFlag(common.CfgMiningWorkers, mineCmd.Flags().Lookup("workers"))
	mineCmd.Flags().Uint64("max-iterations", 0, "nonces to try per block before giving up (0 for unbounded)")
	viper.BindPFlag(common.CfgMiningMaxIterations, mineCmd.Flags().Lookup("max-iterations"))
	mineCmd.Flags().Bool("strict", false, "reject out of order indices and timestamps")
	viper.BindPFlag(common.CfgChainStrictOrdering, mineCmd.Flags().Lookup("strict"))

	mineCmd.Flags().StringVar(&mineOutPath, "out", "", "write the chain to this file instead of stdout")
	mineCmd.Flags().BoolVar(&mineDump, "dump", false, "dump the in-memory chain after mining")
}

func runMine(cmd *cobra.Command, args []string) error {
	payloads := args
	if len(payloads) == 0 {
		payloads = defaultPayloads
	}

	ctx, cancel := withSignalCancel(context.Background())
	defer cancel()
	metrics.Start(ctx)

	chain := blockchain.NewChainWithConfig(blockchain.DefaultConfig())
	for i, data := range payloads {
		index := uint64(i + 1)
		block, err := chain.Append(ctx, index, time.Now().UnixNano()/int64(time.Millisecond), common.Bytes(data))
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"index": index, "nonce": block.Nonce}).Infof("Block %v mined", index)
	}

	if mineDump {
		spew.Fdump(cmd.OutOrStderr(), chain.Blocks())
	}

	out := cmd.OutOrStdout()
	if mineOutPath != "" {
		raw, err := chain.Serialize()
		if err != nil {
			return err
		}
		if err := common.WriteFileAtomic(mineOutPath, raw, 0644); err != nil {
			return err
		}
		fmt.Fprintf(out, "Chain written to %v\n", mineOutPath)
	} else {
		raw, err := marshalForOutput(chain)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(raw))
	}

	fmt.Fprintf(out, "Is blockchain valid? %v\n", chain.Validate())
	return nil
}

// marshalForOutput indents the chain only for interactive terminals.
func marshalForOutput(chain *blockchain.Chain) ([]byte, error) {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return chain.Serialize()
	}
	return chain.MarshalJSON()
}

// withSignalCancel cancels the returned context on SIGINT or SIGTERM so that
// an in-flight mining search stops without appending.
func withSignalCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.WithFields(log.Fields{"signal": sig}).Warn("Interrupted, stopping miner")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()
	return ctx, cancel
}
