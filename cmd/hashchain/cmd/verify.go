package cmd

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/thetatoken/hashchain/blockchain"
	"github.com/thetatoken/hashchain/core"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <chain.json>",
	Short: "Check hash integrity and linkage of a serialized chain.",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	RootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	raw, err := ioutil.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "Failed to read %v", args[0])
	}
	chain, err := blockchain.Deserialize(raw, core.DefaultMinerConfig())
	if err != nil {
		return err
	}

	res := chain.Verify()
	fmt.Fprintf(cmd.OutOrStdout(), "Is blockchain valid? %v\n", res.IsOK())
	if res.IsError() {
		return errors.New(res.Message)
	}
	return nil
}
