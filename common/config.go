package common

import (
	"github.com/spf13/viper"
)

const (
	// CfgConfigPath defines custom config path
	CfgConfigPath = "config.path"

	// CfgChainDifficulty defines the number of leading hex zeros a mined block hash must carry.
	CfgChainDifficulty = "chain.difficulty"
	// CfgChainStrictOrdering rejects blocks whose index or timestamp does not follow the tail.
	CfgChainStrictOrdering = "chain.strictOrdering"

	// CfgMiningWorkers sets the number of goroutines sharing one nonce search.
	CfgMiningWorkers = "mining.workers"
	// CfgMiningMaxIterations caps the number of nonces tried per block. Zero means unbounded.
	CfgMiningMaxIterations = "mining.maxIterations"

	// CfgLogLevels sets the log level.
	CfgLogLevels = "log.levels"

	// CfgMetricsLogInterval sets how often (in seconds) metrics are written to the log. Zero disables it.
	CfgMetricsLogInterval = "metrics.logInterval"
)

// InitialConfig is the default configuartion produced by init command.
const InitialConfig = `# Hashchain configuration
chain:
  difficulty: 2
mining:
  workers: 1
log:
  levels: "*:info"
`

func init() {
	viper.SetDefault(CfgChainDifficulty, 2)
	viper.SetDefault(CfgChainStrictOrdering, false)

	viper.SetDefault(CfgMiningWorkers, 1)
	viper.SetDefault(CfgMiningMaxIterations, 0)

	viper.SetDefault(CfgLogLevels, "*:info")

	viper.SetDefault(CfgMetricsLogInterval, 0)
}

// WriteInitialConfig writes initial config file to file system.
func WriteInitialConfig(filePath string) error {
	return WriteFileAtomic(filePath, []byte(InitialConfig), 0600)
}
