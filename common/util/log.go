package util

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/thetatoken/hashchain/common"
)

const defaultLogLevel = "warn"

var (
	logLevels = parseLogLevelConfig("")

	mu      sync.Mutex
	loggers = make(map[string]*log.Logger)
)

func newFormatter() log.Formatter {
	customFormatter := new(log.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	return customFormatter
}

func init() {
	log.SetFormatter(newFormatter())
}

// InitLog applies the log levels in config to the standard logger and every
// module logger created so far.
func InitLog() {
	mu.Lock()
	defer mu.Unlock()

	logLevels = parseLogLevelConfig(viper.GetString(common.CfgLogLevels))
	log.SetLevel(levelFor("*"))
	for module, logger := range loggers {
		logger.SetLevel(levelFor(module))
	}
}

// GetLoggerForModule returns the logger of a module, e.g. "miner" or "blockchain".
func GetLoggerForModule(module string) *log.Entry {
	mu.Lock()
	defer mu.Unlock()

	logger, ok := loggers[module]
	if !ok {
		logger = log.New()
		logger.Formatter = newFormatter()
		loggers[module] = logger
	}
	logger.SetLevel(levelFor(module))
	return logger.WithFields(log.Fields{"prefix": module})
}

func levelFor(module string) log.Level {
	levelStr, ok := logLevels[module]
	if !ok {
		levelStr = logLevels["*"]
	}
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		return log.WarnLevel
	}
	return level
}

// parseLogLevelConfig parses "module:level" pairs separated by commas. The
// "*" entry is the fallback and defaults to warn.
func parseLogLevelConfig(config string) map[string]string {
	ret := map[string]string{"*": defaultLogLevel}
	for _, entry := range strings.Split(config, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		ret[parts[0]] = parts[1]
	}
	return ret
}
