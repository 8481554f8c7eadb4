package metrics

import (
	"context"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/viper"

	"github.com/thetatoken/hashchain/common"
	"github.com/thetatoken/hashchain/common/util"
)

// Start periodically writes the default registry to the log until ctx is
// done. It is a no-op when metrics.logInterval is not positive.
func Start(ctx context.Context) {
	interval := viper.GetInt(common.CfgMetricsLogInterval)
	if interval <= 0 {
		return
	}

	logger := util.GetLoggerForModule("metrics")
	go reportToLog(ctx, gometrics.DefaultRegistry, time.Duration(interval)*time.Second, logger)
}

type printfLogger interface {
	Printf(format string, args ...interface{})
}

func reportToLog(ctx context.Context, r gometrics.Registry, interval time.Duration, logger printfLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Each(func(name string, i interface{}) {
				switch m := i.(type) {
				case gometrics.Counter:
					logger.Printf("counter %s: count=%d", name, m.Count())
				case gometrics.Timer:
					t := m.Snapshot()
					logger.Printf("timer %s: count=%d mean=%s max=%s", name, t.Count(),
						time.Duration(int64(t.Mean())), time.Duration(t.Max()))
				}
			})
		}
	}
}

// Counter returns the named counter of the default registry.
func Counter(name string) gometrics.Counter {
	return gometrics.GetOrRegisterCounter(name, nil)
}

// Timer returns the named timer of the default registry.
func Timer(name string) gometrics.Timer {
	return gometrics.GetOrRegisterTimer(name, nil)
}
