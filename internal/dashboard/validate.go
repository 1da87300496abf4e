package dashboard

import (
	"github.com/timzifer/crowdmon/internal/config"
	"github.com/timzifer/crowdmon/internal/poller"
	"github.com/timzifer/crowdmon/internal/simulator"
)

// Validate checks the configuration schema and builds the parts that can
// only be checked by compiling them.
func Validate(cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if _, err := simulator.NewPolicy(cfg.Simulation); err != nil {
		return err
	}
	if _, err := poller.CompileStatusExpression(cfg.Device.StatusExpression); err != nil {
		return err
	}
	return nil
}
