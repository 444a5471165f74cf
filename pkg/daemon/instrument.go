package daemon

import (
	"context"

	"github.com/openshift/onl-platform-daemon/pkg/command"
	"github.com/openshift/onl-platform-daemon/pkg/eeprom"
	"github.com/openshift/onl-platform-daemon/pkg/metrics"
	"github.com/openshift/onl-platform-daemon/pkg/onie"
)

type recordingRunner struct {
	platformID string
	runner     command.Runner
}

// InstrumentRunner records the result of every command in the hardware management metrics
func InstrumentRunner(platformID string, runner command.Runner) command.Runner {
	if runner == nil {
		runner = command.ExecRunner{}
	}
	return recordingRunner{platformID: platformID, runner: runner}
}

func (r recordingRunner) Run(ctx context.Context, name string, args ...string) command.Result {
	res := r.runner.Run(ctx, name, args...)
	metrics.UpdateHwManagementResult(r.platformID, res)
	return res
}

type countingExporter struct {
	platformID string
	exporter   eeprom.Exporter
}

// InstrumentExporter counts EEPROM exports by outcome. A nil exporter stays nil
// so the vendor profile falls back to its default.
func InstrumentExporter(platformID string, exporter eeprom.Exporter) eeprom.Exporter {
	if exporter == nil {
		return nil
	}
	return countingExporter{platformID: platformID, exporter: exporter}
}

func (c countingExporter) Export(ctx context.Context, info *onie.Info) error {
	err := c.exporter.Export(ctx, info)
	metrics.IncEepromExports(c.platformID, err)
	return err
}
