package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/openshift/onl-platform-daemon/pkg/bsp"
	"github.com/openshift/onl-platform-daemon/pkg/command"
	"github.com/openshift/onl-platform-daemon/pkg/platform"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVendor struct{}

func (stubVendor) Manufacturer() string                     { return "Mellanox" }
func (stubVendor) EnterpriseNumber() int                    { return 33049 }
func (stubVendor) ExportSystemEeprom(context.Context) error { return nil }

func Test_RegisterMetricsOnce(t *testing.T) {
	RegisterMetrics("node-a")
	RegisterMetrics("node-b")
	assert.Equal(t, "node-a", NodeName)
}

func Test_UpdatePlatformInfo(t *testing.T) {
	NodeName = "node-a"
	d, err := platform.NewDescriptor(platform.Spec{
		Identity:     platform.Identity{PlatformID: "x86-64-mlnx-idg4400-r0", Model: "IDG4400", SysObjectID: ".4400.1"},
		ONIEPlatform: "x86_64-mlnx_idg4400-r0",
		Ports:        platform.PortConfig{Name: "32x100", Count: 32, SpeedGbps: 100},
		StartCommand: []string{"/bin/true"},
	}, stubVendor{}, nil, platform.IgnoreExitStatus)
	require.NoError(t, err)
	UpdatePlatformInfo(d)
	v := testutil.ToFloat64(PlatformInfo.With(prometheus.Labels{
		"node": "node-a", "platform": "x86-64-mlnx-idg4400-r0", "model": "IDG4400",
		"sys_object_id": ".1.3.6.1.4.1.33049.4400.1", "onie_platform": "x86_64-mlnx_idg4400-r0", "ports": "32x100"}))
	assert.Equal(t, 1.0, v)
}

func Test_BringupMetrics(t *testing.T) {
	NodeName = "node-a"
	const id = "x86-64-test-r0"
	UpdateBaseConfigStatus(id, BaseConfigFailed)
	assert.Equal(t, 2.0, testutil.ToFloat64(BaseConfigStatus.With(prometheus.Labels{"node": "node-a", "platform": id})))

	UpdateHwManagementResult(id, command.Result{Status: command.ExitCode, ExitCode: 3})
	assert.Equal(t, 3.0, testutil.ToFloat64(HwManagementExitCode.With(prometheus.Labels{"node": "node-a", "platform": id, "result": "exitCode"})))
	UpdateHwManagementResult(id, command.Result{Status: command.IOError, ExitCode: 0})
	assert.Equal(t, -1.0, testutil.ToFloat64(HwManagementExitCode.With(prometheus.Labels{"node": "node-a", "platform": id, "result": "ioError"})))

	IncEepromExports(id, nil)
	IncEepromExports(id, nil)
	IncEepromExports(id, errors.New("x"))
	assert.Equal(t, 2.0, testutil.ToFloat64(EepromExports.With(prometheus.Labels{"node": "node-a", "platform": id, "result": "success"})))
	assert.Equal(t, 1.0, testutil.ToFloat64(EepromExports.With(prometheus.Labels{"node": "node-a", "platform": id, "result": "failure"})))
}

func Test_TelemetryMetricsAndCleanup(t *testing.T) {
	NodeName = "node-a"
	const id = "x86-64-telemetry-r0"
	UpdateCPLDMetrics(id, bsp.CPLDVersions{Board: 3, Management: 7, Port: 12})
	assert.Equal(t, 7.0, testutil.ToFloat64(CPLDVersion.With(prometheus.Labels{"node": "node-a", "platform": id, "cpld": "mgmt"})))

	UpdateVoltageMetrics(id, bsp.VoltageReading{Rail: bsp.VoltageRail{File: "usb"}, In: 5010, Min: 4750, Max: 5250})
	UpdateVoltageMetrics(id, bsp.VoltageReading{Rail: bsp.VoltageRail{File: "sys"}, In: 3300, Min: 3135, Max: 3465})
	assert.Equal(t, 5010.0, testutil.ToFloat64(Voltage.With(prometheus.Labels{"node": "node-a", "platform": id, "rail": "usb", "bound": "in"})))

	UpdatePSUPresentMetrics(id, 1, true)
	UpdatePSUPresentMetrics(id, 2, false)
	assert.Equal(t, 0.0, testutil.ToFloat64(PSUPresent.With(prometheus.Labels{"node": "node-a", "platform": id, "psu": "2"})))

	UpdateFanMetrics(id, 1, 10000)
	UpdateFanMetrics(id, 2, 9500)
	assert.Equal(t, 9500.0, testutil.ToFloat64(FanRPM.With(prometheus.Labels{"node": "node-a", "platform": id, "fan": "2"})))
	DeleteFanMetrics(id, 2)
	assert.Equal(t, 1, testutil.CollectAndCount(FanRPM, "onl_platform_fan_rpm"))

	DeleteVoltageMetrics(id, "usb")
	assert.Equal(t, 3, testutil.CollectAndCount(Voltage, "onl_platform_voltage_millivolts"))

	DeletePlatformMetrics(id)
	assert.Equal(t, 0, testutil.CollectAndCount(Voltage, "onl_platform_voltage_millivolts"))
	assert.Equal(t, 0, testutil.CollectAndCount(PSUPresent, "onl_platform_psu_present"))
	assert.Equal(t, 0, testutil.CollectAndCount(CPLDVersion, "onl_platform_cpld_version"))
	assert.Equal(t, 0, testutil.CollectAndCount(FanRPM, "onl_platform_fan_rpm"))
}
