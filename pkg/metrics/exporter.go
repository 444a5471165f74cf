package metrics

import (
	"strconv"

	"github.com/openshift/onl-platform-daemon/pkg/bsp"
	"github.com/openshift/onl-platform-daemon/pkg/command"
	"github.com/openshift/onl-platform-daemon/pkg/platform"
	"github.com/prometheus/client_golang/prometheus"
)

// NodeName ...
var NodeName string // to be initialized on startup or via setter

// BaseConfig states
const (
	BaseConfigPending    = 0
	BaseConfigConfigured = 1
	BaseConfigFailed     = 2
)

// UpdatePlatformInfo publishes the identity of the running platform
func UpdatePlatformInfo(d *platform.Descriptor) {
	PlatformInfo.With(prometheus.Labels{
		"node": NodeName, "platform": d.PlatformID(), "model": d.Model(),
		"sys_object_id": d.SysOID(), "onie_platform": d.ONIEPlatform(), "ports": d.Ports().Name}).Set(1)
}

// UpdateBaseConfigStatus ...
func UpdateBaseConfigStatus(platformID string, status int) {
	BaseConfigStatus.With(prometheus.Labels{"node": NodeName, "platform": platformID}).Set(float64(status))
}

// UpdateHwManagementResult records how the hardware management command finished
func UpdateHwManagementResult(platformID string, res command.Result) {
	code := res.ExitCode
	if res.Status == command.IOError {
		code = -1
	}
	HwManagementExitCode.With(prometheus.Labels{
		"node": NodeName, "platform": platformID, "result": res.Status.String()}).Set(float64(code))
}

// IncEepromExports ...
func IncEepromExports(platformID string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EepromExports.With(prometheus.Labels{"node": NodeName, "platform": platformID, "result": result}).Inc()
}

// UpdateCPLDMetrics ...
func UpdateCPLDMetrics(platformID string, v bsp.CPLDVersions) {
	CPLDVersion.With(prometheus.Labels{"node": NodeName, "platform": platformID, "cpld": "brd"}).Set(float64(v.Board))
	CPLDVersion.With(prometheus.Labels{"node": NodeName, "platform": platformID, "cpld": "mgmt"}).Set(float64(v.Management))
	CPLDVersion.With(prometheus.Labels{"node": NodeName, "platform": platformID, "cpld": "port"}).Set(float64(v.Port))
}

// UpdateVoltageMetrics ...
func UpdateVoltageMetrics(platformID string, v bsp.VoltageReading) {
	rail := v.Rail.File
	Voltage.With(prometheus.Labels{"node": NodeName, "platform": platformID, "rail": rail, "bound": "in"}).Set(float64(v.In))
	Voltage.With(prometheus.Labels{"node": NodeName, "platform": platformID, "rail": rail, "bound": "min"}).Set(float64(v.Min))
	Voltage.With(prometheus.Labels{"node": NodeName, "platform": platformID, "rail": rail, "bound": "max"}).Set(float64(v.Max))
}

// UpdatePSUPresentMetrics ...
func UpdatePSUPresentMetrics(platformID string, psu int, present bool) {
	val := 0.0
	if present {
		val = 1.0
	}
	PSUPresent.With(prometheus.Labels{"node": NodeName, "platform": platformID, "psu": strconv.Itoa(psu)}).Set(val)
}

// UpdateFanMetrics ...
func UpdateFanMetrics(platformID string, fan, rpm int) {
	FanRPM.With(prometheus.Labels{"node": NodeName, "platform": platformID, "fan": strconv.Itoa(fan)}).Set(float64(rpm))
}
