package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerMetrics sync.Once

const (
	ONLNamespace      = "onl"
	PlatformSubsystem = "platform"
)

var (
	// PlatformInfo is always 1, the labels carry the identity
	PlatformInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ONLNamespace,
			Subsystem: PlatformSubsystem,
			Name:      "info",
			Help:      "Platform identity, value is always 1",
		}, []string{"node", "platform", "model", "sys_object_id", "onie_platform", "ports"})

	// BaseConfigStatus of the one-shot bring-up
	BaseConfigStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ONLNamespace,
			Subsystem: PlatformSubsystem,
			Name:      "baseconfig_status",
			Help:      "0 = PENDING, 1 = CONFIGURED, 2 = FAILED",
		}, []string{"node", "platform"})

	// HwManagementExitCode of the last hardware management command, -1 when it was not run to completion
	HwManagementExitCode = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ONLNamespace,
			Subsystem: PlatformSubsystem,
			Name:      "hw_management_exit_code",
			Help:      "Exit status of the hardware management start command",
		}, []string{"node", "platform", "result"})

	// EepromExports counts system EEPROM exports by outcome
	EepromExports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ONLNamespace,
			Subsystem: PlatformSubsystem,
			Name:      "eeprom_exports_total",
			Help:      "System EEPROM exports",
		}, []string{"node", "platform", "result"})

	// CPLDVersion per CPLD
	CPLDVersion = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ONLNamespace,
			Subsystem: PlatformSubsystem,
			Name:      "cpld_version",
			Help:      "CPLD firmware version",
		}, []string{"node", "platform", "cpld"})

	// Voltage of a rail in millivolts, bound is in, min or max
	Voltage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ONLNamespace,
			Subsystem: PlatformSubsystem,
			Name:      "voltage_millivolts",
			Help:      "Voltage rail reading and thresholds",
		}, []string{"node", "platform", "rail", "bound"})

	// FanRPM of a chassis fan
	FanRPM = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ONLNamespace,
			Subsystem: PlatformSubsystem,
			Name:      "fan_rpm",
			Help:      "Chassis fan speed in RPM",
		}, []string{"node", "platform", "fan"})

	// PSUPresent is 1 when the PSU module is inserted
	PSUPresent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ONLNamespace,
			Subsystem: PlatformSubsystem,
			Name:      "psu_present",
			Help:      "1 = PRESENT, 0 = ABSENT",
		}, []string{"node", "platform", "psu"})
)

// RegisterMetrics registers all the metrics with Prometheus
func RegisterMetrics(nodeName string) {
	registerMetrics.Do(func() {
		prometheus.MustRegister(PlatformInfo)
		prometheus.MustRegister(BaseConfigStatus)
		prometheus.MustRegister(HwManagementExitCode)
		prometheus.MustRegister(EepromExports)
		prometheus.MustRegister(CPLDVersion)
		prometheus.MustRegister(Voltage)
		prometheus.MustRegister(PSUPresent)
		prometheus.MustRegister(FanRPM)
		NodeName = nodeName
	})
}
