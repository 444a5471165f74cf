package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// DeleteVoltageMetrics drops the series of a rail that can no longer be read
func DeleteVoltageMetrics(platformID, rail string) {
	for _, bound := range []string{"in", "min", "max"} {
		Voltage.Delete(prometheus.Labels{"node": NodeName, "platform": platformID, "rail": rail, "bound": bound})
	}
}

// DeleteFanMetrics drops the series of a fan that is absent or unreadable
func DeleteFanMetrics(platformID string, fan int) {
	FanRPM.Delete(prometheus.Labels{"node": NodeName, "platform": platformID, "fan": strconv.Itoa(fan)})
}

// DeletePlatformMetrics drops every telemetry series of a platform, bring-up results are kept
func DeletePlatformMetrics(platformID string) {
	labels := prometheus.Labels{"node": NodeName, "platform": platformID}
	CPLDVersion.DeletePartialMatch(labels)
	Voltage.DeletePartialMatch(labels)
	PSUPresent.DeletePartialMatch(labels)
	FanRPM.DeletePartialMatch(labels)
}
