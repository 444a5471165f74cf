package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/openshift/onl-platform-daemon/pkg/bsp"
	"github.com/openshift/onl-platform-daemon/pkg/metrics"
	"github.com/openshift/onl-platform-daemon/pkg/platform"
)

// Telemetry periodically publishes the /bsp readings of a platform as metrics
type Telemetry struct {
	mutex      sync.Mutex
	descriptor *platform.Descriptor
	reader     *bsp.Reader
	rails      map[string]bool
	refreshed  bool
}

// NewTelemetry ...
func NewTelemetry(d *platform.Descriptor, reader *bsp.Reader) *Telemetry {
	return &Telemetry{descriptor: d, reader: reader, rails: map[string]bool{}}
}

// Refresh reads CPLD versions, voltage rails and PSU presence once
func (t *Telemetry) Refresh() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	id := t.descriptor.PlatformID()
	inv := t.descriptor.Inventory()

	if v, err := t.reader.CPLDVersions(); err != nil {
		glog.V(2).Infof("%s: cpld versions unavailable: %v", id, err)
	} else {
		metrics.UpdateCPLDMetrics(id, v)
	}

	seen := map[string]bool{}
	for _, v := range t.reader.Voltages(inv.VoltageRails) {
		seen[v.Rail.File] = true
		metrics.UpdateVoltageMetrics(id, v)
		if !v.InRange() {
			glog.Warningf("%s: %s at %d mV outside [%d, %d]", id, v.Name, v.In, v.Min, v.Max)
		}
	}
	for rail := range t.rails {
		if !seen[rail] {
			metrics.DeleteVoltageMetrics(id, rail)
		}
	}
	t.rails = seen

	for psu := 1; psu <= inv.PSUs; psu++ {
		present, err := t.reader.PSUPresent(psu)
		if err != nil {
			glog.V(2).Infof("%s: psu%d status unavailable: %v", id, psu, err)
			continue
		}
		metrics.UpdatePSUPresentMetrics(id, psu, present)
	}

	for fan := 1; fan <= inv.Fans; fan++ {
		rpm, err := readFan(t.reader, fan)
		if err != nil {
			glog.V(2).Infof("%s: fan%d unavailable: %v", id, fan, err)
			metrics.DeleteFanMetrics(id, fan)
			continue
		}
		metrics.UpdateFanMetrics(id, fan, rpm)
		if inv.FanRPMValid != nil && !inv.FanRPMValid(fan, rpm) {
			glog.Warningf("%s: fan%d at %d RPM outside its valid range", id, fan, rpm)
		}
	}
	t.refreshed = true
}

// readFan returns the speed of a present fan
func readFan(reader *bsp.Reader, fan int) (int, error) {
	present, err := reader.FanPresent(fan)
	if err != nil {
		return 0, err
	}
	if !present {
		return 0, fmt.Errorf("fan%d not present", fan)
	}
	return reader.FanSpeed(fan)
}

// Refreshed reports whether at least one refresh completed
func (t *Telemetry) Refreshed() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.refreshed
}

// Run refreshes every interval until stopCh closes, then drops the telemetry series
func (t *Telemetry) Run(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	t.Refresh()
	for {
		select {
		case <-ticker.C:
			glog.V(2).Infof("telemetry refresh")
			t.Refresh()
		case <-stopCh:
			metrics.DeletePlatformMetrics(t.descriptor.PlatformID())
			return
		}
	}
}
