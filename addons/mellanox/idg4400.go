package mellanox

import (
	"github.com/openshift/onl-platform-daemon/pkg/bsp"
	"github.com/openshift/onl-platform-daemon/pkg/platform"
)

// IDG4400 r0 identity
const (
	IDG4400PlatformID   = "x86-64-mlnx-idg4400-r0"
	IDG4400Model        = "IDG4400"
	IDG4400SysObjectID  = ".4400.1"
	IDG4400ONIEPlatform = "x86_64-mlnx_idg4400-r0"
)

// Fan speed limits in RPM
const (
	IDG4400Fans           = 8
	IDG4400FrontFanMinRPM = 6300
	IDG4400FrontFanMaxRPM = 21000
	IDG4400RearFanMinRPM  = 5400
	IDG4400RearFanMaxRPM  = 18000
)

// IDG4400VoltageRails monitored through /bsp/voltage
var IDG4400VoltageRails = []bsp.VoltageRail{
	{File: "cpu_0_9", Description: "CPU 0.9V"},
	{File: "cpu_1_05", Description: "CPU 1.05V"},
	{File: "cpu_1_8", Description: "CPU 1.8V"},
	{File: "cpu_pch", Description: "CPU/PCH 1.05V"},
	{File: "ddr3_0_675", Description: "DDR3 0.675V"},
	{File: "ddr3_1_35", Description: "DDR3 1.35V"},
	{File: "lan", Description: "1.05V LAN"},
	{File: "psu2_vin", Description: "PSU2 Voltage In"},
	{File: "psu2_vout", Description: "PSU2 Voltage Out"},
	{File: "sys", Description: "SYS 3.3V"},
	{File: "usb", Description: "USB 5V"},
	{File: "vcore_vin", Description: "Vcore Voltage In"},
	{File: "vcore_vout1", Description: "Vcore Voltage Out1"},
	{File: "vcore_vout2", Description: "Vcore Voltage Out2"},
	{File: "vmon_vin", Description: "VMon Voltage In"},
	{File: "vmon_vout", Description: "VMon Voltage Out"},
}

// IDG4400Spec is the static description of the IDG4400 r0
var IDG4400Spec = platform.Spec{
	Identity: platform.Identity{
		PlatformID:  IDG4400PlatformID,
		Model:       IDG4400Model,
		SysObjectID: IDG4400SysObjectID,
	},
	ONIEPlatform: IDG4400ONIEPlatform,
	Ports:        platform.PortConfig{Name: "32x100", Count: 32, SpeedGbps: 100},
	Inventory: platform.Inventory{
		Thermals:     11,
		LEDs:         8,
		PSUs:         2,
		Fans:         IDG4400Fans,
		VoltageRails: IDG4400VoltageRails,
		FanRPMValid:  IDG4400FanRPMValid,
	},
	StartCommand: []string{HwManagementScript, "start"},
}

// IDG4400Registration binds the IDG4400 r0 into the platform registry
var IDG4400Registration = platform.Registration{
	Manufacturer: Manufacturer,
	Identity:     IDG4400Spec.Identity,
	ONIEPlatform: IDG4400ONIEPlatform,
	New:          IDG4400,
}

// IDG4400 constructs the IDG4400 r0 descriptor
func IDG4400(opts platform.Options) (*platform.Descriptor, error) {
	vendor := opts.Vendor
	if vendor == nil {
		vendor = NewProfile(opts)
	}
	return platform.NewDescriptor(IDG4400Spec, vendor, opts.Runner, opts.ExitPolicy)
}

// IDG4400FanRPMValid reports whether a chassis fan reading is plausible.
// Fans are numbered from 1, odd numbers are front rotors.
func IDG4400FanRPMValid(fan, rpm int) bool {
	if fan < 1 || fan > IDG4400Fans {
		return false
	}
	lo, hi := IDG4400FrontFanMinRPM, IDG4400FrontFanMaxRPM
	if fan%2 == 0 {
		lo, hi = IDG4400RearFanMinRPM, IDG4400RearFanMaxRPM
	}
	return float64(rpm) > float64(lo)*0.87 && float64(rpm) < float64(hi)*1.12
}
