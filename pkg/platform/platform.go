package platform

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/openshift/onl-platform-daemon/pkg/bsp"
	"github.com/openshift/onl-platform-daemon/pkg/command"
	"github.com/openshift/onl-platform-daemon/pkg/eeprom"
)

// sysOIDBase is the SNMP enterprises subtree
const sysOIDBase = ".1.3.6.1.4.1"

// Identity names one hardware SKU to the platform registry
type Identity struct {
	PlatformID  string
	Model       string
	SysObjectID string
}

// PortConfig describes the front panel port layout, e.g. 32x100
type PortConfig struct {
	Name      string
	Count     int
	SpeedGbps int
}

// Inventory lists the monitored components of a platform
type Inventory struct {
	Thermals     int
	LEDs         int
	PSUs         int
	Fans         int
	VoltageRails []bsp.VoltageRail
	// FanRPMValid checks a chassis fan reading, nil when the platform has no limits
	FanRPMValid func(fan, rpm int) bool
}

// VendorProfile is the behavior shared by every platform of one vendor family
type VendorProfile interface {
	Manufacturer() string
	EnterpriseNumber() int
	ExportSystemEeprom(ctx context.Context) error
}

// ExitPolicy decides what a non-zero exit of the hardware management command means
type ExitPolicy int

const (
	// IgnoreExitStatus logs a non-zero exit and continues bring-up
	IgnoreExitStatus ExitPolicy = iota
	// FailOnExitStatus aborts bring-up on a non-zero exit
	FailOnExitStatus
)

func (p ExitPolicy) String() string {
	if p == FailOnExitStatus {
		return "fail"
	}
	return "ignore"
}

// Options carries the collaborators a platform constructor binds into its descriptor
type Options struct {
	Runner     command.Runner
	ExitPolicy ExitPolicy
	// Vendor overrides the vendor profile the constructor would build
	Vendor VendorProfile
	// Root prefixes every filesystem path the platform touches
	Root string
	// EepromSource overrides the vendor default raw EEPROM path
	EepromSource string
	// EepromExporter receives the decoded system EEPROM
	EepromExporter eeprom.Exporter
}

// Spec is the static part of a descriptor
type Spec struct {
	Identity     Identity
	ONIEPlatform string
	Ports        PortConfig
	Inventory    Inventory
	// StartCommand brings up the vendor hardware management service
	StartCommand []string
}

// Descriptor binds one hardware SKU to its vendor profile. Its identity never changes after New.
type Descriptor struct {
	identity     Identity
	oniePlatform string
	ports        PortConfig
	inventory    Inventory
	startCommand []string
	vendor       VendorProfile
	runner       command.Runner
	exitPolicy   ExitPolicy
}

// NewDescriptor builds a descriptor from a static spec and its collaborators
func NewDescriptor(spec Spec, vendor VendorProfile, runner command.Runner, policy ExitPolicy) (*Descriptor, error) {
	if spec.Identity.PlatformID == "" {
		return nil, fmt.Errorf("platform id must not be empty")
	}
	if vendor == nil {
		return nil, fmt.Errorf("platform %s: vendor profile is required", spec.Identity.PlatformID)
	}
	if len(spec.StartCommand) == 0 {
		return nil, fmt.Errorf("platform %s: start command is required", spec.Identity.PlatformID)
	}
	if runner == nil {
		runner = command.ExecRunner{}
	}
	startCommand := make([]string, len(spec.StartCommand))
	copy(startCommand, spec.StartCommand)
	inventory := spec.Inventory
	inventory.VoltageRails = append([]bsp.VoltageRail(nil), spec.Inventory.VoltageRails...)
	return &Descriptor{
		identity:     spec.Identity,
		oniePlatform: spec.ONIEPlatform,
		ports:        spec.Ports,
		inventory:    inventory,
		startCommand: startCommand,
		vendor:       vendor,
		runner:       runner,
		exitPolicy:   policy,
	}, nil
}

// PlatformID returns the unique machine-readable platform identifier
func (d *Descriptor) PlatformID() string { return d.identity.PlatformID }

// Model returns the human-readable model name
func (d *Descriptor) Model() string { return d.identity.Model }

// SysObjectID returns the vendor relative system object identifier suffix
func (d *Descriptor) SysObjectID() string { return d.identity.SysObjectID }

// Identity returns a copy of the descriptor identity
func (d *Descriptor) Identity() Identity { return d.identity }

// ONIEPlatform returns the ONIE spelling of the platform name
func (d *Descriptor) ONIEPlatform() string { return d.oniePlatform }

// Ports returns the port layout
func (d *Descriptor) Ports() PortConfig { return d.ports }

// Inventory returns a copy of the component inventory
func (d *Descriptor) Inventory() Inventory {
	inv := d.inventory
	inv.VoltageRails = append([]bsp.VoltageRail(nil), d.inventory.VoltageRails...)
	return inv
}

// Vendor returns the vendor profile
func (d *Descriptor) Vendor() VendorProfile { return d.vendor }

// ExitPolicy returns the policy applied to the start command exit status
func (d *Descriptor) ExitPolicy() ExitPolicy { return d.exitPolicy }

// StartCommand returns a copy of the hardware management start command
func (d *Descriptor) StartCommand() []string {
	c := make([]string, len(d.startCommand))
	copy(c, d.startCommand)
	return c
}

// SysOID returns the full SNMP sysObjectID, e.g. .1.3.6.1.4.1.33049.4400.1
func (d *Descriptor) SysOID() string {
	return fmt.Sprintf("%s.%d%s", sysOIDBase, d.vendor.EnterpriseNumber(), d.identity.SysObjectID)
}

// BaseConfig performs the one-shot hardware bring-up: it starts the vendor
// hardware management service and exports the system EEPROM.
//
// A command that cannot be issued, or an EEPROM export failure, is returned to
// the caller unchanged. A non-zero exit of the start command is handled by the
// descriptor's ExitPolicy.
func (d *Descriptor) BaseConfig(ctx context.Context) (bool, error) {
	glog.Infof("%s: base configuration", d.identity.PlatformID)
	name, args := d.startCommand[0], d.startCommand[1:]
	cmdline := command.Line(name, args...)
	res := d.runner.Run(ctx, name, args...)
	switch res.Status {
	case command.Success:
		glog.Infof("%s: %s completed", d.identity.PlatformID, cmdline)
	case command.ExitCode:
		if d.exitPolicy == FailOnExitStatus {
			glog.Errorf("%s: %s exited with status %d", d.identity.PlatformID, cmdline, res.ExitCode)
			return false, res.Error(cmdline)
		}
		glog.Warningf("%s: %s exited with status %d, continuing", d.identity.PlatformID, cmdline, res.ExitCode)
	default:
		glog.Errorf("%s: failed to run %s: %v", d.identity.PlatformID, cmdline, res.Err)
		return false, res.Err
	}

	if err := d.vendor.ExportSystemEeprom(ctx); err != nil {
		glog.Errorf("%s: system eeprom export failed: %v", d.identity.PlatformID, err)
		return false, err
	}
	return true, nil
}
