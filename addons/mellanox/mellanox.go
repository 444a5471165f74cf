package mellanox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/openshift/onl-platform-daemon/pkg/eeprom"
	"github.com/openshift/onl-platform-daemon/pkg/onie"
	"github.com/openshift/onl-platform-daemon/pkg/platform"
)

const (
	// Manufacturer as reported in DMI and the platform registry
	Manufacturer = "Mellanox"
	// EnterpriseNumber is the IANA private enterprise number of Mellanox
	EnterpriseNumber = 33049
	// HwManagementScript starts and stops the hw-management service
	HwManagementScript = "/etc/mlnx/mlnx-hw-management"
	// DefaultEepromSource is the raw ONIE TlvInfo image hw-management exposes
	DefaultEepromSource = "/bsp/eeprom/vpd_info"
)

// Profile is the behavior shared by the Mellanox platform family
type Profile struct {
	// Root prefixes Source and the default JSON export path
	Root string
	// Source overrides DefaultEepromSource
	Source   string
	Exporter eeprom.Exporter
}

var _ platform.VendorProfile = (*Profile)(nil)

// NewProfile builds the vendor profile from the platform constructor options.
// Without an exporter the EEPROM is written to the ONL eeprom.json.
func NewProfile(opts platform.Options) *Profile {
	return &Profile{Root: opts.Root, Source: opts.EepromSource, Exporter: opts.EepromExporter}
}

// Manufacturer ...
func (p *Profile) Manufacturer() string { return Manufacturer }

// EnterpriseNumber ...
func (p *Profile) EnterpriseNumber() int { return EnterpriseNumber }

// SourcePath returns the raw EEPROM path with the root prefix applied
func (p *Profile) SourcePath() string {
	src := p.Source
	if src == "" {
		src = DefaultEepromSource
	}
	return filepath.Join(rootOrSlash(p.Root), src)
}

func (p *Profile) exporter() eeprom.Exporter {
	if p.Exporter != nil {
		return p.Exporter
	}
	return eeprom.FileExporter{Path: filepath.Join(rootOrSlash(p.Root), eeprom.DefaultJSONPath)}
}

func rootOrSlash(root string) string {
	if root == "" {
		return "/"
	}
	return root
}

// ReadSystemEeprom reads and decodes the system EEPROM
func (p *Profile) ReadSystemEeprom() (*onie.Info, error) {
	src := p.SourcePath()
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read system eeprom: %w", err)
	}
	info, err := onie.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode system eeprom %s: %w", src, err)
	}
	return info, nil
}

// ExportSystemEeprom decodes the system EEPROM and hands it to the exporter
func (p *Profile) ExportSystemEeprom(ctx context.Context) error {
	info, err := p.ReadSystemEeprom()
	if err != nil {
		return err
	}
	glog.Infof("system eeprom: product %q serial %q mac %s", info.ProductName, info.SerialNumber, info.MAC)
	return p.exporter().Export(ctx, info)
}
