package daemon

import (
	"fmt"

	"github.com/openshift/onl-platform-daemon/pkg/bsp"
	"github.com/openshift/onl-platform-daemon/pkg/onie"
	"github.com/openshift/onl-platform-daemon/pkg/platform"
)

// InventoryReport is the host inventory printed by -dump-inventory
type InventoryReport struct {
	PlatformID   string               `json:"platform"`
	Model        string               `json:"model"`
	Manufacturer string               `json:"manufacturer"`
	SysObjectID  string               `json:"sysObjectID"`
	ONIEPlatform string               `json:"oniePlatform"`
	Ports        string               `json:"ports"`
	Components   ComponentCounts      `json:"components"`
	CPLD         string               `json:"cpld,omitempty"`
	PSUs         []PSUReport          `json:"psus,omitempty"`
	Fans         []FanReport          `json:"fans,omitempty"`
	Voltages     []bsp.VoltageReading `json:"voltages,omitempty"`
	Eeprom       *onie.Info           `json:"eeprom,omitempty"`
	Errors       []string             `json:"errors,omitempty"`
}

// ComponentCounts ...
type ComponentCounts struct {
	Thermals int `json:"thermals"`
	LEDs     int `json:"leds"`
	PSUs     int `json:"psus"`
	Fans     int `json:"fans"`
}

// PSUReport of one power supply slot
type PSUReport struct {
	Index   int    `json:"index"`
	Present bool   `json:"present"`
	Serial  string `json:"serial,omitempty"`
	Model   string `json:"model,omitempty"`
}

// FanReport of one chassis fan
type FanReport struct {
	Index   int  `json:"index"`
	Present bool `json:"present"`
	RPM     int  `json:"rpm,omitempty"`
	Valid   bool `json:"valid"`
}

// EepromReader is implemented by vendor profiles that can decode the system EEPROM
type EepromReader interface {
	ReadSystemEeprom() (*onie.Info, error)
}

// CollectInventory reads everything the host exposes about the platform.
// Read failures are listed in the report instead of aborting it.
func CollectInventory(d *platform.Descriptor, reader *bsp.Reader) InventoryReport {
	inv := d.Inventory()
	report := InventoryReport{
		PlatformID:   d.PlatformID(),
		Model:        d.Model(),
		Manufacturer: d.Vendor().Manufacturer(),
		SysObjectID:  d.SysOID(),
		ONIEPlatform: d.ONIEPlatform(),
		Ports:        d.Ports().Name,
		Components:   ComponentCounts{Thermals: inv.Thermals, LEDs: inv.LEDs, PSUs: inv.PSUs, Fans: inv.Fans},
	}

	if v, err := reader.CPLDVersions(); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("cpld: %v", err))
	} else {
		report.CPLD = v.String()
	}

	for psu := 1; psu <= inv.PSUs; psu++ {
		r := PSUReport{Index: psu}
		present, err := reader.PSUPresent(psu)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("psu%d: %v", psu, err))
		}
		r.Present = present
		if present {
			if id, err := reader.PSUIdprom(psu); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("psu%d idprom: %v", psu, err))
			} else {
				r.Serial, r.Model = id.Serial, id.Model
			}
		}
		report.PSUs = append(report.PSUs, r)
	}

	for fan := 1; fan <= inv.Fans; fan++ {
		f := FanReport{Index: fan}
		present, err := reader.FanPresent(fan)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("fan%d: %v", fan, err))
		}
		f.Present = present
		if present {
			if f.RPM, err = reader.FanSpeed(fan); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("fan%d speed: %v", fan, err))
			} else {
				f.Valid = f.RPM > 0 && (inv.FanRPMValid == nil || inv.FanRPMValid(fan, f.RPM))
			}
		}
		report.Fans = append(report.Fans, f)
	}

	report.Voltages = reader.Voltages(inv.VoltageRails)

	if er, ok := d.Vendor().(EepromReader); ok {
		if info, err := er.ReadSystemEeprom(); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("eeprom: %v", err))
		} else {
			report.Eeprom = info
		}
	}
	return report
}
