// Package bsp reads the board support tree Mellanox hw-management exposes under /bsp.
package bsp

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// DefaultRoot is where hw-management publishes the board support tree
const DefaultRoot = "/bsp"

const (
	idpromMagic     = "MLNX"
	idpromSerialLen = 24
	idpromFieldMax  = 64
)

// ErrBadIdprom is returned when a PSU or fan IDPROM lacks the MLNX marker
var ErrBadIdprom = errors.New("invalid IDPROM")

// Reader reads files below Root
type Reader struct {
	Root string
}

// New returns a reader rooted at prefix + /bsp
func New(prefix string) *Reader {
	return &Reader{Root: filepath.Join(prefix, DefaultRoot)}
}

func (r *Reader) path(elem ...string) string {
	return filepath.Join(append([]string{r.Root}, elem...)...)
}

// ReadInt reads a sysfs attribute holding one decimal integer
func (r *Reader) ReadInt(elem ...string) (int, error) {
	p := r.path(elem...)
	b, err := os.ReadFile(p)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", p, err)
	}
	glog.V(3).Infof("%s = %d", p, v)
	return v, nil
}

// CPLDVersions holds the three CPLD firmware versions of the board
type CPLDVersions struct {
	Board      int `json:"brd"`
	Management int `json:"mgmt"`
	Port       int `json:"port"`
}

func (v CPLDVersions) String() string {
	return fmt.Sprintf("brd=%d, mgmt=%d, port=%d", v.Board, v.Management, v.Port)
}

// CPLDVersions reads cpld/cpld_{brd,mgmt,port}_version
func (r *Reader) CPLDVersions() (CPLDVersions, error) {
	var v CPLDVersions
	targets := []struct {
		name string
		dst  *int
	}{
		{"cpld_brd_version", &v.Board},
		{"cpld_mgmt_version", &v.Management},
		{"cpld_port_version", &v.Port},
	}
	for _, t := range targets {
		n, err := r.ReadInt("cpld", t.name)
		if err != nil {
			return CPLDVersions{}, err
		}
		*t.dst = n
	}
	return v, nil
}

// VoltageRail names one monitored rail: File is the attribute prefix below voltage/
type VoltageRail struct {
	File        string
	Description string
}

// VoltageReading of one rail, all values in millivolts
type VoltageReading struct {
	Rail VoltageRail `json:"-"`
	Name string      `json:"name"`
	In   int         `json:"in"`
	Min  int         `json:"min"`
	Max  int         `json:"max"`
}

// InRange reports whether the current value is within [Min, Max]. A zero range is not checked.
func (v VoltageReading) InRange() bool {
	if v.Min == 0 && v.Max == 0 {
		return true
	}
	return v.In >= v.Min && v.In <= v.Max
}

// Voltage reads voltage/<file>_{in,min,max}
func (r *Reader) Voltage(rail VoltageRail) (VoltageReading, error) {
	reading := VoltageReading{Rail: rail, Name: rail.Description}
	var err error
	if reading.In, err = r.ReadInt("voltage", rail.File+"_in"); err != nil {
		return reading, err
	}
	if reading.Min, err = r.ReadInt("voltage", rail.File+"_min"); err != nil {
		return reading, err
	}
	if reading.Max, err = r.ReadInt("voltage", rail.File+"_max"); err != nil {
		return reading, err
	}
	return reading, nil
}

// Voltages reads every rail, skipping the ones that fail
func (r *Reader) Voltages(rails []VoltageRail) []VoltageReading {
	readings := make([]VoltageReading, 0, len(rails))
	for _, rail := range rails {
		v, err := r.Voltage(rail)
		if err != nil {
			glog.Errorf("failed to read voltage rail %s: %v", rail.File, err)
			continue
		}
		readings = append(readings, v)
	}
	return readings
}

// Idprom is the identity stored in a PSU or fan module EEPROM
type Idprom struct {
	Serial string `json:"serial"`
	Model  string `json:"model"`
}

// ParseIdprom locates the MLNX marker; the serial number follows it in a
// 24 byte field and the part number follows the serial field.
func ParseIdprom(data []byte) (Idprom, error) {
	idx := bytes.Index(data, []byte(idpromMagic))
	if idx < 0 {
		return Idprom{}, ErrBadIdprom
	}
	idx += len(idpromMagic)
	return Idprom{
		Serial: cString(data, idx, idpromSerialLen),
		Model:  cString(data, idx+idpromSerialLen, idpromFieldMax),
	}, nil
}

func cString(data []byte, start, max int) string {
	if start >= len(data) {
		return ""
	}
	end := start + max
	if end > len(data) {
		end = len(data)
	}
	field := data[start:end]
	if n := bytes.IndexByte(field, 0); n >= 0 {
		field = field[:n]
	}
	return strings.TrimSpace(string(field))
}

// PSUIdprom reads and parses eeprom/psu<N>_info
func (r *Reader) PSUIdprom(index int) (Idprom, error) {
	p := r.path("eeprom", fmt.Sprintf("psu%d_info", index))
	b, err := os.ReadFile(p)
	if err != nil {
		return Idprom{}, err
	}
	id, err := ParseIdprom(b)
	if err != nil {
		return Idprom{}, fmt.Errorf("%s: %w", p, err)
	}
	return id, nil
}

// PSUPresent reads module/psu<N>_status
func (r *Reader) PSUPresent(index int) (bool, error) {
	v, err := r.ReadInt("module", fmt.Sprintf("psu%d_status", index))
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// FanPresent reads module/fan<FRU>_status, each FRU carries two fans
func (r *Reader) FanPresent(fan int) (bool, error) {
	v, err := r.ReadInt("module", fmt.Sprintf("fan%d_status", (fan+1)/2))
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// FanSpeed reads fan/fan<N>_speed_get in RPM
func (r *Reader) FanSpeed(fan int) (int, error) {
	return r.ReadInt("fan", fmt.Sprintf("fan%d_speed_get", fan))
}
