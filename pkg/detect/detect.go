// Package detect finds the identity of the hardware the daemon runs on.
package detect

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/jaypipes/ghw"
	"github.com/openshift/onl-platform-daemon/pkg/platform"
)

const (
	// DefaultONLPlatformPath is written by the ONL installer
	DefaultONLPlatformPath = "/etc/onl/platform"
	// DefaultMachineConfPath is the ONIE machine.conf as mounted by ONL
	DefaultMachineConfPath = "/host/machine.conf"
	unknownValue           = "unknown"
)

// ErrNotDetected is returned when no source yields a registered platform
var ErrNotDetected = errors.New("platform not detected")

// Hint is what one source learned about the hardware. Any subset of the fields may be set.
type Hint struct {
	Source       string
	PlatformID   string
	ONIEPlatform string
	Manufacturer string
	Model        string
}

func (h Hint) String() string {
	parts := []string{}
	if h.PlatformID != "" {
		parts = append(parts, "platform="+h.PlatformID)
	}
	if h.ONIEPlatform != "" {
		parts = append(parts, "onie="+h.ONIEPlatform)
	}
	if h.Model != "" {
		parts = append(parts, "model="+h.Manufacturer+"/"+h.Model)
	}
	return h.Source + "{" + strings.Join(parts, ",") + "}"
}

// Source produces a hint about the running hardware
type Source interface {
	Name() string
	Detect() (Hint, error)
}

// Static reports a fixed platform id, e.g. from a command line flag
type Static struct {
	PlatformID string
}

// Name implements Source
func (s Static) Name() string { return "static" }

// Detect implements Source
func (s Static) Detect() (Hint, error) {
	if s.PlatformID == "" {
		return Hint{}, fmt.Errorf("no platform given")
	}
	return Hint{Source: s.Name(), PlatformID: s.PlatformID}, nil
}

// ONLPlatformFile reads the platform id ONL stores in /etc/onl/platform
type ONLPlatformFile struct {
	Path string
}

// Name implements Source
func (f ONLPlatformFile) Name() string { return "onl-platform" }

// Detect implements Source
func (f ONLPlatformFile) Detect() (Hint, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return Hint{}, err
	}
	id := strings.TrimSpace(string(b))
	if id == "" {
		return Hint{}, fmt.Errorf("%s is empty", f.Path)
	}
	return Hint{Source: f.Name(), PlatformID: id}, nil
}

// MachineConf reads onie_platform from an ONIE machine.conf
type MachineConf struct {
	Path string
}

// Name implements Source
func (m MachineConf) Name() string { return "onie-machine-conf" }

// Detect implements Source
func (m MachineConf) Detect() (Hint, error) {
	b, err := os.ReadFile(m.Path)
	if err != nil {
		return Hint{}, err
	}
	conf := ParseMachineConf(b)
	p := conf["onie_platform"]
	if p == "" {
		return Hint{}, fmt.Errorf("%s has no onie_platform", m.Path)
	}
	return Hint{Source: m.Name(), ONIEPlatform: p}, nil
}

// ParseMachineConf parses the key=value lines of an ONIE machine.conf
func ParseMachineConf(data []byte) map[string]string {
	conf := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			continue
		}
		conf[strings.TrimSpace(kv[0])] = strings.Trim(strings.TrimSpace(kv[1]), `"'`)
	}
	return conf
}

// DMI reads the SMBIOS product name and vendor through ghw
type DMI struct {
	// Chroot is the filesystem root ghw reads /sys from
	Chroot string
}

// Name implements Source
func (d DMI) Name() string { return "dmi" }

// Detect implements Source
func (d DMI) Detect() (Hint, error) {
	chroot := d.Chroot
	if chroot == "" {
		chroot = "/"
	}
	product, err := ghw.Product(ghw.WithChroot(chroot), ghw.WithDisableWarnings())
	if err != nil {
		return Hint{}, fmt.Errorf("failed to read DMI product info: %v", err)
	}
	if product.Name == "" || product.Name == unknownValue {
		return Hint{}, fmt.Errorf("DMI product name not available")
	}
	// sys_vendor is e.g. "Mellanox Technologies Ltd.", registrations use the first word
	manufacturer := ""
	if fields := strings.Fields(product.Vendor); len(fields) > 0 && product.Vendor != unknownValue {
		manufacturer = fields[0]
	}
	return Hint{Source: d.Name(), Manufacturer: manufacturer, Model: product.Name}, nil
}

// DefaultSources returns the detection chain below root: the ONL platform file,
// then ONIE machine.conf, then DMI.
func DefaultSources(root string) []Source {
	return []Source{
		ONLPlatformFile{Path: filepath.Join(root, DefaultONLPlatformPath)},
		MachineConf{Path: filepath.Join(root, DefaultMachineConfPath)},
		DMI{Chroot: root},
	}
}

// Resolve asks each source in turn and returns the first registration a hint matches
func Resolve(reg *platform.Registry, sources ...Source) (platform.Registration, Hint, error) {
	for _, src := range sources {
		hint, err := src.Detect()
		if err != nil {
			glog.V(2).Infof("platform source %s: %v", src.Name(), err)
			continue
		}
		glog.Infof("platform source %s reported %s", src.Name(), hint)
		if r, ok := match(reg, hint); ok {
			return r, hint, nil
		}
		glog.Warningf("platform source %s: %s is not a registered platform", src.Name(), hint)
	}
	return platform.Registration{}, Hint{}, ErrNotDetected
}

func match(reg *platform.Registry, hint Hint) (platform.Registration, bool) {
	if hint.PlatformID != "" {
		if r, err := reg.Lookup(hint.PlatformID); err == nil {
			return r, true
		}
	}
	if hint.ONIEPlatform != "" {
		if r, err := reg.LookupONIE(hint.ONIEPlatform); err == nil {
			return r, true
		}
	}
	if hint.Model != "" {
		if r, err := reg.LookupModel(hint.Manufacturer, hint.Model); err == nil {
			return r, true
		}
	}
	return platform.Registration{}, false
}
