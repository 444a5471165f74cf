package mellanox

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/openshift/onl-platform-daemon/pkg/command"
	"github.com/openshift/onl-platform-daemon/pkg/eeprom"
	"github.com/openshift/onl-platform-daemon/pkg/onie"
	"github.com/openshift/onl-platform-daemon/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	result command.Result
	calls  [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) command.Result {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.result
}

type fakeExporter struct {
	err  error
	info *onie.Info
}

func (f *fakeExporter) Export(_ context.Context, info *onie.Info) error {
	f.info = info
	return f.err
}

// writeEeprom lays out a host root holding testdata/vpd_info as the system EEPROM
func writeEeprom(t *testing.T) string {
	root := t.TempDir()
	img, err := os.ReadFile("testdata/vpd_info")
	require.NoError(t, err)
	p := filepath.Join(root, DefaultEepromSource)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, img, 0o644))
	return root
}

func Test_IDG4400Identity(t *testing.T) {
	d, err := IDG4400(platform.Options{Runner: &fakeRunner{}})
	require.NoError(t, err)
	assert.Equal(t, "x86-64-mlnx-idg4400-r0", d.PlatformID())
	assert.Equal(t, "IDG4400", d.Model())
	assert.Equal(t, ".4400.1", d.SysObjectID())
	assert.Equal(t, "x86_64-mlnx_idg4400-r0", d.ONIEPlatform())
	assert.Equal(t, ".1.3.6.1.4.1.33049.4400.1", d.SysOID())
	assert.Equal(t, platform.PortConfig{Name: "32x100", Count: 32, SpeedGbps: 100}, d.Ports())
	assert.Equal(t, []string{"/etc/mlnx/mlnx-hw-management", "start"}, d.StartCommand())
	assert.Equal(t, "Mellanox", d.Vendor().Manufacturer())
	assert.Equal(t, platform.IgnoreExitStatus, d.ExitPolicy())

	inv := d.Inventory()
	assert.Equal(t, 11, inv.Thermals)
	assert.Equal(t, 8, inv.LEDs)
	assert.Equal(t, 2, inv.PSUs)
	assert.Equal(t, 8, inv.Fans)
	assert.Len(t, inv.VoltageRails, 16)
	require.NotNil(t, inv.FanRPMValid)
	assert.True(t, inv.FanRPMValid(1, 10000))
	assert.False(t, inv.FanRPMValid(2, 21000))
}

func Test_IDG4400IdentityImmutable(t *testing.T) {
	d, err := IDG4400(platform.Options{Runner: &fakeRunner{}})
	require.NoError(t, err)
	id := d.Identity()
	id.PlatformID = "changed"
	cmd := d.StartCommand()
	cmd[0] = "/bin/false"
	inv := d.Inventory()
	inv.VoltageRails[0].File = "changed"

	assert.Equal(t, IDG4400PlatformID, d.PlatformID())
	assert.Equal(t, HwManagementScript, d.StartCommand()[0])
	assert.Equal(t, "cpu_0_9", d.Inventory().VoltageRails[0].File)
	assert.Equal(t, "cpu_0_9", IDG4400VoltageRails[0].File)
}

func Test_IDG4400BaseConfig(t *testing.T) {
	root := writeEeprom(t)
	runner := &fakeRunner{result: command.Result{Status: command.Success}}
	d, err := IDG4400(platform.Options{Runner: runner, Root: root})
	require.NoError(t, err)

	ok, err := d.BaseConfig(context.Background())
	require.NoError(t, err)
	assert.Exactly(t, true, ok)
	assert.Equal(t, [][]string{{HwManagementScript, "start"}}, runner.calls)

	data, err := os.ReadFile(filepath.Join(root, eeprom.DefaultJSONPath))
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "IDG4400", doc["Product Name"])
	assert.Equal(t, "MT1723X01234", doc["Serial Number"])
	assert.Equal(t, "7C:FE:90:12:34:56", doc["MAC"])
}

func Test_IDG4400BaseConfigExportFault(t *testing.T) {
	root := writeEeprom(t)
	exportErr := errors.New("configmap unavailable")
	exporter := &fakeExporter{err: exportErr}
	d, err := IDG4400(platform.Options{
		Runner:         &fakeRunner{result: command.Result{Status: command.Success}},
		Root:           root,
		EepromExporter: exporter,
	})
	require.NoError(t, err)

	ok, err := d.BaseConfig(context.Background())
	assert.False(t, ok)
	assert.Same(t, exportErr, err)
	require.NotNil(t, exporter.info)
	assert.Equal(t, IDG4400ONIEPlatform, exporter.info.PlatformName)
}

func Test_IDG4400BaseConfigMissingEeprom(t *testing.T) {
	d, err := IDG4400(platform.Options{
		Runner: &fakeRunner{result: command.Result{Status: command.Success}},
		Root:   t.TempDir(),
	})
	require.NoError(t, err)

	ok, err := d.BaseConfig(context.Background())
	assert.False(t, ok)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func Test_IDG4400BaseConfigCorruptEeprom(t *testing.T) {
	root := writeEeprom(t)
	p := filepath.Join(root, DefaultEepromSource)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(p, data, 0o644))

	d, err := IDG4400(platform.Options{
		Runner: &fakeRunner{result: command.Result{Status: command.Success}},
		Root:   root,
	})
	require.NoError(t, err)
	ok, err := d.BaseConfig(context.Background())
	assert.False(t, ok)
	assert.True(t, errors.Is(err, onie.ErrBadCRC))
}

func Test_IDG4400ExitPolicy(t *testing.T) {
	exited := command.Result{Status: command.ExitCode, ExitCode: 1}

	root := writeEeprom(t)
	exporter := &fakeExporter{}
	d, err := IDG4400(platform.Options{Runner: &fakeRunner{result: exited}, Root: root, EepromExporter: exporter})
	require.NoError(t, err)
	ok, err := d.BaseConfig(context.Background())
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, exporter.info)

	exporter = &fakeExporter{}
	d, err = IDG4400(platform.Options{
		Runner:         &fakeRunner{result: exited},
		Root:           root,
		EepromExporter: exporter,
		ExitPolicy:     platform.FailOnExitStatus,
	})
	require.NoError(t, err)
	ok, err = d.BaseConfig(context.Background())
	assert.False(t, ok)
	var exitErr *command.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Nil(t, exporter.info)
}

func Test_ProfileSourceOverride(t *testing.T) {
	root := writeEeprom(t)
	require.NoError(t, os.Rename(filepath.Join(root, DefaultEepromSource), filepath.Join(root, "vpd.bin")))

	p := NewProfile(platform.Options{Root: root, EepromSource: "/vpd.bin"})
	assert.Equal(t, filepath.Join(root, "vpd.bin"), p.SourcePath())
	info, err := p.ReadSystemEeprom()
	require.NoError(t, err)
	assert.Equal(t, "IDG4400", info.ProductName)
	assert.Equal(t, 33049, p.EnterpriseNumber())
}

func Test_IDG4400FanRPMValid(t *testing.T) {
	assert.True(t, IDG4400FanRPMValid(1, 10000))
	assert.True(t, IDG4400FanRPMValid(2, 10000))
	// 5400*0.87 = 4698, 6300*0.87 = 5481
	assert.True(t, IDG4400FanRPMValid(2, 5000))
	assert.False(t, IDG4400FanRPMValid(1, 5000))
	// 21000*1.12 = 23520, 18000*1.12 = 20160
	assert.True(t, IDG4400FanRPMValid(7, 23000))
	assert.False(t, IDG4400FanRPMValid(8, 21000))
	assert.False(t, IDG4400FanRPMValid(0, 10000))
	assert.False(t, IDG4400FanRPMValid(9, 10000))
}
