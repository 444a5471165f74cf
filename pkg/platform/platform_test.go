package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/openshift/onl-platform-daemon/pkg/command"
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

type fakeVendor struct {
	err     error
	exports int
}

func (f *fakeVendor) Manufacturer() string  { return "Acme" }
func (f *fakeVendor) EnterpriseNumber() int { return 4242 }
func (f *fakeVendor) ExportSystemEeprom(context.Context) error {
	f.exports++
	return f.err
}

var testSpec = Spec{
	Identity:     Identity{PlatformID: "x86-64-acme-s100-r0", Model: "S100", SysObjectID: ".100.1"},
	ONIEPlatform: "x86_64-acme_s100-r0",
	Ports:        PortConfig{Name: "32x100", Count: 32, SpeedGbps: 100},
	StartCommand: []string{"/etc/acme/hw-management", "start"},
}

func newTestDescriptor(t *testing.T, res command.Result, exportErr error, policy ExitPolicy) (*Descriptor, *fakeRunner, *fakeVendor) {
	runner := &fakeRunner{result: res}
	vendor := &fakeVendor{err: exportErr}
	d, err := NewDescriptor(testSpec, vendor, runner, policy)
	require.NoError(t, err)
	return d, runner, vendor
}

func Test_BaseConfigSuccess(t *testing.T) {
	d, runner, vendor := newTestDescriptor(t, command.Result{Status: command.Success}, nil, IgnoreExitStatus)
	ok, err := d.BaseConfig(context.Background())
	assert.NoError(t, err)
	assert.Exactly(t, true, ok)
	assert.Equal(t, [][]string{{"/etc/acme/hw-management", "start"}}, runner.calls)
	assert.Equal(t, 1, vendor.exports)
}

func Test_BaseConfigExportErrorPropagates(t *testing.T) {
	exportErr := errors.New("eeprom unreadable")
	d, _, vendor := newTestDescriptor(t, command.Result{Status: command.Success}, exportErr, IgnoreExitStatus)
	ok, err := d.BaseConfig(context.Background())
	assert.False(t, ok)
	assert.Equal(t, exportErr, err)
	assert.Equal(t, 1, vendor.exports)
}

func Test_BaseConfigIgnoresExitStatusByDefault(t *testing.T) {
	d, _, vendor := newTestDescriptor(t, command.Result{Status: command.ExitCode, ExitCode: 1}, nil, IgnoreExitStatus)
	ok, err := d.BaseConfig(context.Background())
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, vendor.exports)
}

func Test_BaseConfigFailOnExitStatus(t *testing.T) {
	d, _, vendor := newTestDescriptor(t, command.Result{Status: command.ExitCode, ExitCode: 2}, nil, FailOnExitStatus)
	ok, err := d.BaseConfig(context.Background())
	assert.False(t, ok)
	var exitErr *command.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
	assert.Equal(t, "/etc/acme/hw-management start", exitErr.Command)
	assert.Equal(t, 0, vendor.exports)
}

func Test_BaseConfigCommandNotIssued(t *testing.T) {
	ioErr := errors.New("fork/exec: no such file or directory")
	d, _, vendor := newTestDescriptor(t, command.Result{Status: command.IOError, Err: ioErr}, nil, IgnoreExitStatus)
	ok, err := d.BaseConfig(context.Background())
	assert.False(t, ok)
	assert.Equal(t, ioErr, err)
	assert.Equal(t, 0, vendor.exports)
}

func Test_DescriptorIdentityImmutable(t *testing.T) {
	d, _, _ := newTestDescriptor(t, command.Result{}, nil, IgnoreExitStatus)
	id := d.Identity()
	id.PlatformID = "changed"
	id.Model = "changed"
	assert.Equal(t, "x86-64-acme-s100-r0", d.PlatformID())
	assert.Equal(t, "S100", d.Model())
	assert.Equal(t, ".100.1", d.SysObjectID())

	cmd := d.StartCommand()
	cmd[0] = "/bin/false"
	assert.Equal(t, []string{"/etc/acme/hw-management", "start"}, d.StartCommand())
}

func Test_DescriptorSysOID(t *testing.T) {
	d, _, _ := newTestDescriptor(t, command.Result{}, nil, IgnoreExitStatus)
	assert.Equal(t, ".1.3.6.1.4.1.4242.100.1", d.SysOID())
	assert.Equal(t, "x86_64-acme_s100-r0", d.ONIEPlatform())
	assert.Equal(t, 32, d.Ports().Count)
}

func Test_NewDescriptorValidation(t *testing.T) {
	_, err := NewDescriptor(Spec{}, &fakeVendor{}, nil, IgnoreExitStatus)
	assert.Error(t, err)

	_, err = NewDescriptor(testSpec, nil, nil, IgnoreExitStatus)
	assert.Error(t, err)

	spec := testSpec
	spec.StartCommand = nil
	_, err = NewDescriptor(spec, &fakeVendor{}, nil, IgnoreExitStatus)
	assert.Error(t, err)

	d, err := NewDescriptor(testSpec, &fakeVendor{}, nil, FailOnExitStatus)
	assert.NoError(t, err)
	assert.IsType(t, command.ExecRunner{}, d.runner)
	assert.Equal(t, "fail", d.ExitPolicy().String())
}
