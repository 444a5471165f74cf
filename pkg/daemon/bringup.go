package daemon

import (
	"context"
	"errors"
	"sync"

	"github.com/golang/glog"
	"github.com/openshift/onl-platform-daemon/pkg/metrics"
	"github.com/openshift/onl-platform-daemon/pkg/platform"
)

// ErrAlreadyRun is returned when the base configuration is requested a second time
var ErrAlreadyRun = errors.New("base configuration already run")

// State of the one-shot bring-up
type State int

const (
	// Pending until Run is called
	Pending State = iota
	// Running while the base configuration is in progress
	Running
	// Configured after a successful base configuration
	Configured
	// Failed after a faulted base configuration
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Configured:
		return "CONFIGURED"
	case Failed:
		return "FAILED"
	default:
		return "PENDING"
	}
}

// Bringup runs the base configuration of a platform exactly once
type Bringup struct {
	mutex      sync.Mutex
	descriptor *platform.Descriptor
	state      State
	err        error
}

// NewBringup ...
func NewBringup(d *platform.Descriptor) *Bringup {
	metrics.UpdatePlatformInfo(d)
	metrics.UpdateBaseConfigStatus(d.PlatformID(), metrics.BaseConfigPending)
	return &Bringup{descriptor: d}
}

// Run performs the base configuration. Any call after the first, including
// one that overlaps a running base configuration, returns ErrAlreadyRun and
// leaves the hardware untouched. The state lock is not held while the
// hardware management command runs.
func (b *Bringup) Run(ctx context.Context) (bool, error) {
	b.mutex.Lock()
	if b.state != Pending {
		b.mutex.Unlock()
		return false, ErrAlreadyRun
	}
	b.state = Running
	b.mutex.Unlock()

	id := b.descriptor.PlatformID()
	ok, err := b.descriptor.BaseConfig(ctx)

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err != nil || !ok {
		b.state, b.err = Failed, err
		metrics.UpdateBaseConfigStatus(id, metrics.BaseConfigFailed)
		glog.Errorf("%s: bring-up failed: %v", id, err)
		return false, err
	}
	b.state = Configured
	metrics.UpdateBaseConfigStatus(id, metrics.BaseConfigConfigured)
	glog.Infof("%s: bring-up complete", id)
	return true, nil
}

// State returns the bring-up state and the error that failed it
func (b *Bringup) State() (State, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state, b.err
}

// Descriptor returns the platform being brought up
func (b *Bringup) Descriptor() *platform.Descriptor {
	return b.descriptor
}
