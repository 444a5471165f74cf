package platform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"
)

var (
	// ErrUnknownPlatform is returned when no registration matches a hardware identity
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrDuplicate is returned when a registration collides with an existing one
	ErrDuplicate = errors.New("duplicate platform registration")
)

// New constructs the descriptor of one platform
type New func(Options) (*Descriptor, error)

// Registration maps a hardware identity to its constructor
type Registration struct {
	Manufacturer string
	Identity     Identity
	ONIEPlatform string
	New          New
}

// Registry maps detected hardware identities to platform constructors
type Registry struct {
	byID    map[string]Registration
	byONIE  map[string]string
	byOID   map[string]string
	byModel map[string]string
}

// NewRegistry builds a registry from a registration list
func NewRegistry(regs []Registration) (*Registry, error) {
	glog.V(2).Infof("Begin platform registration...")
	r := &Registry{
		byID:    make(map[string]Registration),
		byONIE:  make(map[string]string),
		byOID:   make(map[string]string),
		byModel: make(map[string]string),
	}
	for _, reg := range regs {
		if err := r.Register(reg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func vendorKey(vendor, value string) string {
	return strings.ToLower(vendor) + "/" + value
}

// Register adds one platform. Platform ids are unique across the registry,
// system object ids are unique per manufacturer.
func (r *Registry) Register(reg Registration) error {
	id := reg.Identity.PlatformID
	if id == "" {
		return fmt.Errorf("registration with empty platform id")
	}
	if reg.New == nil {
		return fmt.Errorf("platform %s: nil constructor", id)
	}
	if _, found := r.byID[id]; found {
		return fmt.Errorf("%w: platform id %s", ErrDuplicate, id)
	}
	oidKey := vendorKey(reg.Manufacturer, reg.Identity.SysObjectID)
	if reg.Identity.SysObjectID != "" {
		if other, found := r.byOID[oidKey]; found {
			return fmt.Errorf("%w: %s sys object id %s already used by %s", ErrDuplicate, reg.Manufacturer, reg.Identity.SysObjectID, other)
		}
	}
	if reg.ONIEPlatform != "" {
		if other, found := r.byONIE[reg.ONIEPlatform]; found {
			return fmt.Errorf("%w: onie platform %s already used by %s", ErrDuplicate, reg.ONIEPlatform, other)
		}
		r.byONIE[reg.ONIEPlatform] = id
	}
	if reg.Identity.SysObjectID != "" {
		r.byOID[oidKey] = id
	}
	if reg.Identity.Model != "" {
		// several revisions may share a model name, the first one wins
		modelKey := vendorKey(reg.Manufacturer, strings.ToUpper(reg.Identity.Model))
		if _, found := r.byModel[modelKey]; !found {
			r.byModel[modelKey] = id
		}
	}
	r.byID[id] = reg
	glog.V(2).Infof("registered platform %s (%s %s)", id, reg.Manufacturer, reg.Identity.Model)
	return nil
}

// Lookup finds a registration by platform id
func (r *Registry) Lookup(platformID string) (Registration, error) {
	reg, found := r.byID[platformID]
	if !found {
		return Registration{}, fmt.Errorf("%w: %s", ErrUnknownPlatform, platformID)
	}
	return reg, nil
}

// LookupONIE finds a registration by its ONIE platform name
func (r *Registry) LookupONIE(oniePlatform string) (Registration, error) {
	id, found := r.byONIE[oniePlatform]
	if !found {
		return Registration{}, fmt.Errorf("%w: onie platform %s", ErrUnknownPlatform, oniePlatform)
	}
	return r.byID[id], nil
}

// LookupModel finds a registration by manufacturer and model name, case insensitive
func (r *Registry) LookupModel(manufacturer, model string) (Registration, error) {
	id, found := r.byModel[vendorKey(manufacturer, strings.ToUpper(model))]
	if !found {
		return Registration{}, fmt.Errorf("%w: %s %s", ErrUnknownPlatform, manufacturer, model)
	}
	return r.byID[id], nil
}

// IDs returns the sorted list of registered platform ids
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// New constructs the descriptor registered under platformID
func (r *Registry) New(platformID string, opts Options) (*Descriptor, error) {
	reg, err := r.Lookup(platformID)
	if err != nil {
		return nil, err
	}
	glog.Infof("constructing platform %s", platformID)
	d, err := reg.New(opts)
	if err != nil {
		return nil, fmt.Errorf("platform %s: %w", platformID, err)
	}
	if d.PlatformID() != platformID {
		return nil, fmt.Errorf("platform %s: constructor returned %s", platformID, d.PlatformID())
	}
	return d, nil
}
