package vcenter

import (
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/types"
)

// Kind identifies a managed object kind by its vSphere type name.
type Kind string

const (
	KindVirtualMachine Kind = "VirtualMachine"
	KindDatacenter     Kind = "Datacenter"
	KindFolder         Kind = "Folder"
	KindVApp           Kind = "VirtualApp"
	KindNetwork        Kind = "Network"
	KindDatastore      Kind = "Datastore"
	KindHost           Kind = "HostSystem"
	KindResourcePool   Kind = "ResourcePool"
	KindSnapshot       Kind = "VirtualMachineSnapshot"

	// KindAny matches every inventory object.
	KindAny Kind = "ManagedEntity"
)

// Object is the facade view common to wrapped and raw retrieval results:
// a display name and the managed object reference it binds. The govmomi
// object.* types satisfy it too, which is what raw retrieval returns.
type Object interface {
	Name() string
	Reference() types.ManagedObjectReference
}

// networkKinds are the concrete types a Network wrapper accepts; port
// groups and opaque networks are networks as far as the facade cares.
var networkKinds = map[string]bool{
	"Network":                     true,
	"DistributedVirtualPortgroup": true,
	"OpaqueNetwork":               true,
}

// resourcePoolKinds: a vApp is a resource pool with extra behavior.
var resourcePoolKinds = map[string]bool{
	"ResourcePool": true,
	"VirtualApp":   true,
}

// entity is the common core of every typed wrapper: the reference it
// binds, the display name cached at construction, and the fault kinds
// the wrapper downgrades to a boolean failure instead of an error.
type entity struct {
	c      *Client
	ref    types.ManagedObjectReference
	name   string
	kind   Kind
	faults []types.BaseMethodFault
}

func newEntity(c *Client, ref types.ManagedObjectReference, name string, kind Kind, extra ...types.BaseMethodFault) entity {
	faults := make([]types.BaseMethodFault, 0, 1+len(extra))
	faults = append(faults, &types.RuntimeFault{})
	faults = append(faults, extra...)
	return entity{c: c, ref: ref, name: name, kind: kind, faults: faults}
}

// Name returns the display name cached at construction.
func (e *entity) Name() string { return e.name }

// Reference returns the underlying managed object reference.
func (e *entity) Reference() types.ManagedObjectReference { return e.ref }

// Kind returns the wrapper's object kind.
func (e *entity) Kind() Kind { return e.kind }

// Raw returns the underlying govmomi object for direct SDK use.
func (e *entity) Raw() object.Reference {
	return rawObject(e.c, e.ref)
}

// tolerated builds the wrapper's effective tolerated-fault set plus any
// per-operation additions. Always copies: callers may append further.
func (e *entity) tolerated(extra ...types.BaseMethodFault) []types.BaseMethodFault {
	out := make([]types.BaseMethodFault, 0, len(e.faults)+len(extra))
	out = append(out, e.faults...)
	out = append(out, extra...)
	return out
}

// guard runs a synchronous remote call, downgrading tolerated fault
// kinds to a boolean failure. Anything outside the tolerated set
// propagates as an error.
func (e *entity) guard(op string, extra []types.BaseMethodFault, fn func() error) (bool, error) {
	if !e.c.Connected() {
		return false, ErrNotConnected
	}
	err := fn()
	if err == nil {
		return true, nil
	}
	if f, ok := toleratedFault(err, e.tolerated(extra...)); ok {
		e.c.logger.Info("remote call failed", "op", op, "object", e.name, "fault", faultName(f))
		return false, nil
	}
	return false, err
}

// Datacenter wraps a vSphere datacenter.
type Datacenter struct{ entity }

// NewDatacenter binds a Datacenter wrapper to ref, failing when the
// reference is of a different concrete kind.
func NewDatacenter(c *Client, ref types.ManagedObjectReference, name string) (*Datacenter, error) {
	if ref.Type != string(KindDatacenter) {
		return nil, &WrongKindError{Expected: KindDatacenter, Actual: ref.Type}
	}
	return &Datacenter{newEntity(c, ref, name, KindDatacenter)}, nil
}

// Folder wraps an inventory folder.
type Folder struct{ entity }

func NewFolder(c *Client, ref types.ManagedObjectReference, name string) (*Folder, error) {
	if ref.Type != string(KindFolder) {
		return nil, &WrongKindError{Expected: KindFolder, Actual: ref.Type}
	}
	return &Folder{newEntity(c, ref, name, KindFolder)}, nil
}

// VApp wraps a virtual application container.
type VApp struct{ entity }

func NewVApp(c *Client, ref types.ManagedObjectReference, name string) (*VApp, error) {
	if ref.Type != string(KindVApp) {
		return nil, &WrongKindError{Expected: KindVApp, Actual: ref.Type}
	}
	return &VApp{newEntity(c, ref, name, KindVApp)}, nil
}

// Network wraps a network, including distributed port groups and opaque
// networks.
type Network struct{ entity }

func NewNetwork(c *Client, ref types.ManagedObjectReference, name string) (*Network, error) {
	if !networkKinds[ref.Type] {
		return nil, &WrongKindError{Expected: KindNetwork, Actual: ref.Type}
	}
	return &Network{newEntity(c, ref, name, KindNetwork)}, nil
}

// Datastore wraps a datastore.
type Datastore struct{ entity }

func NewDatastore(c *Client, ref types.ManagedObjectReference, name string) (*Datastore, error) {
	if ref.Type != string(KindDatastore) {
		return nil, &WrongKindError{Expected: KindDatastore, Actual: ref.Type}
	}
	return &Datastore{newEntity(c, ref, name, KindDatastore)}, nil
}

// Host wraps an ESXi host system.
type Host struct{ entity }

func NewHost(c *Client, ref types.ManagedObjectReference, name string) (*Host, error) {
	if ref.Type != string(KindHost) {
		return nil, &WrongKindError{Expected: KindHost, Actual: ref.Type}
	}
	return &Host{newEntity(c, ref, name, KindHost)}, nil
}

// ResourcePool wraps a resource pool (or a vApp acting as one).
type ResourcePool struct{ entity }

func NewResourcePool(c *Client, ref types.ManagedObjectReference, name string) (*ResourcePool, error) {
	if !resourcePoolKinds[ref.Type] {
		return nil, &WrongKindError{Expected: KindResourcePool, Actual: ref.Type}
	}
	return &ResourcePool{newEntity(c, ref, name, KindResourcePool)}, nil
}

// wrapReference maps a reference's reported kind to its typed wrapper.
// Kinds without a dedicated wrapper still satisfy Object through the
// shared entity core.
func wrapReference(c *Client, ref types.ManagedObjectReference, name string) (Object, error) {
	switch {
	case ref.Type == string(KindVirtualMachine):
		return NewVirtualMachine(c, ref, name)
	case ref.Type == string(KindDatacenter):
		return NewDatacenter(c, ref, name)
	case ref.Type == string(KindFolder):
		return NewFolder(c, ref, name)
	case ref.Type == string(KindVApp):
		return NewVApp(c, ref, name)
	case networkKinds[ref.Type]:
		return NewNetwork(c, ref, name)
	case ref.Type == string(KindDatastore):
		return NewDatastore(c, ref, name)
	case ref.Type == string(KindHost):
		return NewHost(c, ref, name)
	case ref.Type == string(KindResourcePool):
		return NewResourcePool(c, ref, name)
	default:
		e := newEntity(c, ref, name, Kind(ref.Type))
		return &e, nil
	}
}

// rawObject returns the vendor-native handle for a reference. Typed
// govmomi objects are preferred; kinds the SDK does not map (NewReference
// panics on them) fall back to object.Common.
func rawObject(c *Client, ref types.ManagedObjectReference) (o Object) {
	defer func() {
		if recover() != nil {
			common := object.NewCommon(c.vim(), ref)
			o = &common
		}
	}()
	return object.NewReference(c.vim(), ref).(Object)
}
