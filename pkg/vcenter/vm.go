package vcenter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/methods"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

// VirtualMachine wraps a VM and its power and snapshot lifecycle.
//
// Power and snapshot operations return (ok, err): tolerated remote
// faults (task in progress, invalid power state, tools unavailable and
// the like) come back as ok=false with a nil error; anything outside
// the tolerated set is an error.
type VirtualMachine struct {
	entity
}

// NewVirtualMachine binds a VirtualMachine wrapper to ref, failing when
// the reference is of a different concrete kind.
func NewVirtualMachine(c *Client, ref types.ManagedObjectReference, name string) (*VirtualMachine, error) {
	if ref.Type != string(KindVirtualMachine) {
		return nil, &WrongKindError{Expected: KindVirtualMachine, Actual: ref.Type}
	}
	return &VirtualMachine{newEntity(c, ref, name, KindVirtualMachine,
		&types.NotSupported{},
		&types.TaskInProgress{},
		&types.InvalidState{}, // covers InvalidPowerState via the fault hierarchy
	)}, nil
}

func (v *VirtualMachine) vm() *object.VirtualMachine {
	return object.NewVirtualMachine(v.c.vim(), v.ref)
}

// PowerState reads the live power state; it is never cached.
func (v *VirtualMachine) PowerState(ctx context.Context) (types.VirtualMachinePowerState, error) {
	if !v.c.Connected() {
		return "", ErrNotConnected
	}
	return v.vm().PowerState(ctx)
}

// PowerOn powers the VM on.
func (v *VirtualMachine) PowerOn(ctx context.Context) (bool, error) {
	v.c.logger.Info("powering on VM", "vm", v.name)
	return v.c.awaitTask(ctx, "power on", v.tolerated(), func(ctx context.Context) (*object.Task, error) {
		return v.vm().PowerOn(ctx)
	})
}

// PowerOff powers the VM off hard.
func (v *VirtualMachine) PowerOff(ctx context.Context) (bool, error) {
	v.c.logger.Info("powering off VM", "vm", v.name)
	return v.c.awaitTask(ctx, "power off", v.tolerated(), func(ctx context.Context) (*object.Task, error) {
		return v.vm().PowerOff(ctx)
	})
}

// Suspend suspends the VM.
func (v *VirtualMachine) Suspend(ctx context.Context) (bool, error) {
	v.c.logger.Info("suspending VM", "vm", v.name)
	return v.c.awaitTask(ctx, "suspend", v.tolerated(&types.ToolsUnavailable{}),
		func(ctx context.Context) (*object.Task, error) {
			return v.vm().Suspend(ctx)
		})
}

// Reset power-cycles the VM.
func (v *VirtualMachine) Reset(ctx context.Context) (bool, error) {
	v.c.logger.Info("resetting VM", "vm", v.name)
	return v.c.awaitTask(ctx, "reset", v.tolerated(), func(ctx context.Context) (*object.Task, error) {
		return v.vm().Reset(ctx)
	})
}

// Shutdown asks the guest OS to shut down. Requires guest tools.
func (v *VirtualMachine) Shutdown(ctx context.Context) (bool, error) {
	v.c.logger.Info("shutting down guest", "vm", v.name)
	return v.guard("shutdown", []types.BaseMethodFault{&types.ToolsUnavailable{}}, func() error {
		return v.vm().ShutdownGuest(ctx)
	})
}

// Reboot asks the guest OS to reboot. Requires guest tools.
func (v *VirtualMachine) Reboot(ctx context.Context) (bool, error) {
	v.c.logger.Info("rebooting guest", "vm", v.name)
	return v.guard("reboot", []types.BaseMethodFault{&types.ToolsUnavailable{}}, func() error {
		return v.vm().RebootGuest(ctx)
	})
}

// Terminate kills the VM process on the host without guest involvement.
func (v *VirtualMachine) Terminate(ctx context.Context) (bool, error) {
	v.c.logger.Info("terminating VM", "vm", v.name)
	return v.guard("terminate", nil, func() error {
		_, err := methods.TerminateVM(ctx, v.c.vim(), &types.TerminateVM{This: v.ref})
		return err
	})
}

// CreateSnapshot takes a snapshot, optionally including memory state or
// quiescing the guest filesystem.
func (v *VirtualMachine) CreateSnapshot(ctx context.Context, name, description string, memory, quiesce bool) (bool, error) {
	v.c.logger.Info("creating snapshot", "vm", v.name, "snapshot", name)
	return v.c.awaitTask(ctx, "create snapshot", v.tolerated(&types.InvalidName{}),
		func(ctx context.Context) (*object.Task, error) {
			return v.vm().CreateSnapshot(ctx, name, description, memory, quiesce)
		})
}

// SnapshotQuery selects snapshots from a VM's tree.
type SnapshotQuery struct {
	// Name selects the first depth-first match. Ignored when Current or
	// All is set.
	Name string
	// Current selects the snapshot the VM currently runs from. Ignored
	// when All is set.
	Current bool
	// All selects the whole tree flattened depth-first, parents before
	// children.
	All bool
}

// SnapshotTree returns the VM's raw snapshot tree root list.
func (v *VirtualMachine) SnapshotTree(ctx context.Context) ([]types.VirtualMachineSnapshotTree, error) {
	info, err := v.snapshotInfo(ctx)
	if err != nil || info == nil {
		return nil, err
	}
	return info.RootSnapshotList, nil
}

func (v *VirtualMachine) snapshotInfo(ctx context.Context) (*types.VirtualMachineSnapshotInfo, error) {
	if !v.c.Connected() {
		return nil, ErrNotConnected
	}
	var m mo.VirtualMachine
	if err := v.vm().Properties(ctx, v.ref, []string{"snapshot"}, &m); err != nil {
		return nil, fmt.Errorf("failed to read snapshot tree of %s: %w", v.name, err)
	}
	return m.Snapshot, nil
}

// Snapshots resolves a query against the VM's current snapshot tree,
// rebuilt from the live inventory on every call. A zero query returns
// an empty result without contacting the endpoint.
func (v *VirtualMachine) Snapshots(ctx context.Context, q SnapshotQuery) ([]*Snapshot, error) {
	if q.Name == "" && !q.Current && !q.All {
		return nil, nil
	}
	info, err := v.snapshotInfo(ctx)
	if err != nil {
		return nil, err
	}
	if info == nil || len(info.RootSnapshotList) == 0 {
		return nil, nil
	}

	var nodes []types.VirtualMachineSnapshotTree
	switch {
	case q.All:
		nodes = flattenSnapshotTree(info.RootSnapshotList)
	case q.Current:
		if info.CurrentSnapshot == nil {
			return nil, nil
		}
		if n := findSnapshotByRef(info.RootSnapshotList, *info.CurrentSnapshot); n != nil {
			nodes = append(nodes, *n)
		}
	default:
		if n := findSnapshotByName(info.RootSnapshotList, q.Name); n != nil {
			nodes = append(nodes, *n)
		}
	}

	out := make([]*Snapshot, 0, len(nodes))
	for _, n := range nodes {
		s, err := NewSnapshot(v.c, n)
		if err != nil {
			return nil, err
		}
		v.c.logger.Debug("found snapshot", "vm", v.name, "snapshot", s.Name())
		out = append(out, s)
	}
	return out, nil
}

// ListSnapshots writes the snapshot tree to w, depth-first with
// indentation proportional to depth. Display convenience only.
func (v *VirtualMachine) ListSnapshots(ctx context.Context, w io.Writer) error {
	nodes, err := v.SnapshotTree(ctx)
	if err != nil {
		return err
	}
	var walk func([]types.VirtualMachineSnapshotTree, int)
	walk = func(nodes []types.VirtualMachineSnapshotTree, depth int) {
		for _, n := range nodes {
			fmt.Fprintf(w, "%s|%s\n", strings.Repeat(" ", depth), n.Name)
			walk(n.ChildSnapshotList, depth+1)
		}
	}
	walk(nodes, 0)
	return nil
}

// RevertTo reverts the VM to the named snapshot, or to the current one.
// With neither selector set, or when the selector does not resolve to
// exactly one snapshot, it reports false without reverting.
func (v *VirtualMachine) RevertTo(ctx context.Context, name string, current bool) (bool, error) {
	if name == "" && !current {
		v.c.logger.Info("revert needs a snapshot name or the current flag", "vm", v.name)
		return false, nil
	}
	snaps, err := v.Snapshots(ctx, SnapshotQuery{Name: name, Current: current})
	if err != nil {
		return false, err
	}
	if len(snaps) != 1 {
		v.c.logger.Info("snapshot did not resolve to a single match", "vm", v.name, "matches", len(snaps))
		return false, nil
	}
	return snaps[0].Revert(ctx, false)
}

// RemoveSnapshots removes the selected snapshots: one by name, the
// current one, or with all set the entire tree. The result is true only
// when every removal succeeded; the first failure sticks.
func (v *VirtualMachine) RemoveSnapshots(ctx context.Context, name string, current, all, children, consolidate bool) (bool, error) {
	if name == "" && !current && !all {
		v.c.logger.Info("remove needs a snapshot name, the current flag or the all flag", "vm", v.name)
		return false, nil
	}
	snaps, err := v.Snapshots(ctx, SnapshotQuery{Name: name, Current: current, All: all})
	if err != nil {
		return false, err
	}
	return removeEach(ctx, snaps, func(ctx context.Context, s *Snapshot) (bool, error) {
		return s.Remove(ctx, children, consolidate)
	})
}

// removeEach removes snapshots in order. The result is true only when
// every removal succeeded: a skipped removal sticks regardless of later
// successes, an error aborts immediately.
func removeEach(ctx context.Context, snaps []*Snapshot, remove func(context.Context, *Snapshot) (bool, error)) (bool, error) {
	ok := true
	for _, s := range snaps {
		removed, err := remove(ctx, s)
		if err != nil {
			return false, err
		}
		if !removed {
			ok = false
		}
	}
	return ok, nil
}

// flattenSnapshotTree walks the tree depth-first, pre-order: each node
// before its children, siblings left to right.
func flattenSnapshotTree(nodes []types.VirtualMachineSnapshotTree) []types.VirtualMachineSnapshotTree {
	var out []types.VirtualMachineSnapshotTree
	for _, n := range nodes {
		out = append(out, n)
		out = append(out, flattenSnapshotTree(n.ChildSnapshotList)...)
	}
	return out
}

// findSnapshotByName returns the first depth-first match. Duplicate
// names deeper or further right in the tree are never reached.
func findSnapshotByName(nodes []types.VirtualMachineSnapshotTree, name string) *types.VirtualMachineSnapshotTree {
	for i := range nodes {
		if nodes[i].Name == name {
			return &nodes[i]
		}
		if n := findSnapshotByName(nodes[i].ChildSnapshotList, name); n != nil {
			return n
		}
	}
	return nil
}

// findSnapshotByRef matches a tree node by snapshot reference identity.
func findSnapshotByRef(nodes []types.VirtualMachineSnapshotTree, ref types.ManagedObjectReference) *types.VirtualMachineSnapshotTree {
	for i := range nodes {
		if nodes[i].Snapshot == ref {
			return &nodes[i]
		}
		if n := findSnapshotByRef(nodes[i].ChildSnapshotList, ref); n != nil {
			return n
		}
	}
	return nil
}
