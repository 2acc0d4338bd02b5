package vcenter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/methods"
	"github.com/vmware/govmomi/vim25/types"
)

// Snapshot wraps a single node of a VM snapshot tree. Its metadata is a
// point-in-time copy taken when the wrapper was built; remote
// operations act on the live snapshot behind the reference.
type Snapshot struct {
	entity
	description string
	created     time.Time
	state       types.VirtualMachinePowerState
	vmRef       types.ManagedObjectReference
}

// Per-operation tolerated fault sets. Snapshot operations keep these
// narrow: any other fault, runtime faults included, propagates.
var (
	snapshotRemoveFaults = []types.BaseMethodFault{&types.TaskInProgress{}}
	snapshotRevertFaults = []types.BaseMethodFault{&types.NotFound{}}
	snapshotRenameFaults = []types.BaseMethodFault{&types.InvalidArgument{}}
)

// NewSnapshot builds a Snapshot wrapper from a snapshot tree node. The
// entity carries no base fault set; each operation supplies its own.
func NewSnapshot(c *Client, node types.VirtualMachineSnapshotTree) (*Snapshot, error) {
	if node.Snapshot.Type != string(KindSnapshot) {
		return nil, &WrongKindError{Expected: KindSnapshot, Actual: node.Snapshot.Type}
	}
	return &Snapshot{
		entity:      entity{c: c, ref: node.Snapshot, name: node.Name, kind: KindSnapshot},
		description: node.Description,
		created:     node.CreateTime,
		state:       node.State,
		vmRef:       node.Vm,
	}, nil
}

// Description returns the description recorded when the wrapper was built.
func (s *Snapshot) Description() string { return s.description }

// Created returns the snapshot creation time.
func (s *Snapshot) Created() time.Time { return s.created }

// State returns the VM power state captured in the snapshot.
func (s *Snapshot) State() types.VirtualMachinePowerState { return s.state }

// VM returns the reference of the VM the snapshot belongs to.
func (s *Snapshot) VM() types.ManagedObjectReference { return s.vmRef }

// Info writes a human-readable summary of the snapshot to w.
func (s *Snapshot) Info(w io.Writer) {
	fmt.Fprintf(w, "Name:        %s\n", s.name)
	fmt.Fprintf(w, "Description: %s\n", s.description)
	fmt.Fprintf(w, "Created:     %s\n", s.created.Format(time.RFC3339))
	fmt.Fprintf(w, "State:       %s\n", s.state)
	fmt.Fprintf(w, "VM:          %s\n", s.vmRef.Value)
}

// Remove deletes the snapshot, and with children set its whole subtree.
// Consolidate controls disk consolidation after removal.
func (s *Snapshot) Remove(ctx context.Context, children, consolidate bool) (bool, error) {
	s.c.logger.Info("removing snapshot", "snapshot", s.name)
	return s.c.awaitTask(ctx, "remove snapshot", snapshotRemoveFaults,
		func(ctx context.Context) (*object.Task, error) {
			res, err := methods.RemoveSnapshot_Task(ctx, s.c.vim(), &types.RemoveSnapshot_Task{
				This:           s.ref,
				RemoveChildren: children,
				Consolidate:    types.NewBool(consolidate),
			})
			if err != nil {
				return nil, err
			}
			return object.NewTask(s.c.vim(), res.Returnval), nil
		})
}

// Revert rolls the VM back to this snapshot. With suppressPowerOn set
// the VM stays off even when the snapshot captured a running state.
func (s *Snapshot) Revert(ctx context.Context, suppressPowerOn bool) (bool, error) {
	s.c.logger.Info("reverting to snapshot", "snapshot", s.name)
	return s.c.awaitTask(ctx, "revert snapshot", snapshotRevertFaults,
		func(ctx context.Context) (*object.Task, error) {
			res, err := methods.RevertToSnapshot_Task(ctx, s.c.vim(), &types.RevertToSnapshot_Task{
				This:            s.ref,
				SuppressPowerOn: types.NewBool(suppressPowerOn),
			})
			if err != nil {
				return nil, err
			}
			return object.NewTask(s.c.vim(), res.Returnval), nil
		})
}

// Rename changes the snapshot name, and optionally its description when
// description is non-empty. The cached metadata is updated only after
// the remote call succeeds.
func (s *Snapshot) Rename(ctx context.Context, name, description string) (bool, error) {
	s.c.logger.Info("renaming snapshot", "snapshot", s.name, "to", name)
	req := &types.RenameSnapshot{This: s.ref, Name: name}
	if description != "" {
		req.Description = description
	}
	ok, err := s.guard("rename snapshot", snapshotRenameFaults, func() error {
		_, err := methods.RenameSnapshot(ctx, s.c.vim(), req)
		return err
	})
	if ok {
		s.name = name
		if description != "" {
			s.description = description
		}
	}
	return ok, err
}
