package vcenter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmware/govmomi/vim25/types"
)

func TestNewSnapshot(t *testing.T) {
	c := testClient()
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	node := types.VirtualMachineSnapshotTree{
		Snapshot:    ref("VirtualMachineSnapshot", "snap-1"),
		Vm:          ref("VirtualMachine", "vm-1"),
		Name:        "before-upgrade",
		Description: "pre-maintenance state",
		CreateTime:  created,
		State:       types.VirtualMachinePowerStatePoweredOn,
	}

	s, err := NewSnapshot(c, node)
	require.NoError(t, err)
	assert.Equal(t, "before-upgrade", s.Name())
	assert.Equal(t, "pre-maintenance state", s.Description())
	assert.Equal(t, created, s.Created())
	assert.Equal(t, types.VirtualMachinePowerStatePoweredOn, s.State())
	assert.Equal(t, "vm-1", s.VM().Value)
	assert.Equal(t, KindSnapshot, s.Kind())

	node.Snapshot = ref("VirtualMachine", "vm-1")
	_, err = NewSnapshot(c, node)
	var wk *WrongKindError
	require.ErrorAs(t, err, &wk)
	assert.Equal(t, KindSnapshot, wk.Expected)
}

func TestSnapshotFaultSetsAreNarrow(t *testing.T) {
	// Runtime faults must propagate from snapshot operations, not be
	// downgraded to a skipped result.
	_, ok := toleratedFault(taskErr(&types.ManagedObjectNotFound{}), snapshotRemoveFaults)
	assert.False(t, ok)
	_, ok = toleratedFault(taskErr(&types.SystemError{}), snapshotRevertFaults)
	assert.False(t, ok)
	_, ok = toleratedFault(taskErr(&types.ManagedObjectNotFound{}), snapshotRenameFaults)
	assert.False(t, ok)

	_, ok = toleratedFault(taskErr(&types.TaskInProgress{}), snapshotRemoveFaults)
	assert.True(t, ok)
	_, ok = toleratedFault(taskErr(&types.NotFound{}), snapshotRevertFaults)
	assert.True(t, ok)
	_, ok = toleratedFault(taskErr(&types.InvalidArgument{}), snapshotRenameFaults)
	assert.True(t, ok)

	// The snapshot entity carries no base set of its own.
	c := testClient()
	s, err := NewSnapshot(c, types.VirtualMachineSnapshotTree{
		Snapshot: ref("VirtualMachineSnapshot", "snap-1"),
		Vm:       ref("VirtualMachine", "vm-1"),
		Name:     "baseline",
	})
	require.NoError(t, err)
	assert.Empty(t, s.tolerated())
}

func TestRenameKeepsNameOnFailure(t *testing.T) {
	c := testClient()
	s, err := NewSnapshot(c, types.VirtualMachineSnapshotTree{
		Snapshot: ref("VirtualMachineSnapshot", "snap-1"),
		Vm:       ref("VirtualMachine", "vm-1"),
		Name:     "old-name",
	})
	require.NoError(t, err)

	ok, err := s.Rename(context.Background(), "new-name", "")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, ok)
	assert.Equal(t, "old-name", s.Name())
}

func TestSnapshotInfo(t *testing.T) {
	c := testClient()
	s, err := NewSnapshot(c, types.VirtualMachineSnapshotTree{
		Snapshot:    ref("VirtualMachineSnapshot", "snap-1"),
		Vm:          ref("VirtualMachine", "vm-1"),
		Name:        "baseline",
		Description: "fresh install",
		CreateTime:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		State:       types.VirtualMachinePowerStatePoweredOff,
	})
	require.NoError(t, err)

	var b strings.Builder
	s.Info(&b)
	out := b.String()
	assert.Contains(t, out, "baseline")
	assert.Contains(t, out, "fresh install")
	assert.Contains(t, out, "2026-01-02T03:04:05Z")
	assert.Contains(t, out, "poweredOff")
	assert.Contains(t, out, "vm-1")
}
