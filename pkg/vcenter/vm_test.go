package vcenter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmware/govmomi/vim25/types"
)

func snapNode(name, id string, children ...types.VirtualMachineSnapshotTree) types.VirtualMachineSnapshotTree {
	return types.VirtualMachineSnapshotTree{
		Snapshot:          ref("VirtualMachineSnapshot", id),
		Vm:                ref("VirtualMachine", "vm-1"),
		Name:              name,
		ChildSnapshotList: children,
	}
}

// testTree builds
//
//	A
//	├── B
//	│   └── D
//	└── C
func testTree() []types.VirtualMachineSnapshotTree {
	return []types.VirtualMachineSnapshotTree{
		snapNode("A", "snap-a",
			snapNode("B", "snap-b",
				snapNode("D", "snap-d")),
			snapNode("C", "snap-c")),
	}
}

func TestFlattenSnapshotTree(t *testing.T) {
	flat := flattenSnapshotTree(testTree())
	names := make([]string, 0, len(flat))
	for _, n := range flat {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"A", "B", "D", "C"}, names)

	assert.Nil(t, flattenSnapshotTree(nil))
}

func TestFindSnapshotByName(t *testing.T) {
	tree := testTree()

	n := findSnapshotByName(tree, "D")
	require.NotNil(t, n)
	assert.Equal(t, "snap-d", n.Snapshot.Value)

	assert.Nil(t, findSnapshotByName(tree, "missing"))

	// Duplicate names resolve depth-first: the one under B shadows the
	// top-level sibling that comes later.
	dup := []types.VirtualMachineSnapshotTree{
		snapNode("A", "snap-a",
			snapNode("B", "snap-b",
				snapNode("X", "snap-deep")),
			snapNode("X", "snap-shallow")),
		snapNode("X", "snap-top"),
	}
	n = findSnapshotByName(dup, "X")
	require.NotNil(t, n)
	assert.Equal(t, "snap-deep", n.Snapshot.Value)
}

func TestFindSnapshotByRef(t *testing.T) {
	tree := testTree()

	n := findSnapshotByRef(tree, ref("VirtualMachineSnapshot", "snap-c"))
	require.NotNil(t, n)
	assert.Equal(t, "C", n.Name)

	assert.Nil(t, findSnapshotByRef(tree, ref("VirtualMachineSnapshot", "snap-z")))
}

func TestSnapshotsZeroQuery(t *testing.T) {
	// A zero query never contacts the endpoint, so it works disconnected.
	c := testClient()
	vm, err := NewVirtualMachine(c, ref("VirtualMachine", "vm-1"), "web")
	require.NoError(t, err)

	snaps, err := vm.Snapshots(context.Background(), SnapshotQuery{})
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestRemoveEachFirstFailureSticks(t *testing.T) {
	c := testClient()
	mk := func(name, id string) *Snapshot {
		s, err := NewSnapshot(c, types.VirtualMachineSnapshotTree{
			Snapshot: ref("VirtualMachineSnapshot", id),
			Vm:       ref("VirtualMachine", "vm-1"),
			Name:     name,
		})
		require.NoError(t, err)
		return s
	}
	snaps := []*Snapshot{mk("a", "snap-a"), mk("b", "snap-b"), mk("c", "snap-c")}
	ctx := context.Background()

	// The first removal is skipped, the remaining two succeed: later
	// successes must not mask the skip.
	skipped := map[string]bool{"a": true}
	var order []string
	ok, err := removeEach(ctx, snaps, func(_ context.Context, s *Snapshot) (bool, error) {
		order = append(order, s.Name())
		return !skipped[s.Name()], nil
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, order)

	ok, err = removeEach(ctx, snaps, func(context.Context, *Snapshot) (bool, error) {
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, ok)

	// An error aborts without touching the rest.
	order = nil
	boom := errors.New("remote broke")
	ok, err = removeEach(ctx, snaps, func(_ context.Context, s *Snapshot) (bool, error) {
		order = append(order, s.Name())
		if s.Name() == "b" {
			return false, boom
		}
		return true, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestRevertToRequiresSelector(t *testing.T) {
	c := testClient()
	vm, err := NewVirtualMachine(c, ref("VirtualMachine", "vm-1"), "web")
	require.NoError(t, err)

	ok, err := vm.RevertTo(context.Background(), "", false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = vm.RemoveSnapshots(context.Background(), "", false, false, false, false)
	require.NoError(t, err)
	assert.False(t, ok)
}
