package vcenter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmware/govmomi/task"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"
)

func taskErr(f types.BaseMethodFault) error {
	return task.Error{
		LocalizedMethodFault: &types.LocalizedMethodFault{
			Fault:            f,
			LocalizedMessage: "remote fault",
		},
	}
}

func TestRemoteFault(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, remoteFault(nil))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Nil(t, remoteFault(errors.New("dial tcp: refused")))
	})

	t.Run("soap fault", func(t *testing.T) {
		err := soap.WrapVimFault(&types.InvalidLogin{})
		f := remoteFault(err)
		require.NotNil(t, f)
		assert.Equal(t, "InvalidLogin", faultName(f))
	})

	t.Run("task error", func(t *testing.T) {
		f := remoteFault(taskErr(&types.TaskInProgress{}))
		require.NotNil(t, f)
		assert.Equal(t, "TaskInProgress", faultName(f))
	})

	t.Run("wrapped task error", func(t *testing.T) {
		err := fmt.Errorf("power on failed: %w", taskErr(&types.InvalidPowerState{}))
		f := remoteFault(err)
		require.NotNil(t, f)
		assert.Equal(t, "InvalidPowerState", faultName(f))
	})
}

func TestFaultIs(t *testing.T) {
	cases := []struct {
		name string
		f    types.BaseMethodFault
		want types.BaseMethodFault
		is   bool
	}{
		{"exact", &types.TaskInProgress{}, &types.TaskInProgress{}, true},
		{"subtype", &types.InvalidPowerState{}, &types.InvalidState{}, true},
		{"not supertype", &types.InvalidState{}, &types.InvalidPowerState{}, false},
		{"runtime fault", &types.NoPermission{}, &types.RuntimeFault{}, true},
		{"runtime fault via chain", &types.ManagedObjectNotFound{}, &types.RuntimeFault{}, true},
		{"vim fault not runtime", &types.TaskInProgress{}, &types.RuntimeFault{}, false},
		{"unrelated", &types.InvalidName{}, &types.NotFound{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.is, faultIs(tc.f, tc.want))
		})
	}
}

func TestToleratedFault(t *testing.T) {
	tolerated := []types.BaseMethodFault{
		&types.RuntimeFault{},
		&types.InvalidState{},
	}

	f, ok := toleratedFault(taskErr(&types.InvalidPowerState{}), tolerated)
	assert.True(t, ok)
	assert.Equal(t, "InvalidPowerState", faultName(f))

	f, ok = toleratedFault(taskErr(&types.NoPermission{}), tolerated)
	assert.True(t, ok)
	assert.Equal(t, "NoPermission", faultName(f))

	f, ok = toleratedFault(taskErr(&types.TaskInProgress{}), tolerated)
	assert.False(t, ok)
	assert.Equal(t, "TaskInProgress", faultName(f))

	_, ok = toleratedFault(errors.New("not a fault"), tolerated)
	assert.False(t, ok)
}

func TestInvalidLoginClassification(t *testing.T) {
	err := soap.WrapVimFault(&types.InvalidLogin{})
	assert.True(t, faultIs(remoteFault(err), &types.InvalidLogin{}))

	other := soap.WrapVimFault(&types.NoPermission{})
	assert.False(t, faultIs(remoteFault(other), &types.InvalidLogin{}))
}
