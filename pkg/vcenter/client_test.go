package vcenter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointURL(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{
			name: "bare host",
			cfg:  Config{Host: "vc.example.com", Port: 443},
			want: "https://vc.example.com:443/sdk",
		},
		{
			name: "bare host custom port",
			cfg:  Config{Host: "vc.example.com", Port: 9443},
			want: "https://vc.example.com:9443/sdk",
		},
		{
			name: "full url gets sdk path and port",
			cfg:  Config{Host: "https://vc.example.com", Port: 443},
			want: "https://vc.example.com:443/sdk",
		},
		{
			name: "full url keeps explicit port and path",
			cfg:  Config{Host: "https://vc.example.com:8443/custom", Port: 443},
			want: "https://vc.example.com:8443/custom",
		},
		{
			name:    "http scheme rejected",
			cfg:     Config{Host: "http://vc.example.com", Port: 443},
			wantErr: true,
		},
		{
			name:    "garbage url",
			cfg:     Config{Host: "https://bad::url", Port: 443},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Username = "user"
			tc.cfg.Password = "pass"
			u, err := endpointURL(&tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user", u.User.Username())
			u.User = nil
			assert.Equal(t, tc.want, u.String())
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(&Config{Host: "vc.example.com", Username: "u", Password: "p"})
	assert.Equal(t, 443, c.cfg.Port)
	assert.NotNil(t, c.logger)
	assert.Equal(t, WrapPerCall, c.WrapPolicy())
	assert.False(t, c.CollapsePolicy())
	assert.False(t, c.Connected())
	assert.Nil(t, c.Service())
}

func TestSetWrapPolicy(t *testing.T) {
	c := testClient()

	p, err := c.SetWrapPolicy(WrapAlways)
	require.NoError(t, err)
	assert.Equal(t, WrapAlways, p)

	// Out-of-range values keep the prior policy in effect.
	p, err = c.SetWrapPolicy(WrapPolicy(42))
	assert.ErrorIs(t, err, ErrInvalidPolicy)
	assert.Equal(t, WrapAlways, p)
	assert.Equal(t, WrapAlways, c.WrapPolicy())

	p, err = c.SetWrapPolicy(WrapPolicy(-1))
	assert.ErrorIs(t, err, ErrInvalidPolicy)
	assert.Equal(t, WrapAlways, p)
}

func TestWrappedMatrix(t *testing.T) {
	c := testClient()

	_, err := c.SetWrapPolicy(WrapPerCall)
	require.NoError(t, err)
	assert.True(t, c.wrapped(false))
	assert.False(t, c.wrapped(true))

	_, err = c.SetWrapPolicy(WrapAlways)
	require.NoError(t, err)
	assert.True(t, c.wrapped(false))
	assert.True(t, c.wrapped(true))

	_, err = c.SetWrapPolicy(WrapNever)
	require.NoError(t, err)
	assert.False(t, c.wrapped(false))
	assert.False(t, c.wrapped(true))
}

func TestCollapse(t *testing.T) {
	c := testClient()
	items := []string{"a", "b"}

	// Policy off: everything passes through untouched.
	single, rest, collapsed := Collapse(c, items)
	assert.False(t, collapsed)
	assert.Empty(t, single)
	assert.Equal(t, items, rest)

	assert.True(t, c.SetCollapsePolicy(true))

	single, rest, collapsed = Collapse(c, []string{"only"})
	assert.True(t, collapsed)
	assert.Equal(t, "only", single)
	assert.Nil(t, rest)

	single, rest, collapsed = Collapse(c, []string(nil))
	assert.True(t, collapsed)
	assert.Empty(t, single)
	assert.Nil(t, rest)

	single, rest, collapsed = Collapse(c, items)
	assert.False(t, collapsed)
	assert.Empty(t, single)
	assert.Equal(t, items, rest)

	assert.False(t, c.SetCollapsePolicy(false))
}

func TestDisconnectIdempotent(t *testing.T) {
	c := testClient()
	ctx := context.Background()
	require.NoError(t, c.Disconnect(ctx))
	require.NoError(t, c.Disconnect(ctx))
}

func TestNotConnectedErrors(t *testing.T) {
	c := testClient()
	ctx := context.Background()

	_, err := c.Retrieve(ctx, KindVirtualMachine, &FindOptions{All: true})
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = c.VirtualMachines(ctx, &FindOptions{All: true})
	assert.ErrorIs(t, err, ErrNotConnected)

	vm, err := NewVirtualMachine(c, ref("VirtualMachine", "vm-1"), "web")
	require.NoError(t, err)

	_, err = vm.PowerState(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = vm.PowerOn(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = vm.Shutdown(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = vm.Snapshots(ctx, SnapshotQuery{All: true})
	assert.ErrorIs(t, err, ErrNotConnected)
}
