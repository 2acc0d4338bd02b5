package vcenter

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

// FindOptions narrows a retrieval call.
type FindOptions struct {
	// Names filters by display name. The underlying listing order is not
	// guaranteed stable; the first object matching each requested name
	// wins and the scan stops once every name has matched.
	Names []string
	// Root scopes the search to a subtree; nil means the service root.
	Root mo.Reference
	// All ignores Names and returns every instance of the kind.
	All bool
	// Raw requests raw govmomi objects instead of typed wrappers. The
	// global wrap policy takes precedence when it is not WrapPerCall.
	Raw bool
}

// retrieveEntities runs the container-view enumeration behind every
// retrieval call: list names of the requested kind under the root, then
// apply the name filter with early stop.
func (c *Client) retrieveEntities(ctx context.Context, kind string, opts *FindOptions) ([]mo.ManagedEntity, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}
	root := c.conn.ServiceContent.RootFolder
	if opts.Root != nil {
		root = opts.Root.Reference()
	}

	m := view.NewManager(c.vim())
	cv, err := m.CreateContainerView(ctx, root, []string{kind}, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create container view: %w", err)
	}
	defer func() { _ = cv.Destroy(ctx) }()

	var ents []mo.ManagedEntity
	if err := cv.Retrieve(ctx, []string{kind}, []string{"name"}, &ents); err != nil {
		return nil, fmt.Errorf("failed to retrieve %s objects: %w", kind, err)
	}

	if opts.All {
		return ents, nil
	}
	return selectByName(ents, opts.Names), nil
}

// selectByName keeps the first entity matching each requested name and
// stops scanning once every name has been matched once. Duplicates
// beyond the requested set are dropped.
func selectByName(ents []mo.ManagedEntity, names []string) []mo.ManagedEntity {
	if len(names) == 0 {
		return nil
	}
	pending := make(map[string]bool, len(names))
	for _, n := range names {
		pending[n] = true
	}
	var out []mo.ManagedEntity
	for _, ent := range ents {
		if pending[ent.Name] {
			out = append(out, ent)
			delete(pending, ent.Name)
			if len(pending) == 0 {
				break
			}
		}
	}
	return out
}

// Retrieve fetches objects of the given kind, honoring the wrap policy:
// wrapped results are the facade's typed wrappers, raw results are the
// govmomi object.* handles.
func (c *Client) Retrieve(ctx context.Context, kind Kind, opts *FindOptions) ([]Object, error) {
	if opts == nil {
		opts = &FindOptions{}
	}
	ents, err := c.retrieveEntities(ctx, string(kind), opts)
	if err != nil {
		return nil, err
	}

	wrap := c.wrapped(opts.Raw)
	out := make([]Object, 0, len(ents))
	for _, ent := range ents {
		if !wrap {
			out = append(out, rawObject(c, ent.Self))
			continue
		}
		obj, err := wrapReference(c, ent.Self, ent.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// Objects is the any-kind variant of Retrieve.
func (c *Client) Objects(ctx context.Context, opts *FindOptions) ([]Object, error) {
	return c.Retrieve(ctx, KindAny, opts)
}

// retrieveAs wraps retrieval results through a typed constructor.
func retrieveAs[T Object](ctx context.Context, c *Client, kind Kind, opts *FindOptions,
	wrap func(*Client, types.ManagedObjectReference, string) (T, error)) ([]T, error) {
	if opts == nil {
		opts = &FindOptions{}
	}
	ents, err := c.retrieveEntities(ctx, string(kind), opts)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(ents))
	for _, ent := range ents {
		obj, err := wrap(c, ent.Self, ent.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// VirtualMachines returns VMs by name or, with All, every VM under the root.
func (c *Client) VirtualMachines(ctx context.Context, opts *FindOptions) ([]*VirtualMachine, error) {
	return retrieveAs(ctx, c, KindVirtualMachine, opts, NewVirtualMachine)
}

// Datacenters returns datacenters by name or all of them.
func (c *Client) Datacenters(ctx context.Context, opts *FindOptions) ([]*Datacenter, error) {
	return retrieveAs(ctx, c, KindDatacenter, opts, NewDatacenter)
}

// Folders returns inventory folders by name or all of them.
func (c *Client) Folders(ctx context.Context, opts *FindOptions) ([]*Folder, error) {
	return retrieveAs(ctx, c, KindFolder, opts, NewFolder)
}

// VApps returns virtual applications by name or all of them.
func (c *Client) VApps(ctx context.Context, opts *FindOptions) ([]*VApp, error) {
	return retrieveAs(ctx, c, KindVApp, opts, NewVApp)
}

// Networks returns networks (including port groups) by name or all of them.
func (c *Client) Networks(ctx context.Context, opts *FindOptions) ([]*Network, error) {
	return retrieveAs(ctx, c, KindNetwork, opts, NewNetwork)
}

// Datastores returns datastores by name or all of them.
func (c *Client) Datastores(ctx context.Context, opts *FindOptions) ([]*Datastore, error) {
	return retrieveAs(ctx, c, KindDatastore, opts, NewDatastore)
}

// Hosts returns host systems by name or all of them.
func (c *Client) Hosts(ctx context.Context, opts *FindOptions) ([]*Host, error) {
	return retrieveAs(ctx, c, KindHost, opts, NewHost)
}

// ResourcePools returns resource pools (vApps included) by name or all
// of them.
func (c *Client) ResourcePools(ctx context.Context, opts *FindOptions) ([]*ResourcePool, error) {
	return retrieveAs(ctx, c, KindResourcePool, opts, NewResourcePool)
}

// Collapse applies c's collapse policy to a retrieval result. With the
// policy enabled, a single-element result collapses to that element and
// an empty result to the zero value, both with collapsed=true; longer
// results, and every result when the policy is off, pass through
// unchanged.
func Collapse[T any](c *Client, items []T) (single T, rest []T, collapsed bool) {
	var zero T
	if !c.collapse {
		return zero, items, false
	}
	switch len(items) {
	case 0:
		return zero, nil, true
	case 1:
		return items[0], nil, true
	default:
		return zero, items, false
	}
}
