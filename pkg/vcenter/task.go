package vcenter

import (
	"context"
	"log/slog"
	"slices"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/progress"
	"github.com/vmware/govmomi/vim25/types"
)

// awaitTask starts an asynchronous remote operation and blocks until it
// reaches a terminal state. Faults in the tolerated set (NoPermission is
// always tolerated) are logged and surfaced as (false, nil); anything
// else propagates.
func (c *Client) awaitTask(ctx context.Context, op string, tolerated []types.BaseMethodFault,
	start func(context.Context) (*object.Task, error)) (bool, error) {
	if !c.Connected() {
		return false, ErrNotConnected
	}
	tolerated = append(slices.Clone(tolerated), &types.NoPermission{})

	t, err := start(ctx)
	if err != nil {
		return c.downgrade(op, err, tolerated)
	}

	var sink progress.Sinker
	if c.showProgress {
		sink = &taskProgress{logger: c.logger, op: op}
	}
	if _, err := t.WaitForResult(ctx, sink); err != nil {
		return c.downgrade(op, err, tolerated)
	}
	return true, nil
}

// downgrade maps tolerated remote faults to a boolean failure.
func (c *Client) downgrade(op string, err error, tolerated []types.BaseMethodFault) (bool, error) {
	if f, ok := toleratedFault(err, tolerated); ok {
		c.logger.Info("task failed", "op", op, "fault", faultName(f))
		return false, nil
	}
	return false, err
}

// taskProgress logs task progress reports through the client logger.
type taskProgress struct {
	logger *slog.Logger
	op     string
}

func (p *taskProgress) Sink() chan<- progress.Report {
	ch := make(chan progress.Report)
	go p.drain(ch)
	return ch
}

// drain logs start, percentage updates and completion until the task
// machinery closes the channel. Terminal errors surface via
// WaitForResult, so a failed task suppresses the completion line.
func (p *taskProgress) drain(ch <-chan progress.Report) {
	p.logger.Info("task started", "op", p.op)
	failed := false
	for r := range ch {
		if r.Error() != nil {
			failed = true
			continue
		}
		attrs := []any{"op", p.op, "percent", int(r.Percentage())}
		if d := r.Detail(); d != "" {
			attrs = append(attrs, "detail", d)
		}
		p.logger.Info("task progress", attrs...)
	}
	if !failed {
		p.logger.Info("task completed", "op", p.op)
	}
}
