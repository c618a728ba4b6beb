package publish

import (
	"context"

	"marketbeat/internal/market"

	"go.uber.org/multierr"
)

// Multi fans a snapshot out to every publisher. A failing sink does not
// stop the others; the failures come back combined.
type Multi []market.Publisher

func (m Multi) Publish(ctx context.Context, topic string, snapshot market.Snapshot) error {
	var err error
	for _, p := range m {
		if p == nil {
			continue
		}
		err = multierr.Append(err, p.Publish(ctx, topic, snapshot))
	}
	return err
}
