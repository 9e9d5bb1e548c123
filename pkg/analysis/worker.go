package analysis

import (
	"context"
	"fmt"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/batch"
)

// BatchWorker adapts the client to the batch engine's worker contract.
// A payload of the wrong type is reported as that item's failure, not
// a panic, so one malformed record cannot take down a batch.
func (c *Client) BatchWorker() batch.Worker {
	return func(ctx context.Context, item batch.Item) (any, error) {
		answer, ok := item.Payload.(WrongAnswer)
		if !ok {
			return nil, fmt.Errorf("unexpected payload type %T for item %s", item.Payload, item.ID)
		}
		return c.Analyze(ctx, answer)
	}
}

// Items converts wrong-answer records into batch items, using the
// answer ID as the batch identity so retries deduplicate correctly.
func Items(answers []WrongAnswer) []batch.Item {
	items := make([]batch.Item, len(answers))
	for i, answer := range answers {
		items[i] = batch.Item{ID: answer.ID, Payload: answer}
	}
	return items
}
