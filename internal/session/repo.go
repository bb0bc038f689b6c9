package session

import (
	"context"
	"fmt"

	"github.com/mind-engage/mindengage-perma/internal/bank"
)

type Store interface {
	Create(ctx context.Context, participant string, policy string) (Session, error)
	SaveAnswer(ctx context.Context, id, questionID string, value any) (Session, error)
	SaveAnswers(ctx context.Context, id string, answers map[string]any) (Session, error)
	Submit(ctx context.Context, id string) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	List(ctx context.Context, opts ListOpts) ([]Session, error)
}

// checkAnswers rejects ids the bank does not know. Values are kept raw:
// malformed values are the scorer's business and count as missing there.
func checkAnswers(b *bank.Bank, answers map[string]any) error {
	for qid := range answers {
		if _, _, ok := b.Lookup(qid); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownQuestion, qid)
		}
	}
	return nil
}

func clampList(opts ListOpts) ListOpts {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
