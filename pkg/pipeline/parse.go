package pipeline

import (
	"context"
	"os"

	"github.com/matzehuels/scorealign/pkg/cache"
	"github.com/matzehuels/scorealign/pkg/errors"
	"github.com/matzehuels/scorealign/pkg/score"
	"github.com/matzehuels/scorealign/pkg/signal"
)

// ReadScore returns the raw MusicXML of opts.
func ReadScore(opts Options) ([]byte, error) {
	if len(opts.Score) > 0 {
		return opts.Score, nil
	}
	data, err := os.ReadFile(opts.ScorePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeScoreLoad, err, "read %s", opts.ScorePath)
	}
	return data, nil
}

// LoadScore reads and parses the score of opts. It also returns the content
// hash used in cache keys.
func LoadScore(opts Options) (*score.Document, string, error) {
	data, err := ReadScore(opts)
	if err != nil {
		return nil, "", err
	}
	doc, err := score.ParseBytes(data)
	if err != nil {
		return nil, "", err
	}
	return doc, cache.Hash(data), nil
}

// LoadSignal fetches the level of opts from store. It returns nil when the
// run has no chart.
func LoadSignal(ctx context.Context, store *signal.Store, opts Options) (*signal.Table, error) {
	if store == nil || !opts.WantsSignal() {
		return nil, nil
	}
	return store.Load(ctx, opts.Level)
}
