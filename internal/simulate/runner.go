package simulate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/netrisk/pkg/logger"
)

// Run waits for the service, submits the generated load and verifies the
// audit log. A non-nil Report is returned whenever submission happened.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	cfg.defaults()
	log := logger.Named("simulate")
	start := time.Now()

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("count", cfg.Count),
		logger.Int("identifiers", cfg.Identifiers),
		logger.Int("workers", cfg.Workers),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("service not ready: %w", err)
	}

	txs := Generate(cfg)
	identifiers := make([]string, cfg.Identifiers)
	for i := range identifiers {
		identifiers[i] = Identifier(i)
	}

	baseline, err := historySizes(ctx, client, identifiers, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}

	rep := &Report{ByDecision: map[string]int{}}
	audited := make(map[string]map[string]Result, len(identifiers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, tx := range txs {
		g.Go(func() error {
			res, out, err := client.Evaluate(gctx, tx)

			mu.Lock()
			defer mu.Unlock()
			rep.Submitted++
			switch {
			case err != nil || out == OutcomeFailed:
				rep.Failed++
				log.Debug(gctx, "evaluation failed", logger.String("transactionId", tx.TransactionID), logger.Error(err))
			case out == OutcomeDuplicate:
				rep.Failed++
				rep.Violations = append(rep.Violations, tx.RequestID+": rejected as duplicate")
			default:
				rep.ByDecision[res.Decision]++
				rep.Violations = append(rep.Violations, checkResult(res, cfg.StepUp, cfg.Reject)...)
				if !res.Audited {
					rep.Unaudited++
					return nil
				}
				rep.Audited++
				if audited[res.Identifier] == nil {
					audited[res.Identifier] = map[string]Result{}
				}
				audited[res.Identifier][res.TransactionID] = res
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	log.Info(ctx, "submission completed",
		logger.Int("audited", rep.Audited),
		logger.Int("unaudited", rep.Unaudited),
		logger.Int("failed", rep.Failed),
	)

	for _, id := range identifiers {
		records, err := client.History(ctx, id, historyLimit)
		if err != nil {
			return rep, err
		}
		rep.Violations = append(rep.Violations, checkHistory(id, records, baseline[id], audited[id])...)
	}

	rep.Duration = time.Since(start)
	log.Info(ctx, "simulation finished",
		logger.Int("submitted", rep.Submitted),
		logger.Any("byDecision", rep.ByDecision),
		logger.Int("violations", len(rep.Violations)),
		logger.Duration("duration", rep.Duration),
	)
	if len(rep.Violations) > 0 {
		for _, v := range rep.Violations {
			log.Warn(ctx, "violation", logger.String("detail", v))
		}
		return rep, fmt.Errorf("%w: %d violations", ErrVerification, len(rep.Violations))
	}
	return rep, nil
}

// historySizes returns the current audit record count per identifier.
func historySizes(ctx context.Context, client *Client, identifiers []string, workers int) (map[string]int, error) {
	out := make(map[string]int, len(identifiers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range identifiers {
		g.Go(func() error {
			records, err := client.History(gctx, id, historyLimit)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = len(records)
			mu.Unlock()
			return nil
		})
	}
	return out, g.Wait()
}
