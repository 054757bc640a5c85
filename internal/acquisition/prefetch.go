package acquisition

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"bookscan/internal/book"
)

// PrefetchReport counts the outcome of a Prefetch run.
type PrefetchReport struct {
	Requested int
	Cached    int
	Fetched   int
	Failed    int
	// Errors maps each failed code to its user-facing message.
	Errors map[string]string
}

// Prefetch fills the shared book cache for codes without touching any
// inventory. Records already cached are left alone. A failure on one code
// does not stop the run; only context cancellation does.
func (s *Service) Prefetch(ctx context.Context, codes []string) (PrefetchReport, error) {
	report := PrefetchReport{Errors: map[string]string{}}
	seen := make(map[string]bool, len(codes))

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		key, err := book.CacheKey(code)
		if err != nil {
			report.Requested++
			report.Failed++
			report.Errors[code] = "Not a recognizable ISBN or UPC barcode."
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		report.Requested++

		log := s.logger.With(zap.String("isbn", key))
		_, hit, err := s.record(ctx, key, log)
		switch {
		case err == nil && hit:
			report.Cached++
		case err == nil:
			report.Fetched++
		default:
			report.Failed++
			msg := UserMessage(err)
			if msg == "" {
				msg = err.Error()
			}
			report.Errors[code] = msg
			if !errors.Is(err, ErrLookupFailed) {
				log.Error("prefetch failed", zap.Error(err))
			}
		}
	}

	s.logger.Info("prefetch finished",
		zap.Int("requested", report.Requested),
		zap.Int("cached", report.Cached),
		zap.Int("fetched", report.Fetched),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (r PrefetchReport) String() string {
	return fmt.Sprintf("%d requested, %d already cached, %d fetched, %d failed", r.Requested, r.Cached, r.Fetched, r.Failed)
}
