package phonemize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/super-leedc/phonemizer/internal/text"
)

// dispatch phonemizes lines split into chunks for njobs workers and
// concatenates the chunk results in chunk order. The first failing chunk
// cancels the others and fails the whole call.
func (p *Phonemizer) dispatch(ctx context.Context, lines []string, njobs int) ([]string, error) {
	chunks := text.ChunkLines(lines, njobs)

	if p.log.Enabled(ctx, slog.LevelDebug) {
		p.log.DebugContext(ctx, "dispatching chunks",
			slog.String("job_id", uuid.NewString()),
			slog.Int("jobs", njobs),
			slog.Int("chunks", len(chunks)),
		)
	}

	worker := p.withoutLogging()

	results := make([][]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(njobs)

	for i, chunk := range chunks {
		input := text.JoinLines(chunk)
		g.Go(func() error {
			out, err := worker.phonemize(gctx, input)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i+1, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
