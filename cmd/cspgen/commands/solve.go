package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gokancsp/internal/parallel"
	"github.com/gitrdm/gokancsp/internal/problem"
	"github.com/gitrdm/gokancsp/pkg/csp"
)

// solveResult is the outcome for one problem file.
type solveResult struct {
	File      string           `json:"file"`
	Name      string           `json:"name"`
	Backend   string           `json:"backend,omitempty"`
	Models    []map[string]any `json:"models"`
	Exhausted bool             `json:"exhausted"`
	Error     string           `json:"error,omitempty"`

	models []csp.Model
}

func newSolveCommand(g *globals) *cobra.Command {
	var (
		count   int
		negate  []int
		workers int
	)

	cmd := &cobra.Command{
		Use:   "solve FILE...",
		Short: "Enumerate the models of one or more problem files",
		Example: `  # All models of one problem
  cspgen solve sum.yaml

  # First two models of several problems, four at a time
  cspgen solve --count 2 --workers 4 problems/*.yaml

  # Negate the first constraint before solving
  cspgen solve --negate 0 sum.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers <= 0 {
				workers = g.cfg.Workers
			}
			caps, err := g.cfg.Capabilities()
			if err != nil {
				return err
			}

			results, err := parallel.Map(cmd.Context(), workers, args,
				func(ctx context.Context, _ int, path string) (solveResult, error) {
					return g.solveFile(ctx, caps, path, count, negate), nil
				})
			if err != nil {
				return err
			}

			if err := writeResults(cmd.OutOrStdout(), results, g.jsonOutput); err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Error != "" && !r.Exhausted {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d problems failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "maximum models per problem (0 for all)")
	cmd.Flags().IntSliceVar(&negate, "negate", nil, "toggle negation of the constraints at these indices")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "problems solved concurrently (default from config)")

	return cmd
}

// solveFile never fails: load and build errors are recorded on the result.
func (g *globals) solveFile(ctx context.Context, caps csp.Capabilities, path string, count int, negate []int) solveResult {
	res := solveResult{File: path, Models: []map[string]any{}}
	log := g.log.With().Str("file", path).Logger()

	f, err := problem.Load(path)
	if err != nil {
		res.Error = err.Error()
		log.Error().Err(err).Msg("load problem")
		return res
	}
	res.Name = f.Name

	p, err := f.Build(caps, csp.WithLogger(log), csp.WithMetrics(g.metrics.Metrics()))
	if err != nil {
		res.Error = err.Error()
		log.Error().Err(err).Msg("build problem")
		return res
	}
	res.Backend = p.Kind().String()
	for _, i := range negate {
		if err := p.NegateConstraint(i); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	for m, err := range p.All() {
		if err != nil {
			res.Error = err.Error()
			// A problem without solutions is a result, not a failure.
			if !errors.Is(err, csp.ErrNoSolution) {
				return res
			}
			break
		}
		res.models = append(res.models, m)
		res.Models = append(res.Models, modelMap(m))
		if (count > 0 && len(res.models) >= count) || ctx.Err() != nil {
			break
		}
	}
	res.Exhausted = p.Exhausted()
	if err := p.LastError(); err != nil {
		res.Error = err.Error()
		res.Exhausted = false
	}
	log.Info().Int("models", len(res.models)).Bool("exhausted", res.Exhausted).Msg("solved")
	return res
}

func modelMap(m csp.Model) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.Any()
	}
	return out
}

func writeResults(w io.Writer, results []solveResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "== %s", r.File)
		if r.Name != "" {
			fmt.Fprintf(&b, " (%s, %s)", r.Name, r.Backend)
		}
		b.WriteString(" ==\n")
		for _, m := range r.models {
			b.WriteString(m.String())
			b.WriteByte('\n')
		}
		switch {
		case r.Error != "" && !r.Exhausted:
			fmt.Fprintf(&b, "error: %s\n", r.Error)
		case r.Exhausted:
			fmt.Fprintf(&b, "%d model(s), exhausted\n", len(r.models))
		default:
			fmt.Fprintf(&b, "%d model(s)\n", len(r.models))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
