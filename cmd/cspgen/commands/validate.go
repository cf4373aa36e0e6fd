package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gokancsp/internal/problem"
	"github.com/gitrdm/gokancsp/pkg/csp"
)

func newValidateCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check problem files without solving them",
		Long: `Validate decodes each problem file, checks its structure, compiles every
relation and builds the CSP. Nothing is solved.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, err := g.cfg.Capabilities()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				p, err := buildFile(caps, path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
					g.log.Error().Err(err).Str("file", path).Msg("invalid problem")
					continue
				}
				fmt.Fprintf(out, "ok   %s: %s backend, %d constraint(s), %d variable(s)\n",
					path, p.Kind(), p.NumConstraints(), len(p.VarDomains()))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d problem files are invalid", failed, len(args))
			}
			return nil
		},
	}
}

func buildFile(caps csp.Capabilities, path string) (*csp.CSP, error) {
	f, err := problem.Load(path)
	if err != nil {
		return nil, err
	}
	return f.Build(caps)
}
