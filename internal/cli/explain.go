package cli

import (
	"github.com/spf13/cobra"

	"github.com/sakif/repo-explainer/internal/server"
)

func newExplainCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "explain <github-url>",
		Short: "Explain one repository in the terminal",
		Example: `  repo-explainer explain https://github.com/spf13/cobra
  repo-explainer explain github.com/go-chi/chi --raw`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			explainer, err := server.NewExplainService(cfg, nil, logger)
			if err != nil {
				return err
			}
			res, err := explainer.Explain(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if raw {
				_, err = out.Write([]byte(res.Explanation.Text + "\n"))
				return err
			}
			_, err = out.Write([]byte(Render(res)))
			return err
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown without styling")
	return cmd
}
