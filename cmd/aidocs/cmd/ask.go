package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/answer"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/retrieval"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/ui"
)

func newAskCmd() *cobra.Command {
	var entity string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question over the indexed documents",
		Long: `Ask retrieves the most relevant chunks and generates a grounded
answer with a local LLM. The answer cites its source documents.

Examples:
  aidocs ask "when is the registration renewal due?"
  aidocs ask "what inspections did this car have?" --entity 191-D-12345`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, strings.Join(args, " "), entity)
		},
	}

	cmd.Flags().StringVarP(&entity, "entity", "e", "", "Exact identifier to prioritize")

	return cmd
}

func runAsk(cmd *cobra.Command, question, entity string) error {
	ctx := cmd.Context()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	pipeline, err := app.newPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Close()

	result, err := pipeline.Run(ctx, retrieval.Query{
		Texts:  []string{question},
		Entity: entity,
	})
	if err != nil {
		return err
	}

	generator := answer.NewGenerator(answer.Config{
		Host:             app.cfg.Answer.Host,
		Model:            app.cfg.Answer.Model,
		Timeout:          app.cfg.Answer.Timeout,
		MaxContextChunks: app.cfg.Answer.MaxContextChunks,
	})
	defer generator.Close()

	ans, err := generator.Generate(ctx, question, result.Results)
	if err != nil {
		return err
	}

	ui.NewRenderer(cmd.OutOrStdout()).RenderAnswer(ans)
	return nil
}
