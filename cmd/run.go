package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/zvezda-crawler/internal/app"
	"github.com/JakeFAU/zvezda-crawler/internal/config"
	"github.com/JakeFAU/zvezda-crawler/internal/logging"
	"github.com/JakeFAU/zvezda-crawler/internal/metrics"
)

// pipeline is the part of *app.App the run command drives.
type pipeline interface {
	Run(ctx context.Context) (app.RunReport, error)
}

// newPipeline is a variable so tests can swap in a stub.
var newPipeline = func(cfg config.Config, logger *zap.Logger) (pipeline, error) {
	return app.New(cfg, logger)
}

// newRunCmd creates the 'run' subcommand.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Crawl for article links, then parse every article",
		Args:  cobra.NoArgs,
		RunE:  runPipeline,
	}
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		bootLogger, lerr := logging.New(logging.Config{})
		if lerr == nil {
			bootLogger.Error("invalid configuration",
				zap.String("path", cfgFile),
				zap.String("kind", configErrorKind(err)),
				zap.Error(err),
			)
			_ = bootLogger.Sync()
		}
		return err
	}

	logger, err := logging.New(logging.Config{Development: cfg.Logging.Development, Level: cfg.Logging.Level})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	ctx := cmd.Context()
	if cfg.Metrics.ListenAddr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.Metrics.ListenAddr, logger); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	p, err := newPipeline(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize pipeline", zap.Error(err))
		return err
	}

	report, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted", zap.Error(err))
		} else {
			logger.Error("run failed", zap.Error(err))
		}
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d articles found, %d succeeded, %d failed, %d seeds skipped\n",
		report.RunID, report.ArticlesFound, len(report.Succeeded), len(report.Failed), report.SeedsSkipped)
	return err
}

func configErrorKind(err error) string {
	switch {
	case errors.Is(err, config.ErrIncorrectURL):
		return "IncorrectURL"
	case errors.Is(err, config.ErrIncorrectArticleCount):
		return "IncorrectArticleCount"
	case errors.Is(err, config.ErrArticleCountOutOfRange):
		return "ArticleCountOutOfRange"
	default:
		return "UnknownConfig"
	}
}
