package cmd

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"scorelib/generate"
	"scorelib/observability"
	"scorelib/omr"
	"scorelib/omr/homrcli"
	"scorelib/server"
	"scorelib/weights"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recognition API over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

func serve() {
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := observability.NewStdLogger()

	opts := []omr.Option{
		omr.WithLogger(logger),
		omr.WithMaxDimension(cfg.MaxImageDimension),
	}
	if cfg.EngineCommand != "" {
		opts = append(opts, omr.WithEngine(homrcli.New(cfg.EngineCommand, cfg.EngineArgs...)))
	}
	if cfg.WeightsBucket != "" && len(cfg.WeightFiles) > 0 {
		opts = append(opts, omr.WithWeights(
			weights.NewManager(cfg.WeightsBucket, cfg.WeightsDir, cfg.WeightFiles, logger)))
	}

	processor := omr.NewProcessor(generate.DefaultPolicy(), opts...)
	srv := server.New(cfg, processor, logger)

	logger.Info("listening", observability.String("addr", cfg.Addr))
	log.Fatal(http.ListenAndServe(cfg.Addr, srv.Handler()))
}
