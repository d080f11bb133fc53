package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"studentetl/internal/app"
	"studentetl/internal/metrics"
	"studentetl/internal/webui"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload page and the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := &c.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := c.validConfig(); err != nil {
				return err
			}
			scrape, err := app.SetupMetrics(cfg.Metrics, cfg.Job, true)
			if err != nil {
				return err
			}
			defer func() {
				if err := metrics.Flush(); err != nil {
					c.log.Warn("metrics flush failed", slog.Any("error", err))
				}
			}()

			srv := webui.NewServer(webui.Config{
				Addr:            cfg.Server.Addr,
				MaxUploadBytes:  cfg.Server.MaxUploadBytes,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				ExportFormat:    cfg.Export.Format,
				ExportBOM:       cfg.Export.BOM,
				Metrics:         scrape,
				Logger:          c.log,
			}, app.New(*cfg, c.log))
			return srv.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, :8080)")
	return cmd
}
