package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/intervention-engine/cvrisk/assessments"
	"github.com/intervention-engine/cvrisk/config"
	"github.com/intervention-engine/cvrisk/history"
	"github.com/intervention-engine/cvrisk/logging"
	"github.com/intervention-engine/cvrisk/record"
	"github.com/intervention-engine/cvrisk/server"
	"github.com/intervention-engine/cvrisk/service"
	"github.com/intervention-engine/cvrisk/trend"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "cvrisk",
		Short:        "Cardiovascular risk aggregation service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML configuration file")
	root.AddCommand(newServeCmd(&configPath), newAssessCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "cvrisk")
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := history.Open(ctx, cfg.HistoryOptions())
	if err != nil {
		return err
	}
	defer repo.Close()
	logger.Info("history repository ready",
		zap.String("backend", cfg.History.Backend),
		zap.Int("retention", cfg.History.Retention))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rs := newRiskService(cfg, logger,
		service.WithRepository(repo),
		service.WithMetrics(service.NewMetrics(reg)))

	srv := server.New(rs, reg, cfg.Server.Debounce, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.Server.Addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRiskService(cfg *config.Config, logger *zap.Logger, opts ...service.Option) *service.ReferenceRiskService {
	opts = append([]service.Option{
		service.WithWeights(cfg.EnsembleWeights()),
		service.WithLifestyleWeight(cfg.Scoring.LifestyleWeight),
	}, opts...)
	rs := service.NewReferenceRiskService(logger, opts...)
	for _, est := range assessments.Defaults() {
		rs.RegisterPlugin(est)
	}
	return rs
}

type assessOptions struct {
	file        string
	historyFile string
	format      string
}

func newAssessCmd(configPath *string) *cobra.Command {
	opts := assessOptions{}
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess one patient record read as JSON",
		Long: "Assess reads a patient record as JSON from --file (or stdin) and prints the result.\n" +
			"--history names a JSON array of past snapshots used for the trend.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if opts.file != "" && opts.file != "-" {
				f, err := os.Open(opts.file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			var snaps []trend.Snapshot
			if opts.historyFile != "" {
				data, err := os.ReadFile(opts.historyFile)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &snaps); err != nil {
					return fmt.Errorf("decoding history: %w", err)
				}
			}
			rs := newRiskService(cfg, zap.NewNop())
			return runAssess(cmd.Context(), rs, in, cmd.OutOrStdout(), snaps, opts.format)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "patient record JSON file, - for stdin")
	cmd.Flags().StringVar(&opts.historyFile, "history", "", "JSON file of past snapshots")
	cmd.Flags().StringVarP(&opts.format, "output", "o", "json", "output format: json, text or dump")
	return cmd
}

func runAssess(ctx context.Context, rs service.RiskService, in io.Reader, out io.Writer, snaps []trend.Snapshot, format string) error {
	rec, err := decodeRecord(in)
	if err != nil {
		return err
	}
	var series *trend.Series
	if len(snaps) > 0 {
		series = trend.NewSeries(rec.SubjectID, 0)
		for _, s := range snaps {
			series.Append(s)
		}
	}
	res, err := rs.AssessWithHistory(ctx, rec, series)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "text":
		_, err := fmt.Fprintln(out, res.Explanation)
		return err
	case "dump":
		spew.Fdump(out, res)
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

var errEmptyInput = errors.New("no patient record on input")

func decodeRecord(in io.Reader) (*record.PatientRecord, error) {
	rec := &record.PatientRecord{}
	if err := json.NewDecoder(in).Decode(rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyInput
		}
		return nil, fmt.Errorf("decoding patient record: %w", err)
	}
	return rec, nil
}
