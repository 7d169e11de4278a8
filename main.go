package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/giygas/pharmacy-api/config"
	"github.com/giygas/pharmacy-api/data"
	"github.com/giygas/pharmacy-api/extractor"
	"github.com/giygas/pharmacy-api/handlers"
	"github.com/giygas/pharmacy-api/health"
	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/pharmacy"
	"github.com/giygas/pharmacy-api/referencedata"
	"github.com/giygas/pharmacy-api/scheduler"
	"github.com/giygas/pharmacy-api/server"
	"github.com/giygas/pharmacy-api/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pharmacy-api",
		Short:        "Pharmacy inventory, recommendation and prescription API",
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Log at info level even in the test environment")
	root.PersistentFlags().String("data-dir", "", "Directory overriding the embedded reference tables")

	root.AddCommand(serveCmd())
	root.AddCommand(extractCmd())
	root.AddCommand(stockCmd())
	root.AddCommand(recommendCmd())

	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			return runServer(verbose, dataDir)
		},
	}
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract medications from prescription text read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open prescription: %w", err)
				}
				defer f.Close()
				in = f
			}

			raw, err := io.ReadAll(io.LimitReader(in, validation.MaxPrescriptionTextLength+1))
			if err != nil {
				return fmt.Errorf("failed to read prescription: %w", err)
			}
			text, err := referencedata.DecodeText(raw)
			if err != nil {
				return err
			}

			validator := validation.NewDataValidator()
			if err := validator.ValidatePrescriptionText(text); err != nil {
				return err
			}

			service, err := newOfflineService(cmd)
			if err != nil {
				return err
			}

			meds := service.ExtractPrescription(text)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"medications": meds,
				"count":       len(meds),
			})
		},
	}
}

func stockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stock <medication>",
		Short: "Look up the stock of a medication",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if err := validation.NewDataValidator().ValidateInput(query); err != nil {
				return err
			}

			service, err := newOfflineService(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), service.CheckStock(query))
		},
	}
}

func recommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend <diagnosis>",
		Short: "Recommend medications for a diagnosis",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diagnosis := strings.Join(args, " ")
			if err := validation.NewDataValidator().ValidateInput(diagnosis); err != nil {
				return err
			}

			service, err := newOfflineService(cmd)
			if err != nil {
				return err
			}

			meds := service.RecommendMedications(diagnosis)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"diagnosis":   diagnosis,
				"medications": meds,
			})
		},
	}
}

// newOfflineService loads the reference tables once for a single command.
// Logs go to stderr so stdout carries only JSON.
func newOfflineService(cmd *cobra.Command) (*pharmacy.Service, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	logging.InitLoggerWithOptions(logging.Options{ConsoleLevel: level, Console: cmd.ErrOrStderr()})

	store, err := loadStore(dataDir)
	if err != nil {
		return nil, err
	}
	return pharmacy.NewService(store, extractor.New()), nil
}

func loadStore(dataDir string) (*data.DataContainer, error) {
	snapshot, err := referencedata.NewLoader(dataDir).Load()
	if err != nil {
		return nil, err
	}

	validator := validation.NewDataValidator()
	if err := validator.ValidateSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("reference data rejected: %w", err)
	}

	store := data.NewDataContainer()
	store.UpdateData(snapshot, validator.ReportDataQuality(snapshot))
	return store, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadEnv reads .env from the working directory, then from the executable's directory
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		return
	}
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load(filepath.Join(filepath.Dir(ex), ".env"))
}

func runServer(verbose bool, dataDir string) error {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Configuration error:", err)
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	logging.InitFromConfig(cfg, verbose)
	defer logging.Close()

	store := data.NewDataContainer()
	store.SetServerStartTime(time.Now())

	validator := validation.NewDataValidator()
	reloads := scheduler.NewScheduler(store, referencedata.NewLoader(cfg.DataDir), validator, cfg.ReloadSchedule())
	if err := reloads.Start(); err != nil {
		return err
	}
	defer reloads.Stop()

	var service interfaces.PharmacyService = pharmacy.NewService(store, extractor.New())
	checker := health.NewHealthChecker(store, cfg.ReloadTimes)
	handler := handlers.NewHTTPHandler(store, service, validator, checker)
	srv := server.NewServer(cfg, handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
