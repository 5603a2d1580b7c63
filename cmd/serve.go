package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/api"
	"github.com/khanhnv2901/cyberaudit/internal/checker"
	"github.com/khanhnv2901/cyberaudit/internal/report"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run cyberaudit as a REST API service",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		authToken, _ := cmd.Flags().GetString("auth-token")
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")
		scanTimeout, _ := cmd.Flags().GetDuration("scan-timeout")
		corsOrigins, _ := cmd.Flags().GetStringSlice("cors-origins")
		rateLimit, _ := cmd.Flags().GetInt("rate-limit")
		rateBurst, _ := cmd.Flags().GetInt("rate-burst")
		historyLimit, _ := cmd.Flags().GetInt("history-limit")

		// The API logs every request, so it always runs at info level or below.
		zl := logger.Desugar()
		if !debug {
			l, err := newServerLogger()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			zl = l
		}
		defer func() { _ = zl.Sync() }()

		repo, err := openHistory(cliConfig.History, resultsDir)
		if err != nil {
			return err
		}
		defer repo.Close()

		jobManager := api.NewJobManager()
		defer jobManager.Close()

		scanner := checker.NewScanner(checker.ScannerConfig{
			TLSTimeout:  cliConfig.Scan.TLSTimeout,
			PortTimeout: cliConfig.Scan.PortTimeout,
			HTTPTimeout: cliConfig.Scan.HTTPTimeout,
			DNSTimeout:  cliConfig.Scan.DNSTimeout,
			Nameservers: cliConfig.Scan.Nameservers,
			Parallel:    cliConfig.Scan.Parallel,
			Logger:      zl,
		})

		server := api.NewServer(api.Config{
			Scanner:      scanner,
			History:      repo,
			Jobs:         jobManager,
			Report:       report.Options{Brand: cliConfig.Report.Brand},
			AuthToken:    authToken,
			Logger:       zl,
			CORSOrigins:  corsOrigins,
			RateLimit:    rateLimit,
			RateBurst:    rateBurst,
			HistoryLimit: historyLimit,
			ScanTimeout:  scanTimeout,
		})

		httpServer := &http.Server{
			Addr:         addr,
			Handler:      server,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: scanTimeout + 30*time.Second,
			IdleTimeout:  120 * time.Second,
		}

		// Channel to listen for errors from the server
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("%s API server listening on %s (history: %s)\n", colorInfo("→"), addr, cliConfig.History.Driver)
			fmt.Printf("%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Printf("\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				// Force close if graceful shutdown fails
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}

			// Let in-flight asynchronous scans record their results before the store closes.
			server.Wait()
			fmt.Printf("%s Server shutdown complete\n", colorInfo("✓"))
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Address for the API server")
	serveCmd.Flags().String("auth-token", "", "Optional shared secret for API requests (X-Auth-Token)")
	serveCmd.Flags().Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	serveCmd.Flags().Duration("scan-timeout", 60*time.Second, "Upper bound for one scan (0 = request lifetime)")
	serveCmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (empty = allow all)")
	serveCmd.Flags().Int("rate-limit", 10, "Rate limit per IP (requests/second, 0 = disabled)")
	serveCmd.Flags().Int("rate-burst", 20, "Rate limit burst size")
	serveCmd.Flags().Int("history-limit", 0, "Default page size for GET /scans (0 = built-in default)")
}
