package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/resumeforge-web/internal/config"
	"github.com/jrsteele09/resumeforge-web/internal/fakebackend"
	"github.com/jrsteele09/resumeforge-web/server"
	"github.com/jrsteele09/resumeforge-web/users"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resumeforge",
	Short: "ResumeForge web frontend",
	Long: `resumeforge serves the ResumeForge job-seeker web application. It signs users in,
guards pages by session, gates AI tools by plan allowance and hands subscriptions
to the configured payment gateway. All data lives in the backend API.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := server.New(config.New())
		if err != nil {
			return err
		}
		for _, route := range s.Routes() {
			fmt.Fprintln(cmd.OutOrStdout(), route)
		}
		return nil
	},
}

var (
	fakeBackendAddr    string
	fakeBackendGateway string
	demoEmail          string
	demoPassword       string
)

var fakeBackendCmd = &cobra.Command{
	Use:   "fake-backend",
	Short: "Run an in-memory backend API for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(config.New())

		backend := fakebackend.New(fakebackend.WithGateway(fakeBackendGateway))
		if demoEmail != "" {
			if _, err := backend.CreateAccount("Demo User", demoEmail, demoPassword, users.PlanFree); err != nil {
				return fmt.Errorf("seed demo account: %w", err)
			}
			log.Info().Str("email", demoEmail).Msg("Demo account created")
		}

		httpServer := &http.Server{
			Addr:              fakeBackendAddr,
			Handler:           backend,
			ReadHeaderTimeout: 10 * time.Second,
		}
		return serveUntilStopped(httpServer)
	},
}

func init() {
	fakeBackendCmd.Flags().StringVar(&fakeBackendAddr, "addr", ":8080", "listen address")
	fakeBackendCmd.Flags().StringVar(&fakeBackendGateway, "gateway", "razorpay", "gateway named in created orders (razorpay or stripe)")
	fakeBackendCmd.Flags().StringVar(&demoEmail, "demo-email", "demo@example.com", "email of a seeded free-plan account, empty to skip")
	fakeBackendCmd.Flags().StringVar(&demoPassword, "demo-password", "Password123", "password of the seeded account")

	rootCmd.AddCommand(serveCmd, routesCmd, fakeBackendCmd)
}
