package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-card/internal/api/http"
	"github.com/i474232898/weather-card/internal/scheduler"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "weather-card",
		Short:         "Taiwan weather card",
		Long:          "Shows current conditions and a short forecast for one Taiwanese city using CWA open data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(locationsCmd())
	rootCmd.AddCommand(useCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the weather card on the local HTTP shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(configFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.controller.Start(ctx); err != nil {
				log.Printf("ERROR: initial refresh failed: %v", err)
			}

			sched := scheduler.New(a.cfg.RefreshInterval, scheduler.RefresherFunc(func(ctx context.Context) error {
				_, err := a.controller.Refresh(ctx)
				return err
			}))
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			app := fiber.New(fiber.Config{
				AppName:               "weather-card",
				DisableStartupMessage: true,
				ReadTimeout:           10 * time.Second,
				WriteTimeout:          2 * a.cfg.CWA.Timeout,
				ErrorHandler:          httpapi.ErrorHandler,
			})

			app.Use(logger.New())
			app.Use(recover.New())

			app.Get("/health", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{
					"status":  "ok",
					"service": "weather-card",
					"city":    a.controller.City(),
					"loading": a.aggregator.IsLoading(),
				})
			})

			httpapi.RegisterRoutes(app, a.controller)

			go func() {
				log.Printf("INFO: listening on %s", a.cfg.HTTP.Addr)
				if err := app.Listen(a.cfg.HTTP.Addr); err != nil {
					log.Printf("fiber server stopped: %v", err)
					stop()
				}
			}()

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Printf("error during shutdown: %v", err)
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Fetch and print the card for the selected city",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(configFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.controller.Start(cmd.Context()); err != nil {
				return err
			}
			v, err := a.controller.View(time.Now())
			if err != nil {
				return err
			}
			return v.Render(cmd.OutOrStdout())
		},
	}
}

func locationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List selectable cities",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(configFile, false)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			for _, city := range a.table.Cities() {
				e, _ := a.table.Lookup(city)
				fmt.Fprintf(out, "%s\t%s\t%.4f,%.4f\n", e.City, e.Station, e.Latitude, e.Longitude)
			}
			return nil
		},
	}
}

func useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <city>",
		Short: "Select a city, save it and print its card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(configFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.controller.SelectCity(cmd.Context(), args[0])
			if err != nil {
				if v.City == "" {
					return err
				}
				log.Printf("ERROR: refresh failed: %v", err)
			}
			return v.Render(cmd.OutOrStdout())
		},
	}
}
