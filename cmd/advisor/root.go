package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	mcpadapter "github.com/couchcryptid/agri-advisory-service/internal/adapter/mcp"
	"github.com/couchcryptid/agri-advisory-service/internal/advisory"
	"github.com/couchcryptid/agri-advisory-service/internal/app"
	"github.com/couchcryptid/agri-advisory-service/internal/config"
	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	"github.com/couchcryptid/agri-advisory-service/internal/observability"
	"github.com/spf13/cobra"
)

// The collectors are process-global, so every command shares one set.
var metrics = sync.OnceValue(observability.NewMetrics)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "advisor",
		Short:        "Weather, soil, and crop advisories for a location",
		Version:      version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String("log-level", "warn", "Logging level: debug|info|warn|error. Logs go to stderr.")

	cmd.AddCommand(newLocationCmd(domain.KindWeather, "weather", "Current weather and farming advice",
		func(ctx context.Context, svc *advisory.Service, loc string) (any, error) {
			res, err := svc.GetWeather(ctx, loc)
			if err != nil {
				return nil, err
			}
			return domain.NewWeatherReport(res), nil
		}))
	cmd.AddCommand(newLocationCmd(domain.KindSoil, "soil", "Soil profile",
		func(ctx context.Context, svc *advisory.Service, loc string) (any, error) {
			return svc.GetSoil(ctx, loc)
		}))
	cmd.AddCommand(newLocationCmd(domain.KindCrop, "crops", "Crop recommendations",
		func(ctx context.Context, svc *advisory.Service, loc string) (any, error) {
			return svc.GetCropRecommendations(ctx, loc)
		}))
	cmd.AddCommand(newLocationCmd(domain.KindSoil, "farm", "Soil profile and crop recommendations together",
		func(ctx context.Context, svc *advisory.Service, loc string) (any, error) {
			return svc.GetFarmProfile(ctx, loc)
		}))
	cmd.AddCommand(newLastCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}

// withService loads configuration, builds the service, and releases it after fn.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *advisory.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg)

	a, err := app.New(cmd.Context(), cfg, logger, metrics())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	return fn(cmd.Context(), a.Service)
}

// newLocationCmd builds a command taking a free-text location. With no
// argument it reuses the last location remembered for recallKind.
func newLocationCmd(recallKind domain.Kind, use, short string, resolve func(context.Context, *advisory.Service, string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [location...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *advisory.Service) error {
				loc := strings.Join(args, " ")
				if len(args) == 0 {
					last, ok, err := svc.LastQuery(ctx, recallKind)
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("no location given and no previous %s location remembered", recallKind)
					}
					loc = last
				}
				v, err := resolve(ctx, svc, loc)
				if err != nil {
					return err
				}
				return printJSON(cmd, v)
			})
		},
	}
}

func newLastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last <kind>",
		Short: "Show the last location queried for weather, soil, or crop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *advisory.Service) error {
				q, ok, err := svc.LastQuery(ctx, kind)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no %s location remembered", kind)
				}
				return printJSON(cmd, map[string]string{"kind": string(kind), "location": q})
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <kind>",
		Short: "List past resolutions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			return withService(cmd, func(ctx context.Context, svc *advisory.Service) error {
				records, err := svc.History(ctx, kind, limit)
				if err != nil {
					return err
				}
				if records == nil {
					records = []domain.Resolution{}
				}
				return printJSON(cmd, records)
			})
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of resolutions to list")
	return cmd
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the advisories as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(_ context.Context, svc *advisory.Service) error {
				return mcpadapter.ServeStdio(mcpadapter.NewServer(svc, version))
			})
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
