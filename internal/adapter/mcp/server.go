// Package mcp exposes the advisory resolver as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/agri-advisory-service/internal/advisory"
	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Advisor is the resolver surface the tools call into.
type Advisor interface {
	GetWeather(ctx context.Context, query string) (domain.Result[domain.WeatherAdvisory], error)
	GetSoil(ctx context.Context, query string) (domain.Result[domain.SoilAdvisory], error)
	GetCropRecommendations(ctx context.Context, query string) (domain.Result[[]domain.CropRecommendation], error)
	GetFarmProfile(ctx context.Context, query string) (advisory.FarmProfile, error)
	LastQuery(ctx context.Context, kind domain.Kind) (string, bool, error)
}

// NewServer creates an MCP server with one tool per advisory operation.
func NewServer(advisor Advisor, version string) *server.MCPServer {
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"agri-advisory",
		version,
		server.WithToolCapabilities(false),
	)

	addLocationTool(s, "get_weather",
		"Current weather for a location, with a one-line farming advice. Falls back to reference data when the live weather service is unavailable.",
		func(ctx context.Context, loc string) (any, error) {
			res, err := advisor.GetWeather(ctx, loc)
			if err != nil {
				return nil, err
			}
			return domain.NewWeatherReport(res), nil
		})
	addLocationTool(s, "get_soil",
		"Dominant soil type of a location, its characteristics and suitable crops.",
		func(ctx context.Context, loc string) (any, error) {
			return advisor.GetSoil(ctx, loc)
		})
	addLocationTool(s, "get_crop_recommendations",
		"Recommended crops for a location, each graded High, Medium, or Low.",
		func(ctx context.Context, loc string) (any, error) {
			return advisor.GetCropRecommendations(ctx, loc)
		})
	addLocationTool(s, "get_farm_profile",
		"Soil profile and crop recommendations for a location in one call.",
		func(ctx context.Context, loc string) (any, error) {
			return advisor.GetFarmProfile(ctx, loc)
		})
	addLastLocationTool(s, advisor)

	return s
}

// ServeStdio runs s over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func addLocationTool(s *server.MCPServer, name, description string, resolve func(context.Context, string) (any, error)) {
	tool := mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("Free-text location, e.g. a city, region, or country"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		loc, err := req.RequireString("location")
		if err != nil {
			return mcp.NewToolResultError("location is required"), nil
		}
		v, err := resolve(ctx, loc)
		if errors.Is(err, domain.ErrInvalidQuery) {
			return mcp.NewToolResultError("location must not be blank"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %v", name, err)), nil
		}
		return jsonResult(v)
	})
}

func addLastLocationTool(s *server.MCPServer, advisor Advisor) {
	tool := mcp.NewTool("last_location",
		mcp.WithDescription("The most recent location queried for an advisory kind."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Advisory kind"),
			mcp.Enum("weather", "soil", "crop"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("kind")
		if err != nil {
			return mcp.NewToolResultError("kind is required"), nil
		}
		kind, err := domain.ParseKind(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		q, ok, err := advisor.LastQuery(ctx, kind)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("last_location: %v", err)), nil
		}
		if !ok {
			return mcp.NewToolResultText(fmt.Sprintf("No %s location has been queried yet.", kind)), nil
		}
		return jsonResult(map[string]string{"kind": string(kind), "location": q})
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
