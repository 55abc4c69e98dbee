// Package main provides an MCP server exposing the zonelens cache to
// AI assistants over stdio. All tools are read-only: they query the local
// SQLite cache and never touch the Cloudflare API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/zonelens/zonelens/internal/config"
	"github.com/zonelens/zonelens/internal/storage"
	"github.com/zonelens/zonelens/internal/types"
	"github.com/zonelens/zonelens/internal/version"
	"github.com/zonelens/zonelens/pkg/chains"
)

func main() {
	// Parse CLI flags
	configPath := flag.StringP("config", "c", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("zonelens-mcp %s\n", version.Version)
		os.Exit(0)
	}

	// Load configuration; only the database path matters here.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	store, err := storage.NewSQLiteStorage(cfg.Db.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache")
	}
	defer store.Close()

	if err := store.Initialize(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache")
	}

	// Create MCP server with tool capabilities enabled
	s := server.NewMCPServer(
		"zonelens",
		version.Version,
		server.WithLogging(),
		server.WithToolCapabilities(true),
	)

	registerTools(s, store)

	// stdout carries the protocol; zerolog already writes to stderr.
	log.Info().Str("db", cfg.Db.Path).Msg("Starting MCP stdio server")
	if err := server.ServeStdio(s); err != nil {
		log.Fatal().Err(err).Msg("MCP server error")
	}
}

func registerTools(s *server.MCPServer, store storage.Storage) {
	// Register tool: list_zones
	listZonesTool := mcp.NewTool("list_zones",
		"List the cached Cloudflare zones with their record counts",
		map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	)
	s.AddTool(listZonesTool, func(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		ctx := context.Background()

		zones, err := store.ListZones(ctx)
		if err != nil {
			return errorResult(err), nil
		}
		counts, err := store.CountRecordsByZone(ctx)
		if err != nil {
			return errorResult(err), nil
		}

		result := make([]map[string]interface{}, len(zones))
		for i, z := range zones {
			result[i] = map[string]interface{}{
				"id":      z.ID,
				"name":    z.Name,
				"status":  z.Status,
				"records": counts[z.ID],
			}
		}
		return jsonResult(result)
	})

	// Register tool: list_records
	listRecordsTool := mcp.NewTool("list_records",
		"List cached DNS records, optionally filtered by zone name, record type or a search term matched against name and content",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"zone_name": map[string]interface{}{
					"type":        "string",
					"description": "Limit to one zone (e.g. example.com)",
				},
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Record type: A, AAAA, CNAME, TXT, MX, NS, SRV, CAA",
				},
				"search": map[string]interface{}{
					"type":        "string",
					"description": "Substring matched against record name and content",
				},
			},
		},
	)
	s.AddTool(listRecordsTool, func(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		ctx := context.Background()

		filter := storage.RecordFilter{}
		if v, ok := arguments["zone_name"].(string); ok {
			filter.ZoneName = v
		}
		if v, ok := arguments["type"].(string); ok {
			filter.Type = types.DNSRecordType(v)
		}
		if v, ok := arguments["search"].(string); ok {
			filter.Search = v
		}

		records, err := store.ListRecords(ctx, filter)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(map[string]interface{}{
			"records": records,
			"total":   len(records),
		})
	})

	// Register tool: analyze_chains
	analyzeChainsTool := mcp.NewTool("analyze_chains",
		"Resolve every cached CNAME chain and report how each one terminates (resolved, external, dangling or cycle)",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Resolve only the chain starting at this record name",
				},
				"zone_name": map[string]interface{}{
					"type":        "string",
					"description": "Limit results to one zone",
				},
				"terminal": map[string]interface{}{
					"type":        "string",
					"description": "Keep only chains with this terminal kind: resolved, external, dangling, cycle",
				},
			},
		},
	)
	s.AddTool(analyzeChainsTool, func(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		ctx := context.Background()

		records, err := store.ListRecords(ctx, storage.RecordFilter{})
		if err != nil {
			return errorResult(err), nil
		}
		flat := make([]types.DNSRecord, len(records))
		for i, r := range records {
			flat[i] = *r
		}
		set := chains.NewRecordSet(0, flat)

		var results []chains.Result
		if name, ok := arguments["name"].(string); ok && name != "" {
			results = chains.ResolveName(set, name)
		} else {
			results = chains.Resolve(set)
		}

		zone, _ := arguments["zone_name"].(string)
		terminal, _ := arguments["terminal"].(string)
		filtered := results[:0]
		for _, res := range results {
			if zone != "" && res.ZoneName != zone {
				continue
			}
			if terminal != "" && string(res.Terminal) != terminal {
				continue
			}
			filtered = append(filtered, res)
		}

		return jsonResult(map[string]interface{}{
			"chains":  filtered,
			"summary": chains.Summarize(filtered),
		})
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err), nil
	}
	return &mcp.CallToolResult{
		Content: []interface{}{mcp.NewTextContent(string(data))},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []interface{}{mcp.NewTextContent(fmt.Sprintf("Error: %v", err))},
	}
}
