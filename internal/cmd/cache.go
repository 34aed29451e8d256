package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/RimvydasPet/tech-doc-assistant/internal/output"
	"github.com/RimvydasPet/tech-doc-assistant/internal/server/handlers"
)

var (
	cacheAddr   string
	cacheOutput string
	cacheRegion string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the running server's response cache",
	Long: `Inspect and clear the response cache of a running server.

The cache lives in the server process, so these commands talk to its
HTTP API rather than to local state.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-region cache hit statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(cacheOutput)
		if err != nil {
			return err
		}

		var stats handlers.CacheStatsResponse
		if err := serverGet(cmd.Context(), cacheAddr, "/api/cache/stats", &stats); err != nil {
			return err
		}

		if format == output.FormatJSON {
			rendered, err := output.RenderJSON(stats)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Region", "Enabled", "Entries", "Hits", "Misses", "Hit Rate"})
		for _, region := range stats.Regions {
			t.AppendRow(table.Row{
				region.Region,
				region.Enabled,
				region.Entries,
				region.Hits,
				region.Misses,
				fmt.Sprintf("%.1f%%", region.HitRate*100),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear one cache region or all of them",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/cache/clear"
		if region := strings.TrimSpace(cacheRegion); region != "" {
			path += "?region=" + url.QueryEscape(region)
		}

		var cleared handlers.CacheClearResponse
		if err := serverPost(cmd.Context(), cacheAddr, path, &cleared); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Cleared regions: %s\n", strings.Join(cleared.Cleared, ", "))
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheAddr, "addr", "http://localhost:8080", "base URL of the running server")
	cacheStatsCmd.Flags().StringVarP(&cacheOutput, "output", "o", "table", "output format: table, json")
	cacheClearCmd.Flags().StringVar(&cacheRegion, "region", "", "region to clear (default: all regions)")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func serverGet(ctx context.Context, addr, path string, out any) error {
	return serverDo(ctx, http.MethodGet, addr, path, out)
}

func serverPost(ctx context.Context, addr, path string, out any) error {
	return serverDo(ctx, http.MethodPost, addr, path, out)
}

// serverDo performs one admin API call against a running server.
func serverDo(ctx context.Context, method, addr, path string, out any) error {
	base := strings.TrimRight(strings.TrimSpace(addr), "/")
	if base == "" {
		return fmt.Errorf("server address is required")
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("reach server at %s: %w", base, err)
	}
	defer resp.Body.Close() // nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode server response: %w", err)
	}
	return nil
}
