// insights.go implements the "chimeractl stats" and "chimeractl logs"
// commands backed by the insights endpoints of the console API.
package main

import (
	"fmt"

	session "github.com/goliatone/go-console-session"
	"github.com/goliatone/go-console-session/client"
	"github.com/spf13/cobra"
)

var (
	insightsAppID string
	statsDays     int
	logsPage      int
	logsPageSize  int
	logsStatus    string
)

var statsCmd = &cobra.Command{
	Use:         "stats",
	Short:       "Show aggregated usage of an application",
	Annotations: map[string]string{routeAnnotation: session.RouteInsights},
	RunE:        runStats,
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List call logs",
	Long: `Logs lists one page of call logs, newest first. Filter by application
with --app-id and by outcome with --status success|failed.`,
	Annotations: map[string]string{routeAnnotation: session.RouteInsights},
	RunE:        runLogs,
}

func init() {
	for _, cmd := range []*cobra.Command{statsCmd, logsCmd} {
		cmd.Flags().StringVar(&insightsAppID, "app-id", "", "Application id, all applications when empty")
	}
	statsCmd.Flags().IntVar(&statsDays, "days", client.DefaultStatsDays, "Number of days to aggregate")

	logsCmd.Flags().IntVar(&logsPage, "page", client.DefaultPage, "Page number")
	logsCmd.Flags().IntVar(&logsPageSize, "page-size", client.DefaultPageSize, "Entries per page")
	logsCmd.Flags().StringVar(&logsStatus, "status", client.LogStatusAny, "Filter by status: success or failed")
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := app.API().GetAppStats(cmd.Context(), client.StatsQuery{
		AppID: insightsAppID,
		Days:  statsDays,
	})
	if err != nil {
		return fmt.Errorf("fetching stats: %w", app.expiredHint(err))
	}
	return app.render(stats)
}

type logPage struct {
	Page     int                 `json:"page" yaml:"page"`
	PageSize int                 `json:"page_size" yaml:"page_size"`
	Total    int64               `json:"total" yaml:"total"`
	HasMore  bool                `json:"has_more" yaml:"has_more"`
	Entries  []client.LogSummary `json:"entries" yaml:"entries"`
}

func runLogs(cmd *cobra.Command, args []string) error {
	q := client.LogQuery{
		Page:     logsPage,
		PageSize: logsPageSize,
		AppID:    insightsAppID,
		Status:   logsStatus,
	}.WithDefaults()

	logs, err := app.API().GetLogList(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("fetching logs: %w", app.expiredHint(err))
	}

	return app.render(logPage{
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    logs.Total,
		HasMore:  int64(q.Page*q.PageSize) < logs.Total,
		Entries:  logs.List,
	})
}
