package client

import (
	"context"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Insights defaults and limits
const (
	DefaultStatsDays = 7
	DefaultPage      = 1
	DefaultPageSize  = 20
	MaxPageSize      = 100
)

// Log status filters
const (
	LogStatusAny     = ""
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
)

// StatsQuery selects the aggregated statistics of an application
type StatsQuery struct {
	AppID string `json:"app_id"`
	Days  int    `json:"days"`
}

// WithDefaults fills unset fields
func (q StatsQuery) WithDefaults() StatsQuery {
	if q.Days == 0 {
		q.Days = DefaultStatsDays
	}
	return q
}

// Validate will run validation rules
func (q StatsQuery) Validate() error {
	return validateQuery(func() error {
		return validation.ValidateStruct(&q,
			validation.Field(
				&q.Days,
				validation.Required,
				validation.Min(1),
			),
		)
	}, "invalid stats query")
}

// Values encodes the query string. app_id is omitted when empty.
func (q StatsQuery) Values() url.Values {
	v := url.Values{}
	if q.AppID != "" {
		v.Set("app_id", q.AppID)
	}
	v.Set("days", strconv.Itoa(q.Days))
	return v
}

// DailyMetric is one day of usage
type DailyMetric struct {
	Date   string `json:"date" yaml:"date"`
	Tokens int64  `json:"tokens" yaml:"tokens"`
	Calls  int64  `json:"calls" yaml:"calls"`
}

// AppStats is the aggregated usage of an application
type AppStats struct {
	TotalCalls    int64         `json:"total_calls" yaml:"total_calls"`
	TotalTokens   int64         `json:"total_tokens" yaml:"total_tokens"`
	AvgDurationMS float64       `json:"avg_duration_ms" yaml:"avg_duration_ms"`
	DailyStats    []DailyMetric `json:"daily_stats" yaml:"daily_stats"`
}

// LogQuery selects a page of call logs
type LogQuery struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	AppID    string `json:"app_id"`
	Status   string `json:"status"`
}

// WithDefaults fills unset fields
func (q LogQuery) WithDefaults() LogQuery {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	return q
}

// Validate will run validation rules
func (q LogQuery) Validate() error {
	return validateQuery(func() error {
		return validation.ValidateStruct(&q,
			validation.Field(
				&q.Page,
				validation.Required,
				validation.Min(1),
			),
			validation.Field(
				&q.PageSize,
				validation.Required,
				validation.Min(1),
				validation.Max(MaxPageSize),
			),
			validation.Field(
				&q.Status,
				validation.In(LogStatusSuccess, LogStatusFailed),
			),
		)
	}, "invalid log query")
}

// Values encodes the query string. Empty filters are omitted.
func (q LogQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("page_size", strconv.Itoa(q.PageSize))
	if q.AppID != "" {
		v.Set("app_id", q.AppID)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	return v
}

// LogSummary is one call log entry
type LogSummary struct {
	ID          int64  `json:"id" yaml:"id"`
	TraceID     string `json:"trace_id" yaml:"trace_id"`
	AppID       string `json:"app_id" yaml:"app_id"`
	User        string `json:"user" yaml:"user"`
	Query       string `json:"query" yaml:"query"`
	Answer      string `json:"answer" yaml:"answer"`
	TotalTokens int64  `json:"total_tokens" yaml:"total_tokens"`
	DurationMS  int64  `json:"duration_ms" yaml:"duration_ms"`
	Status      string `json:"status" yaml:"status"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

// LogList is a page of call logs
type LogList struct {
	Total int64        `json:"total" yaml:"total"`
	List  []LogSummary `json:"list" yaml:"list"`
}

// GetAppStats fetches aggregated statistics. Days defaults to 7.
func (c *Client) GetAppStats(ctx context.Context, q StatsQuery) (*AppStats, error) {
	q = q.WithDefaults()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	out := &AppStats{}
	if err := c.Get(ctx, "/stats", q.Values(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLogList fetches a page of call logs. Page defaults to 1 and page size
// to 20.
func (c *Client) GetLogList(ctx context.Context, q LogQuery) (*LogList, error) {
	q = q.WithDefaults()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	out := &LogList{}
	if err := c.Get(ctx, "/logs", q.Values(), out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateQuery(fn func() error, msg string) error {
	verr := goerrors.ValidateWithOzzo(fn, msg)
	if verr != nil {
		return verr.WithTextCode(TextCodeValidation)
	}
	return nil
}
