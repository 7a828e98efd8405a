package datalab

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// SubmitOpts controls how a query is submitted to the query service.
type SubmitOpts struct {
	Out    string // VOS output path, e.g. "vos://survey/tile.csv"
	Format string // output format, e.g. "csv"
	Async  bool   // submit as an async job and return the job id
}

// Submit sends an ADQL query to the query service. For async submissions
// the returned string is the job id; for sync ones it is the result body.
func Submit(ctx context.Context, c *Client, adql string, opts SubmitOpts) (string, error) {
	params := url.Values{}
	params.Set("adql", adql)
	if opts.Out != "" {
		params.Set("out", opts.Out)
	}
	if opts.Format != "" {
		params.Set("fmt", opts.Format)
	}
	if opts.Async {
		params.Set("async", "true")
	}

	body, err := c.getBody(ctx, c.queryURL, "/query", params)
	if err != nil {
		return "", fmt.Errorf("submit query: %w", err)
	}
	if opts.Async && body == "" {
		return "", fmt.Errorf("submit query: no job id returned")
	}
	return body, nil
}

// SubmitSync runs a query synchronously and returns the result body. Used
// for small result sets such as prechecks.
func SubmitSync(ctx context.Context, c *Client, adql string) (string, error) {
	return Submit(ctx, c, adql, SubmitOpts{Format: "csv"})
}

// Terminal job phases reported by the query service.
var terminalPhases = map[string]bool{
	"COMPLETED": true,
	"FINISHED":  true,
	"DONE":      true,
	"ERROR":     true,
	"FAILED":    true,
	"ABORTED":   true,
}

// JobStatus returns the upper-cased phase of an async job.
func JobStatus(ctx context.Context, c *Client, jobID string) (string, error) {
	params := url.Values{}
	params.Set("jobid", jobID)
	body, err := c.getBody(ctx, c.queryURL, "/status", params)
	if err != nil {
		return "", fmt.Errorf("job %s status: %w", jobID, err)
	}
	return strings.ToUpper(body), nil
}

// TerminalPhase reports whether a job phase means the job has stopped.
func TerminalPhase(phase string) bool {
	return terminalPhases[strings.ToUpper(phase)]
}
