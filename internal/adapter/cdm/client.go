// Package cdm starts migration jobs on a Cloud Data Migration cluster.
package cdm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tanahair/water-harvest/internal/domain"
)

// Client implements pipeline.JobTrigger against the CDM REST API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	projectID  string
	clusterID  string
	jobName    string
	token      string
	logger     *slog.Logger
}

// NewClient creates a trigger client for one named job.
func NewClient(endpoint, projectID, clusterID, jobName, token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(endpoint, "/"),
		projectID:  projectID,
		clusterID:  clusterID,
		jobName:    jobName,
		token:      token,
		logger:     logger,
	}
}

// Start issues the job-start call. Anything but HTTP 200 is a failure; the
// response body is kept on the submission for the audit log.
func (c *Client) Start(ctx context.Context) (domain.JobSubmission, error) {
	url := fmt.Sprintf("%s/v1.1/%s/clusters/%s/cdm/job/%s/start",
		c.endpoint, c.projectID, c.clusterID, c.jobName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, strings.NewReader(`{"variables":{}}`))
	if err != nil {
		return domain.JobSubmission{}, fmt.Errorf("build start request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")
	req.Header.Set("X-Auth-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.JobSubmission{}, fmt.Errorf("start job %s: %w", c.jobName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.JobSubmission{}, fmt.Errorf("read start response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.JobSubmission{}, fmt.Errorf("start job %s: status %d: %s",
			c.jobName, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	c.logger.Debug("job start accepted", "job", c.jobName, "status", resp.StatusCode)
	return domain.JobSubmission{JobName: c.jobName, Body: body}, nil
}
