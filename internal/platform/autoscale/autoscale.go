// Package autoscale starts Cloud Run Job worker executions when the report
// queue backs up. The policy is a simple threshold table mapping queue depth
// to a desired consumer count; each job execution runs three consumer tasks.
package autoscale

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// consumersPerTask is how many queue consumers one job execution runs.
const consumersPerTask = 3

// Rule maps a minimum queue depth to the consumer count it warrants.
type Rule struct {
	Queue     int
	Consumers int
}

// DefaultRules is evaluated top-down; the first rule whose queue threshold is
// met and whose consumer target is not yet reached wins.
var DefaultRules = []Rule{
	{Queue: 700, Consumers: 15},
	{Queue: 300, Consumers: 12},
	{Queue: 100, Consumers: 9},
	{Queue: 50, Consumers: 6},
	{Queue: 1, Consumers: 3},
}

// ConsumersNeeded returns how many additional consumers the table calls for.
func ConsumersNeeded(queueDepth, running int, rules []Rule) int {
	for _, r := range rules {
		if queueDepth >= r.Queue && running < r.Consumers {
			return r.Consumers - running
		}
	}
	return 0
}

// TasksToStart converts a consumer deficit into job executions.
func TasksToStart(needed int) int {
	if needed <= 0 {
		return 0
	}
	return (needed + consumersPerTask - 1) / consumersPerTask
}

// Execution is the subset of the Cloud Run Jobs execution resource the scaler
// inspects.
type Execution struct {
	Name           string `json:"name"`
	CompletionTime string `json:"completionTime"`
	DeleteTime     string `json:"deleteTime"`
}

// Running reports whether the execution is still active.
func (e Execution) Running() bool {
	return e.CompletionTime == "" && e.DeleteTime == ""
}

// JobRunner abstracts the Cloud Run Jobs API for testing.
type JobRunner interface {
	ListExecutions(ctx context.Context, job string) ([]Execution, error)
	RunJob(ctx context.Context, job string) error
}

// JobsClient talks to the Cloud Run Admin API v2 using application default
// credentials (which cover the GCE metadata server when running on GCP).
type JobsClient struct {
	project string
	region  string
	client  *http.Client
	logger  zerolog.Logger
}

func NewJobsClient(ctx context.Context, project, region string, logger zerolog.Logger) (*JobsClient, error) {
	ts, err := google.DefaultTokenSource(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, fmt.Errorf("obtain token source: %w", err)
	}
	return &JobsClient{
		project: project,
		region:  region,
		client:  oauth2.NewClient(ctx, ts),
		logger:  logger,
	}, nil
}

func (c *JobsClient) jobURL(job, suffix string) string {
	return fmt.Sprintf("https://run.googleapis.com/v2/projects/%s/locations/%s/jobs/%s%s",
		c.project, c.region, job, suffix)
}

func (c *JobsClient) ListExecutions(ctx context.Context, job string) ([]Execution, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jobURL(job, "/executions?pageSize=10"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list executions: status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Executions []Execution `json:"executions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode executions: %w", err)
	}
	return payload.Executions, nil
}

func (c *JobsClient) RunJob(ctx context.Context, job string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.jobURL(job, ":run"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("run job: status %d: %s", resp.StatusCode, body)
	}
	c.logger.Info().Str("job", job).Str("region", c.region).Msg("triggered cloud run job")
	return nil
}

// Scaler applies the threshold table and starts job executions.
type Scaler struct {
	jobs   JobRunner
	job    string
	rules  []Rule
	logger zerolog.Logger
}

func NewScaler(jobs JobRunner, job string, rules []Rule, logger zerolog.Logger) *Scaler {
	if rules == nil {
		rules = DefaultRules
	}
	return &Scaler{jobs: jobs, job: job, rules: rules, logger: logger}
}

// Result summarizes one scaling decision.
type Result struct {
	QueueAvailable         int `json:"queueAvailable"`
	ConsumerRunning        int `json:"consumerRunning"`
	ConsumerNeedToActivate int `json:"consumerNeedToActivate"`
	TasksStarted           int `json:"tasksStarted"`
}

// Scale decides how many consumers are missing for the observed queue depth
// and starts the corresponding number of job executions.
func (s *Scaler) Scale(ctx context.Context, queueDepth, running int) (Result, error) {
	res := Result{QueueAvailable: queueDepth, ConsumerRunning: running}

	res.ConsumerNeedToActivate = ConsumersNeeded(queueDepth, running, s.rules)
	if res.ConsumerNeedToActivate == 0 {
		return res, nil
	}

	tasks := TasksToStart(res.ConsumerNeedToActivate)
	s.logger.Info().
		Int("queue", queueDepth).
		Int("running", running).
		Int("needed", res.ConsumerNeedToActivate).
		Int("tasks", tasks).
		Msg("activating report consumers")

	for i := 0; i < tasks; i++ {
		if err := s.jobs.RunJob(ctx, s.job); err != nil {
			return res, err
		}
		res.TasksStarted++
	}
	return res, nil
}

// EnsureStarted triggers one execution when none is currently running. Used
// at publish time so a freshly queued job has a consumer.
func (s *Scaler) EnsureStarted(ctx context.Context) error {
	executions, err := s.jobs.ListExecutions(ctx, s.job)
	if err != nil {
		return err
	}
	for _, e := range executions {
		if e.Running() {
			return nil
		}
	}
	return s.jobs.RunJob(ctx, s.job)
}
