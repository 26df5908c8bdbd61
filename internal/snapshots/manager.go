package snapshots

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/compare"
)

// Providers accepted by a refresh run.
const (
	ProviderAWS   = "aws"
	ProviderAzure = "azure"
)

var ErrNoProviders = errors.New("no valid providers requested")

var defaultRegionPairs = map[string]string{
	"us-east-1": "eastus",
	"us-west-2": "westus2",
	"eu-west-1": "northeurope",
}

// RunOptions selects what a refresh run fetches.
type RunOptions struct {
	Providers []string
	Regions   []string
	MaxPages  int
}

// Manager orchestrates snapshot refresh runs.
type Manager struct {
	aws     *AWSFetcher
	azure   *AzureFetcher
	runs    *RunLog
	timeout time.Duration
}

func NewManager(aws *AWSFetcher, azure *AzureFetcher, runs *RunLog) *Manager {
	return &Manager{
		aws:     aws,
		azure:   azure,
		runs:    runs,
		timeout: 30 * time.Minute,
	}
}

// StartRun records a run and refreshes snapshots in the background. The
// returned run is already persisted with status "running".
func (m *Manager) StartRun(ctx context.Context, opts RunOptions) (*Run, error) {
	providers, err := m.normalizeProviders(opts.Providers)
	if err != nil {
		return nil, err
	}
	opts.Providers = providers

	run, err := m.runs.CreateRun(ctx, opts.Providers, opts.Regions)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		m.execute(bgCtx, run.ID, opts)
	}()

	return run, nil
}

// RunOnce refreshes snapshots synchronously. Used by the worker and the cron
// scheduler.
func (m *Manager) RunOnce(ctx context.Context, opts RunOptions) (*Run, error) {
	providers, err := m.normalizeProviders(opts.Providers)
	if err != nil {
		return nil, err
	}
	opts.Providers = providers

	run, err := m.runs.CreateRun(ctx, opts.Providers, opts.Regions)
	if err != nil {
		return nil, err
	}
	m.execute(ctx, run.ID, opts)
	return m.runs.GetRun(ctx, run.ID)
}

// GetRun looks up a recorded run.
func (m *Manager) GetRun(ctx context.Context, id string) (*Run, error) {
	return m.runs.GetRun(ctx, id)
}

func (m *Manager) execute(ctx context.Context, runID string, opts RunOptions) {
	var (
		rowsAWS, rowsAzure int
		errs               []string
	)

	for _, provider := range opts.Providers {
		switch provider {
		case ProviderAWS:
			n, err := m.aws.Fetch(ctx, "", m.awsRegions(opts.Regions), opts.MaxPages)
			rowsAWS += n
			if err != nil {
				errs = append(errs, fmt.Sprintf("aws: %v", err))
			}
		case ProviderAzure:
			n, err := m.azure.Fetch(ctx, "", m.azureRegions(opts.Regions), opts.MaxPages)
			rowsAzure += n
			if err != nil {
				errs = append(errs, fmt.Sprintf("azure: %v", err))
			}
		}
	}

	if len(errs) > 0 {
		detail := strings.Join(errs, "; ")
		log.Printf("snapshot run %s failed: %s", runID, detail)
		if err := m.runs.MarkFailed(context.WithoutCancel(ctx), runID, detail); err != nil {
			log.Printf("snapshot run %s: record failure: %v", runID, err)
		}
		return
	}

	if err := m.runs.MarkCompleted(context.WithoutCancel(ctx), runID, rowsAWS, rowsAzure); err != nil {
		log.Printf("snapshot run %s: record completion: %v", runID, err)
		return
	}
	log.Printf("snapshot run %s completed: %d aws rows, %d azure rows", runID, rowsAWS, rowsAzure)
}

func (m *Manager) normalizeProviders(requested []string) ([]string, error) {
	if len(requested) == 0 {
		requested = []string{ProviderAWS, ProviderAzure}
	}

	var out []string
	for _, p := range requested {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case ProviderAWS:
			out = append(out, ProviderAWS)
		case ProviderAzure:
			out = append(out, ProviderAzure)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoProviders
	}
	return out, nil
}

// awsRegions keeps requested regions as-is, falling back to the defaults.
func (m *Manager) awsRegions(requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	out := make([]string, 0, len(defaultRegionPairs))
	for aws := range defaultRegionPairs {
		out = append(out, aws)
	}
	return out
}

// azureRegions maps requested AWS region codes to their Azure counterparts so
// a single region list drives both providers.
func (m *Manager) azureRegions(requested []string) []string {
	if len(requested) > 0 {
		out := make([]string, 0, len(requested))
		for _, r := range requested {
			out = append(out, mapRegionForAzure(r))
		}
		return out
	}
	out := make([]string, 0, len(defaultRegionPairs))
	for _, azure := range defaultRegionPairs {
		out = append(out, azure)
	}
	return out
}

func mapRegionForAzure(r string) string {
	return compare.MapAzureRegion(r, "")
}
