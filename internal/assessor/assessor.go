/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package assessor loads a primary and a reference dataset, scores them and
// assembles the result into an Assessment.
package assessor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/dataset"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/genai"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/profile"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/quality"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/source"
)

type Service struct {
	dbAdapter source.TableLoader
	llmClient genai.LLMClient
	logger    *zap.Logger
	retry     RetryOptions
}

type Config struct {
	// Logger defaults to the global zap logger.
	Logger *zap.Logger
	// Retry defaults to DefaultRetryOptions.
	Retry RetryOptions
}

// NewService builds a Service. db serves table: sources and llm the
// optional summary; either may be nil.
func NewService(db source.TableLoader, llm genai.LLMClient, cfg Config) *Service {
	s := &Service{
		dbAdapter: db,
		llmClient: llm,
		logger:    cfg.Logger,
		retry:     cfg.Retry,
	}
	if s.logger == nil {
		s.logger = zap.L()
	}
	if s.retry.MaxAttempts <= 0 {
		s.retry = DefaultRetryOptions
	}
	return s
}

type AssessParams struct {
	// Primary is the dataset being assessed.
	Primary string
	// Reference is compared against Primary for Accuracy and Consistency.
	// When empty, Primary is compared with itself.
	Reference string
	// Source bounds both loads. Columns applies to Primary only.
	Source source.Options
	// Scoring selects metrics and the failure mode.
	Scoring quality.Options
	// WithProfile adds dataset statistics and alerts.
	WithProfile bool
	// WithSummary asks the LLM for a narrative; requires an LLM client.
	WithSummary bool
	// AdditionalContext is appended to the facts sent to the LLM.
	AdditionalContext string
}

// Assessment is the outcome of one Assess call.
type Assessment struct {
	Dataset      string
	Reference    string
	Stats        *profile.Stats
	Alerts       []profile.Alert
	Scores       *quality.ScoreTable
	ColumnErrors map[string]error
	Averages     []quality.MetricAverage
	Overall      float64
	Summary      *genai.Summary
	Duration     time.Duration
}

// Assess loads both datasets, scores every column of the primary and
// aggregates the result. Load and scoring errors are returned; summary
// failures are logged and leave Summary nil.
func (s *Service) Assess(ctx context.Context, params AssessParams) (*Assessment, error) {
	startTime := time.Now()
	if strings.TrimSpace(params.Primary) == "" {
		return nil, &ErrInvalidInput{Msg: "primary dataset is required", Err: fmt.Errorf("empty source")}
	}
	if params.WithSummary && s.llmClient == nil {
		return nil, &ErrInvalidInput{Msg: "summary requested", Err: fmt.Errorf("no LLM client configured")}
	}
	s.logger.Info("Starting quality assessment",
		zap.String("primary", params.Primary),
		zap.String("reference", params.Reference))

	primary, reference, err := s.loadPair(ctx, params)
	if err != nil {
		return nil, err
	}

	scores, err := quality.CalculateScores(primary, reference, params.Scoring)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate scores: %w", err)
	}
	for col, colErr := range scores.ColumnErrors {
		s.logger.Warn("Column could not be fully scored", zap.String("column", col), zap.Error(colErr))
	}

	a := &Assessment{
		Dataset:      primary.Name(),
		Reference:    reference.Name(),
		Scores:       scores.Table,
		ColumnErrors: scores.ColumnErrors,
		Averages:     quality.MetricAverages(scores.Table),
		Overall:      quality.OverallQualityScore(scores.Table),
	}
	if params.WithProfile {
		stats := profile.Describe(primary)
		a.Stats = &stats
		a.Alerts = profile.Alerts(primary)
	}
	if params.WithSummary {
		facts := Facts(a)
		if params.AdditionalContext != "" {
			facts += "\nAdditional Context:" + params.AdditionalContext + "\n"
		}
		summary, sumErr := s.llmClient.SummarizeQuality(ctx, a.Dataset, facts)
		if sumErr != nil {
			s.logger.Warn("Failed to generate quality summary via LLM", zap.Error(sumErr))
		} else {
			a.Summary = &summary
		}
	}

	a.Duration = time.Since(startTime)
	s.logger.Info("Quality assessment completed",
		zap.String("dataset", a.Dataset),
		zap.Float64("overall", a.Overall),
		zap.Int("columns", a.Scores.Len()),
		zap.Duration("elapsed", a.Duration))
	return a, nil
}

// loadPair loads the primary and reference datasets concurrently.
func (s *Service) loadPair(ctx context.Context, params AssessParams) (*dataset.Dataset, *dataset.Dataset, error) {
	refURI := params.Reference
	if refURI == "" {
		s.logger.Warn("No reference dataset given; comparing the primary dataset with itself")
	}

	primaryOpts := params.Source
	primaryOpts.DB = s.dbAdapter
	refOpts := primaryOpts
	refOpts.Columns = nil

	var (
		wg                 sync.WaitGroup
		primary, reference *dataset.Dataset
	)
	errorChannel := make(chan error, 2)

	load := func(uri string, opts source.Options, dst **dataset.Dataset) {
		defer wg.Done()
		ds, err := s.load(ctx, uri, opts)
		if err != nil {
			s.logger.Error("Failed to load dataset", zap.String("source", uri), zap.Error(err))
			errorChannel <- err
			return
		}
		*dst = ds
	}

	wg.Add(1)
	go load(params.Primary, primaryOpts, &primary)
	if refURI != "" {
		wg.Add(1)
		go load(refURI, refOpts, &reference)
	}
	wg.Wait()
	close(errorChannel)

	var errs []string
	var first error
	for err := range errorChannel {
		if first == nil {
			first = err
		}
		errs = append(errs, err.Error())
	}
	switch len(errs) {
	case 0:
	case 1:
		return nil, nil, first
	default:
		return nil, nil, fmt.Errorf("encountered %d error(s) while loading datasets:\n- %s",
			len(errs), strings.Join(errs, "\n- "))
	}

	if reference == nil {
		reference = primary
	}
	return primary, reference, nil
}

func (s *Service) load(ctx context.Context, uri string, opts source.Options) (*dataset.Dataset, error) {
	return withRetry(ctx, s.logger, s.retry, func(ctx context.Context) (*dataset.Dataset, error) {
		ds, err := source.Load(ctx, uri, opts)
		if err != nil {
			return nil, classifyLoadError(uri, err)
		}
		return ds, nil
	})
}
