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
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/assessor"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/config"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/genai"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/report"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/source"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/utils"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score PRIMARY [REFERENCE]",
	Short: "Print the quality Score Table and Overall Score of a dataset",
	Long: `Loads the primary dataset and an optional reference dataset, scores every column
of the primary dataset and prints the Score Table followed by the Overall Data Quality Score.
Without a reference dataset the primary dataset is compared with itself.`,
	Example: `./db_quality_scorer score ./orders.csv ./orders_reference.csv --metrics Completeness,Validity,Accuracy
./db_quality_scorer score table:orders table:orders_snapshot --dialect postgres --host localhost --port 5432 --username user --password pass --database shop --order-by id`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	params, err := assessParams(cmd, cfg, args)
	if err != nil {
		return err
	}

	showProgress, _ := cmd.Flags().GetBool("progress")
	if showProgress {
		progress := uiprogress.New()
		progress.SetOut(os.Stderr)
		var bar *uiprogress.Bar
		params.Scoring.Progress = func(done, total int, column string) {
			if bar == nil {
				progress.Start()
				bar = progress.AddBar(total).AppendCompleted().PrependElapsed()
				bar.PrependFunc(func(b *uiprogress.Bar) string {
					return fmt.Sprintf("Scoring %d/%d: ", b.Current(), b.Total)
				})
			}
			_ = bar.Set(done)
		}
		defer func() {
			if bar != nil {
				progress.Stop()
			}
		}()
	}

	a, err := assess(cmd.Context(), cfg, params)
	if err != nil {
		return err
	}
	return output(cmd, cfg, a)
}

// assessParams builds the assessment parameters shared by score and report.
func assessParams(cmd *cobra.Command, cfg *config.Config, args []string) (assessor.AssessParams, error) {
	scoring, err := cfg.ScoringOptions()
	if err != nil {
		return assessor.AssessParams{}, err
	}
	params := assessor.AssessParams{
		Primary: args[0],
		Scoring: scoring,
		Source: source.Options{
			Limit:   cfg.Database.RowLimit,
			OrderBy: cfg.Database.OrderBy,
			Columns: cfg.Scoring.Columns,
		},
	}
	if len(args) > 1 {
		params.Reference = args[1]
	}
	if delim, _ := cmd.Flags().GetString("delimiter"); delim != "" {
		r, size := utf8.DecodeRuneInString(delim)
		if size != len(delim) {
			return assessor.AssessParams{}, fmt.Errorf("delimiter must be a single character, got %q", delim)
		}
		params.Source.Delimiter = r
	}
	return params, nil
}

// assess wires the database and LLM clients the parameters need and runs
// one assessment.
func assess(ctx context.Context, cfg *config.Config, params assessor.AssessParams) (*assessor.Assessment, error) {
	var loader source.TableLoader
	if source.IsTableURI(params.Primary) || source.IsTableURI(params.Reference) {
		db, err := setupDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		loader = db
	}

	var llmClient genai.LLMClient
	if params.WithSummary {
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("a summary was requested, but Gemini API key is not configured. Please set the GEMINI_API_KEY environment variable")
		}
		client, err := genai.NewClient(ctx, genai.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
		if err != nil {
			return nil, err
		}
		defer client.Close()
		if err := client.IsAPIKeyValid(ctx); err != nil {
			return nil, fmt.Errorf("Gemini API key is invalid. Please provide a valid api key: %w", err)
		}
		llmClient = client
	}

	svc := assessor.NewService(loader, llmClient, assessor.Config{Logger: zap.L()})
	return svc.Assess(ctx, params)
}

// output renders a in the configured format to stdout, or to the
// configured file when one is set.
func output(cmd *cobra.Command, cfg *config.Config, a *assessor.Assessment) error {
	var buf bytes.Buffer
	if err := report.Render(&buf, a, cfg.Report.Format); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	path := outputPath(cfg.Report.OutFile, a.Dataset, cfg.Report.Format)
	if path == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := utils.WriteToFile(path, buf.Bytes()); err != nil {
		return err
	}
	zap.L().Info("Report written", zap.String("path", path), zap.Duration("elapsed", a.Duration.Round(time.Millisecond)))
	return nil
}

// addAssessmentFlags registers the flags shared by score and report.
func addAssessmentFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("metrics", nil, "Comma-separated list of metrics to compute (Completeness, Uniqueness, Validity, Accuracy, Consistency). Defaults to all")
	cmd.Flags().StringSlice("columns", nil, "Comma-separated list of primary dataset columns to score. Defaults to all columns")
	cmd.Flags().String("failure-mode", "", "How cross-dataset errors are handled ('fail-fast' or 'partial')")
	cmd.Flags().Bool("partial", false, "Shorthand for --failure-mode partial")
	cmd.Flags().String("format", "", fmt.Sprintf("Output format (%s)", joinFormats()))
	cmd.Flags().StringP("out", "o", "", "File or directory to write the output to (defaults to stdout)")
	cmd.Flags().String("delimiter", "", "CSV delimiter; detected from the header line when empty")
	cmd.Flags().Int("row-limit", 0, "Maximum number of rows loaded per dataset (0 loads all rows)")
	cmd.Flags().String("order-by", "", "Column used to order table rows so that rows align by position")
}

func init() {
	addAssessmentFlags(scoreCmd)
	scoreCmd.Flags().Bool("progress", false, "Show a progress bar while scoring columns")
}
