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
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/config"
	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/utils"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report PRIMARY [REFERENCE]",
	Short: "Generate a detailed data quality report",
	Long: `Builds a detailed report of the primary dataset: dataset statistics, alerts about
missing values, correlations and skewed distributions, the quality Score Table, metric averages,
the Overall Data Quality Score and, with --summary, a narrative written by Gemini.`,
	Example: `./db_quality_scorer report ./orders.parquet ./orders_reference.parquet --format markdown --out ./reports/
./db_quality_scorer report table:customers --dialect cloudsqlmysql --username user --password pass --database crm --cloudsql-instance-connection-name my-project:my-region:my-instance --summary --context ./docs/customers.md`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	params, err := assessParams(cmd, cfg, args)
	if err != nil {
		return err
	}
	params.WithProfile = true
	params.WithSummary = cfg.Report.Summary

	contextFilesFlag, _ := cmd.Flags().GetString("context")
	additionalContext, err := utils.ReadContextFiles(contextFilesFlag)
	if err != nil {
		return err
	}
	params.AdditionalContext = additionalContext

	a, err := assess(cmd.Context(), cfg, params)
	if err != nil {
		return err
	}
	return output(cmd, cfg, a)
}

// outputPath resolves the --out value. A directory, or a path ending in a
// separator, receives the default report file name for the dataset.
func outputPath(out, datasetName, format string) string {
	if out == "" {
		return ""
	}
	if strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(filepath.Separator)) {
		return filepath.Join(out, utils.GetDefaultOutputFilePath(datasetName, format))
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, utils.GetDefaultOutputFilePath(datasetName, format))
	}
	return out
}

func joinFormats() string {
	return strings.Join(config.SupportedFormats, ", ")
}

func init() {
	addAssessmentFlags(reportCmd)
	reportCmd.Flags().Bool("summary", false, "Ask Gemini for a narrative summary and remediation steps")
	reportCmd.Flags().String("model", "", "Gemini model used for the summary. If empty, the default model is used.")
	reportCmd.Flags().String("context", "", "Comma-separated list of context files to provide additional information for the summary.")
}
