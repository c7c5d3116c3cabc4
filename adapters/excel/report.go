// Package excel exports detection-run reports as spreadsheets.
package excel

import (
	"fmt"

	"topowave/domain/run"

	"github.com/xuri/excelize/v2"
)

// ReportWriter renders runs into an Excel workbook with one summary
// sheet and one sheet of per-run configuration detail.
type ReportWriter struct{}

// NewReportWriter creates a report writer.
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

var summaryHeaders = []string{
	"Run ID", "Status", "Seed", "Fingerprint",
	"Accuracy", "ROC AUC", "Train Size", "Test Size",
	"Positives", "Negatives", "Runtime (ms)", "Created At", "Error",
}

var configHeaders = []string{
	"Run ID", "Signals", "Samples", "SNR Min", "SNR Max", "SNR Steps",
	"Embedding Dim", "Delay", "Stride", "Homology Dims", "PCA Components", "Workers",
}

// Write renders the runs and saves the workbook to path.
func (w *ReportWriter) Write(runs []*run.DetectionRun, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Runs"
	const configSheet = "Configuration"

	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(configSheet); err != nil {
		return fmt.Errorf("failed to create config sheet: %w", err)
	}

	if err := writeRow(f, summarySheet, 1, toCells(summaryHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, configSheet, 1, toCells(configHeaders)); err != nil {
		return err
	}

	for i, dr := range runs {
		rowIdx := i + 2

		summary := []interface{}{
			dr.ID.String(), string(dr.Status), dr.Seed, dr.Fingerprint.Short(),
		}
		if dr.Metrics != nil {
			summary = append(summary,
				dr.Metrics.Accuracy, dr.Metrics.ROCAUC,
				dr.Metrics.TrainSize, dr.Metrics.TestSize,
				dr.Metrics.Positives, dr.Metrics.Negatives)
		} else {
			summary = append(summary, nil, nil, nil, nil, nil, nil)
		}
		summary = append(summary, dr.RuntimeMs, dr.CreatedAt.String(), dr.ErrorMsg)
		if err := writeRow(f, summarySheet, rowIdx, summary); err != nil {
			return err
		}

		config := []interface{}{
			dr.ID.String(),
			dr.Generator.SignalCount, dr.Generator.SampleCount,
			dr.Generator.SNRMin, dr.Generator.SNRMax, dr.Generator.SNRSteps,
			dr.Pipeline.EmbeddingDimension, dr.Pipeline.EmbeddingDelay,
			dr.Pipeline.EmbeddingStride, fmt.Sprint(dr.Pipeline.HomologyDimensions),
			dr.Pipeline.PCAComponents, dr.Pipeline.Workers,
		}
		if err := writeRow(f, configSheet, rowIdx, config); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toCells(headers []string) []interface{} {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}
