// package formatter provides functions to export catalog records to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/rsx/internal/frames"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/dustin/go-humanize"
)

// JobExport pairs a job with the resource profiles recorded for its
// tasks, keyed by task id. Tasks without a profile render without
// resource figures.
type JobExport struct {
	Job      *models.Job
	Profiles map[int64]*models.Profile
}

// DatasetToCSV converts a dataset's frames to CSV format with columns: Name, Table, Stage, Rows, Cols, Nulls, PctNulls, SizeBytes
func DatasetToCSV(ds *models.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Name", "Table", "Stage", "Rows", "Cols", "Nulls", "PctNulls", "SizeBytes"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, frame := range ds.Frames() {
		record := []string{
			frame.Name(),
			frame.Table(),
			frame.Stage().String(),
			strconv.FormatInt(frame.Rows(), 10),
			strconv.FormatInt(frame.Cols(), 10),
			strconv.FormatInt(frame.Nulls(), 10),
			strconv.FormatFloat(frame.PctNulls(), 'f', 2, 64),
			strconv.FormatInt(frame.SizeBytes(), 10),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// DatasetToMarkdown converts a dataset to Markdown format
func DatasetToMarkdown(ds *models.Dataset) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", ds.Name()))

	if ds.Description() != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", ds.Description()))
	}

	buf.WriteString(fmt.Sprintf("**Mode**: %s\n", ds.Mode()))
	buf.WriteString(fmt.Sprintf("**Stage**: %s\n", ds.Stage()))
	buf.WriteString(fmt.Sprintf("**Version**: %d\n", ds.Version()))
	buf.WriteString(fmt.Sprintf("**Frames**: %d\n\n", len(ds.Frames())))

	buf.WriteString("## Frames\n\n")
	for i, frame := range ds.Frames() {
		size := humanize.IBytes(uint64(frame.SizeBytes()))
		buf.WriteString(fmt.Sprintf("%d. %s (%s): %d rows, %d cols [%s]\n",
			i+1, frame.Name(), frame.Table(), frame.Rows(), frame.Cols(), size))
	}

	return buf.Bytes(), nil
}

// DatasetToText converts a dataset to plain text format
func DatasetToText(ds *models.Dataset) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Dataset: %s\n", ds.Name()))
	if ds.Description() != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", ds.Description()))
	}
	buf.WriteString(fmt.Sprintf("Mode: %s  Stage: %s  Version: %d\n", ds.Mode(), ds.Stage(), ds.Version()))
	buf.WriteString(fmt.Sprintf("Frames: %d\n\n", len(ds.Frames())))

	for i, frame := range ds.Frames() {
		buf.WriteString(fmt.Sprintf("%d. %s (%s): %d rows\n", i+1, frame.Name(), frame.Table(), frame.Rows()))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of dataset metadata (frame shapes, not frame contents)
func ToMetadataJSON(ds *models.Dataset) ([]byte, error) {
	frameDocs := make([]map[string]any, 0, len(ds.Frames()))
	for _, frame := range ds.Frames() {
		frameDocs = append(frameDocs, map[string]any{
			"name":       frame.Name(),
			"table":      frame.Table(),
			"stage":      frame.Stage().String(),
			"rows":       frame.Rows(),
			"cols":       frame.Cols(),
			"nulls":      frame.Nulls(),
			"pct_nulls":  frame.PctNulls(),
			"size_bytes": frame.SizeBytes(),
		})
	}

	doc := map[string]any{
		"id":          ds.ID(),
		"name":        ds.Name(),
		"description": ds.Description(),
		"mode":        ds.Mode().String(),
		"stage":       ds.Stage().String(),
		"version":     ds.Version(),
		"frames":      frameDocs,
	}
	return shared.MarshalJSON(doc, true)
}

// JobToCSV converts a job's tasks to CSV format with columns: Position, Name, Operator, State, Duration, CPUPercent, MemoryRSS
func JobToCSV(export *JobExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Name", "Operator", "State", "Duration", "CPUPercent", "MemoryRSS"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, task := range export.Job.Tasks() {
		duration, cpu, rss := "", "", ""
		if profile, ok := export.Profiles[task.ID()]; ok {
			duration = profile.Duration().Round(time.Millisecond).String()
			cpu = strconv.FormatFloat(profile.CPUPercent(), 'f', 1, 64)
			rss = strconv.FormatUint(profile.MemoryRSS(), 10)
		}
		record := []string{
			strconv.Itoa(task.Position()),
			task.Name(),
			task.Operator(),
			task.State().String(),
			duration,
			cpu,
			rss,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// JobToMarkdown converts a job and its task profiles to Markdown format
func JobToMarkdown(export *JobExport) ([]byte, error) {
	var buf bytes.Buffer
	job := export.Job

	buf.WriteString(fmt.Sprintf("# %s\n\n", job.Name()))

	if job.Description() != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", job.Description()))
	}

	buf.WriteString(fmt.Sprintf("**State**: %s\n", job.State()))
	buf.WriteString(fmt.Sprintf("**Tasks**: %d\n\n", len(job.Tasks())))

	buf.WriteString("## Tasks\n\n")
	for i, task := range job.Tasks() {
		line := fmt.Sprintf("%d. %s (%s): %s", i+1, task.Name(), task.Operator(), task.State())
		if profile, ok := export.Profiles[task.ID()]; ok {
			line += fmt.Sprintf(" in %s [cpu %.1f%%, rss %s]",
				profile.Duration().Round(time.Millisecond),
				profile.CPUPercent(),
				humanize.IBytes(profile.MemoryRSS()))
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// JobToText converts a job to plain text format
func JobToText(export *JobExport) ([]byte, error) {
	var buf bytes.Buffer
	job := export.Job

	buf.WriteString(fmt.Sprintf("Job: %s\n", job.Name()))
	buf.WriteString(fmt.Sprintf("State: %s\n", job.State()))
	buf.WriteString(fmt.Sprintf("Tasks: %d\n\n", len(job.Tasks())))

	for i, task := range job.Tasks() {
		line := fmt.Sprintf("%d. %s (%s): %s", i+1, task.Name(), task.Operator(), task.State())
		if profile, ok := export.Profiles[task.ID()]; ok {
			line += fmt.Sprintf(" in %s", profile.Duration().Round(time.Millisecond))
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// JobToJSON generates a JSON representation of a job, its tasks and their profiles
func JobToJSON(export *JobExport) ([]byte, error) {
	job := export.Job
	taskDocs := make([]map[string]any, 0, len(job.Tasks()))
	for _, task := range job.Tasks() {
		doc := map[string]any{
			"id":       task.ID(),
			"name":     task.Name(),
			"operator": task.Operator(),
			"position": task.Position(),
			"state":    task.State().String(),
		}
		if profile, ok := export.Profiles[task.ID()]; ok {
			doc["duration_ms"] = profile.Duration().Milliseconds()
			doc["cpu_percent"] = profile.CPUPercent()
			doc["memory_rss"] = profile.MemoryRSS()
			doc["read_bytes"] = profile.ReadBytes()
			doc["write_bytes"] = profile.WriteBytes()
		}
		taskDocs = append(taskDocs, doc)
	}

	doc := map[string]any{
		"id":          job.ID(),
		"name":        job.Name(),
		"description": job.Description(),
		"state":       job.State().String(),
		"tasks":       taskDocs,
	}
	return shared.MarshalJSON(doc, true)
}

// DatasetExportResult contains the paths of files created by WriteDatasetExport
type DatasetExportResult struct {
	Directory    string
	Files        []string
	MetadataFile string
}

// WriteDatasetExport exports a dataset's frames to a dedicated directory.
//
// Directory name defaults to the dataset name. Each frame is written as
// {table}.csv from the frame store, alongside metadata.json and a
// README.md summary.
func WriteDatasetExport(ctx context.Context, store *frames.Store, ds *models.Dataset, outputDir string) (*DatasetExportResult, error) {
	if outputDir == "" {
		outputDir = ds.Name()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &DatasetExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	for _, frame := range ds.Frames() {
		path := filepath.Join(outputDir, frame.Table()+".csv")
		if err := store.ExportCSV(ctx, frame.Table(), path); err != nil {
			return nil, fmt.Errorf("failed to export frame %s: %w", frame.Table(), err)
		}
		result.Files = append(result.Files, path)
	}

	metadataJSON, err := ToMetadataJSON(ds)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	result.MetadataFile = filepath.Join(outputDir, "metadata.json")
	if err := os.WriteFile(result.MetadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	mdData, err := DatasetToMarkdown(ds)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteJobLog exports a job summary to plain text format.
//
// Defaults to {job name}_tasks.txt as the filename.
func WriteJobLog(export *JobExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tasks.txt", export.Job.Name())
	}

	textData, err := JobToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
