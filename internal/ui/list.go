package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/dustin/go-humanize"
)

var (
	_ list.Item = datasetItem{}
	_ list.Item = frameItem{}
	_ list.Item = jobItem{}
	_ list.Item = taskItem{}
)

// datasetItem wraps [models.Dataset] to implement [list.Item].
type datasetItem struct {
	dataset *models.Dataset
}

func (i datasetItem) FilterValue() string { return i.dataset.Name() }
func (i datasetItem) Title() string       { return i.dataset.Name() }
func (i datasetItem) Description() string {
	desc := fmt.Sprintf("%s • %s • v%d", i.dataset.Stage(), i.dataset.Mode(), i.dataset.Version())
	if i.dataset.Description() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.dataset.Description())
	}
	return desc
}

// frameItem wraps [models.DataFrame] to implement [list.Item].
type frameItem struct {
	frame *models.DataFrame
}

func (i frameItem) FilterValue() string { return i.frame.Name() }
func (i frameItem) Title() string       { return i.frame.Name() }
func (i frameItem) Description() string {
	size := humanize.IBytes(uint64(i.frame.SizeBytes()))
	return fmt.Sprintf("table %s • %d rows, %d cols • %s", i.frame.Table(), i.frame.Rows(), i.frame.Cols(), size)
}

// jobItem wraps [models.Job] to implement [list.Item].
type jobItem struct {
	job *models.Job
}

func (i jobItem) FilterValue() string { return i.job.Name() }
func (i jobItem) Title() string       { return i.job.Name() }
func (i jobItem) Description() string {
	desc := i.job.State().String()
	if i.job.Description() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.job.Description())
	}
	return desc
}

// taskItem wraps [models.Task] with its optional profile to implement [list.Item].
type taskItem struct {
	task    *models.Task
	profile *models.Profile
}

func (i taskItem) FilterValue() string { return i.task.Name() }
func (i taskItem) Title() string       { return i.task.Name() }
func (i taskItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.task.Operator(), i.task.State())
	if i.profile != nil {
		desc = fmt.Sprintf("%s • %s", desc, i.profile.Duration().Round(time.Millisecond))
	}
	return desc
}
