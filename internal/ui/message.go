package ui

import (
	"github.com/desertthunder/rsx/internal/models"
)

// catalogLoadedMsg delivers the dataset and job listings.
type catalogLoadedMsg struct {
	datasets []*models.Dataset
	jobs     []*models.Job
	err      error
}

// datasetLoadedMsg delivers one dataset hydrated with its frames.
type datasetLoadedMsg struct {
	dataset *models.Dataset
	err     error
}

// jobLoadedMsg delivers one job with its tasks and their profiles,
// keyed by task id.
type jobLoadedMsg struct {
	job      *models.Job
	profiles map[int64]*models.Profile
	err      error
}
