package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/repositories"
	"github.com/desertthunder/rsx/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DatasetListView ViewState = iota
	FrameListView
	JobListView
	TaskListView
)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	db          *shared.Database
	reg         *repositories.Registry
	width       int
	height      int
	loaded      bool
	datasetList list.Model
	jobList     list.Model
	frameList   list.Model
	taskList    list.Model
	datasets    []*models.Dataset
	jobs        []*models.Job
	dataset     *models.Dataset
	job         *models.Job
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model reading from the catalog database.
func NewModel(ctx context.Context, db *shared.Database, reg *repositories.Registry) *Model {
	return &Model{
		ctx:  ctx,
		view: DatasetListView,
		db:   db,
		reg:  reg,
		help: help.New(),
		keys: newKeyMap(),
	}
}

// Init initializes the TUI by loading the catalog listings.
func (m *Model) Init() tea.Cmd {
	return m.loadCatalog()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.datasetList, &m.jobList, &m.frameList, &m.taskList} {
			if l.Width() == 0 {
				l.SetSize(msg.Width-4, msg.Height-8)
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DatasetListView:
			return m.handleDatasetListKeys(msg)
		case FrameListView:
			return m.handleFrameListKeys(msg)
		case JobListView:
			return m.handleJobListKeys(msg)
		case TaskListView:
			return m.handleTaskListKeys(msg)
		}

	case catalogLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.loaded = true
		m.datasets = msg.datasets
		m.jobs = msg.jobs

		items := make([]list.Item, len(msg.datasets))
		for i, ds := range msg.datasets {
			items[i] = datasetItem{dataset: ds}
		}
		m.datasetList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.datasetList.Title = "Datasets"
		m.datasetList.SetSize(m.width-4, m.height-8)

		items = make([]list.Item, len(msg.jobs))
		for i, job := range msg.jobs {
			items[i] = jobItem{job: job}
		}
		m.jobList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.jobList.Title = "Jobs"
		m.jobList.SetSize(m.width-4, m.height-8)
		return m, nil

	case datasetLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = DatasetListView
			return m, nil
		}
		m.dataset = msg.dataset
		items := make([]list.Item, len(msg.dataset.Frames()))
		for i, frame := range msg.dataset.Frames() {
			items[i] = frameItem{frame: frame}
		}
		m.frameList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.frameList.Title = fmt.Sprintf("Frames in '%s'", msg.dataset.Name())
		m.frameList.SetSize(m.width-4, m.height-8)
		m.view = FrameListView
		return m, nil

	case jobLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = JobListView
			return m, nil
		}
		m.job = msg.job
		items := make([]list.Item, len(msg.job.Tasks()))
		for i, task := range msg.job.Tasks() {
			items[i] = taskItem{task: task, profile: msg.profiles[task.ID()]}
		}
		m.taskList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.taskList.Title = fmt.Sprintf("Tasks in '%s'", msg.job.Name())
		m.taskList.SetSize(m.width-4, m.height-8)
		m.view = TaskListView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if !m.loaded {
		title := styles.title.Render("rsx catalog")
		return fmt.Sprintf("%s\n%s", title, styles.help.Render("Loading catalog..."))
	}

	switch m.view {
	case DatasetListView:
		return m.renderDatasetList()
	case FrameListView:
		return m.renderFrameList()
	case JobListView:
		return m.renderJobList()
	case TaskListView:
		return m.renderTaskList()
	default:
		return ""
	}
}

func (m *Model) handleDatasetListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.view = JobListView
		return m, nil
	case "r":
		return m, m.loadCatalog()
	case "enter":
		selected := m.datasetList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(datasetItem); ok {
				return m, m.loadDataset(item.dataset.ID())
			}
		}
	}

	var cmd tea.Cmd
	m.datasetList, cmd = m.datasetList.Update(msg)
	return m, cmd
}

func (m *Model) handleFrameListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = DatasetListView
		return m, nil
	}

	var cmd tea.Cmd
	m.frameList, cmd = m.frameList.Update(msg)
	return m, cmd
}

func (m *Model) handleJobListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.view = DatasetListView
		return m, nil
	case "r":
		return m, m.loadCatalog()
	case "enter":
		selected := m.jobList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(jobItem); ok {
				return m, m.loadJob(item.job.ID())
			}
		}
	}

	var cmd tea.Cmd
	m.jobList, cmd = m.jobList.Update(msg)
	return m, cmd
}

func (m *Model) handleTaskListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = JobListView
		return m, nil
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case DatasetListView:
		m.datasetList, cmd = m.datasetList.Update(msg)
	case FrameListView:
		m.frameList, cmd = m.frameList.Update(msg)
	case JobListView:
		m.jobList, cmd = m.jobList.Update(msg)
	case TaskListView:
		m.taskList, cmd = m.taskList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		var datasets []*models.Dataset
		var jobs []*models.Job
		err := repositories.NewUnitOfWork(m.db, m.reg).Run(m.ctx, func(u *repositories.UnitOfWork) error {
			var err error
			if datasets, err = u.Datasets().GetAll(m.ctx); err != nil {
				return err
			}
			jobs, err = u.Jobs().GetAll(m.ctx)
			return err
		})
		return catalogLoadedMsg{datasets: datasets, jobs: jobs, err: err}
	}
}

func (m *Model) loadDataset(id int64) tea.Cmd {
	return func() tea.Msg {
		var ds *models.Dataset
		err := repositories.NewUnitOfWork(m.db, m.reg).Run(m.ctx, func(u *repositories.UnitOfWork) error {
			var err error
			ds, err = u.Datasets().Get(m.ctx, id)
			return err
		})
		return datasetLoadedMsg{dataset: ds, err: err}
	}
}

func (m *Model) loadJob(id int64) tea.Cmd {
	return func() tea.Msg {
		var job *models.Job
		profiles := make(map[int64]*models.Profile)
		err := repositories.NewUnitOfWork(m.db, m.reg).Run(m.ctx, func(u *repositories.UnitOfWork) error {
			var err error
			if job, err = u.Jobs().Get(m.ctx, id); err != nil {
				return err
			}
			for _, task := range job.Tasks() {
				found, err := u.Profiles().GetByTask(m.ctx, task.ID())
				if err != nil {
					return err
				}
				if len(found) > 0 {
					profiles[task.ID()] = found[0]
				}
			}
			return nil
		})
		return jobLoadedMsg{job: job, profiles: profiles, err: err}
	}
}

func (m *Model) renderDatasetList() string {
	if len(m.datasets) == 0 {
		title := styles.title.Render("Datasets")
		hint := styles.help.Render("No datasets yet. Run a pipeline with 'rsx run' to register one.")
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.tab, m.keys.refresh, m.keys.quit})
		return fmt.Sprintf("%s\n%s\n\n%s", title, hint, helpView)
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.tab, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.datasetList.View(), helpView)
}

func (m *Model) renderFrameList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.frameList.View(), helpView)
}

func (m *Model) renderJobList() string {
	if len(m.jobs) == 0 {
		title := styles.title.Render("Jobs")
		hint := styles.help.Render("No jobs recorded yet.")
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.tab, m.keys.refresh, m.keys.quit})
		return fmt.Sprintf("%s\n%s\n\n%s", title, hint, helpView)
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.tab, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.jobList.View(), helpView)
}

func (m *Model) renderTaskList() string {
	var state string
	switch m.job.State() {
	case models.StateCompleted:
		state = styles.ok.Render("✓ completed")
	case models.StateFailed:
		state = styles.err.Render("✗ failed")
	default:
		state = styles.warn.Render(m.job.State().String())
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", m.taskList.View(), state, helpView)
}
