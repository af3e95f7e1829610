package models

import (
	"fmt"
	"time"
)

// Job is one pipeline run. It owns an ordered list of tasks and moves
// through created, running and one of the terminal states.
type Job struct {
	Base
	description string
	state       State
	tasks       []*Task
}

// NewJob builds an unsaved job in the created state.
func NewJob(name, description string) *Job {
	return &Job{
		Base:        newBase(name),
		description: description,
		state:       StateCreated,
	}
}

func (j *Job) Description() string { return j.description }
func (j *Job) State() State        { return j.state }
func (j *Job) Tasks() []*Task      { return j.tasks }

// SetState moves the job to s. Transitions out of a terminal state are
// rejected.
func (j *Job) SetState(s State) error {
	if !s.Valid() {
		return fmt.Errorf("job %q: unknown state %q", j.name, s)
	}
	if j.state.Terminal() {
		return fmt.Errorf("job %q: cannot leave terminal state %q", j.name, j.state)
	}
	j.state = s
	return nil
}

// AddTask appends a task to the job's run order.
func (j *Job) AddTask(t *Task) {
	j.tasks = append(j.tasks, t)
}

func (j *Job) Validate() error {
	if err := j.validateBase(); err != nil {
		return fmt.Errorf("job: %w", err)
	}
	if !j.state.Valid() {
		return fmt.Errorf("job %q: invalid state %q", j.name, j.state)
	}
	return nil
}

// Task is a single operator execution inside a job.
type Task struct {
	Base
	jobID    int64
	operator string
	position int
	state    State
}

// NewTask builds an unsaved task for the named operator at the given run
// position.
func NewTask(name, operator string, position int) *Task {
	return &Task{
		Base:     newBase(name),
		operator: operator,
		position: position,
		state:    StateCreated,
	}
}

func (t *Task) JobID() int64     { return t.jobID }
func (t *Task) Operator() string { return t.operator }
func (t *Task) Position() int    { return t.position }
func (t *Task) State() State     { return t.state }

func (t *Task) SetJobID(id int64) { t.jobID = id }

// SetState moves the task to s. Transitions out of a terminal state are
// rejected.
func (t *Task) SetState(s State) error {
	if !s.Valid() {
		return fmt.Errorf("task %q: unknown state %q", t.name, s)
	}
	if t.state.Terminal() {
		return fmt.Errorf("task %q: cannot leave terminal state %q", t.name, t.state)
	}
	t.state = s
	return nil
}

func (t *Task) Validate() error {
	if err := t.validateBase(); err != nil {
		return fmt.Errorf("task: %w", err)
	}
	if t.operator == "" {
		return fmt.Errorf("task %q: operator is required", t.name)
	}
	if t.position < 0 {
		return fmt.Errorf("task %q: position must not be negative", t.name)
	}
	return nil
}

// Profile holds resource measurements captured while a task ran.
type Profile struct {
	Base
	taskID        int64
	started       time.Time
	ended         time.Time
	duration      time.Duration
	cpuPercent    float64
	memoryRSS     uint64
	memoryPercent float64
	readBytes     uint64
	writeBytes    uint64
}

// NewProfile builds an unsaved profile for the given task.
func NewProfile(name string, taskID int64) *Profile {
	return &Profile{
		Base:   newBase(name),
		taskID: taskID,
	}
}

func (p *Profile) TaskID() int64           { return p.taskID }
func (p *Profile) Started() time.Time      { return p.started }
func (p *Profile) Ended() time.Time        { return p.ended }
func (p *Profile) Duration() time.Duration { return p.duration }
func (p *Profile) CPUPercent() float64     { return p.cpuPercent }
func (p *Profile) MemoryRSS() uint64       { return p.memoryRSS }
func (p *Profile) MemoryPercent() float64  { return p.memoryPercent }
func (p *Profile) ReadBytes() uint64       { return p.readBytes }
func (p *Profile) WriteBytes() uint64      { return p.writeBytes }

// SetWindow records when the measured execution started and ended.
func (p *Profile) SetWindow(started, ended time.Time) {
	p.started = started.UTC()
	p.ended = ended.UTC()
	p.duration = ended.Sub(started)
}

// SetUsage records the sampled process counters.
func (p *Profile) SetUsage(cpuPercent float64, rss uint64, memPercent float64, readBytes, writeBytes uint64) {
	p.cpuPercent = cpuPercent
	p.memoryRSS = rss
	p.memoryPercent = memPercent
	p.readBytes = readBytes
	p.writeBytes = writeBytes
}

func (p *Profile) Validate() error {
	if err := p.validateBase(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if p.taskID == 0 {
		return fmt.Errorf("profile %q: task id is required", p.name)
	}
	return nil
}
