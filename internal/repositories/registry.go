package repositories

import (
	"sort"

	"github.com/desertthunder/rsx/internal/shared"
)

// Entity names under which the default repositories register.
const (
	EntityDataset    = "dataset"
	EntityDataFrame  = "dataframe"
	EntityDataSource = "datasource"
	EntityJob        = "job"
	EntityTask       = "task"
	EntityFile       = "file"
	EntityProfile    = "profile"
)

// Registry resolves repositories by entity name so callers can address
// storage generically.
type Registry struct {
	repos map[string]Repository
}

func NewRegistry() *Registry {
	return &Registry{repos: make(map[string]Repository)}
}

// Register adds r under name, replacing any previous registration.
func (g *Registry) Register(name string, r Repository) {
	g.repos[name] = r
}

// Get returns the repository registered under name.
func (g *Registry) Get(name string) (Repository, error) {
	r, ok := g.repos[name]
	if !ok {
		return nil, &UnknownRepositoryError{Name: name}
	}
	return r, nil
}

// Names lists the registered entity names in sorted order.
func (g *Registry) Names() []string {
	names := make([]string, 0, len(g.repos))
	for name := range g.repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry wires a repository for every entity over db. Aggregate
// repositories share the child repositories registered beside them, so a
// dataset loaded by name carries the same frames a frame lookup would see.
func DefaultRegistry(db *shared.Database) *Registry {
	profiles := NewProfileRepository(db)
	tasks := NewTaskRepository(db, profiles)
	frames := NewDataFrameRepository(db)

	g := NewRegistry()
	g.Register(EntityDataSource, NewDataSourceRepository(db))
	g.Register(EntityDataFrame, frames)
	g.Register(EntityDataset, NewDatasetRepository(db, frames))
	g.Register(EntityProfile, profiles)
	g.Register(EntityTask, tasks)
	g.Register(EntityJob, NewJobRepository(db, tasks))
	g.Register(EntityFile, NewFileRepository(db))
	return g
}
