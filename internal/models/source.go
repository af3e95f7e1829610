package models

import "fmt"

// DataSource describes an external publisher of raw data, such as the
// GroupLens MovieLens archive.
type DataSource struct {
	Base
	publisher   string
	website     string
	url         string
	description string
}

// NewDataSource builds an unsaved datasource.
func NewDataSource(name, publisher, website, url, description string) *DataSource {
	return &DataSource{
		Base:        newBase(name),
		publisher:   publisher,
		website:     website,
		url:         url,
		description: description,
	}
}

func (s *DataSource) Publisher() string   { return s.publisher }
func (s *DataSource) Website() string     { return s.website }
func (s *DataSource) URL() string         { return s.url }
func (s *DataSource) Description() string { return s.description }

func (s *DataSource) Validate() error {
	if err := s.validateBase(); err != nil {
		return fmt.Errorf("datasource: %w", err)
	}
	if s.url == "" {
		return fmt.Errorf("datasource %q: url is required", s.name)
	}
	return nil
}

// File tracks a file on disk as it moves through download and extraction.
// The (name, mode) pair is unique within the catalog.
type File struct {
	Base
	description string
	sourceID    int64
	mode        Mode
	stage       Stage
	uri         string
	sizeBytes   int64
	taskID      int64
}

// NewFile builds an unsaved file record for the given on-disk location.
func NewFile(name, description, uri string, mode Mode, stage Stage) *File {
	return &File{
		Base:        newBase(name),
		description: description,
		uri:         uri,
		mode:        mode,
		stage:       stage,
	}
}

func (f *File) Description() string { return f.description }
func (f *File) SourceID() int64     { return f.sourceID }
func (f *File) Mode() Mode          { return f.mode }
func (f *File) Stage() Stage        { return f.stage }
func (f *File) URI() string         { return f.uri }
func (f *File) SizeBytes() int64    { return f.sizeBytes }
func (f *File) TaskID() int64       { return f.taskID }

func (f *File) SetSourceID(id int64) { f.sourceID = id }
func (f *File) SetTaskID(id int64)   { f.taskID = id }
func (f *File) SetSizeBytes(n int64) { f.sizeBytes = n }

func (f *File) Validate() error {
	if err := f.validateBase(); err != nil {
		return fmt.Errorf("file: %w", err)
	}
	if f.uri == "" {
		return fmt.Errorf("file %q: uri is required", f.name)
	}
	if !f.mode.Valid() {
		return fmt.Errorf("file %q: invalid mode %q", f.name, f.mode)
	}
	if !f.stage.Valid() {
		return fmt.Errorf("file %q: invalid stage %q", f.name, f.stage)
	}
	return nil
}
