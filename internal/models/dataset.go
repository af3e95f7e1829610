package models

import "fmt"

// Dataset is a named collection of dataframes produced at one stage of the
// pipeline. The (name, mode) pair is unique within the catalog.
type Dataset struct {
	Base
	description string
	sourceID    int64
	mode        Mode
	stage       Stage
	version     int
	taskID      int64
	frames      []*DataFrame
}

// NewDataset builds an unsaved dataset at version 1.
func NewDataset(name, description string, sourceID int64, mode Mode, stage Stage) *Dataset {
	return &Dataset{
		Base:        newBase(name),
		description: description,
		sourceID:    sourceID,
		mode:        mode,
		stage:       stage,
		version:     1,
	}
}

func (d *Dataset) Description() string  { return d.description }
func (d *Dataset) SourceID() int64      { return d.sourceID }
func (d *Dataset) Mode() Mode           { return d.mode }
func (d *Dataset) Stage() Stage         { return d.stage }
func (d *Dataset) Version() int         { return d.version }
func (d *Dataset) TaskID() int64        { return d.taskID }
func (d *Dataset) Frames() []*DataFrame { return d.frames }

func (d *Dataset) SetVersion(v int)     { d.version = v }
func (d *Dataset) SetTaskID(id int64)   { d.taskID = id }
func (d *Dataset) SetSourceID(id int64) { d.sourceID = id }

// AddFrame attaches a dataframe to this dataset's aggregate. The frame's
// parent id is filled in when the dataset is persisted.
func (d *Dataset) AddFrame(f *DataFrame) {
	d.frames = append(d.frames, f)
}

func (d *Dataset) Validate() error {
	if err := d.validateBase(); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	if !d.mode.Valid() {
		return fmt.Errorf("dataset %q: invalid mode %q", d.name, d.mode)
	}
	if !d.stage.Valid() {
		return fmt.Errorf("dataset %q: invalid stage %q", d.name, d.stage)
	}
	if d.version < 1 {
		return fmt.Errorf("dataset %q: version must be positive", d.name)
	}
	return nil
}

// DataFrame is one table of data inside a dataset. The frame's rows live in
// the frame store under Table; the catalog row records shape and null stats.
type DataFrame struct {
	Base
	description string
	datasetID   int64
	sourceID    int64
	mode        Mode
	stage       Stage
	table       string
	sizeBytes   int64
	rows        int64
	cols        int64
	nulls       int64
	pctNulls    float64
	taskID      int64
}

// NewDataFrame builds an unsaved dataframe pointing at a frame store table.
func NewDataFrame(name, description, table string, mode Mode, stage Stage) *DataFrame {
	return &DataFrame{
		Base:        newBase(name),
		description: description,
		table:       table,
		mode:        mode,
		stage:       stage,
	}
}

func (f *DataFrame) Description() string { return f.description }
func (f *DataFrame) DatasetID() int64    { return f.datasetID }
func (f *DataFrame) SourceID() int64     { return f.sourceID }
func (f *DataFrame) Mode() Mode          { return f.mode }
func (f *DataFrame) Stage() Stage        { return f.stage }
func (f *DataFrame) Table() string       { return f.table }
func (f *DataFrame) SizeBytes() int64    { return f.sizeBytes }
func (f *DataFrame) Rows() int64         { return f.rows }
func (f *DataFrame) Cols() int64         { return f.cols }
func (f *DataFrame) Nulls() int64        { return f.nulls }
func (f *DataFrame) PctNulls() float64   { return f.pctNulls }
func (f *DataFrame) TaskID() int64       { return f.taskID }

func (f *DataFrame) SetDatasetID(id int64) { f.datasetID = id }
func (f *DataFrame) SetSourceID(id int64)  { f.sourceID = id }
func (f *DataFrame) SetTaskID(id int64)    { f.taskID = id }

// SetStats records the measured shape of the frame store table.
func (f *DataFrame) SetStats(rows, cols, nulls int64, pctNulls float64, sizeBytes int64) {
	f.rows = rows
	f.cols = cols
	f.nulls = nulls
	f.pctNulls = pctNulls
	f.sizeBytes = sizeBytes
}

func (f *DataFrame) Validate() error {
	if err := f.validateBase(); err != nil {
		return fmt.Errorf("dataframe: %w", err)
	}
	if !f.mode.Valid() {
		return fmt.Errorf("dataframe %q: invalid mode %q", f.name, f.mode)
	}
	if !f.stage.Valid() {
		return fmt.Errorf("dataframe %q: invalid stage %q", f.name, f.stage)
	}
	if f.table == "" {
		return fmt.Errorf("dataframe %q: frame table is required", f.name)
	}
	return nil
}
