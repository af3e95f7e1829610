package pipeline

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/operators"
)

// pipelineFile is the top level shape of a pipeline TOML file. Stage
// bodies stay undecoded until the operator kind is known.
type pipelineFile struct {
	Name        string           `toml:"name"`
	Description string           `toml:"description"`
	Mode        string           `toml:"mode"`
	Seed        int64            `toml:"seed"`
	Stages      []toml.Primitive `toml:"stage"`
}

// stageHeader is the operator-independent part of a [[stage]] table.
type stageHeader struct {
	Name     string       `toml:"name"`
	Operator string       `toml:"operator"`
	Output   *DatasetSpec `toml:"output"`
}

// Load parses the pipeline file at path. Stage tables decode in two
// passes: the header picks the operator kind, then the same table
// decodes into that operator's config.
func Load(path string) (*Pipeline, error) {
	var file pipelineFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file %s: %w", path, err)
	}

	if file.Name == "" {
		return nil, fmt.Errorf("pipeline file %s: name is required", path)
	}
	if len(file.Stages) == 0 {
		return nil, fmt.Errorf("pipeline %q has no stages", file.Name)
	}

	mode := models.ModeDev
	if file.Mode != "" {
		mode, err = models.ParseMode(file.Mode)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", file.Name, err)
		}
	}

	p := &Pipeline{
		Name:        file.Name,
		Description: file.Description,
		Mode:        mode,
		Seed:        file.Seed,
	}

	for i, prim := range file.Stages {
		var hdr stageHeader
		if err := md.PrimitiveDecode(prim, &hdr); err != nil {
			return nil, fmt.Errorf("pipeline %q stage %d: %w", file.Name, i+1, err)
		}

		op, err := buildOperator(md, hdr.Operator, prim)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q stage %d: %w", file.Name, i+1, err)
		}

		name := hdr.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", op.Name(), i+1)
		}
		if hdr.Output != nil {
			if hdr.Output.Name == "" {
				return nil, fmt.Errorf("pipeline %q stage %d: output requires a name", file.Name, i+1)
			}
			if hdr.Output.Stage == "" {
				hdr.Output.Stage = models.StageInterim.String()
			}
			if _, err := models.ParseStage(hdr.Output.Stage); err != nil {
				return nil, fmt.Errorf("pipeline %q stage %d: %w", file.Name, i+1, err)
			}
		}

		p.AddStage(Stage{Name: name, Operator: op, Output: hdr.Output})
	}

	return p, nil
}

// decodeStage re-decodes a stage table into a concrete operator config.
func decodeStage[T any](md toml.MetaData, prim toml.Primitive) (*T, error) {
	var op T
	if err := md.PrimitiveDecode(prim, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// buildOperator decodes a stage table into the operator named by kind.
func buildOperator(md toml.MetaData, kind string, prim toml.Primitive) (operators.Operator, error) {
	switch kind {
	case "download":
		op, err := decodeStage[operators.Download](md, prim)
		if err != nil {
			return nil, err
		}
		if err := require("download", field{"url", op.URL}, field{"destination", op.Destination}); err != nil {
			return nil, err
		}
		return op, nil

	case "extract":
		op, err := decodeStage[operators.Extract](md, prim)
		if err != nil {
			return nil, err
		}
		if err := require("extract", field{"archive", op.Archive}, field{"destination", op.Destination}); err != nil {
			return nil, err
		}
		return op, nil

	case "ingest":
		op, err := decodeStage[operators.Ingest](md, prim)
		if err != nil {
			return nil, err
		}
		if err := require("ingest", field{"path", op.Path}, field{"table", op.Table}); err != nil {
			return nil, err
		}
		return op, nil

	case "sample":
		op, err := decodeStage[operators.Sample](md, prim)
		if err != nil {
			return nil, err
		}
		if err := require("sample", field{"out", op.Out}); err != nil {
			return nil, err
		}
		if op.Frac == 0 {
			return nil, fmt.Errorf("sample requires frac")
		}
		if op.Cluster && op.ClusterBy == "" {
			return nil, fmt.Errorf("sample with cluster requires cluster_by")
		}
		return op, nil

	case "split":
		op, err := decodeStage[operators.Split](md, prim)
		if err != nil {
			return nil, err
		}
		if err := require("split", field{"train_out", op.TrainOut}, field{"test_out", op.TestOut}); err != nil {
			return nil, err
		}
		if op.TrainFrac == 0 {
			return nil, fmt.Errorf("split requires train_frac")
		}
		if op.Cluster && op.ClusterBy == "" {
			return nil, fmt.Errorf("split with cluster requires cluster_by")
		}
		return op, nil

	case "center":
		op, err := decodeStage[operators.Center](md, prim)
		if err != nil {
			return nil, err
		}
		if err := require("center", field{"out", op.Out}, field{"var", op.Var}, field{"group_var", op.GroupVar}); err != nil {
			return nil, err
		}
		return op, nil

	case "aggregate":
		op, err := decodeStage[operators.Aggregate](md, prim)
		if err != nil {
			return nil, err
		}
		if err := require("aggregate", field{"out", op.Out}, field{"var", op.Var}, field{"group_var", op.GroupVar}); err != nil {
			return nil, err
		}
		return op, nil

	case "pairs":
		op, err := decodeStage[operators.Pairs](md, prim)
		if err != nil {
			return nil, err
		}
		if err := require("pairs", field{"out", op.Out}, field{"on", op.On}, field{"id", op.ID}, field{"var", op.Var}); err != nil {
			return nil, err
		}
		return op, nil

	case "weights":
		op, err := decodeStage[operators.Weights](md, prim)
		if err != nil {
			return nil, err
		}
		if err := require("weights", field{"out", op.Out}); err != nil {
			return nil, err
		}
		return op, nil

	case "merge":
		op, err := decodeStage[operators.Merge](md, prim)
		if err != nil {
			return nil, err
		}
		if err := require("merge", field{"right", op.Right}, field{"out", op.Out}, field{"on", op.On}); err != nil {
			return nil, err
		}
		return op, nil

	case "null":
		return operators.Null{}, nil

	case "":
		return nil, fmt.Errorf("stage is missing an operator")

	default:
		return nil, fmt.Errorf("unknown operator %q", kind)
	}
}

type field struct {
	name  string
	value string
}

// require reports the first missing required setting for an operator.
func require(op string, fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%s requires %s", op, f.name)
		}
	}
	return nil
}
