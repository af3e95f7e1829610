package frames

import (
	"context"
	"fmt"
)

// SampleSpec selects the fraction of rows (or clusters) to keep and the
// seed that makes the draw repeatable.
type SampleSpec struct {
	Frac float64
	Seed int64
}

func (sp SampleSpec) validate() error {
	if sp.Frac <= 0 || sp.Frac > 1 {
		return fmt.Errorf("sample fraction must be in (0, 1], got %g", sp.Frac)
	}
	return nil
}

// Sample draws a repeatable bernoulli sample of src's rows into dst.
func (s *Store) Sample(ctx context.Context, src, dst string, spec SampleSpec) error {
	qsrc, err := ident(src)
	if err != nil {
		return err
	}
	qdst, err := ident(dst)
	if err != nil {
		return err
	}
	if err := spec.validate(); err != nil {
		return err
	}

	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT * FROM %s USING SAMPLE %g PERCENT (bernoulli, %d)`,
		qdst, qsrc, spec.Frac*100, spec.Seed)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to sample %s: %w", src, err)
	}

	return nil
}

// ClusterSample draws a repeatable sample of the distinct values of
// clusterBy and keeps every src row belonging to a drawn cluster, so
// clusters survive whole instead of being thinned row by row.
func (s *Store) ClusterSample(ctx context.Context, src, dst, clusterBy string, spec SampleSpec) error {
	qsrc, err := ident(src)
	if err != nil {
		return err
	}
	qdst, err := ident(dst)
	if err != nil {
		return err
	}
	qc, err := ident(clusterBy)
	if err != nil {
		return err
	}
	if err := spec.validate(); err != nil {
		return err
	}

	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS
SELECT t.* FROM %s t
WHERE t.%s IN (
	SELECT %s FROM (SELECT DISTINCT %s FROM %s) c USING SAMPLE %g PERCENT (bernoulli, %d)
)`,
		qdst, qsrc, qc, qc, qc, qsrc, spec.Frac*100, spec.Seed)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to cluster sample %s: %w", src, err)
	}

	return nil
}

// SplitSpec controls a train/test partition: the fraction routed to the
// train side, the seed that fixes the assignment, and optionally a column
// whose distinct values are kept on one side wholesale.
type SplitSpec struct {
	TrainFrac float64
	Seed      int64
	ClusterBy string
}

func (sp SplitSpec) validate() error {
	if sp.TrainFrac <= 0 || sp.TrainFrac >= 1 {
		return fmt.Errorf("train fraction must be in (0, 1), got %g", sp.TrainFrac)
	}
	return nil
}

// Split partitions src into trainDst and testDst. Every row lands on
// exactly one side: each row (or each cluster when ClusterBy is set) hashes
// with the seed to a bucket in [0, 1), and buckets below TrainFrac train.
// The same spec always produces the same partition.
func (s *Store) Split(ctx context.Context, src, trainDst, testDst string, spec SplitSpec) error {
	qsrc, err := ident(src)
	if err != nil {
		return err
	}
	qtrain, err := ident(trainDst)
	if err != nil {
		return err
	}
	qtest, err := ident(testDst)
	if err != nil {
		return err
	}
	if err := spec.validate(); err != nil {
		return err
	}

	keyExpr := "CAST(t.rowid AS VARCHAR)"
	if spec.ClusterBy != "" {
		qc, err := ident(spec.ClusterBy)
		if err != nil {
			return err
		}
		keyExpr = fmt.Sprintf("CAST(t.%s AS VARCHAR)", qc)
	}
	bucket := fmt.Sprintf("(hash(%s || '/' || CAST(? AS VARCHAR)) %% 1000000) / 1000000.0", keyExpr)

	train := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT t.* FROM %s t WHERE %s < ?`, qtrain, qsrc, bucket)
	if _, err := s.db.ExecContext(ctx, train, spec.Seed, spec.TrainFrac); err != nil {
		return fmt.Errorf("failed to split %s: %w", src, err)
	}

	test := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT t.* FROM %s t WHERE %s >= ?`, qtest, qsrc, bucket)
	if _, err := s.db.ExecContext(ctx, test, spec.Seed, spec.TrainFrac); err != nil {
		return fmt.Errorf("failed to split %s: %w", src, err)
	}

	return nil
}

// CenterBy copies src into dst with an extra column outVar holding varName
// minus its mean within each groupVar group. Centering ratings on their
// user mean is the canonical use.
func (s *Store) CenterBy(ctx context.Context, src, dst, varName, groupVar, outVar string) error {
	qsrc, err := ident(src)
	if err != nil {
		return err
	}
	qdst, err := ident(dst)
	if err != nil {
		return err
	}
	qv, err := ident(varName)
	if err != nil {
		return err
	}
	qg, err := ident(groupVar)
	if err != nil {
		return err
	}
	qout, err := ident(outVar)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS
SELECT t.*, t.%s - AVG(t.%s) OVER (PARTITION BY t.%s) AS %s FROM %s t`,
		qdst, qv, qv, qg, qout, qsrc)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to center %s: %w", src, err)
	}

	return nil
}

// MeanBy aggregates src into dst with one row per groupVar value and the
// mean of varName as outVar.
func (s *Store) MeanBy(ctx context.Context, src, dst, varName, groupVar, outVar string) error {
	qsrc, err := ident(src)
	if err != nil {
		return err
	}
	qdst, err := ident(dst)
	if err != nil {
		return err
	}
	qv, err := ident(varName)
	if err != nil {
		return err
	}
	qg, err := ident(groupVar)
	if err != nil {
		return err
	}
	qout, err := ident(outVar)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT %s, AVG(%s) AS %s FROM %s GROUP BY %s`,
		qdst, qg, qv, qout, qsrc, qg)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to aggregate %s: %w", src, err)
	}

	return nil
}

// PairsBy expands src into co-occurrence pairs: for every two rows that
// share a value of onVar, dst gets one row with the pair of idVar values
// and their valueVar readings. Pairs are canonical (left_id < right_id),
// so each pair appears once per shared onVar value. The output columns are
// left_id, right_id, on_id, left_value and right_value.
func (s *Store) PairsBy(ctx context.Context, src, dst, onVar, idVar, valueVar string) error {
	qsrc, err := ident(src)
	if err != nil {
		return err
	}
	qdst, err := ident(dst)
	if err != nil {
		return err
	}
	qon, err := ident(onVar)
	if err != nil {
		return err
	}
	qid, err := ident(idVar)
	if err != nil {
		return err
	}
	qval, err := ident(valueVar)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS
SELECT a.%s AS left_id, b.%s AS right_id, a.%s AS on_id, a.%s AS left_value, b.%s AS right_value
FROM %s a JOIN %s b ON a.%s = b.%s AND a.%s < b.%s`,
		qdst, qid, qid, qon, qval, qval, qsrc, qsrc, qon, qon, qid, qid)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to pair %s: %w", src, err)
	}

	return nil
}

// CosineBy reduces a pairs frame (the output shape of [Store.PairsBy]) to
// one weight per pair: the cosine similarity of the two sides' value
// vectors over their shared on_id values. Pairs whose vectors have no
// magnitude get a NULL weight.
func (s *Store) CosineBy(ctx context.Context, src, dst string) error {
	qsrc, err := ident(src)
	if err != nil {
		return err
	}
	qdst, err := ident(dst)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS
SELECT left_id, right_id,
	SUM(left_value * right_value) /
	NULLIF(SQRT(SUM(left_value * left_value)) * SQRT(SUM(right_value * right_value)), 0) AS weight
FROM %s
GROUP BY left_id, right_id`,
		qdst, qsrc)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to weight %s: %w", src, err)
	}

	return nil
}

// MergeBy joins left and right on their shared onVar column into dst. The
// join key appears once in the output; all other columns of both frames
// are carried over. how selects the join type, "inner" or "left"; an empty
// how means inner.
func (s *Store) MergeBy(ctx context.Context, left, right, dst, onVar, how string) error {
	qleft, err := ident(left)
	if err != nil {
		return err
	}
	qright, err := ident(right)
	if err != nil {
		return err
	}
	qdst, err := ident(dst)
	if err != nil {
		return err
	}
	qon, err := ident(onVar)
	if err != nil {
		return err
	}

	var join string
	switch how {
	case "", "inner":
		join = "JOIN"
	case "left":
		join = "LEFT JOIN"
	default:
		return fmt.Errorf("unsupported join type %q", how)
	}

	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT * FROM %s l %s %s r USING (%s)`,
		qdst, qleft, join, qright, qon)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to merge %s and %s: %w", left, right, err)
	}

	return nil
}
