package postgres

import (
	"context"
	"time"

	"evdash/domain/core"
	"evdash/domain/dataset"
	"evdash/internal/errors"
)

// Source loads a previously imported dataset from PostgreSQL
type Source struct {
	repo  *ObservationRepository
	label string
}

// NewSource creates a source reading repo; label names it in the UI
func NewSource(repo *ObservationRepository, label string) *Source {
	return &Source{repo: repo, label: label}
}

// Key identifies the table; imports should invalidate it
func (s *Source) Key() string {
	return "postgres:" + core.ComputeKeyHash(s.label, s.repo.runner.Table()).Short()
}

// Load lists the stored observations as a dataset
func (s *Source) Load(ctx context.Context) (*dataset.Dataset, error) {
	obs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, errors.InsufficientData("table " + s.repo.runner.Table() + " has no observations")
	}

	ds := &dataset.Dataset{
		ID:           core.NewDatasetID(),
		Source:       s.label,
		LoadedAt:     time.Now().UTC(),
		Observations: obs,
		Merge:        dataset.MergeStats{LeftRows: len(obs), RightRows: len(obs), MatchedRows: len(obs)},
	}
	for _, o := range obs {
		if o.HasPeriod() {
			ds.Dates.Parsed++
		}
	}
	return ds, nil
}
