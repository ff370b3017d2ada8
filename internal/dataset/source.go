package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"evdash/adapters/excel"
	"evdash/domain/core"
	"evdash/domain/dataset"
	"evdash/internal/errors"
	"evdash/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source produces a merged dataset. Key identifies the content for caching.
type Source interface {
	Key() string
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// Options control decoding shared by file and upload sources
type Options struct {
	Columns     dataset.ColumnMap
	Reader      excel.ReaderConfig
	DateLayouts []string
	Logger      *zap.Logger
}

func (o Options) fingerprint() []string {
	c := o.Columns
	return []string{c.Region, c.Registrations, c.Chargers, c.SlowChargers, c.FastChargers, c.Date,
		o.Reader.Sheet, o.Reader.Encoding, fmt.Sprint(o.DateLayouts)}
}

// Build decodes, joins and date-parses raw tables. A nil charger table means
// the EV table carries both registrations and chargers.
func Build(name string, evTable, chargerTable *dataset.RawTable, opts Options) (*dataset.Dataset, error) {
	cols := opts.Columns
	ds := &dataset.Dataset{
		ID:       core.NewDatasetID(),
		Source:   name,
		LoadedAt: time.Now().UTC(),
	}

	var rows []MergedRow
	hasDate := evTable.HasColumn(cols.Date)
	if chargerTable == nil {
		var err error
		rows, ds.EVDecode, err = DecodeCombined(evTable, cols)
		if err != nil {
			return nil, err
		}
		ds.Merge = dataset.MergeStats{LeftRows: len(rows), RightRows: len(rows), MatchedRows: len(rows)}
	} else {
		evRecords, evStats, err := DecodeEV(evTable, cols)
		if err != nil {
			return nil, err
		}
		chargerRecords, chargerStats, err := DecodeChargers(chargerTable, cols)
		if err != nil {
			return nil, err
		}
		ds.EVDecode, ds.ChargerDecode = evStats, chargerStats
		rows, ds.Merge = Merge(evRecords, chargerRecords)
		hasDate = hasDate || chargerTable.HasColumn(cols.Date)
	}

	if hasDate {
		ds.Observations, ds.Dates = ParseDates(rows, cols.Date, opts.DateLayouts)
	} else {
		ds.Observations = WithoutDates(rows)
	}

	if len(ds.Observations) == 0 {
		return nil, errors.Newf(errors.CodeInsufficientData,
			"no rows left after joining on %q (%d EV rows, %d charger rows, %d dropped by date parsing)",
			cols.Region, ds.Merge.LeftRows, ds.Merge.RightRows, ds.Dates.Dropped)
	}

	logging.OrNop(opts.Logger).Info("dataset built",
		zap.String("source", name),
		zap.String("dataset_id", ds.ID.String()),
		zap.Int("rows", len(ds.Observations)),
		zap.Int("unmatched_left", len(ds.Merge.UnmatchedLeft)),
		zap.Int("unmatched_right", len(ds.Merge.UnmatchedRight)),
		zap.Int("dates_dropped", ds.Dates.Dropped))
	return ds, nil
}

// FileSource reads the two tables from fixed paths. An empty ChargerPath
// reads a single combined table.
type FileSource struct {
	EVPath      string
	ChargerPath string
	opts        Options
}

// NewFileSource creates a source for files on disk
func NewFileSource(evPath, chargerPath string, opts Options) *FileSource {
	return &FileSource{EVPath: evPath, ChargerPath: chargerPath, opts: opts}
}

// Key hashes the paths and decoding options
func (s *FileSource) Key() string {
	fields := append([]string{s.EVPath, s.ChargerPath}, s.opts.fingerprint()...)
	return "file:" + core.ComputeKeyHash(fields...).Short()
}

// Paths returns the files this source depends on
func (s *FileSource) Paths() []string {
	if s.ChargerPath == "" {
		return []string{s.EVPath}
	}
	return []string{s.EVPath, s.ChargerPath}
}

// Load reads both files concurrently, then builds the dataset
func (s *FileSource) Load(ctx context.Context) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var evTable, chargerTable *dataset.RawTable

	var g errgroup.Group
	g.Go(func() error {
		var err error
		evTable, err = excel.NewDataReader(s.EVPath, s.opts.Reader, s.opts.Logger).ReadData()
		return errors.Wrapf(err, "failed to read EV file %s", s.EVPath)
	})
	if s.ChargerPath != "" {
		g.Go(func() error {
			var err error
			chargerTable, err = excel.NewDataReader(s.ChargerPath, s.opts.Reader, s.opts.Logger).ReadData()
			return errors.Wrapf(err, "failed to read charger file %s", s.ChargerPath)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	name := filepath.Base(s.EVPath)
	if s.ChargerPath != "" {
		name += " + " + filepath.Base(s.ChargerPath)
	}
	return Build(name, evTable, chargerTable, s.opts)
}

// UploadFile is an uploaded table held in memory
type UploadFile struct {
	Name    string
	Content []byte
}

// UploadSource builds a dataset from uploaded files. A zero Charger means
// the EV upload is a combined table.
type UploadSource struct {
	EV      UploadFile
	Charger UploadFile
	opts    Options
}

// NewUploadSource creates a source for uploaded content
func NewUploadSource(ev, charger UploadFile, opts Options) *UploadSource {
	return &UploadSource{EV: ev, Charger: charger, opts: opts}
}

// Key hashes the uploaded bytes, names and decoding options
func (s *UploadSource) Key() string {
	parts := [][]byte{[]byte(s.EV.Name), s.EV.Content, []byte(s.Charger.Name), s.Charger.Content}
	for _, f := range s.opts.fingerprint() {
		parts = append(parts, []byte(f))
	}
	return "upload:" + core.ComputeContentHash(parts...).Short()
}

// Load parses the uploads and builds the dataset
func (s *UploadSource) Load(ctx context.Context) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	evTable, err := excel.NewStreamReader(s.EV.Name, s.EV.Content, s.opts.Reader, s.opts.Logger).ReadData()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read EV upload %s", s.EV.Name)
	}

	var chargerTable *dataset.RawTable
	name := s.EV.Name
	if s.Charger.Name != "" {
		chargerTable, err = excel.NewStreamReader(s.Charger.Name, s.Charger.Content, s.opts.Reader, s.opts.Logger).ReadData()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read charger upload %s", s.Charger.Name)
		}
		name += " + " + s.Charger.Name
	}
	return Build(name, evTable, chargerTable, s.opts)
}
