package testkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"evdash/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// GeneratorConfig configures the synthetic EV/charger generator
type GeneratorConfig struct {
	RegionCount int     `json:"region_count"`
	Slope       float64 `json:"slope"`
	Intercept   float64 `json:"intercept"`
	Noise       float64 `json:"noise"`
	Year        int     `json:"year"`
	Seed        int64   `json:"seed"`
}

// DefaultGeneratorConfig returns sensible defaults for fixture generation
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		RegionCount: 24,
		Slope:       8.0,
		Intercept:   120.0,
		Noise:       40.0,
		Year:        2024,
		Seed:        42,
	}
}

// DefaultColumns mirrors the default column configuration
func DefaultColumns() dataset.ColumnMap {
	return dataset.ColumnMap{
		Region:        "시군구",
		Registrations: "전기차등록수",
		Chargers:      "충전기수",
		SlowChargers:  "완속충전기",
		FastChargers:  "급속충전기",
		Date:          "기준년월",
	}
}

var regionNames = []string{
	"서울 강남구", "서울 송파구", "서울 마포구", "부산 해운대구", "대구 수성구",
	"인천 연수구", "광주 서구", "대전 유성구", "울산 남구", "세종시",
	"수원시", "성남시", "고양시", "용인시", "청주시", "천안시",
	"전주시", "포항시", "창원시", "제주시",
}

// Region is one generated region row
type Region struct {
	Name          string
	Month         string
	Registrations float64
	SlowChargers  float64
	FastChargers  float64
}

// Chargers returns the total charger count
func (r Region) Chargers() float64 { return r.SlowChargers + r.FastChargers }

// Fixture is a deterministic pair of EV and charger tables
type Fixture struct {
	Config  GeneratorConfig
	Regions []Region
}

// NewFixture generates regions where registrations follow
// Intercept + Slope*chargers plus gaussian noise
func NewFixture(config GeneratorConfig) *Fixture {
	rng := rand.New(rand.NewSource(config.Seed))
	regions := make([]Region, config.RegionCount)
	for i := range regions {
		name := fmt.Sprintf("지역-%02d", i+1)
		if i < len(regionNames) {
			name = regionNames[i]
		}
		slow := float64(20 + rng.Intn(200))
		fast := float64(5 + rng.Intn(60))
		registrations := config.Intercept + config.Slope*(slow+fast) + rng.NormFloat64()*config.Noise
		regions[i] = Region{
			Name:          name,
			Month:         fmt.Sprintf("%d-%02d", config.Year, i%12+1),
			Registrations: math.Max(0, math.Round(registrations)),
			SlowChargers:  slow,
			FastChargers:  fast,
		}
	}
	return &Fixture{Config: config, Regions: regions}
}

// EVRows returns the EV registration table with a header row
func (f *Fixture) EVRows(cols dataset.ColumnMap) [][]string {
	rows := [][]string{{cols.Region, cols.Date, cols.Registrations}}
	for _, r := range f.Regions {
		rows = append(rows, []string{r.Name, r.Month, formatCount(r.Registrations)})
	}
	return rows
}

// ChargerRows returns the charger table split into slow and fast columns
func (f *Fixture) ChargerRows(cols dataset.ColumnMap) [][]string {
	rows := [][]string{{cols.Region, cols.SlowChargers, cols.FastChargers}}
	for _, r := range f.Regions {
		rows = append(rows, []string{r.Name, formatCount(r.SlowChargers), formatCount(r.FastChargers)})
	}
	return rows
}

// Series returns chargers (x) and registrations (y) in region order
func (f *Fixture) Series() (x, y []float64) {
	for _, r := range f.Regions {
		x = append(x, r.Chargers())
		y = append(y, r.Registrations)
	}
	return x, y
}

// WriteFiles writes both tables into dir as csv or xlsx and returns the paths
func (f *Fixture) WriteFiles(dir, format string, cols dataset.ColumnMap) (evPath, chargerPath string, err error) {
	evPath = filepath.Join(dir, "ev_registrations."+format)
	chargerPath = filepath.Join(dir, "chargers."+format)

	write := WriteCSV
	if format == "xlsx" {
		write = func(path string, rows [][]string) error { return WriteXLSX(path, "Sheet1", rows) }
	}
	if err := write(evPath, f.EVRows(cols)); err != nil {
		return "", "", err
	}
	if err := write(chargerPath, f.ChargerRows(cols)); err != nil {
		return "", "", err
	}
	return evPath, chargerPath, nil
}

// CSVBytes renders rows as UTF-8 CSV
func CSVBytes(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteCSV writes rows to path as UTF-8 CSV
func WriteCSV(path string, rows [][]string) error {
	content, err := CSVBytes(rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

// WriteXLSX writes rows into a single-sheet workbook
func WriteXLSX(path, sheet string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return f.SaveAs(path)
}

func formatCount(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
