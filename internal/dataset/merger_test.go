package dataset

import (
	"testing"

	"evdash/domain/dataset"
	"evdash/internal/errors"
	"evdash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(headers []string, rows ...[]string) *dataset.RawTable {
	t := &dataset.RawTable{Headers: headers}
	for _, r := range rows {
		row := make(dataset.RawRow)
		for i, v := range r {
			row[headers[i]] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func TestMerge_RowCountAndRatio(t *testing.T) {
	cols := testkit.DefaultColumns()
	ev := table([]string{"시군구", "전기차등록수"},
		[]string{"A", "100"},
		[]string{"B", "1,200"},
		[]string{"C", "30"},
		[]string{"D", "50"},
	)
	chargers := table([]string{"시군구", "완속충전기", "급속충전기"},
		[]string{"A", "8", "2"},
		[]string{"B", "40", "20"},
		[]string{"C", "0", "0"},
		[]string{"E", "5", "5"},
	)

	evRecords, _, err := DecodeEV(ev, cols)
	require.NoError(t, err)
	chargerRecords, _, err := DecodeChargers(chargers, cols)
	require.NoError(t, err)

	rows, stats := Merge(evRecords, chargerRecords)
	require.Len(t, rows, 3)
	assert.Equal(t, 3, stats.MatchedRows)
	assert.Equal(t, []string{"D"}, stats.UnmatchedLeft)
	assert.Equal(t, []string{"E"}, stats.UnmatchedRight)

	expected := map[string]float64{"A": 10, "B": 20}
	for _, row := range rows {
		obs := row.Observation
		assert.Equal(t, obs.SlowChargers+obs.FastChargers, obs.Chargers, obs.Region)
		if obs.Chargers > 0 {
			require.True(t, obs.HasRatio, obs.Region)
			assert.InDelta(t, obs.Registrations/obs.Chargers, obs.VehiclesPerCharger, 1e-12)
			assert.InDelta(t, expected[obs.Region], obs.VehiclesPerCharger, 1e-12)
		} else {
			assert.False(t, obs.HasRatio, obs.Region)
			assert.Zero(t, obs.VehiclesPerCharger)
		}
	}
}

func TestMerge_DuplicateKeysCrossProduct(t *testing.T) {
	ev := []EVRecord{{Region: "A", Registrations: 1}, {Region: "A", Registrations: 2}, {Region: "B", Registrations: 3}}
	chargers := []ChargerRecord{{Region: "A", Total: 10}, {Region: "A", Total: 20}, {Region: "A", Total: 30}, {Region: "B", Total: 1}}

	rows, stats := Merge(ev, chargers)

	assert.Equal(t, 2*3+1, stats.MatchedRows)
	require.Len(t, rows, 7)
	assert.Equal(t, 1.0, rows[0].Observation.Registrations)
	assert.Equal(t, 10.0, rows[0].Observation.Chargers)
	assert.Equal(t, 30.0, rows[2].Observation.Chargers)
	assert.Equal(t, 2.0, rows[3].Observation.Registrations)
	assert.Equal(t, "B", rows[6].Observation.Region)
	assert.Empty(t, stats.UnmatchedLeft)
	assert.Empty(t, stats.UnmatchedRight)
}

func TestDecodeChargers_TotalColumnWins(t *testing.T) {
	cols := testkit.DefaultColumns()
	chargers := table([]string{"시군구", "충전기수", "완속충전기", "급속충전기"},
		[]string{"A", "15", "8", "2"},
	)

	records, _, err := DecodeChargers(chargers, cols)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 15.0, records[0].Total)
	assert.Equal(t, 8.0, records[0].Slow)
}

func TestDecode_MissingColumns(t *testing.T) {
	cols := testkit.DefaultColumns()

	_, _, err := DecodeEV(table([]string{"시군구"}, []string{"A"}), cols)
	require.Error(t, err)
	assert.Equal(t, errors.CodeMissingColumn, errors.GetCode(err))
	assert.Contains(t, err.Error(), "전기차등록수")

	_, _, err = DecodeChargers(table([]string{"시군구", "완속충전기"}, []string{"A", "1"}), cols)
	require.Error(t, err)
	assert.Equal(t, errors.CodeMissingColumn, errors.GetCode(err))
}

func TestDecodeEV_SkipsBadRows(t *testing.T) {
	cols := testkit.DefaultColumns()
	ev := table([]string{"시군구", "전기차등록수"},
		[]string{"A", "10"},
		[]string{"B", "n/a"},
		[]string{"", "5"},
		[]string{"C", "-"},
	)

	records, stats, err := DecodeEV(ev, cols)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, stats.SkippedRows)
	assert.Contains(t, stats.Problems[0], "row 3")
	assert.Equal(t, 0.0, records[1].Registrations)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" 1,234 ", 1234, true},
		{"3.5", 3.5, true},
		{"-", 0, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseNumber(tt.in)
		if tt.ok {
			assert.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got, tt.in)
		} else {
			assert.Error(t, err, tt.in)
		}
	}
}
