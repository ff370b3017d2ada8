package app

import (
	loader "evdash/internal/dataset"
	"evdash/internal/testkit"
)

// DemoSource serves generated fixture tables under the configured column
// names, so the dashboard has something to show before any upload
func DemoSource(opts loader.Options) (loader.Source, error) {
	fixture := testkit.NewFixture(testkit.DefaultGeneratorConfig())
	ev, err := testkit.CSVBytes(fixture.EVRows(opts.Columns))
	if err != nil {
		return nil, err
	}
	chargers, err := testkit.CSVBytes(fixture.ChargerRows(opts.Columns))
	if err != nil {
		return nil, err
	}
	return loader.NewUploadSource(
		loader.UploadFile{Name: "demo_ev_registrations.csv", Content: ev},
		loader.UploadFile{Name: "demo_chargers.csv", Content: chargers},
		opts,
	), nil
}
