package loader

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-loader/internal/ecommerce"
	"ecommerce-loader/internal/importer"
)

func TestRun_LoadsBothSources(t *testing.T) {
	f := newFixture(t, defaultPlatforms, defaultEvents)
	catalog := f.catalog(t, ecommerce.VariantLegacy)
	backend := f.sqlite()

	summary, err := New(backend, catalog, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Committed)
	assert.True(t, summary.Provision.Created)
	assert.Equal(t, "sqlite", summary.Backend)
	assert.NotEmpty(t, summary.RunID)

	require.Len(t, summary.Sources, 2)
	assert.Equal(t, ecommerce.SourcePlatforms, summary.Sources[0].Source)
	assert.Equal(t, "cpc", summary.Sources[0].Table)
	assert.Equal(t, int64(3), summary.Sources[0].RowsLoaded)
	assert.Equal(t, ecommerce.SourceCustomerEvents, summary.Sources[1].Source)
	assert.Equal(t, "customers", summary.Sources[1].Table)
	assert.Equal(t, int64(4), summary.Sources[1].RowsLoaded)
	assert.Equal(t, int64(4), summary.Sources[1].RowsRead)
	assert.Equal(t, int64(7), summary.RowsLoaded())
	assert.Zero(t, summary.Rejected())

	assert.Equal(t, []TableCount{
		{Table: "cpc", Rows: 3, Expected: 3},
		{Table: "customers", Rows: 4, Expected: 4},
	}, summary.Verified)
	assert.Equal(t, int64(2), summary.BatchLatency.Batches)
}

func TestRun_IsIdempotent(t *testing.T) {
	f := newFixture(t, defaultPlatforms, defaultEvents)
	catalog := f.catalog(t, ecommerce.VariantLegacy)

	_, err := New(f.sqlite(), catalog, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)

	summary, err := New(f.sqlite(), catalog, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Provision.Created)

	events, _ := catalog.Table("customers")
	assert.Equal(t, int64(4), countRows(t, f.sqlite(), events))
}

func TestRun_NormalizedVariant(t *testing.T) {
	f := newFixture(t, defaultPlatforms, defaultEvents)
	catalog := f.catalog(t, ecommerce.VariantNormalized)

	summary, err := New(f.sqlite(), catalog, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)

	res, ok := summary.Source(ecommerce.SourceCustomerEvents)
	require.True(t, ok)
	assert.Equal(t, "customer_events", res.Table)
	assert.Equal(t, int64(4), res.RowsLoaded)

	platforms, _ := catalog.Table("platforms")
	assert.Equal(t, int64(3), countRows(t, f.sqlite(), platforms))
}

var eventsWithBadDate = csvFile(
	eventsHeader,
	"12.5,4,1,59.99,Search,0.3,Banner,1,100,2023-01-02,1",
	"3.2,1,0,5,Direct,0.1,,0,101,2023-13-45,2",
	"45.0,9,1,120.5,Social,0.9,Video,1,102,2023-01-04,3",
)

func TestRun_SkipsMalformedRows(t *testing.T) {
	f := newFixture(t, defaultPlatforms, eventsWithBadDate)
	catalog := f.catalog(t, ecommerce.VariantLegacy)

	summary, err := New(f.sqlite(), catalog, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)

	res, ok := summary.Source(ecommerce.SourceCustomerEvents)
	require.True(t, ok)
	assert.Equal(t, int64(3), res.RowsRead)
	assert.Equal(t, int64(2), res.RowsLoaded)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 3, res.Rejected[0].Line)
	assert.Equal(t, "Date_Accessed", res.Rejected[0].Column)
	assert.Equal(t, "2023-13-45", res.Rejected[0].Value)

	events, _ := catalog.Table("customers")
	assert.Equal(t, int64(2), countRows(t, f.sqlite(), events))
}

func TestRun_AbortPolicyRollsBack(t *testing.T) {
	f := newFixture(t, defaultPlatforms, defaultEvents)
	catalog := f.catalog(t, ecommerce.VariantLegacy)

	_, err := New(f.sqlite(), catalog, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(f.events, []byte(eventsWithBadDate), 0644))
	opts := defaultOptions()
	opts.OnRowError = Abort

	summary, err := New(f.sqlite(), catalog, opts, nil).Run(context.Background())
	require.ErrorIs(t, err, ErrImportAborted)

	var rowErr *importer.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Line)
	assert.False(t, summary.Committed)
	assert.Empty(t, summary.Verified)

	// The previous load survives the rolled back run.
	events, _ := catalog.Table("customers")
	assert.Equal(t, int64(4), countRows(t, f.sqlite(), events))
}

var eventsWithOrphan = csvFile(
	eventsHeader,
	"12.5,4,1,59.99,Search,0.3,Banner,1,100,2023-01-02,1",
	"3.2,1,0,5,Direct,0.1,,0,101,2023-01-03,42",
	"3.2,1,0,5,Direct,0.1,,0,102,2023-01-03,",
)

func TestRun_RejectsOrphanReferences(t *testing.T) {
	f := newFixture(t, defaultPlatforms, eventsWithOrphan)
	catalog := f.catalog(t, ecommerce.VariantLegacy)

	summary, err := New(f.sqlite(), catalog, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)

	res, _ := summary.Source(ecommerce.SourceCustomerEvents)
	assert.Equal(t, int64(2), res.RowsLoaded, "a null reference is allowed")
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "Platform_Num", res.Rejected[0].Column)
	assert.Equal(t, "42", res.Rejected[0].Value)
	assert.Contains(t, res.Rejected[0].Reason, "references a missing row in cpc.Plat_Num")
}

func TestRun_ForeignKeysDisabled(t *testing.T) {
	f := newFixture(t, defaultPlatforms, eventsWithOrphan)
	catalog := f.catalog(t, ecommerce.VariantLegacy)
	opts := defaultOptions()
	opts.EnforceForeignKeys = false

	summary, err := New(f.sqlite(), catalog, opts, nil).Run(context.Background())
	require.NoError(t, err)

	res, _ := summary.Source(ecommerce.SourceCustomerEvents)
	assert.Equal(t, int64(3), res.RowsLoaded)
	assert.Empty(t, res.Rejected)
}

func TestRun_RejectsDuplicateAndNullKeys(t *testing.T) {
	platforms := csvFile(
		platformsHeader,
		"1,Google,1.25",
		"1,Google again,1.30",
		",Nameless,0.10",
		"2,Bing,0.75",
	)
	f := newFixture(t, platforms, csvFile(eventsHeader))
	catalog := f.catalog(t, ecommerce.VariantLegacy)

	summary, err := New(f.sqlite(), catalog, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)

	res, _ := summary.Source(ecommerce.SourcePlatforms)
	assert.Equal(t, int64(2), res.RowsLoaded)
	require.Len(t, res.Rejected, 2)
	assert.Equal(t, 3, res.Rejected[0].Line)
	assert.Equal(t, ErrDuplicateKey.Error(), res.Rejected[0].Reason)
	assert.Equal(t, 4, res.Rejected[1].Line)
	assert.Equal(t, ErrNullKey.Error(), res.Rejected[1].Reason)
}

func TestRun_MissingSourceIsSkipped(t *testing.T) {
	f := newFixture(t, defaultPlatforms, "")
	catalog := f.catalog(t, ecommerce.VariantLegacy)

	summary, err := New(f.sqlite(), catalog, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Committed)

	res, ok := summary.Source(ecommerce.SourceCustomerEvents)
	require.True(t, ok)
	assert.True(t, res.Skipped)
	assert.Zero(t, res.RowsLoaded)

	// The table is still recreated, empty.
	events, _ := catalog.Table("customers")
	assert.Equal(t, int64(0), countRows(t, f.sqlite(), events))
}

func TestRun_MissingSourceRequired(t *testing.T) {
	f := newFixture(t, defaultPlatforms, "")
	catalog := f.catalog(t, ecommerce.VariantLegacy)
	opts := defaultOptions()
	opts.RequireSources = true

	summary, err := New(f.sqlite(), catalog, opts, nil).Run(context.Background())
	require.ErrorIs(t, err, ErrImportAborted)
	assert.ErrorIs(t, err, ErrSourceMissing)
	assert.False(t, summary.Committed)
}

func TestRun_HeaderOnlyAndEmptyFiles(t *testing.T) {
	f := newFixture(t, platformsHeader+"\n", "")
	require.NoError(t, os.WriteFile(f.events, nil, 0644))
	catalog := f.catalog(t, ecommerce.VariantLegacy)

	summary, err := New(f.sqlite(), catalog, defaultOptions(), nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Committed)
	assert.Zero(t, summary.RowsLoaded())
	for _, res := range summary.Sources {
		assert.False(t, res.Skipped, res.Source)
	}
	assert.Zero(t, summary.BatchLatency.Batches)
}

func TestRun_MissingColumnAborts(t *testing.T) {
	f := newFixture(t, "Plat_Num,Platform\n1,Google\n", defaultEvents)
	catalog := f.catalog(t, ecommerce.VariantLegacy)

	_, err := New(f.sqlite(), catalog, defaultOptions(), nil).Run(context.Background())
	require.ErrorIs(t, err, ErrImportAborted)
	assert.ErrorIs(t, err, importer.ErrMissingColumn)
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t, defaultPlatforms, defaultEvents)
	catalog := f.catalog(t, ecommerce.VariantLegacy)

	ctx, cancel := context.WithCancel(context.Background())
	backend := &fakeBackend{}
	backend.onSchema = cancel

	_, err := New(backend, catalog, defaultOptions(), nil).Run(ctx)
	require.ErrorIs(t, err, ErrImportAborted)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, backend.closed)
	assert.False(t, backend.committed)
}
