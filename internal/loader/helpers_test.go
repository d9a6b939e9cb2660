package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ecommerce-loader/internal/database"
	"ecommerce-loader/internal/ecommerce"
	"ecommerce-loader/internal/schema"
)

const platformsHeader = "Plat_Num,Platform,Average_CPC"

const eventsHeader = "Time_on_site,Pages_viewed,Clicked_ad,Cart_value,Referral," +
	"Browser_Refresh_Rate,Last_Ad_Seen,Purchase,ID,Date_Accessed,Platform_Num"

func csvFile(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

var defaultPlatforms = csvFile(
	platformsHeader,
	"1,Google,1.25",
	"2,Bing,0.75",
	"3,Facebook,0.95",
)

var defaultEvents = csvFile(
	eventsHeader,
	"12.5,4,1,59.99,Search,0.3,Banner,1,100,2023-01-02,1",
	"3.2,1,0,,Direct,0.1,,0,101,2023-01-03,2",
	"45.0,9,1,120.5,Social,0.9,Video,1,102,2023-01-04,3",
	"8.7,2,0,10,Email,0.2,Banner,0,103,,1",
)

type fixture struct {
	dir       string
	events    string
	platforms string
}

// newFixture writes the given CSV contents into a temp dir. An empty string
// leaves that file absent.
func newFixture(t testing.TB, platforms, events string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:       dir,
		events:    filepath.Join(dir, ecommerce.CustomerEventsFile),
		platforms: filepath.Join(dir, ecommerce.PlatformsFile),
	}
	if platforms != "" {
		require.NoError(t, os.WriteFile(f.platforms, []byte(platforms), 0644))
	}
	if events != "" {
		require.NoError(t, os.WriteFile(f.events, []byte(events), 0644))
	}
	return f
}

func (f fixture) catalog(t testing.TB, variant string) schema.Catalog {
	t.Helper()
	catalog, err := ecommerce.NewCatalog(variant, ecommerce.Paths{CustomerEvents: f.events, Platforms: f.platforms})
	require.NoError(t, err)
	return catalog
}

func (f fixture) sqlite() *database.SQLiteDriver {
	return database.NewSQLiteDriver(filepath.Join(f.dir, "ecommerce_database.sqlite"))
}

func defaultOptions() Options {
	return Options{OnRowError: Skip, EnforceForeignKeys: true, Verify: true}
}

// countRows opens a fresh connection to read back a table's row count.
func countRows(t testing.TB, b database.Backend, table schema.Table) int64 {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Connect(ctx))
	defer b.Close()
	n, err := b.CountRows(ctx, table)
	require.NoError(t, err)
	return n
}
