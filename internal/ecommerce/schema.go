// Package ecommerce defines the two fixed relations populated by the loader:
// customer behaviour events and the advertising platforms they reference.
package ecommerce

import (
	"fmt"

	"ecommerce-loader/internal/schema"
)

const (
	CustomerEventsFile = "Cust_Behavior_Final.csv"
	PlatformsFile      = "cpc_table_updated.csv"

	SourceCustomerEvents = "customer_events"
	SourcePlatforms      = "platforms"
)

// Schema variants. The legacy variant keeps the CSV header names as column
// names; the normalized variant uses snake_case names.
const (
	VariantLegacy     = "legacy"
	VariantNormalized = "normalized"
)

// Variants lists the accepted schema variants.
var Variants = []string{VariantLegacy, VariantNormalized}

type field struct {
	header     string
	normalized string
	typ        schema.Type
}

var customerEventFields = []field{
	{"Time_on_site", "time_on_site", schema.Real},
	{"Pages_viewed", "pages_viewed", schema.Integer},
	{"Clicked_ad", "clicked_ad", schema.Boolean},
	{"Cart_value", "cart_value", schema.Real},
	{"Referral", "referral_source", schema.Text},
	{"Browser_Refresh_Rate", "browser_refresh_rate", schema.Real},
	{"Last_Ad_Seen", "last_ad_seen", schema.Text},
	{"Purchase", "purchase", schema.Boolean},
	{"ID", "customer_id", schema.Integer},
	{"Date_Accessed", "date_accessed", schema.Date},
	{"Platform_Num", "platform_number", schema.Integer},
}

var platformFields = []field{
	{"Plat_Num", "platform_number", schema.Integer},
	{"Platform", "platform_name", schema.Text},
	{"Average_CPC", "average_cpc", schema.Real},
}

type names struct {
	customerEvents string
	platforms      string
}

var tableNames = map[string]names{
	VariantLegacy:     {customerEvents: "customers", platforms: "cpc"},
	VariantNormalized: {customerEvents: "customer_events", platforms: "platforms"},
}

func columns(variant string, fields []field) []schema.Column {
	cols := make([]schema.Column, len(fields))
	for i, f := range fields {
		name := f.header
		if variant == VariantNormalized {
			name = f.normalized
		}
		cols[i] = schema.Column{Name: name, Header: f.header, Type: f.typ}
	}
	return cols
}

// GetPlatformTable returns the Platform relation for variant.
func GetPlatformTable(variant string) (schema.Table, error) {
	n, ok := tableNames[variant]
	if !ok {
		return schema.Table{}, fmt.Errorf("unknown schema variant %q", variant)
	}
	cols := columns(variant, platformFields)
	cols[0].PrimaryKey = true
	return schema.Table{Name: n.platforms, Columns: cols}, nil
}

// GetCustomerEventTable returns the CustomerEvent relation for variant. Its
// platform number column references the Platform primary key.
func GetCustomerEventTable(variant string) (schema.Table, error) {
	n, ok := tableNames[variant]
	if !ok {
		return schema.Table{}, fmt.Errorf("unknown schema variant %q", variant)
	}
	platforms, err := GetPlatformTable(variant)
	if err != nil {
		return schema.Table{}, err
	}
	cols := columns(variant, customerEventFields)
	last := len(cols) - 1
	cols[last].References = &schema.Reference{
		Table:  platforms.Name,
		Column: platforms.Columns[platforms.PrimaryKey()].Name,
	}
	return schema.Table{Name: n.customerEvents, Columns: cols}, nil
}

// Paths locates the two CSV sources.
type Paths struct {
	CustomerEvents string
	Platforms      string
}

// NewCatalog builds the immutable catalog for one run.
func NewCatalog(variant string, paths Paths) (schema.Catalog, error) {
	events, err := GetCustomerEventTable(variant)
	if err != nil {
		return schema.Catalog{}, err
	}
	platforms, err := GetPlatformTable(variant)
	if err != nil {
		return schema.Catalog{}, err
	}
	return schema.NewCatalog(
		schema.Source{Name: SourceCustomerEvents, Path: paths.CustomerEvents, Table: events},
		schema.Source{Name: SourcePlatforms, Path: paths.Platforms, Table: platforms},
	)
}
