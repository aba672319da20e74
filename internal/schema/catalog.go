package schema

// The built-in catalogue mirrors the process-chain run-log schema: the RSPC*
// base tables plus the reporting views the templates query. Column names keep
// their upstream spelling.

func catalogTables() []Table {
	return []Table{
		{
			Name: "RSPCCHAIN",
			Columns: []Column{
				{Name: "CHAIN_ID", Type: TypeText},
				{Name: "DESCRIPTION", Type: TypeText, Nullable: true},
				{Name: "PROCESS_TYPE", Type: TypeText, Nullable: true},
				{Name: "CREATED_TIMESTAMP", Type: TypeText, Nullable: true},
			},
			PrimaryKey:    []string{"CHAIN_ID"},
			FilterColumns: []string{"CHAIN_ID", "PROCESS_TYPE"},
			OutputColumns: []string{"CHAIN_ID", "DESCRIPTION", "PROCESS_TYPE", "CREATED_TIMESTAMP"},
		},
		{
			Name: "RSPCLOGCHAIN",
			Columns: []Column{
				{Name: "LOG_ID", Type: TypeText},
				{Name: "CHAIN_ID", Type: TypeText},
				{Name: "STATUS_OF_PROCESS", Type: TypeText},
				{Name: "CURRENT_DATE", Type: TypeText},
				{Name: "TIME", Type: TypeText},
				{Name: "CREATED_TIMESTAMP", Type: TypeText, Nullable: true},
			},
			PrimaryKey: []string{"LOG_ID"},
			ForeignKeys: []ForeignKey{
				{Columns: []string{"CHAIN_ID"}, RefTable: "RSPCCHAIN", RefColumns: []string{"CHAIN_ID"}},
			},
			FilterColumns: []string{"LOG_ID", "CHAIN_ID", "STATUS_OF_PROCESS", "CURRENT_DATE", "TIME"},
			OutputColumns: []string{"LOG_ID", "CHAIN_ID", "STATUS_OF_PROCESS", "CURRENT_DATE", "TIME", "CREATED_TIMESTAMP"},
		},
		{
			Name: "RSPCPROCESSLOG",
			Columns: []Column{
				{Name: "LOG_ID", Type: TypeText},
				{Name: "PROCESS_TYPE", Type: TypeText},
				{Name: "VARIANT", Type: TypeText, Nullable: true},
				{Name: "STATUS_OF_PROCESS", Type: TypeText},
				{Name: "EVENT_START_TIME", Type: TypeText, Nullable: true},
				{Name: "EVENT_END_TIME", Type: TypeText, Nullable: true},
			},
			PrimaryKey: []string{"LOG_ID", "PROCESS_TYPE", "VARIANT"},
			ForeignKeys: []ForeignKey{
				{Columns: []string{"LOG_ID"}, RefTable: "RSPCLOGCHAIN", RefColumns: []string{"LOG_ID"}},
			},
			FilterColumns: []string{"LOG_ID", "PROCESS_TYPE", "STATUS_OF_PROCESS"},
			OutputColumns: []string{"LOG_ID", "PROCESS_TYPE", "VARIANT", "STATUS_OF_PROCESS", "EVENT_START_TIME", "EVENT_END_TIME"},
		},
		{
			Name: "RSPCVARIANT",
			Columns: []Column{
				{Name: "VARIANT", Type: TypeText},
				{Name: "PROCESS_TYPE", Type: TypeText},
				{Name: "DESCRIPTION", Type: TypeText, Nullable: true},
			},
			PrimaryKey:    []string{"VARIANT", "PROCESS_TYPE"},
			FilterColumns: []string{"VARIANT", "PROCESS_TYPE"},
			OutputColumns: []string{"VARIANT", "PROCESS_TYPE", "DESCRIPTION"},
		},
		{
			Name: "VW_LATEST_CHAIN_RUNS",
			Columns: []Column{
				{Name: "CHAIN_ID", Type: TypeText},
				{Name: "PROCESS_TYPE", Type: TypeText, Nullable: true},
				{Name: "STATUS_OF_PROCESS", Type: TypeText},
				{Name: "CURRENT_DATE", Type: TypeText},
				{Name: "TIME", Type: TypeText},
				{Name: "LOG_ID", Type: TypeText},
				{Name: "rn", Type: TypeInteger},
			},
			FilterColumns: []string{"CHAIN_ID", "STATUS_OF_PROCESS", "CURRENT_DATE", "rn"},
			OutputColumns: []string{"CHAIN_ID", "PROCESS_TYPE", "STATUS_OF_PROCESS", "CURRENT_DATE", "TIME", "LOG_ID"},
		},
		{
			Name: "VW_CHAIN_SUMMARY",
			Columns: []Column{
				{Name: "CHAIN_ID", Type: TypeText},
				{Name: "total_runs", Type: TypeInteger},
				{Name: "successful_runs", Type: TypeInteger},
				{Name: "failed_runs", Type: TypeInteger},
				{Name: "success_rate_percent", Type: TypeReal},
				{Name: "last_run_time", Type: TypeText, Nullable: true},
			},
			FilterColumns: []string{"CHAIN_ID", "total_runs", "success_rate_percent"},
			OutputColumns: []string{"CHAIN_ID", "total_runs", "successful_runs", "failed_runs", "success_rate_percent", "last_run_time"},
		},
		{
			Name: "VW_TODAYS_ACTIVITY",
			Columns: []Column{
				{Name: "CHAIN_ID", Type: TypeText},
				{Name: "LOG_ID", Type: TypeText},
				{Name: "STATUS_OF_PROCESS", Type: TypeText},
				{Name: "CURRENT_DATE", Type: TypeText},
				{Name: "TIME", Type: TypeText},
			},
			FilterColumns: []string{"CHAIN_ID", "STATUS_OF_PROCESS", "TIME"},
			OutputColumns: []string{"CHAIN_ID", "LOG_ID", "STATUS_OF_PROCESS", "CURRENT_DATE", "TIME"},
		},
	}
}

// demoChains is the fallback identifier set when the store is not available
// to list chains at startup.
var demoChains = []string{
	"PC_SALES_DAILY",
	"PC_SALES_WEEKLY",
	"PC_FINANCE_DAILY",
	"PC_FINANCE_MONTHLY",
	"PC_HR_WEEKLY",
	"PC_INVENTORY_DAILY",
	"PC_MASTER_DATA_LOAD",
	"PC_CRM_EXTRACT",
}

// Default returns the built-in catalogue with the demo chain identifiers.
func Default() *Descriptor {
	return New(catalogTables(), demoChains)
}

// Load returns the built-in catalogue with chain identifiers discovered from
// the data store; an empty list falls back to the demo set.
func Load(chainIDs []string) *Descriptor {
	if len(chainIDs) == 0 {
		chainIDs = demoChains
	}
	return New(catalogTables(), chainIDs)
}
