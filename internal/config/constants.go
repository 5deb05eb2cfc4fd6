package config

// Application constants
const (
	AppName = "oracle-tally"

	DefaultReportsDir        = "reports"
	DefaultLogFile           = "logs/tally.log"
	DefaultReplayConcurrency = 4

	// Audit export file names, created inside the replay output directory
	ResultsCSVFile  = "tally_results.csv"
	ResultsXLSXFile = "tally_audit.xlsx"
)
