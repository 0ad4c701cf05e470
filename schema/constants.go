package schema

// Custom string types for type safety.
type (
	// RequirementType represents the variant of a tender requirement.
	RequirementType string

	// CertStatus represents how much of a company certification is held.
	CertStatus string

	// FormulaID identifies an economic scoring curve.
	FormulaID string

	// Outcome represents the result of comparing two total scores.
	Outcome string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for lots and runs.
	DatabaseBackend string

	// RunKind represents the engine operation recorded in run history.
	RunKind string
)

// All requirement types supported.
const (
	ResourceReq  RequirementType = "resource"
	ReferenceReq RequirementType = "reference"
	ProjectReq   RequirementType = "project"
)

// All certification statuses supported.
const (
	CertNone    CertStatus = "none" // default
	CertPartial CertStatus = "partial"
	CertAll     CertStatus = "all"
)

// All economic formulas supported.
const (
	InterpolationFormula FormulaID = "interpolation" // default
	LinearFormula        FormulaID = "linear"
	MinPriceRatioFormula FormulaID = "min_price_ratio"
)

// All comparison outcomes. A tie is a loss for the evaluated bidder.
const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeTie  Outcome = "tie"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All run kinds recorded in run history.
const (
	ScoreRun    RunKind = "score"
	SimulateRun RunKind = "simulate"
	OptimizeRun RunKind = "optimize"
)

// Category used for company certifications in per-category totals.
const CertCategory = "company_certs"

// ValidRequirementTypes lists all valid requirement types.
var ValidRequirementTypes = map[RequirementType]struct{}{
	ResourceReq:  {},
	ReferenceReq: {},
	ProjectReq:   {},
}

// ValidCertStatuses lists all valid certification statuses.
var ValidCertStatuses = map[CertStatus]struct{}{
	CertNone:    {},
	CertPartial: {},
	CertAll:     {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
