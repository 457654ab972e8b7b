package excel

// Sheet names of a flarewise workbook. Each sheet has a header row.
const (
	SheetFoods       = "foods"
	SheetTriggers    = "triggers"
	SheetMedications = "medications"
	SheetSymptoms    = "symptoms"
	SheetFlares      = "flares"
	SheetFlareEvents = "flare_events"
)

// RawRowData represents a row of raw sheet data keyed by header
type RawRowData map[string]string

// SheetData is one sheet's header and rows
type SheetData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

var sheetHeaders = map[string][]string{
	SheetFoods:       {"id", "user_id", "timestamp", "food_ids", "portions", "meal_type"},
	SheetTriggers:    {"id", "user_id", "timestamp", "trigger_id", "intensity"},
	SheetMedications: {"id", "user_id", "timestamp", "medication_id", "taken"},
	SheetSymptoms:    {"id", "user_id", "timestamp", "symptom_id", "name", "severity"},
	SheetFlares:      {"id", "user_id", "body_region_id", "initial_severity", "current_severity", "start_date", "end_date", "status"},
	SheetFlareEvents: {"id", "flare_id", "user_id", "timestamp", "event_type", "severity", "notes"},
}

// sheetOrder is the order sheets are written in
var sheetOrder = []string{SheetFoods, SheetTriggers, SheetMedications, SheetSymptoms, SheetFlares, SheetFlareEvents}
