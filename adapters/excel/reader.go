package excel

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"flarewise/domain/core"
	"flarewise/domain/health"
	"flarewise/internal"

	"github.com/xuri/excelize/v2"
)

// timeLayouts are the accepted timestamp cell formats, tried in order
var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"}

// WorkbookReader reads a flarewise workbook into an EventLog
type WorkbookReader struct {
	filePath string
	logger   *internal.Logger
}

// NewWorkbookReader creates a reader for the given .xlsx file
func NewWorkbookReader(filePath string, logger *internal.Logger) *WorkbookReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &WorkbookReader{filePath: filePath, logger: logger.With("excel")}
}

// Read parses every known sheet. Missing sheets are treated as empty.
func (r *WorkbookReader) Read() (*health.EventLog, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("workbook not found: %s", r.filePath)
	}

	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	sheets := make(map[string]*SheetData, len(sheetOrder))
	for _, name := range sheetOrder {
		if !present[name] {
			r.logger.Warn("sheet %q missing, treating as empty", name)
			sheets[name] = &SheetData{}
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		sheets[name] = processRows(rows)
	}

	out := &health.EventLog{}
	if err := parseSheets(sheets, out); err != nil {
		return nil, err
	}
	out.Users = out.CollectUsers()

	r.logger.Info("workbook %s loaded in %.2fms (users=%d meals=%d symptoms=%d flares=%d)",
		r.filePath, float64(time.Since(start).Nanoseconds())/1e6,
		len(out.Users), len(out.Foods), len(out.Symptoms), len(out.Flares))
	return out, nil
}

// processRows converts raw string rows into SheetData keyed by header
func processRows(rows [][]string) *SheetData {
	if len(rows) == 0 {
		return &SheetData{}
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	data := &SheetData{Headers: headers}
	for _, row := range rows[1:] {
		rowData := make(RawRowData, len(headers))
		empty := true
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
				if rowData[headers[j]] != "" {
					empty = false
				}
			}
		}
		if !empty {
			data.Rows = append(data.Rows, rowData)
		}
	}
	return data
}

// rowError locates a bad cell; row numbers are 1-based and count the header
type rowError struct {
	sheet string
	row   int
	err   error
}

func (e *rowError) Error() string {
	return fmt.Sprintf("sheet %s row %d: %v", e.sheet, e.row, e.err)
}

func (e *rowError) Unwrap() error { return e.err }

func parseSheets(sheets map[string]*SheetData, out *health.EventLog) error {
	for i, row := range sheets[SheetFoods].Rows {
		ev, err := parseFoodEvent(row)
		if err != nil {
			return &rowError{SheetFoods, i + 2, err}
		}
		out.Foods = append(out.Foods, ev)
	}
	for i, row := range sheets[SheetTriggers].Rows {
		ev, err := parseTriggerEvent(row)
		if err != nil {
			return &rowError{SheetTriggers, i + 2, err}
		}
		out.Triggers = append(out.Triggers, ev)
	}
	for i, row := range sheets[SheetMedications].Rows {
		ev, err := parseMedicationEvent(row)
		if err != nil {
			return &rowError{SheetMedications, i + 2, err}
		}
		out.Medications = append(out.Medications, ev)
	}
	for i, row := range sheets[SheetSymptoms].Rows {
		s, err := parseSymptomInstance(row)
		if err != nil {
			return &rowError{SheetSymptoms, i + 2, err}
		}
		out.Symptoms = append(out.Symptoms, s)
	}
	for i, row := range sheets[SheetFlares].Rows {
		f, err := parseFlare(row)
		if err != nil {
			return &rowError{SheetFlares, i + 2, err}
		}
		out.Flares = append(out.Flares, f)
	}
	for i, row := range sheets[SheetFlareEvents].Rows {
		ev, err := parseFlareEvent(row)
		if err != nil {
			return &rowError{SheetFlareEvents, i + 2, err}
		}
		out.FlareEvents = append(out.FlareEvents, ev)
	}
	return nil
}

func parseFoodEvent(row RawRowData) (health.FoodEvent, error) {
	ts, err := parseTime(row["timestamp"])
	if err != nil {
		return health.FoodEvent{}, err
	}
	ev := health.FoodEvent{
		ID:        core.ID(row["id"]),
		UserID:    core.UserID(row["user_id"]),
		Timestamp: core.NewTimestamp(ts),
		MealType:  row["meal_type"],
	}
	if ev.UserID == "" {
		return health.FoodEvent{}, fmt.Errorf("user_id is required")
	}
	for _, f := range splitList(row["food_ids"], ",") {
		ev.FoodIDs = append(ev.FoodIDs, core.FoodID(f))
	}
	if len(ev.FoodIDs) == 0 {
		return health.FoodEvent{}, fmt.Errorf("food_ids is empty")
	}
	portions, err := parsePortions(row["portions"])
	if err != nil {
		return health.FoodEvent{}, err
	}
	ev.PortionSizes = portions
	return ev, nil
}

// parsePortions reads "dairy=large;coffee=2" style cells
func parsePortions(cell string) (map[core.FoodID]health.Portion, error) {
	pairs := splitList(cell, ";")
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[core.FoodID]health.Portion, len(pairs))
	for _, pair := range pairs {
		food, label, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("portion %q is not food=size", pair)
		}
		label = strings.TrimSpace(label)
		p, ok := health.ParsePortion(label)
		if !ok {
			n, err := strconv.Atoi(label)
			if err != nil || !health.Portion(n).Valid() {
				return nil, fmt.Errorf("unknown portion size %q", label)
			}
			p = health.Portion(n)
		}
		out[core.FoodID(strings.TrimSpace(food))] = p
	}
	return out, nil
}

func parseTriggerEvent(row RawRowData) (health.TriggerEvent, error) {
	ts, err := parseTime(row["timestamp"])
	if err != nil {
		return health.TriggerEvent{}, err
	}
	intensity, err := parseOptionalInt(row["intensity"])
	if err != nil {
		return health.TriggerEvent{}, err
	}
	return health.TriggerEvent{
		ID:        core.ID(row["id"]),
		UserID:    core.UserID(row["user_id"]),
		Timestamp: core.NewTimestamp(ts),
		TriggerID: core.TriggerID(row["trigger_id"]),
		Intensity: intensity,
	}, nil
}

func parseMedicationEvent(row RawRowData) (health.MedicationEvent, error) {
	ts, err := parseTime(row["timestamp"])
	if err != nil {
		return health.MedicationEvent{}, err
	}
	taken := true
	if v := row["taken"]; v != "" {
		if taken, err = strconv.ParseBool(v); err != nil {
			return health.MedicationEvent{}, fmt.Errorf("taken: %w", err)
		}
	}
	return health.MedicationEvent{
		ID:           core.ID(row["id"]),
		UserID:       core.UserID(row["user_id"]),
		Timestamp:    core.NewTimestamp(ts),
		MedicationID: core.MedicationID(row["medication_id"]),
		Taken:        taken,
	}, nil
}

func parseSymptomInstance(row RawRowData) (health.SymptomInstance, error) {
	ts, err := parseTime(row["timestamp"])
	if err != nil {
		return health.SymptomInstance{}, err
	}
	severity, err := parseSeverity(row["severity"])
	if err != nil {
		return health.SymptomInstance{}, err
	}
	return health.SymptomInstance{
		ID:        core.ID(row["id"]),
		UserID:    core.UserID(row["user_id"]),
		Timestamp: core.NewTimestamp(ts),
		SymptomID: core.SymptomID(row["symptom_id"]),
		Name:      row["name"],
		Severity:  severity,
	}, nil
}

func parseFlare(row RawRowData) (health.FlareRecord, error) {
	start, err := parseTime(row["start_date"])
	if err != nil {
		return health.FlareRecord{}, err
	}
	initial, err := parseSeverity(row["initial_severity"])
	if err != nil {
		return health.FlareRecord{}, err
	}
	current := initial
	if row["current_severity"] != "" {
		if current, err = parseSeverity(row["current_severity"]); err != nil {
			return health.FlareRecord{}, err
		}
	}
	status := health.FlareStatus(strings.ToLower(row["status"]))
	if status == "" {
		status = health.FlareStatusActive
	}
	if !status.Valid() {
		return health.FlareRecord{}, fmt.Errorf("unknown flare status %q", row["status"])
	}
	f := health.FlareRecord{
		ID:              core.FlareID(row["id"]),
		UserID:          core.UserID(row["user_id"]),
		BodyRegionID:    row["body_region_id"],
		InitialSeverity: initial,
		CurrentSeverity: current,
		StartDate:       core.NewTimestamp(start),
		Status:          status,
	}
	if row["end_date"] != "" {
		end, err := parseTime(row["end_date"])
		if err != nil {
			return health.FlareRecord{}, err
		}
		f.EndDate = &end
	}
	return f, nil
}

func parseFlareEvent(row RawRowData) (health.FlareEvent, error) {
	ts, err := parseTime(row["timestamp"])
	if err != nil {
		return health.FlareEvent{}, err
	}
	eventType := health.FlareEventType(strings.ToLower(row["event_type"]))
	if !eventType.Valid() {
		return health.FlareEvent{}, fmt.Errorf("unknown flare event type %q", row["event_type"])
	}
	ev := health.FlareEvent{
		ID:        core.ID(row["id"]),
		FlareID:   core.FlareID(row["flare_id"]),
		UserID:    core.UserID(row["user_id"]),
		Timestamp: core.NewTimestamp(ts),
		EventType: eventType,
		Notes:     row["notes"],
	}
	if row["severity"] != "" {
		sev, err := parseSeverity(row["severity"])
		if err != nil {
			return health.FlareEvent{}, err
		}
		ev.Severity = &sev
	}
	return ev, nil
}

func parseTime(cell string) (time.Time, error) {
	if cell == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.UTC(), nil
		}
	}
	if ms, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return core.FromMillis(ms).Time(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", cell)
}

func parseSeverity(cell string) (int, error) {
	n, err := strconv.Atoi(cell)
	if err != nil {
		return 0, fmt.Errorf("severity %q is not a number", cell)
	}
	if n < 1 || n > 10 {
		return 0, fmt.Errorf("severity %d outside 1-10", n)
	}
	return n, nil
}

func parseOptionalInt(cell string) (int, error) {
	if cell == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(cell)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", cell)
	}
	return n, nil
}

func splitList(cell, sep string) []string {
	var out []string
	for _, part := range strings.Split(cell, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
