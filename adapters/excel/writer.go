package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"flarewise/domain/core"
	"flarewise/domain/health"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook saves an EventLog as a flarewise workbook that
// WorkbookReader can load back
func WriteWorkbook(path string, log *health.EventLog) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetOrder[0]); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range sheetOrder[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	rows := map[string][][]interface{}{
		SheetFoods:       foodRows(log.Foods),
		SheetTriggers:    triggerRows(log.Triggers),
		SheetMedications: medicationRows(log.Medications),
		SheetSymptoms:    symptomRows(log.Symptoms),
		SheetFlares:      flareRows(log.Flares),
		SheetFlareEvents: flareEventRows(log.FlareEvents),
	}
	for _, name := range sheetOrder {
		header := make([]interface{}, len(sheetHeaders[name]))
		for i, h := range sheetHeaders[name] {
			header[i] = h
		}
		if err := writeRows(f, name, append([][]interface{}{header}, rows[name]...)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatTime(ts core.Timestamp) string {
	return ts.Time().UTC().Format(time.RFC3339)
}

func foodRows(events []health.FoodEvent) [][]interface{} {
	out := make([][]interface{}, 0, len(events))
	for _, e := range events {
		ids := make([]string, len(e.FoodIDs))
		for i, f := range e.FoodIDs {
			ids[i] = string(f)
		}
		out = append(out, []interface{}{
			string(e.ID), string(e.UserID), formatTime(e.Timestamp),
			strings.Join(ids, ","), formatPortions(e.PortionSizes), e.MealType,
		})
	}
	return out
}

// formatPortions writes portions sorted by food so output is stable
func formatPortions(p map[core.FoodID]health.Portion) string {
	if len(p) == 0 {
		return ""
	}
	foods := make([]string, 0, len(p))
	for f := range p {
		foods = append(foods, string(f))
	}
	sort.Strings(foods)
	parts := make([]string, len(foods))
	for i, f := range foods {
		parts[i] = fmt.Sprintf("%s=%d", f, p[core.FoodID(f)])
	}
	return strings.Join(parts, ";")
}

func triggerRows(events []health.TriggerEvent) [][]interface{} {
	out := make([][]interface{}, 0, len(events))
	for _, e := range events {
		out = append(out, []interface{}{
			string(e.ID), string(e.UserID), formatTime(e.Timestamp), string(e.TriggerID), e.Intensity,
		})
	}
	return out
}

func medicationRows(events []health.MedicationEvent) [][]interface{} {
	out := make([][]interface{}, 0, len(events))
	for _, e := range events {
		out = append(out, []interface{}{
			string(e.ID), string(e.UserID), formatTime(e.Timestamp), string(e.MedicationID), e.Taken,
		})
	}
	return out
}

func symptomRows(instances []health.SymptomInstance) [][]interface{} {
	out := make([][]interface{}, 0, len(instances))
	for _, s := range instances {
		out = append(out, []interface{}{
			string(s.ID), string(s.UserID), formatTime(s.Timestamp), string(s.SymptomID), s.Name, s.Severity,
		})
	}
	return out
}

func flareRows(flares []health.FlareRecord) [][]interface{} {
	out := make([][]interface{}, 0, len(flares))
	for _, f := range flares {
		end := ""
		if f.EndDate != nil {
			end = f.EndDate.UTC().Format(time.RFC3339)
		}
		out = append(out, []interface{}{
			string(f.ID), string(f.UserID), f.BodyRegionID, f.InitialSeverity, f.CurrentSeverity,
			formatTime(f.StartDate), end, string(f.Status),
		})
	}
	return out
}

func flareEventRows(events []health.FlareEvent) [][]interface{} {
	out := make([][]interface{}, 0, len(events))
	for _, e := range events {
		var severity interface{} = ""
		if e.Severity != nil {
			severity = *e.Severity
		}
		out = append(out, []interface{}{
			string(e.ID), string(e.FlareID), string(e.UserID), formatTime(e.Timestamp),
			string(e.EventType), severity, e.Notes,
		})
	}
	return out
}
