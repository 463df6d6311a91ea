package api

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/warp/revenue-engine/engine"
)

// =============================================================================
// CSV EXPORT
// =============================================================================

// writeScheduleCSV streams a schedule as a CSV attachment. Column layout
// matches the JSON marshaling of PeriodRecord: base columns, one
// revenue_<obligation> column per obligation, then the deferred balance
// and note/error side channels.
func writeScheduleCSV(w http.ResponseWriter, contractID string, schedule []engine.PeriodRecord) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="revenue_schedule_%s.csv"`, contractID))

	header := []string{"period", "period_start", "period_end", "revenue_amount"}
	var obligationNames []string
	if len(schedule) > 0 {
		for _, ob := range schedule[0].Obligations {
			obligationNames = append(obligationNames, ob.Name)
			header = append(header, "revenue_"+engine.ColumnName(ob.Name))
		}
	}
	header = append(header, "deferred_revenue", "note", "error")

	cw := csv.NewWriter(w)
	cw.Write(header)

	for _, p := range schedule {
		row := []string{p.Period, p.PeriodStart, p.PeriodEnd, p.Revenue.StringFixed(2)}
		for _, name := range obligationNames {
			row = append(row, obligationAmount(p, name))
		}
		row = append(row, p.Deferred.StringFixed(2), p.Note, p.Err)
		cw.Write(row)
	}
	cw.Flush()
}

func obligationAmount(p engine.PeriodRecord, name string) string {
	for _, ob := range p.Obligations {
		if ob.Name == name {
			return ob.Amount.StringFixed(2)
		}
	}
	return ""
}
