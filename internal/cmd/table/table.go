// Package table converts fieldmatch results into rows for the table output
// format.
package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/fieldmatch/internal/cmd/emoji"
	"github.com/agentstation/fieldmatch/internal/cmd/output"
	"github.com/agentstation/fieldmatch/internal/store"
	"github.com/agentstation/fieldmatch/pkg/matcher"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

// maxValues is how many values a narrow taxonomy table shows per field.
const maxValues = 4

func score(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// Taxonomy lists fields with their value counts. Wide tables show every value.
func Taxonomy(tax *taxonomy.Taxonomy, wide bool) output.Data {
	data := output.Data{
		Headers:         []string{"Field", "Values", "Examples"},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight, output.AlignLeft},
	}
	tax.Each(func(name string, values []string) bool {
		shown := values
		suffix := ""
		if !wide && len(values) > maxValues {
			shown = values[:maxValues]
			suffix = ", ..."
		}
		data.Rows = append(data.Rows, []string{
			name,
			strconv.Itoa(len(values)),
			strings.Join(shown, ", ") + suffix,
		})
		return true
	})
	return data
}

// SelfScores flattens the calibration table in taxonomy order.
func SelfScores(tax *taxonomy.Taxonomy, scores map[string]map[string]float64) output.Data {
	data := output.Data{
		Headers:         []string{"Field", "Value", "Score"},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignLeft, output.AlignRight},
	}
	tax.Each(func(name string, values []string) bool {
		for _, v := range values {
			data.Rows = append(data.Rows, []string{name, v, score(scores[name][v])})
		}
		return true
	})
	return data
}

// Match shows one inference result and, when present, its shortlist.
func Match(field, value string, res matcher.Result) output.Data {
	data := output.Data{
		Headers:         []string{"Input", "Field", "Value", "Score", "Status"},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignLeft, output.AlignLeft, output.AlignRight, output.AlignCenter},
	}
	status := emoji.Success
	if res.LowConfidence {
		status = emoji.Warning
	}
	data.Rows = append(data.Rows, []string{
		field + "=" + value, res.Field, res.Value, score(res.Score), status,
	})
	for _, c := range res.Candidates {
		if c.Value == res.Value {
			continue
		}
		data.Rows = append(data.Rows, []string{"", "", c.Value, score(c.Score), ""})
	}
	return data
}

// Result shows one reconciled record, one row per resolved pair.
func Result(res *reconcile.Result) output.Data {
	data := output.Data{
		Headers:         []string{"#", "Raw Field", "Raw Value", "Field", "Value", "Score", ""},
		ColumnAlignment: []output.Align{output.AlignRight, output.AlignLeft, output.AlignLeft, output.AlignLeft, output.AlignLeft, output.AlignRight, output.AlignCenter},
	}
	for _, m := range res.Matches {
		status := emoji.Success
		switch {
		case m.Result.LowConfidence:
			status = emoji.Warning
		case m.Result.KeyInferred():
			status = emoji.Info
		}
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(m.Index), m.Pair.Field, m.Pair.Value,
			m.Result.Field, m.Result.Value, score(m.Result.Score), status,
		})
	}
	for _, f := range res.Failures {
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(f.Index), f.Pair.Field, f.Pair.Value, "", "", "", emoji.Error,
		})
	}
	sort.SliceStable(data.Rows, func(i, j int) bool {
		a, _ := strconv.Atoi(data.Rows[i][0])
		b, _ := strconv.Atoi(data.Rows[j][0])
		return a < b
	})
	return data
}

// Outcomes summarises a batch, one row per record.
func Outcomes(outcomes []reconcile.Outcome) output.Data {
	data := output.Data{
		Headers:         []string{"Scenario", "Fields", "Keys", "Low", "Dropped", "Status"},
		ColumnAlignment: []output.Align{output.AlignRight, output.AlignLeft, output.AlignRight, output.AlignRight, output.AlignRight, output.AlignLeft},
	}
	for _, o := range outcomes {
		id := o.Index
		if o.Err != nil {
			data.Rows = append(data.Rows, []string{strconv.Itoa(id), "", "", "", "", emoji.Error + " " + o.ErrString()})
			continue
		}
		r := o.Result
		status := emoji.Success
		if r.Count(reconcile.KindValue) > 0 || r.Count(reconcile.KindOverwrite) > 0 || r.HasFailures() {
			status = emoji.Warning
		}
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(id),
			fieldList(r),
			strconv.Itoa(r.Count(reconcile.KindKey)),
			strconv.Itoa(r.Count(reconcile.KindValue)),
			strconv.Itoa(len(r.Failures)),
			status,
		})
	}
	return data
}

func fieldList(r *reconcile.Result) string {
	parts := make([]string, 0, len(r.Order))
	for _, k := range r.Order {
		parts = append(parts, k+"="+r.Fields[k])
	}
	return strings.Join(parts, " ")
}

// Runs lists persisted runs.
func Runs(runs []store.Run) output.Data {
	data := output.Data{
		Headers:         []string{"Run", "Started", "Took", "Method", "Threshold", "Records", "Failed", "Catalogue"},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignLeft, output.AlignRight, output.AlignLeft, output.AlignRight, output.AlignRight, output.AlignRight, output.AlignLeft},
	}
	for _, r := range runs {
		data.Rows = append(data.Rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration().Round(time.Millisecond).String(),
			string(r.Config.Method),
			strconv.FormatFloat(r.Config.Threshold, 'f', -1, 64),
			strconv.Itoa(r.Summary.Records),
			strconv.Itoa(r.Summary.Failed),
			r.Catalogue,
		})
	}
	return data
}

// StoredOutcomes lists the outcomes of one persisted run.
func StoredOutcomes(outcomes []store.StoredOutcome) output.Data {
	data := output.Data{
		Headers:         []string{"#", "Fields", "Diagnostics", "Error"},
		ColumnAlignment: []output.Align{output.AlignRight, output.AlignLeft, output.AlignLeft, output.AlignLeft},
	}
	for _, o := range outcomes {
		fields := make([]string, 0, len(o.Order))
		for _, k := range o.Order {
			fields = append(fields, k+"="+o.Fields[k])
		}
		msgs := make([]string, 0, len(o.Diagnostics))
		for _, d := range o.Diagnostics {
			msgs = append(msgs, d.Message)
		}
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(o.Index),
			strings.Join(fields, " "),
			strings.Join(msgs, " "),
			o.Error,
		})
	}
	return data
}

// Scenarios lists the catalogue.
func Scenarios(ids []int, records []reconcile.Record) output.Data {
	data := output.Data{
		Headers:         []string{"ID", "Pairs"},
		ColumnAlignment: []output.Align{output.AlignRight, output.AlignLeft},
	}
	for i, rec := range records {
		pairs := make([]string, len(rec))
		for j, p := range rec {
			pairs[j] = fmt.Sprintf("%s=%s", p.Field, p.Value)
		}
		data.Rows = append(data.Rows, []string{strconv.Itoa(ids[i]), strings.Join(pairs, " ")})
	}
	return data
}

// Changeset lists the differences between two taxonomies.
func Changeset(cs *taxonomy.Changeset) output.Data {
	data := output.Data{Headers: []string{"Change", "Field", "Values"}}
	for _, f := range cs.AddedFields {
		data.Rows = append(data.Rows, []string{"+ field", f, ""})
	}
	for _, f := range cs.RemovedFields {
		data.Rows = append(data.Rows, []string{"- field", f, ""})
	}
	for _, u := range cs.UpdatedFields {
		if len(u.Added) > 0 {
			data.Rows = append(data.Rows, []string{"+ values", u.Name, strings.Join(u.Added, ", ")})
		}
		if len(u.Removed) > 0 {
			data.Rows = append(data.Rows, []string{"- values", u.Name, strings.Join(u.Removed, ", ")})
		}
	}
	return data
}
