package dashboard

import (
	"slices"

	"github.com/AlfredBerg/regsido/internal/models"
)

// Table is an immutable in-memory copy of the registration table. Every
// option list and filter is computed from it without touching the database.
type Table struct {
	rows []models.Registration
}

func NewTable(rows []models.Registration) *Table {
	return &Table{rows: rows}
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Years() []string {
	return t.distinct(nil, func(r models.Registration) string { return r.Year })
}

// Months lists the months that occur in year.
func (t *Table) Months(year string) []string {
	return t.distinct(
		func(r models.Registration) bool { return r.Year == year },
		func(r models.Registration) string { return r.Month },
	)
}

// Sidos lists every region in the table, independent of the chosen date.
func (t *Table) Sidos() []string {
	return t.distinct(nil, func(r models.Registration) string { return r.Sido })
}

// Sigungus lists the sub-regions that occur in sido.
func (t *Table) Sigungus(sido string) []string {
	return t.distinct(
		func(r models.Registration) bool { return r.Sido == sido },
		func(r models.Registration) string { return r.Sigungu },
	)
}

func (t *Table) distinct(keep func(models.Registration) bool, key func(models.Registration) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.rows {
		if keep != nil && !keep(r) {
			continue
		}
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Selection is one value per filter.
type Selection struct {
	Year    string
	Month   string
	Sido    string
	Sigungu string
}

// Options are the choices offered for each filter given the selection made
// so far.
type Options struct {
	Years    []string
	Months   []string
	Sidos    []string
	Sigungus []string
}

// Resolve walks the filters in order. A requested value that is not among
// the options for its filter is replaced by the first option, the way a
// select box starts out.
func (t *Table) Resolve(req Selection) (Selection, Options) {
	var sel Selection
	var opts Options

	opts.Years = t.Years()
	sel.Year = pick(opts.Years, req.Year)
	opts.Months = t.Months(sel.Year)
	sel.Month = pick(opts.Months, req.Month)
	opts.Sidos = t.Sidos()
	sel.Sido = pick(opts.Sidos, req.Sido)
	opts.Sigungus = t.Sigungus(sel.Sido)
	sel.Sigungu = pick(opts.Sigungus, req.Sigungu)
	return sel, opts
}

func pick(options []string, want string) string {
	if slices.Contains(options, want) {
		return want
	}
	if len(options) == 0 {
		return ""
	}
	return options[0]
}

// Filter returns the rows matching all four values, in table order.
func (t *Table) Filter(sel Selection) []models.Registration {
	var out []models.Registration
	for _, r := range t.rows {
		if r.Year == sel.Year && r.Month == sel.Month && r.Sido == sel.Sido && r.Sigungu == sel.Sigungu {
			out = append(out, r)
		}
	}
	return out
}
