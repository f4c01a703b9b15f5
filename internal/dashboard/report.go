package dashboard

import (
	"fmt"
	"slices"
	"strings"

	"github.com/AlfredBerg/regsido/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// EmptyNotice is shown instead of the views when no row matches.
const EmptyNotice = "선택한 조건에 해당하는 데이터가 없습니다."

// View names one of the four tabs.
type View string

const (
	ViewBar      View = "bar"
	ViewUsage    View = "usage"
	ViewCombined View = "combined"
	ViewTable    View = "table"
	// ViewAll renders every view; only the terminal renderer honours it.
	ViewAll View = "all"
)

var Views = []View{ViewBar, ViewUsage, ViewCombined, ViewTable}

func (v View) Title() string {
	switch v {
	case ViewBar:
		return "차량 종류별 바 차트"
	case ViewUsage:
		return "차량 용도별 원형 차트"
	case ViewCombined:
		return "차량 유형×용도 원형 차트"
	case ViewTable:
		return "데이터 테이블"
	}
	return string(v)
}

// ParseView maps a query value to a View, defaulting to the bar chart.
func ParseView(s string) View {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	if v == ViewAll || slices.Contains(Views, v) {
		return v
	}
	return ViewBar
}

// Group is one bar or slice: a label, the summed count and its share of the
// total in percent.
type Group struct {
	Label   string
	Count   int64
	Percent float64
}

// Query is what a client asks for: filter values and the view to show.
type Query struct {
	Selection
	View View
}

type Report struct {
	Selection Selection
	Options   Options
	View      View

	Rows      []models.Registration
	Total     int64
	ByCarType []Group
	ByUsage   []Group
	Combined  []Group

	// Notice is set when Rows is empty; no views are built then.
	Notice string
}

func (r *Report) Empty() bool { return len(r.Rows) == 0 }

// BuildReport resolves the filters against t and aggregates the matching rows.
func BuildReport(t *Table, q Query) *Report {
	sel, opts := t.Resolve(q.Selection)
	rep := &Report{
		Selection: sel,
		Options:   opts,
		View:      ParseView(string(q.View)),
		Rows:      t.Filter(sel),
	}
	if rep.Empty() {
		rep.Notice = EmptyNotice
		return rep
	}

	for _, r := range rep.Rows {
		rep.Total += r.Count
	}
	rep.ByCarType = GroupBy(rep.Rows, func(r models.Registration) string { return r.CarType })
	rep.ByUsage = GroupBy(rep.Rows, func(r models.Registration) string { return r.UsageType })
	rep.Combined = groupByPair(rep.Rows)
	return rep
}

// pair is the combined view's grouping key. Labels are built from it only
// after summing so values containing the separator stay apart.
type pair struct {
	car, usage string
}

func (p pair) label() string { return p.car + " / " + p.usage }

// GroupBy sums Count per key and returns the groups sorted by label.
func GroupBy(rows []models.Registration, key func(models.Registration) string) []Group {
	sums, keys, total := sumBy(rows, key)
	slices.Sort(keys)
	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, newGroup(k, sums[k], total))
	}
	return groups
}

// groupByPair sums Count per (car_type, usage_type), ordered by car_type
// then usage_type.
func groupByPair(rows []models.Registration) []Group {
	sums, keys, total := sumBy(rows, func(r models.Registration) pair { return pair{r.CarType, r.UsageType} })
	slices.SortFunc(keys, func(a, b pair) int {
		if c := strings.Compare(a.car, b.car); c != 0 {
			return c
		}
		return strings.Compare(a.usage, b.usage)
	})
	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, newGroup(k.label(), sums[k], total))
	}
	return groups
}

// sumBy returns the Count sum per key, the keys in first-seen order and the
// overall total.
func sumBy[K comparable](rows []models.Registration, key func(models.Registration) K) (map[K]int64, []K, int64) {
	sums := make(map[K]int64)
	var keys []K
	var total int64
	for _, r := range rows {
		k := key(r)
		if _, ok := sums[k]; !ok {
			keys = append(keys, k)
		}
		sums[k] += r.Count
		total += r.Count
	}
	return sums, keys, total
}

func newGroup(label string, count, total int64) Group {
	g := Group{Label: label, Count: count}
	if total != 0 {
		g.Percent = float64(count) / float64(total) * 100
	}
	return g
}

// FormatRatio renders a percentage with two decimals.
func FormatRatio(percent float64) string {
	return fmt.Sprintf("%.2f%%", percent)
}

var printer = message.NewPrinter(language.Korean)

// FormatCount renders a count with thousands separators.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}
