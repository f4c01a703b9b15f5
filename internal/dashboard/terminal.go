package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// barWidth is the length of the longest textual bar.
const barWidth = 40

// TerminalRenderer prints a Report as tables.
type TerminalRenderer struct{}

func (TerminalRenderer) Render(w io.Writer, rep *Report) error {
	fmt.Fprintf(w, "연도 %s / 월 %s / 시도 %s / 시군구 %s\n\n",
		rep.Selection.Year, rep.Selection.Month, rep.Selection.Sido, rep.Selection.Sigungu)
	if rep.Empty() {
		_, err := fmt.Fprintln(w, rep.Notice)
		return err
	}

	views := Views
	if rep.View != ViewAll {
		views = []View{rep.View}
	}
	for _, v := range views {
		fmt.Fprintf(w, "%s\n", v.Title())
		t := table.NewWriter()
		t.SetOutputMirror(w)
		switch v {
		case ViewBar:
			t.AppendHeader(table.Row{"car_type", "count", ""})
			for _, b := range bars(rep.ByCarType) {
				t.AppendRow(table.Row{b.Label, FormatCount(b.Count), strings.Repeat("█", int(b.Width*barWidth/100))})
			}
		case ViewUsage, ViewCombined:
			groups, label := rep.ByUsage, "usage_type"
			if v == ViewCombined {
				groups, label = rep.Combined, "label"
			}
			t.AppendHeader(table.Row{label, "count", "ratio"})
			for _, g := range groups {
				t.AppendRow(table.Row{g.Label, FormatCount(g.Count), FormatRatio(g.Percent)})
			}
			t.AppendFooter(table.Row{"total", FormatCount(rep.Total), FormatRatio(100)})
		case ViewTable:
			t.AppendHeader(table.Row{"car_type", "usage_type", "sido", "sigungu", "reg_date", "count", "year", "month"})
			for _, r := range rep.Rows {
				t.AppendRow(table.Row{r.CarType, r.UsageType, r.Sido, r.Sigungu, r.RegDate, FormatCount(r.Count), r.Year, r.Month})
			}
		}
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
		t.SetStyle(table.StyleRounded)
		t.Render()
		fmt.Fprintln(w)
	}
	return nil
}
