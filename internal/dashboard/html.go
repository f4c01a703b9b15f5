package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

// palette for pie slices, cycled when there are more groups than colors
var palette = []string{
	"#66c5cc", "#f6cf71", "#f89c74", "#dcb0f2", "#87c55f", "#9eb9f3",
	"#fe88b1", "#c9db74", "#8be0a4", "#b497e7", "#d3b484", "#b3b3b3",
}

// HTMLRenderer renders a Report as the dashboard page.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"count": FormatCount,
		"ratio": FormatRatio,
	}).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

type tabLink struct {
	Title  string
	Href   string
	Active bool
}

type bar struct {
	Group
	Width float64
}

type slice struct {
	Group
	Color string
}

type pie struct {
	Slices   []slice
	Gradient template.CSS
}

type htmlPage struct {
	*Report
	Active   View
	Tabs     []tabLink
	Bars     []bar
	Usage    pie
	Combined pie
}

func (h *HTMLRenderer) Render(w io.Writer, rep *Report) error {
	active := rep.View
	if active == ViewAll {
		active = ViewBar
	}
	page := htmlPage{Report: rep, Active: active}
	for _, v := range Views {
		page.Tabs = append(page.Tabs, tabLink{
			Title:  v.Title(),
			Href:   "?" + queryString(rep.Selection, v),
			Active: v == active,
		})
	}
	if !rep.Empty() {
		page.Bars = bars(rep.ByCarType)
		page.Usage = pieOf(rep.ByUsage)
		page.Combined = pieOf(rep.Combined)
	}
	return h.tmpl.Execute(w, page)
}

func queryString(sel Selection, v View) string {
	q := url.Values{}
	q.Set("year", sel.Year)
	q.Set("month", sel.Month)
	q.Set("sido", sel.Sido)
	q.Set("sigungu", sel.Sigungu)
	q.Set("tab", string(v))
	return q.Encode()
}

// bars scales every group against the largest one.
func bars(groups []Group) []bar {
	var top int64
	for _, g := range groups {
		if g.Count > top {
			top = g.Count
		}
	}
	out := make([]bar, 0, len(groups))
	for _, g := range groups {
		b := bar{Group: g}
		if top > 0 {
			b.Width = float64(g.Count) / float64(top) * 100
		}
		out = append(out, b)
	}
	return out
}

// pieOf builds a conic-gradient with one stop per group.
func pieOf(groups []Group) pie {
	var p pie
	var stops []string
	var from float64
	for i, g := range groups {
		s := slice{Group: g, Color: palette[i%len(palette)]}
		p.Slices = append(p.Slices, s)
		to := from + g.Percent
		stops = append(stops, fmt.Sprintf("%s %.4f%% %.4f%%", s.Color, from, to))
		from = to
	}
	if len(stops) > 0 {
		p.Gradient = template.CSS("conic-gradient(" + strings.Join(stops, ", ") + ")")
	}
	return p
}
