package recent

import (
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/starford/recently/internal/models"
)

func strp(s string) *string { return &s }

func datep(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func page(url, title string, date *time.Time) models.Page {
	p := models.Page{URL: url, Date: date}
	if title != "" {
		p.Title = strp(title)
	}
	return p
}

func urls(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.URL
	}
	return out
}

var buildTime = time.Date(2025, time.July, 25, 12, 0, 0, 0, time.UTC)

func TestBuildRecentList_UndatedSortsFirst(t *testing.T) {
	pages := []models.Page{
		page("/a.html", "A", datep(2025, time.July, 1)),
		page("/b.html", "B", datep(2025, time.July, 20)),
		page("/c.html", "C", nil),
	}
	got := urls(BuildRecentList(pages, DefaultOptions(buildTime)))
	want := []string{"/c.html", "/b.html", "/a.html"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestBuildRecentList_CapsAtTwenty(t *testing.T) {
	var pages []models.Page
	for i := 1; i <= 25; i++ {
		pages = append(pages, page(fmt.Sprintf("/p%02d.html", i), fmt.Sprintf("P%d", i), datep(2025, time.June, i)))
	}
	opts := DefaultOptions(buildTime)

	recent := BuildRecentList(pages, opts)
	if len(recent) != 20 {
		t.Fatalf("len = %d, want 20", len(recent))
	}
	if recent[0].URL != "/p25.html" || recent[19].URL != "/p06.html" {
		t.Errorf("first/last = %s/%s, want /p25.html//p06.html", recent[0].URL, recent[19].URL)
	}

	groups := BuildMonthGroups(pages, opts)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if len(groups[0].Pages) != 25 {
		t.Errorf("group size = %d, want 25", len(groups[0].Pages))
	}
	if groups[0].Label != "June 2025" {
		t.Errorf("label = %q", groups[0].Label)
	}
}

func TestBuildRecentList_TiesKeepInputOrder(t *testing.T) {
	var pages []models.Page
	for i := 0; i < 25; i++ {
		pages = append(pages, page(fmt.Sprintf("/t%02d.html", i), "T", datep(2025, time.May, 5)))
	}
	recent := BuildRecentList(pages, DefaultOptions(buildTime))
	for i, e := range recent {
		if want := fmt.Sprintf("/t%02d.html", i); e.URL != want {
			t.Fatalf("recent[%d] = %s, want %s", i, e.URL, want)
		}
	}
}

func TestExclusions(t *testing.T) {
	pages := []models.Page{
		page("/404.html", "Not found", datep(2030, time.January, 1)),
		page("/recent-updates.html", "Recent updates", nil),
		page("/", "Home", nil),
		page("/feed.xml", "Feed", nil),
		page("/sitemap.xml", "Sitemap", nil),
		page("/untitled.html", "", datep(2025, time.July, 2)),
		page("/blank.html", "   ", datep(2025, time.July, 2)),
		page("/ok.html", "OK", datep(2025, time.July, 3)),
	}
	opts := DefaultOptions(buildTime)
	if got := urls(BuildRecentList(pages, opts)); !reflect.DeepEqual(got, []string{"/ok.html"}) {
		t.Errorf("recent = %v, want [/ok.html]", got)
	}
	groups := BuildMonthGroups(pages, opts)
	if len(groups) != 1 || len(groups[0].Pages) != 1 || groups[0].Pages[0].URL != "/ok.html" {
		t.Errorf("groups = %+v", groups)
	}
}

func TestCustomListingURLExcluded(t *testing.T) {
	pages := []models.Page{page("/docs/recent-updates.html", "Recent", nil)}
	opts := DefaultOptions(buildTime)
	opts.Excluded = append(opts.Excluded, "/docs/recent-updates.html")
	if got := BuildRecentList(pages, opts); len(got) != 0 {
		t.Errorf("listing page leaked: %v", urls(got))
	}
}

func TestZeroOptionsUseDefaultExclusions(t *testing.T) {
	pages := []models.Page{
		page("/404.html", "Not Found", datep(2025, time.July, 20)),
		page("/", "Home", datep(2025, time.July, 19)),
		page("/a.html", "A", datep(2025, time.July, 1)),
	}
	opts := Options{Now: buildTime}
	if got := urls(BuildRecentList(pages, opts)); !reflect.DeepEqual(got, []string{"/a.html"}) {
		t.Errorf("recent = %v, want [/a.html]", got)
	}
	groups := BuildMonthGroups(pages, opts)
	if len(groups) != 1 || len(groups[0].Pages) != 1 || groups[0].Pages[0].URL != "/a.html" {
		t.Errorf("groups = %+v", groups)
	}

	opts.Excluded = []string{}
	if got := BuildRecentList(pages, opts); len(got) != 3 {
		t.Errorf("empty exclusions: got %v, want all 3 pages", urls(got))
	}
}

func TestEmptyInput(t *testing.T) {
	opts := DefaultOptions(buildTime)
	recent := BuildRecentList(nil, opts)
	if recent == nil || len(recent) != 0 {
		t.Errorf("recent = %#v, want empty non-nil", recent)
	}
	groups := BuildMonthGroups(nil, opts)
	if groups == nil || len(groups) != 0 {
		t.Errorf("groups = %#v, want empty non-nil", groups)
	}
}

func TestBuildMonthGroups_ChronologicalAcrossYears(t *testing.T) {
	pages := []models.Page{
		page("/dec.html", "Dec", datep(2024, time.December, 10)),
		page("/jan.html", "Jan", datep(2025, time.January, 10)),
		page("/feb.html", "Feb", datep(2025, time.February, 10)),
		page("/aug.html", "Aug", datep(2024, time.August, 10)),
	}
	groups := BuildMonthGroups(pages, DefaultOptions(buildTime))
	var labels []string
	for _, g := range groups {
		labels = append(labels, g.Label)
	}
	want := []string{"February 2025", "January 2025", "December 2024", "August 2024"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
}

func TestBuildMonthGroups_LimitAndNoPadding(t *testing.T) {
	var pages []models.Page
	for m := time.January; m <= time.August; m++ {
		pages = append(pages, page(fmt.Sprintf("/m%d.html", m), m.String(), datep(2025, m, 3)))
	}
	groups := BuildMonthGroups(pages, DefaultOptions(buildTime))
	if len(groups) != 6 {
		t.Fatalf("groups = %d, want 6", len(groups))
	}
	if groups[0].Month != time.August || groups[5].Month != time.March {
		t.Errorf("first/last = %v/%v", groups[0].Month, groups[5].Month)
	}

	few := BuildMonthGroups(pages[:2], DefaultOptions(buildTime))
	if len(few) != 2 {
		t.Errorf("groups = %d, want 2 (no padding)", len(few))
	}
}

func TestBuildMonthGroups_SameMonthKeepsBothInInputOrder(t *testing.T) {
	pages := []models.Page{
		page("/early.html", "Early", datep(2025, time.July, 1)),
		page("/late.html", "Late", datep(2025, time.July, 20)),
	}
	groups := BuildMonthGroups(pages, DefaultOptions(buildTime))
	if len(groups) != 1 {
		t.Fatalf("groups = %d", len(groups))
	}
	if got := urls(groups[0].Pages); !reflect.DeepEqual(got, []string{"/early.html", "/late.html"}) {
		t.Errorf("pages = %v", got)
	}
}

func TestBuildMonthGroups_UndatedUsesBuildMonth(t *testing.T) {
	groups := BuildMonthGroups([]models.Page{page("/x.html", "X", nil)}, DefaultOptions(buildTime))
	if len(groups) != 1 || groups[0].Label != "July 2025" {
		t.Errorf("groups = %+v", groups)
	}
}

func TestLocationShiftsMonth(t *testing.T) {
	// 2025-07-31 23:30 UTC is already August in Tokyo.
	d := time.Date(2025, time.July, 31, 23, 30, 0, 0, time.UTC)
	pages := []models.Page{{URL: "/z.html", Title: strp("Z"), Date: &d}}
	opts := DefaultOptions(buildTime)
	opts.Location = time.FixedZone("JST", 9*3600)

	groups := BuildMonthGroups(pages, opts)
	if groups[0].Label != "August 2025" {
		t.Errorf("label = %q, want August 2025", groups[0].Label)
	}
	if got := BuildRecentList(pages, opts)[0].DateText; got != "August 01, 2025" {
		t.Errorf("date text = %q", got)
	}
}

func TestDescriptions(t *testing.T) {
	long := strings.Repeat("x", 150)
	pages := []models.Page{
		{URL: "/long.html", Title: strp("Long"), Date: datep(2025, time.July, 3), Description: strp(long)},
		{URL: "/none.html", Title: strp("None"), Date: datep(2025, time.July, 2)},
		{URL: "/short.html", Title: strp("Short"), Date: datep(2025, time.July, 1), Description: strp("tiny")},
	}
	opts := DefaultOptions(buildTime)

	recent := BuildRecentList(pages, opts)
	if got := recent[0].Description; utf8.RuneCountInString(got) != 100 || !strings.HasSuffix(got, Ellipsis) {
		t.Errorf("recent long description = %q (%d)", got, len(got))
	}
	if recent[1].Description != DefaultPlaceholder {
		t.Errorf("placeholder = %q", recent[1].Description)
	}
	if recent[2].Description != "tiny" {
		t.Errorf("short = %q", recent[2].Description)
	}

	g := BuildMonthGroups(pages, opts)[0]
	if got := g.Pages[0].Description; utf8.RuneCountInString(got) != 80 {
		t.Errorf("month long description length = %d, want 80", utf8.RuneCountInString(got))
	}
	if g.Pages[1].Description != "" {
		t.Errorf("month missing description = %q, want empty", g.Pages[1].Description)
	}
}

func TestDateText(t *testing.T) {
	recent := BuildRecentList([]models.Page{page("/a.html", "A", datep(2025, time.July, 1))}, DefaultOptions(buildTime))
	if recent[0].DateText != "July 01, 2025" {
		t.Errorf("date text = %q", recent[0].DateText)
	}
	if !recent[0].Dated {
		t.Error("dated = false")
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo wörld", 8, "héllo..."},
		{"hello", 2, ".."},
		{"hello", 0, ""},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.limit); got != c.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", c.in, c.limit, got, c.want)
		}
	}
}

// randomPages builds a reproducible mix of dated, undated, untitled and excluded pages.
func randomPages(r *rand.Rand, n int) []models.Page {
	excluded := DefaultExcluded
	pages := make([]models.Page, 0, n)
	for i := 0; i < n; i++ {
		p := models.Page{URL: fmt.Sprintf("/r/%d.html", i)}
		if r.Intn(10) == 0 {
			p.URL = excluded[r.Intn(len(excluded))]
		}
		if r.Intn(8) != 0 {
			p.Title = strp(fmt.Sprintf("Page %d", i))
		}
		if r.Intn(5) != 0 {
			d := buildTime.AddDate(0, 0, -r.Intn(400))
			p.Date = &d
		}
		if r.Intn(3) != 0 {
			p.Description = strp(strings.Repeat("word ", r.Intn(40)))
		}
		pages = append(pages, p)
	}
	return pages
}

func TestProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	excluded := map[string]bool{}
	for _, u := range DefaultExcluded {
		excluded[u] = true
	}

	for round := 0; round < 200; round++ {
		pages := randomPages(r, r.Intn(60))
		before := append([]models.Page(nil), pages...)
		opts := DefaultOptions(buildTime)

		recent := BuildRecentList(pages, opts)
		groups := BuildMonthGroups(pages, opts)

		if len(recent) > DefaultRecentLimit {
			t.Fatalf("round %d: recent len %d", round, len(recent))
		}
		for i, e := range recent {
			if excluded[e.URL] || strings.TrimSpace(e.Title) == "" {
				t.Fatalf("round %d: ineligible entry %+v", round, e)
			}
			if i > 0 && e.Date.After(recent[i-1].Date) {
				t.Fatalf("round %d: not sorted at %d", round, i)
			}
			if utf8.RuneCountInString(e.Description) > DefaultRecentDescriptionLen {
				t.Fatalf("round %d: description too long", round)
			}
		}

		if len(groups) > DefaultMonthLimit {
			t.Fatalf("round %d: groups %d", round, len(groups))
		}
		inGroups := map[string]bool{}
		for i, g := range groups {
			if i > 0 && monthKey(time.Date(g.Year, g.Month, 1, 0, 0, 0, 0, time.UTC)) >=
				monthKey(time.Date(groups[i-1].Year, groups[i-1].Month, 1, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("round %d: groups out of order", round)
			}
			for _, e := range g.Pages {
				inGroups[e.URL] = true
				if utf8.RuneCountInString(e.Description) > DefaultMonthDescriptionLen {
					t.Fatalf("round %d: month description too long", round)
				}
			}
		}

		// A recent entry whose month is shown must be listed in that month.
		oldest := map[int]bool{}
		for _, g := range groups {
			oldest[g.Year*12+int(g.Month)-1] = true
		}
		for _, e := range recent {
			if oldest[monthKey(e.Date)] && !inGroups[e.URL] {
				t.Fatalf("round %d: %s missing from its month group", round, e.URL)
			}
		}

		if !reflect.DeepEqual(pages, before) {
			t.Fatalf("round %d: input mutated", round)
		}
		if !reflect.DeepEqual(recent, BuildRecentList(pages, opts)) || !reflect.DeepEqual(groups, BuildMonthGroups(pages, opts)) {
			t.Fatalf("round %d: not idempotent", round)
		}
	}
}

func TestBuild_SharesBuildTime(t *testing.T) {
	v := Build([]models.Page{page("/a.html", "A", nil)}, DefaultOptions(buildTime))
	if !v.GeneratedAt.Equal(buildTime) {
		t.Errorf("generated at = %v", v.GeneratedAt)
	}
	if len(v.Recent) != 1 || len(v.Months) != 1 {
		t.Errorf("view = %+v", v)
	}
	if !v.Recent[0].Date.Equal(v.Months[0].Pages[0].Date) {
		t.Error("views disagree on fallback date")
	}
}
