// Package recent builds the "recent updates" views of a site: a flat list of
// the most recently dated pages and the same pages grouped by calendar month.
//
// Both builders are pure functions of their input. They never mutate the page
// slice and never fail; an empty input yields empty views.
package recent

import (
	"sort"
	"time"

	"github.com/starford/recently/internal/models"
)

const (
	DefaultRecentLimit          = 20
	DefaultMonthLimit           = 6
	DefaultRecentDescriptionLen = 100
	DefaultMonthDescriptionLen  = 80
	DefaultPlaceholder          = "No description available"

	// DateLayout renders dates as "July 01, 2025".
	DateLayout = "January 02, 2006"
	// MonthLayout renders month group labels as "July 2025".
	MonthLayout = "January 2006"
)

// DefaultExcluded lists URLs that never appear in either view: the error page,
// the listing page itself, and site infrastructure.
var DefaultExcluded = []string{
	"/404.html",
	"/recent-updates.html",
	"/",
	"/feed.xml",
	"/sitemap.xml",
}

// Options tunes the builders. Zero values fall back to the package defaults.
// A nil Excluded means DefaultExcluded; an empty non-nil slice excludes nothing.
type Options struct {
	// Now is the build time, used as the date of pages without one.
	Now time.Time
	// Location is the zone used for rendering dates and bucketing months.
	Location *time.Location

	Excluded             []string
	RecentLimit          int
	MonthLimit           int
	RecentDescriptionLen int
	MonthDescriptionLen  int
	Placeholder          string
}

// DefaultOptions returns options with every default set and now as build time.
func DefaultOptions(now time.Time) Options {
	return Options{
		Now:                  now,
		Location:             time.UTC,
		Excluded:             append([]string(nil), DefaultExcluded...),
		RecentLimit:          DefaultRecentLimit,
		MonthLimit:           DefaultMonthLimit,
		RecentDescriptionLen: DefaultRecentDescriptionLen,
		MonthDescriptionLen:  DefaultMonthDescriptionLen,
		Placeholder:          DefaultPlaceholder,
	}
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Excluded == nil {
		o.Excluded = DefaultExcluded
	}
	if o.RecentLimit <= 0 {
		o.RecentLimit = DefaultRecentLimit
	}
	if o.MonthLimit <= 0 {
		o.MonthLimit = DefaultMonthLimit
	}
	if o.RecentDescriptionLen <= 0 {
		o.RecentDescriptionLen = DefaultRecentDescriptionLen
	}
	if o.MonthDescriptionLen <= 0 {
		o.MonthDescriptionLen = DefaultMonthDescriptionLen
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	return o
}

// Entry is one rendered row of a view.
type Entry struct {
	URL         string    `json:"url"`
	Path        string    `json:"path,omitempty"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Dated       bool      `json:"dated"`
	DateText    string    `json:"date_text"`
	Description string    `json:"description"`
}

// MonthGroup holds the pages whose effective date falls in one calendar month.
type MonthGroup struct {
	Label string     `json:"label"`
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Pages []Entry    `json:"pages"`
}

// View bundles both views computed against the same build time.
type View struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Recent      []Entry      `json:"recent"`
	Months      []MonthGroup `json:"months"`
}

// Build computes both views in one pass over the options.
func Build(pages []models.Page, opts Options) View {
	opts = opts.withDefaults()
	return View{
		GeneratedAt: opts.Now,
		Recent:      BuildRecentList(pages, opts),
		Months:      BuildMonthGroups(pages, opts),
	}
}

// BuildRecentList returns up to opts.RecentLimit eligible pages, newest first.
// Pages without a date sort as if dated at the build time; pages with equal
// dates keep their input order.
func BuildRecentList(pages []models.Page, opts Options) []Entry {
	opts = opts.withDefaults()
	eligible := filterEligible(pages, opts.Excluded)

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].EffectiveDate(opts.Now).After(eligible[j].EffectiveDate(opts.Now))
	})
	if len(eligible) > opts.RecentLimit {
		eligible = eligible[:opts.RecentLimit]
	}

	out := make([]Entry, 0, len(eligible))
	for _, p := range eligible {
		e := newEntry(p, opts)
		if p.Description == nil {
			e.Description = opts.Placeholder
		} else {
			e.Description = Truncate(*p.Description, opts.RecentDescriptionLen)
		}
		out = append(out, e)
	}
	return out
}

// BuildMonthGroups buckets eligible pages by the calendar month of their
// effective date and returns the opts.MonthLimit most recent months, newest
// first. Months are ordered by date value, never by label. Pages inside a
// group keep their input order and carry an empty description when absent.
func BuildMonthGroups(pages []models.Page, opts Options) []MonthGroup {
	opts = opts.withDefaults()
	eligible := filterEligible(pages, opts.Excluded)

	type bucket struct {
		key   int
		group MonthGroup
	}
	byKey := make(map[int]*bucket)
	var keys []int
	for _, p := range eligible {
		d := p.EffectiveDate(opts.Now).In(opts.Location)
		k := monthKey(d)
		b, ok := byKey[k]
		if !ok {
			first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, opts.Location)
			b = &bucket{key: k, group: MonthGroup{
				Label: first.Format(MonthLayout),
				Year:  d.Year(),
				Month: d.Month(),
				Pages: []Entry{},
			}}
			byKey[k] = b
			keys = append(keys, k)
		}
		e := newEntry(p, opts)
		e.Description = Truncate(p.DescriptionText(), opts.MonthDescriptionLen)
		b.group.Pages = append(b.group.Pages, e)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(keys)))
	if len(keys) > opts.MonthLimit {
		keys = keys[:opts.MonthLimit]
	}

	out := make([]MonthGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k].group)
	}
	return out
}

// filterEligible copies the pages that are titled and not excluded.
func filterEligible(pages []models.Page, excluded []string) []models.Page {
	skip := make(map[string]struct{}, len(excluded))
	for _, u := range excluded {
		skip[u] = struct{}{}
	}
	out := make([]models.Page, 0, len(pages))
	for _, p := range pages {
		if _, ok := skip[p.URL]; ok {
			continue
		}
		if !p.HasTitle() {
			continue
		}
		out = append(out, p)
	}
	return out
}

func newEntry(p models.Page, opts Options) Entry {
	d := p.EffectiveDate(opts.Now).In(opts.Location)
	return Entry{
		URL:      p.URL,
		Path:     p.Path,
		Title:    p.TitleText(),
		Date:     d,
		Dated:    p.Date != nil,
		DateText: d.Format(DateLayout),
	}
}

// monthKey orders months chronologically: later months get larger keys.
func monthKey(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
