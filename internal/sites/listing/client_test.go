package listing

import (
	"context"
	"testing"
	"time"

	"webscrape/internal/config"
	"webscrape/internal/driver"
	"webscrape/internal/driver/drivertest"
	"webscrape/internal/extractor"
	"webscrape/internal/scraper"
	"webscrape/internal/session"
	"webscrape/internal/timing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	exprRows    driver.Expr = "class='row'"
	exprPager   driver.Expr = "class='pager'"
	exprModal   driver.Expr = "class='modal'"
	exprTitle   driver.Expr = "class='title'"
	exprDetails driver.Expr = "class='details'"
	exprLinks   driver.Expr = "class='links'"
	exprClose   driver.Expr = "class='close'"
)

func testJob() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.URL = "https://directory.example.com/members"
	cfg.WaitCeiling = time.Second
	cfg.Consent = "id='accept'"
	cfg.Login = config.LoginConfig{Username: "id='user'", Password: "id='pass'", Submit: "id='login'"}
	cfg.Credentials = config.Credentials{Username: "alice", Password: "pw"}
	cfg.Listing = config.ListingConfig{
		Items:  string(exprRows),
		Next:   string(exprPager),
		Modal:  string(exprModal),
		Close:  string(exprClose),
		Header: &config.HeaderConfig{Container: string(exprTitle), Tags: []string{"h2", "h4"}},
		Fields: []config.FieldsConfig{{Container: string(exprDetails), Heading: "dt", Value: "dd"}},
		Table:  string(exprModal),
		Attrs:  []config.AttrConfig{{Name: "website", Parent: string(exprLinks), Child: ".//a", Attr: "href"}},
	}
	return cfg
}

type member struct {
	name, role, site string
	malformed        bool
}

type fakeSite struct {
	drv      *drivertest.Driver
	closeBtn *drivertest.Node
	user     *drivertest.Node
}

func (f *fakeSite) replace(expr driver.Expr, n *drivertest.Node) {
	f.drv.Unregister(expr)
	f.drv.Register(expr, n)
}

func (f *fakeSite) row(m member) *drivertest.Node {
	row := drivertest.El("tr", m.name)
	row.OnClick = func() {
		title := drivertest.El("div", "", drivertest.El("h2", m.name), drivertest.El("h4", m.role))
		details := drivertest.El("dl", "",
			drivertest.El("dt", "Role"), drivertest.El("dd", m.role),
			drivertest.El("dt", "City"), drivertest.El("dd", "Berlin"))
		links := drivertest.El("div", "", drivertest.El("a", "home").Attr("href", m.site))
		table := drivertest.El("table", "",
			drivertest.El("tr", "", drivertest.El("th", "Year"), drivertest.El("th", "Deals")),
			drivertest.El("tr", "", drivertest.El("td", "2024"), drivertest.El("td", "12")))
		modal := drivertest.El("div", "", title, details, links)
		if m.malformed {
			modal.Append(drivertest.El("td", "orphan"))
		}
		modal.Append(table)

		f.replace(exprModal, modal)
		f.replace(exprTitle, title)
		f.replace(exprDetails, details)
		f.replace(exprLinks, links)
		f.closeBtn.Hidden = false
	}
	return row
}

// newFakeSite serves one list page per entry of pages, linked by a pager
// whose Next control swaps in the following page.
func newFakeSite(pages ...[]member) *fakeSite {
	f := &fakeSite{drv: drivertest.New()}

	accept := drivertest.El("button", "Accept all")
	accept.HideOnClick = true
	f.drv.Register("id='accept'", accept)

	f.user = drivertest.El("input", "")
	submit := drivertest.El("button", "Sign in")
	submit.HideOnClick = true
	f.drv.Register("id='user'", f.user)
	f.drv.Register("id='pass'", drivertest.El("input", ""))
	f.drv.Register("id='login'", submit)

	f.closeBtn = drivertest.El("button", "×")
	f.closeBtn.HideOnClick = true
	f.drv.Register(exprClose, f.closeBtn)

	var show func(i int)
	show = func(i int) {
		f.drv.Unregister(exprRows)
		for _, m := range pages[i] {
			f.drv.Register(exprRows, f.row(m))
		}
		f.drv.Unregister(exprPager)
		f.drv.Register(exprPager, drivertest.El("a", "Prev"))
		if i+1 < len(pages) {
			next := drivertest.El("a", "Next")
			next.OnClick = func() { show(i + 1) }
			f.drv.Register(exprPager, next)
		}
	}
	show(0)
	return f
}

func newTestSession(drv driver.Driver, ceiling time.Duration) *session.Session {
	pacer := timing.New(timing.WithSeed(5), timing.WithSleep(func(time.Duration) {}))
	return session.New(drv, session.WithPacer(pacer), session.WithWaitCeiling(ceiling))
}

func TestRun(t *testing.T) {
	site := newFakeSite(
		[]member{
			{name: "Alice", role: "Engineer", site: "https://alice.example"},
			{name: "Bob", role: "Broker", site: "https://bob.example", malformed: true},
		},
		[]member{
			{name: "Carol", role: "Counsel", site: "https://carol.example"},
		},
	)
	job := testJob()

	content, err := NewClient(newTestSession(site.drv, time.Second), job).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, job.URL, site.drv.URL())
	assert.Equal(t, 2, content.Pages())

	items := content.Items()
	require.Len(t, items, 2, "the malformed table skips Bob")

	alice := items[0]
	assert.Equal(t, 1, alice.Page)
	assert.Equal(t, 0, alice.Index)
	assert.NotEmpty(t, alice.ID)
	require.Len(t, alice.Header, 2)
	require.NotNil(t, alice.Header[0])
	require.NotNil(t, alice.Header[1])
	assert.Equal(t, "Alice", *alice.Header[0])
	assert.Equal(t, "Engineer", *alice.Header[1])
	assert.Equal(t, extractor.Record{"Role": "Engineer", "City": "Berlin"}, alice.Fields)
	assert.Equal(t, extractor.TableRows{{"Year", "Deals"}, {"2024", "12"}}, alice.Table)
	assert.Equal(t, map[string]string{"website": "https://alice.example"}, alice.Attrs)
	assert.False(t, alice.Incomplete)

	carol := items[1]
	assert.Equal(t, 2, carol.Page)
	assert.Equal(t, 0, carol.Index)
	assert.Equal(t, "https://carol.example", carol.Attrs["website"])
	assert.NotEqual(t, alice.ID, carol.ID)

	assert.Len(t, site.drv.CallsOf(drivertest.OpForceClick), 3)
	var closes int
	for _, c := range site.drv.CallsOf(drivertest.OpClick) {
		if c.Node == site.closeBtn {
			closes++
		}
	}
	assert.Equal(t, 3, closes, "every opened detail view is closed, including the skipped one")

	var typed string
	for _, c := range site.drv.CallsOf(drivertest.OpSendKey) {
		if c.Node == site.user {
			typed += c.Arg
		}
	}
	assert.Equal(t, "alice", typed)
	assert.NotEmpty(t, site.drv.CallsOf(drivertest.OpSwitchFrame))
}

func TestRunMaxPages(t *testing.T) {
	site := newFakeSite(
		[]member{{name: "Alice", role: "Engineer", site: "a"}},
		[]member{{name: "Carol", role: "Counsel", site: "c"}},
	)
	job := testJob()
	job.MaxPages = 1

	content, err := NewClient(newTestSession(site.drv, time.Second), job).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, content.Pages())
	require.Len(t, content.Items(), 1)
	assert.Equal(t, "Alice", *content.Items()[0].Header[0])
}

func TestRunWithoutModal(t *testing.T) {
	f := &fakeSite{drv: drivertest.New()}
	f.drv.Register(exprRows, drivertest.El("tr", "one"), drivertest.El("tr", "two"))
	f.drv.Register(exprLinks, drivertest.El("div", "", drivertest.El("a", "x").Attr("href", "/x")))

	job := testJob()
	job.Consent = ""
	job.Login = config.LoginConfig{}
	job.Listing = config.ListingConfig{
		Items: string(exprRows),
		Attrs: []config.AttrConfig{{Name: "link", Parent: string(exprLinks), Child: ".//a", Attr: "href"}},
	}

	content, err := NewClient(newTestSession(f.drv, time.Second), job).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, content.Pages())
	require.Len(t, content.Items(), 2)
	assert.Equal(t, "/x", content.Items()[1].Attrs["link"])
	assert.Empty(t, f.drv.CallsOf(drivertest.OpForceClick))
}

func TestRunDetailNeverOpens(t *testing.T) {
	site := newFakeSite([]member{{name: "Alice", role: "Engineer", site: "a"}})
	site.drv.Unregister(exprRows)
	site.drv.Register(exprRows, &drivertest.Node{Tag: "tr", Text: "Alice", Hidden: true})
	job := testJob()
	job.Consent = ""
	job.Login = config.LoginConfig{}

	content, err := NewClient(newTestSession(site.drv, 30*time.Millisecond), job).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, content.Items(), 1)
	item := content.Items()[0]
	assert.True(t, item.Incomplete)
	assert.Empty(t, item.Fields)
	assert.Empty(t, site.drv.CallsOf(drivertest.OpForceClick))
}

func TestRunDetailWithoutContent(t *testing.T) {
	site := newFakeSite([]member{
		{name: "Alice", role: "Engineer", site: "a"},
		{name: "Bob", role: "Broker", site: "b"},
	})
	site.drv.Delay(exprModal, 1000)
	job := testJob()
	job.Consent = ""
	job.Login = config.LoginConfig{}

	content, err := NewClient(newTestSession(site.drv, time.Second), job).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, content.Items(), 2)
	for _, item := range content.Items() {
		assert.True(t, item.Incomplete)
		assert.Empty(t, item.Fields)
	}

	assert.Len(t, site.drv.CallsOf(drivertest.OpForceClick), 2)
	var closes int
	for _, c := range site.drv.CallsOf(drivertest.OpClick) {
		if c.Node == site.closeBtn {
			closes++
		}
	}
	assert.Equal(t, 2, closes, "a clicked row is closed even when its content never resolves")
	assert.True(t, site.closeBtn.Hidden)
}

func TestRunTableFromDetailRoot(t *testing.T) {
	site := newFakeSite([]member{{name: "Alice", role: "Engineer", site: "a"}})
	job := testJob()
	job.Consent = ""
	job.Login = config.LoginConfig{}
	job.Listing.Table = ""

	content, err := NewClient(newTestSession(site.drv, time.Second), job).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, content.Items(), 1)
	assert.Equal(t, extractor.TableRows{{"Year", "Deals"}, {"2024", "12"}}, content.Items()[0].Table)
}

func TestRunEmptyList(t *testing.T) {
	job := testJob()
	job.Consent = ""
	job.Login = config.LoginConfig{}

	content, err := NewClient(newTestSession(drivertest.New(), 20*time.Millisecond), job).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, content.Items())
	assert.Equal(t, 1, content.Pages())
}

func TestRunLoginFormMissing(t *testing.T) {
	job := testJob()
	job.Consent = ""

	_, err := NewClient(newTestSession(drivertest.New(), 20*time.Millisecond), job).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, driver.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to log in")
}

func TestScrapeThroughRegistry(t *testing.T) {
	s, ok := scraper.Get("listing")
	require.True(t, ok)

	site := newFakeSite([]member{{name: "Alice", role: "Engineer", site: "a"}})
	pacer := timing.New(timing.WithSleep(func(time.Duration) {}))
	content, err := s.Scrape(context.Background(), "https://other.example.com/list", scraper.Options{
		Job:    testJob(),
		Driver: site.drv,
		Pacer:  pacer,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/list", site.drv.URL())
	assert.True(t, site.drv.Quitted())

	lc, ok := content.(*ListingContent)
	require.True(t, ok)
	assert.Len(t, lc.Items(), 1)
}

func TestScrapeRequiresJob(t *testing.T) {
	_, err := (&ListingScraper{}).Scrape(context.Background(), "https://example.com", scraper.Options{})
	assert.Error(t, err)
}
