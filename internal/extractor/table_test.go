package extractor

import (
	"context"
	"testing"

	"webscrape/internal/driver"
	"webscrape/internal/driver/drivertest"
	"webscrape/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flat locates a container registered under a throwaway expression and
// returns its descendants as session elements.
func flat(t *testing.T, s *session.Session, drv *drivertest.Driver, nodes ...*drivertest.Node) []*session.Element {
	t.Helper()
	const expr driver.Expr = "id='flat'"
	drv.Unregister(expr)
	drv.Register(expr, el("div", "", nodes...))
	parent, err := s.LocateOne(context.Background(), expr)
	require.NoError(t, err)
	children, err := parent.FindAll(context.Background(), "./*")
	require.NoError(t, err)
	return children
}

func TestCarveTable(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.New()
	x, s := newExtractor(drv)

	t.Run("rows and columns", func(t *testing.T) {
		els := flat(t, s, drv,
			el("tr", ""), el("td", "A"), el("td", "B"),
			el("tr", ""), el("td", "C"), el("td", "D"),
		)
		rows, err := x.CarveTable(ctx, els)
		require.NoError(t, err)
		assert.Equal(t, TableRows{{"A", "B"}, {"C", "D"}}, rows)
	})

	t.Run("header cells and empty rows", func(t *testing.T) {
		els := flat(t, s, drv,
			el("tr", ""), el("th", "Year"), el("th", "Revenue"),
			el("tr", ""),
			el("tr", ""), el("td", "2024"), el("span", "ignored"), el("td", "1.2M"),
		)
		rows, err := x.CarveTable(ctx, els)
		require.NoError(t, err)
		assert.Equal(t, TableRows{{"Year", "Revenue"}, {}, {"2024", "1.2M"}}, rows)
	})

	t.Run("no elements", func(t *testing.T) {
		rows, err := x.CarveTable(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("cell before any row is malformed", func(t *testing.T) {
		els := flat(t, s, drv, el("thead", ""), el("td", "A"), el("tr", ""), el("td", "B"))
		rows, err := x.CarveTable(ctx, els)

		assert.Nil(t, rows)
		var malformed *MalformedTableError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, 1, malformed.Index)
		assert.Equal(t, "td", malformed.Tag)
		assert.Contains(t, err.Error(), "precedes any tr")
	})
}

func TestTable(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.New()
	drv.Register("class='financials'", el("table", "",
		el("tbody", "",
			el("tr", "", el("th", "Item"), el("th", "2024")),
			el("tr", "", el("td", "Sales"), el("td", "10")),
		),
	))
	x, s := newExtractor(drv)

	parent, err := s.LocateOne(ctx, "class='financials'")
	require.NoError(t, err)

	rows, err := x.Table(ctx, parent)
	require.NoError(t, err)
	assert.Equal(t, TableRows{{"Item", "2024"}, {"Sales", "10"}}, rows)
}
