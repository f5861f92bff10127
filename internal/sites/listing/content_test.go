package listing

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"webscrape/internal/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func sampleContent() *ListingContent {
	items := []Item{
		{
			ID:     "id-1",
			Page:   1,
			Index:  0,
			Header: []*string{strp("ACME"), strp("Tools & Dies")},
			Fields: extractor.Record{"City": "Berlin", "Founded": "1999"},
			Table:  extractor.TableRows{{"Year", "Revenue"}, {"2024", "1|2"}},
			Attrs:  map[string]string{"website": "https://acme.example"},
		},
		{
			ID:     "id-2",
			Page:   2,
			Index:  3,
			Header: []*string{strp("Globex"), nil},
			Fields: extractor.Record{"City": "Paris"},
		},
	}
	return NewListingContent("https://directory.example.com", "run-1", []string{"h2", "h4"}, 2, items)
}

func TestToHTML(t *testing.T) {
	out, err := sampleContent().ToHTML()
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>ACME</h2>")
	assert.Contains(t, out, "Tools &amp; Dies")
	assert.Contains(t, out, "<dt>City</dt><dd>Berlin</dd>")
	assert.Contains(t, out, "<td>2024</td><td>1|2</td>")
	assert.Equal(t, 2, strings.Count(out, "<section>"))
}

func TestHeaderRenderersAgree(t *testing.T) {
	items := []Item{
		{ID: "a", Header: []*string{strp("ACME"), strp("Tools")}},
		{ID: "b", Header: []*string{nil, strp("Initech"), strp("Software")}},
	}
	c := NewListingContent("u", "r", []string{"h2", "h3", "h4"}, 1, items)

	htmlOut, err := c.ToHTML()
	require.NoError(t, err)
	textOut, err := c.ToText()
	require.NoError(t, err)

	assert.Contains(t, htmlOut, "<h2>ACME</h2>\n<ul>\n<li><b>h3</b>: Tools</li>\n</ul>")
	assert.NotContains(t, htmlOut, "<b>h2</b>")
	assert.Contains(t, textOut, "ACME\n  h3: Tools\n")
	assert.NotContains(t, textOut, "h2: ACME")

	assert.Contains(t, htmlOut, "<h2>Initech</h2>\n<ul>\n<li><b>h4</b>: Software</li>\n</ul>")
	assert.NotContains(t, htmlOut, "<b>h3</b>: Initech")
	assert.Contains(t, textOut, "Initech\n  h4: Software\n")
	assert.NotContains(t, textOut, "h3: Initech")
}

func TestToText(t *testing.T) {
	out, err := sampleContent().ToText()
	require.NoError(t, err)
	assert.Contains(t, out, "ACME\n  h4: Tools & Dies\n")
	assert.Contains(t, out, "  City: Berlin\n  Founded: 1999\n  website: https://acme.example\n")
	assert.Contains(t, out, "  2024\t1|2\n")
	assert.Contains(t, out, "\nGlobex\n  City: Paris\n")
}

func TestToMarkdown(t *testing.T) {
	out, err := sampleContent().ToMarkdown()
	require.NoError(t, err)
	assert.Contains(t, out, "ACME")
	assert.Contains(t, out, "Berlin")
	assert.Contains(t, out, "| Year | Revenue |\n| --- | --- |\n| 2024 | 1\\|2 |\n")
	assert.NotContains(t, out, "<table>")
}

func TestConvertHTMLTableToMarkdownRagged(t *testing.T) {
	got := convertHTMLTableToMarkdown("<table><tr><td>a</td></tr><tr><td>b</td><td>c</td></tr></table>")
	assert.Equal(t, "| a |  |\n| --- | --- |\n| b | c |\n", got)
}

func TestToJSON(t *testing.T) {
	b, err := sampleContent().ToJSON()
	require.NoError(t, err)

	var out struct {
		URL   string `json:"url"`
		RunID string `json:"run_id"`
		Pages int    `json:"pages"`
		Items []Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "https://directory.example.com", out.URL)
	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, 2, out.Pages)
	require.Len(t, out.Items, 2)
	assert.Nil(t, out.Items[1].Header[1])
	assert.Equal(t, "Paris", out.Items[1].Fields["City"])
}

func TestToJSONEmpty(t *testing.T) {
	b, err := NewListingContent("u", "r", nil, 1, nil).ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"items": []`)
}

func TestToCSV(t *testing.T) {
	out, err := sampleContent().ToCSV()
	require.NoError(t, err)

	parts := strings.SplitN(out, "\n\n", 2)
	require.Len(t, parts, 2)

	records, err := csv.NewReader(strings.NewReader(parts[0])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "page", "index", "h2", "h4", "City", "Founded", "website"}, records[0])
	assert.Equal(t, []string{"id-1", "1", "0", "ACME", "Tools & Dies", "Berlin", "1999", "https://acme.example"}, records[1])
	assert.Equal(t, []string{"id-2", "2", "3", "Globex", "", "Paris", "", ""}, records[2])

	assert.True(t, strings.HasPrefix(parts[1], "# Table id-1 (page 1, item 0)\n"))
	assert.Contains(t, parts[1], "Year,Revenue\n2024,1|2\n")
}
