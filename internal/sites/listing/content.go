package listing

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// ListingContent holds every item extracted in one run. It is built after
// the browser work is done, so formatting needs no live page.
type ListingContent struct {
	url        string
	runID      string
	headerTags []string
	pages      int
	items      []Item
	fetchedAt  time.Time
}

// NewListingContent creates a ListingContent.
func NewListingContent(url, runID string, headerTags []string, pages int, items []Item) *ListingContent {
	return &ListingContent{
		url:        url,
		runID:      runID,
		headerTags: headerTags,
		pages:      pages,
		items:      items,
		fetchedAt:  time.Now(),
	}
}

// Items returns the extracted items in page, then row order.
func (c *ListingContent) Items() []Item { return c.items }

// Pages is the number of list pages visited.
func (c *ListingContent) Pages() int { return c.pages }

// title picks the first non-empty header value. The slot it came from is
// left out of the per-tag lines.
func (c *ListingContent) title(it Item) (string, int) {
	for i, h := range it.Header {
		if h != nil && *h != "" {
			return *h, i
		}
	}
	return fmt.Sprintf("Item %d.%d", it.Page, it.Index+1), -1
}

// headerLines pairs tag names with the header values not used as the title.
func (c *ListingContent) headerLines(it Item) [][2]string {
	_, skip := c.title(it)
	var out [][2]string
	for i, h := range it.Header {
		if h == nil || i == skip || i >= len(c.headerTags) {
			continue
		}
		out = append(out, [2]string{c.headerTags[i], *h})
	}
	return out
}

// itemHTML renders one item without its table.
func (c *ListingContent) itemHTML(it Item) string {
	var b strings.Builder
	title, _ := c.title(it)
	fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(title))
	if lines := c.headerLines(it); len(lines) > 0 {
		b.WriteString("<ul>\n")
		for _, l := range lines {
			fmt.Fprintf(&b, "<li><b>%s</b>: %s</li>\n", html.EscapeString(l[0]), html.EscapeString(l[1]))
		}
		b.WriteString("</ul>\n")
	}
	if pairs := it.pairs(); len(pairs) > 0 {
		b.WriteString("<dl>\n")
		for _, p := range pairs {
			fmt.Fprintf(&b, "<dt>%s</dt><dd>%s</dd>\n", html.EscapeString(p[0]), html.EscapeString(p[1]))
		}
		b.WriteString("</dl>\n")
	}
	return b.String()
}

func tableHTML(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<table>\n")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(cell))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")
	return b.String()
}

// pairs flattens fields then attributes, each sorted by key.
func (it Item) pairs() [][2]string {
	var out [][2]string
	for _, k := range sortedKeys(it.Fields) {
		out = append(out, [2]string{k, it.Fields[k]})
	}
	for _, k := range sortedKeys(it.Attrs) {
		out = append(out, [2]string{k, it.Attrs[k]})
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToHTML returns HTML format content
func (c *ListingContent) ToHTML() (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(c.url))
	for _, it := range c.items {
		b.WriteString("<section>\n")
		b.WriteString(c.itemHTML(it))
		b.WriteString(tableHTML(it.Table))
		b.WriteString("</section>\n")
	}
	return b.String(), nil
}

// ToText returns plain text content
func (c *ListingContent) ToText() (string, error) {
	var b strings.Builder
	for i, it := range c.items {
		if i > 0 {
			b.WriteString("\n")
		}
		title, _ := c.title(it)
		b.WriteString(title)
		b.WriteString("\n")
		for _, l := range c.headerLines(it) {
			fmt.Fprintf(&b, "  %s: %s\n", l[0], l[1])
		}
		for _, p := range it.pairs() {
			fmt.Fprintf(&b, "  %s: %s\n", p[0], p[1])
		}
		for _, row := range it.Table {
			fmt.Fprintf(&b, "  %s\n", strings.Join(row, "\t"))
		}
	}
	return b.String(), nil
}

// ToMarkdown returns Markdown format content
func (c *ListingContent) ToMarkdown() (string, error) {
	converter := md.NewConverter("", true, nil)

	var sb strings.Builder
	for i, it := range c.items {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		body, err := converter.ConvertString(c.itemHTML(it))
		if err != nil {
			return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
		}
		sb.WriteString(body)
		if t := tableHTML(it.Table); t != "" {
			sb.WriteString("\n\n")
			sb.WriteString(convertHTMLTableToMarkdown(t))
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n", nil
}

// convertHTMLTableToMarkdown renders the first row as the header row.
func convertHTMLTableToMarkdown(tableHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return tableHTML
	}

	var builder strings.Builder
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		var rows [][]string
		table.Find("tr").Each(func(j int, row *goquery.Selection) {
			var cells []string
			row.Find("th, td").Each(func(k int, cell *goquery.Selection) {
				cells = append(cells, strings.ReplaceAll(strings.TrimSpace(cell.Text()), "|", `\|`))
			})
			rows = append(rows, cells)
		})
		if len(rows) == 0 {
			return
		}

		width := 0
		for _, r := range rows {
			width = max(width, len(r))
		}
		if width == 0 {
			return
		}
		writeRow := func(cells []string) {
			builder.WriteString("|")
			for k := 0; k < width; k++ {
				cell := ""
				if k < len(cells) {
					cell = cells[k]
				}
				builder.WriteString(" " + cell + " |")
			}
			builder.WriteString("\n")
		}

		writeRow(rows[0])
		builder.WriteString("|")
		for k := 0; k < width; k++ {
			builder.WriteString(" --- |")
		}
		builder.WriteString("\n")
		for _, r := range rows[1:] {
			writeRow(r)
		}
	})
	return builder.String()
}

// ToJSON returns JSON format content
func (c *ListingContent) ToJSON() ([]byte, error) {
	type jsonOutput struct {
		URL        string   `json:"url"`
		RunID      string   `json:"run_id"`
		Pages      int      `json:"pages"`
		HeaderTags []string `json:"header_tags,omitempty"`
		FetchedAt  string   `json:"fetched_at"`
		Items      []Item   `json:"items"`
	}

	items := c.items
	if items == nil {
		items = []Item{}
	}
	output := jsonOutput{
		URL:        c.url,
		RunID:      c.runID,
		Pages:      c.pages,
		HeaderTags: c.headerTags,
		FetchedAt:  c.fetchedAt.Format(time.RFC3339),
		Items:      items,
	}
	return json.MarshalIndent(output, "", "  ")
}

// ToCSV returns CSV format content: one row per item with header, field and
// attribute columns, then one block per item table.
func (c *ListingContent) ToCSV() (string, error) {
	fieldKeys := map[string]string{}
	attrKeys := map[string]string{}
	for _, it := range c.items {
		for k := range it.Fields {
			fieldKeys[k] = k
		}
		for k := range it.Attrs {
			attrKeys[k] = k
		}
	}
	fields := sortedKeys(fieldKeys)
	attrs := sortedKeys(attrKeys)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"id", "page", "index"}
	header = append(header, c.headerTags...)
	header = append(header, fields...)
	header = append(header, attrs...)
	_ = w.Write(header)
	for _, it := range c.items {
		record := []string{it.ID, strconv.Itoa(it.Page), strconv.Itoa(it.Index)}
		for i := range c.headerTags {
			v := ""
			if i < len(it.Header) && it.Header[i] != nil {
				v = *it.Header[i]
			}
			record = append(record, v)
		}
		for _, k := range fields {
			record = append(record, it.Fields[k])
		}
		for _, k := range attrs {
			record = append(record, it.Attrs[k])
		}
		_ = w.Write(record)
	}
	w.Flush()

	for _, it := range c.items {
		if len(it.Table) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n# Table %s (page %d, item %d)\n", it.ID, it.Page, it.Index)
		tw := csv.NewWriter(&buf)
		for _, row := range it.Table {
			if len(row) > 0 {
				_ = tw.Write(row)
			}
		}
		tw.Flush()
	}
	return buf.String(), w.Error()
}
