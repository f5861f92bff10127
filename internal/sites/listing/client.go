package listing

import (
	"context"
	"errors"
	"fmt"

	"webscrape/internal/config"
	"webscrape/internal/driver"
	"webscrape/internal/extractor"
	"webscrape/internal/interact"
	"webscrape/internal/paginate"
	"webscrape/internal/popup"
	"webscrape/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Item is everything extracted for one list row.
type Item struct {
	ID     string              `json:"id"`
	Page   int                 `json:"page"`
	Index  int                 `json:"index"`
	Header []*string           `json:"header,omitempty"`
	Fields extractor.Record    `json:"fields,omitempty"`
	Table  extractor.TableRows `json:"table,omitempty"`
	Attrs  map[string]string   `json:"attrs,omitempty"`
	// Incomplete is set when the detail view never opened or had no content.
	Incomplete bool `json:"incomplete,omitempty"`
}

// Client walks a paginated list on one session.
type Client struct {
	s   *session.Session
	job *config.Config
	it  *interact.Interactor
	pg  *paginate.Paginator
	ex  *extractor.Extractor
	pop *popup.Opener
	log *zap.Logger
}

// NewClient binds job to s.
func NewClient(s *session.Session, job *config.Config) *Client {
	return &Client{
		s:   s,
		job: job,
		it:  interact.New(s),
		pg:  paginate.New(s),
		ex:  extractor.New(s),
		pop: popup.New(s),
		log: s.Logger().Named("listing"),
	}
}

// Run opens the job URL, gets past consent and login, then extracts every
// item of every page.
func (c *Client) Run(ctx context.Context) (*ListingContent, error) {
	runID := uuid.NewString()
	log := c.log.With(zap.String("run_id", runID), zap.String("url", c.job.URL))

	if err := c.s.Navigate(ctx, c.job.URL); err != nil {
		return nil, err
	}

	if c.job.Consent != "" {
		accepted, err := c.it.Consent(ctx, driver.Expr(c.job.Consent))
		if err != nil {
			return nil, fmt.Errorf("failed to accept consent: %w", err)
		}
		if !accepted {
			log.Info("no consent banner")
		}
	}

	if c.job.Login.Enabled() {
		form := interact.LoginForm{
			Username: driver.Expr(c.job.Login.Username),
			Password: driver.Expr(c.job.Login.Password),
			Submit:   driver.Expr(c.job.Login.Submit),
		}
		creds := interact.Credentials{
			Username: c.job.Credentials.Username,
			Password: c.job.Credentials.Password,
		}
		if err := c.it.Login(ctx, form, creds); err != nil {
			return nil, fmt.Errorf("failed to log in: %w", err)
		}
	}

	maxPages := c.job.MaxPages
	if c.job.Listing.Next == "" {
		maxPages = 1
	}

	var items []Item
	pages, err := c.pg.Walk(ctx, driver.Expr(c.job.Listing.Next), maxPages, func(ctx context.Context, page int) error {
		got, err := c.scrapePage(ctx, page)
		items = append(items, got...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed on page %d: %w", pages, err)
	}

	log.Info("listing done", zap.Int("pages", pages), zap.Int("items", len(items)))
	return NewListingContent(c.job.URL, runID, c.headerTags(), pages, items), nil
}

func (c *Client) headerTags() []string {
	if c.job.Listing.Header == nil {
		return nil
	}
	return c.job.Listing.Header.Tags
}

func (c *Client) scrapePage(ctx context.Context, page int) ([]Item, error) {
	rows, err := c.it.FindList(ctx, driver.Expr(c.job.Listing.Items))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		c.log.Warn("no items on page", zap.Int("page", page))
		return nil, nil
	}

	items := make([]Item, 0, len(rows))
	for i, row := range rows {
		item, err := c.scrapeItem(ctx, page, i, row)
		if err != nil {
			if ctx.Err() != nil {
				return items, ctx.Err()
			}
			c.log.Error("item skipped", zap.Int("page", page), zap.Int("index", i), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Client) scrapeItem(ctx context.Context, page, index int, row *session.Element) (Item, error) {
	item := Item{ID: uuid.NewString(), Page: page, Index: index}
	lst := c.job.Listing

	var root *session.Element
	if lst.Modal != "" {
		l, opened := c.pop.Detail(ctx, row, driver.Expr(lst.Modal))
		if opened {
			defer func() {
				if cerr := c.pop.Close(ctx, driver.Expr(lst.Close)); cerr != nil {
					c.log.Warn("failed to close detail view", zap.Int("index", index), zap.Error(cerr))
				}
			}()
		}
		switch {
		case l.Status == session.TimedOut:
			item.Incomplete = true
			return item, nil
		case opened && l.NotFound():
			c.log.Warn("detail view has no content", zap.Int("page", page), zap.Int("index", index))
			item.Incomplete = true
			return item, nil
		case l.Status == session.Failed:
			return item, l.Err()
		}
		root = l.First()
	}

	if h := lst.Header; h != nil {
		child := h.Child
		if child == "" {
			child = ".//*"
		}
		vals, err := c.ex.Header(ctx, driver.Expr(h.Container), child, h.Tags)
		if err != nil && !errors.Is(err, driver.ErrNotFound) {
			return item, err
		}
		item.Header = vals
	}

	for _, f := range lst.Fields {
		rec, err := c.ex.Fields(ctx, extractor.FieldKeySpec{
			Container: driver.Expr(f.Container),
			Heading:   f.Heading,
			Value:     f.Value,
		})
		if err != nil {
			if errors.Is(err, driver.ErrNotFound) {
				continue
			}
			return item, err
		}
		if item.Fields == nil {
			item.Fields = extractor.Record{}
		}
		for k, v := range rec {
			item.Fields[k] = v
		}
	}

	switch {
	case lst.Table != "":
		parent, err := c.s.LocateOne(ctx, driver.Expr(lst.Table))
		switch {
		case errors.Is(err, driver.ErrNotFound):
		case err != nil:
			return item, err
		default:
			if item.Table, err = c.ex.Table(ctx, parent); err != nil {
				return item, err
			}
		}
	case root != nil:
		table, err := c.ex.Table(ctx, root)
		if err != nil {
			return item, err
		}
		item.Table = table
	}

	for _, a := range lst.Attrs {
		v, ok, err := c.ex.RetrieveAttr(ctx, driver.Expr(a.Parent), a.Child, a.Attr)
		if err != nil {
			return item, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		if !ok {
			continue
		}
		if item.Attrs == nil {
			item.Attrs = map[string]string{}
		}
		item.Attrs[a.Name] = v
	}
	return item, nil
}
