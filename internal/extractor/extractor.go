// Package extractor converts DOM fragments into records: header tags,
// alternating label/value fields, HTML tables and single attributes.
package extractor

import (
	"context"
	"errors"
	"fmt"

	"webscrape/internal/driver"
	"webscrape/internal/session"

	"go.uber.org/zap"
)

// descendants selects every element under a node, in document order.
const descendants = ".//*"

// Record maps a field label to its value.
type Record map[string]string

// FieldKeySpec describes a container whose label/value pairs are laid out
// as alternating sibling tags.
type FieldKeySpec struct {
	Container driver.Expr `mapstructure:"container" json:"container"`
	Heading   string      `mapstructure:"heading" json:"heading"`
	Value     string      `mapstructure:"value" json:"value"`
}

// Extractor runs extraction algorithms against one session. Each call reads
// its child elements once and never re-queries mid-algorithm.
type Extractor struct {
	s   *session.Session
	log *zap.Logger
}

// New creates an Extractor.
func New(s *session.Session) *Extractor {
	return &Extractor{s: s, log: s.Logger().Named("extractor")}
}

// Header locates the container, lists its children matching childXPath and,
// for each tag in order, records the text of the first child with that tag.
// The result always has len(tags) slots; unmatched slots are nil.
func (e *Extractor) Header(ctx context.Context, container driver.Expr, childXPath string, tags []string) ([]*string, error) {
	parent, err := e.s.LocateOne(ctx, container)
	if err != nil {
		return make([]*string, len(tags)), fmt.Errorf("header container: %w", err)
	}
	children, err := parent.FindAll(ctx, childXPath)
	if err != nil {
		return make([]*string, len(tags)), fmt.Errorf("header children: %w", err)
	}
	childTags, err := tagsOf(ctx, children)
	if err != nil {
		return make([]*string, len(tags)), err
	}

	out := make([]*string, len(tags))
	for i, want := range tags {
		for j, tag := range childTags {
			if tag != want {
				continue
			}
			text, err := children[j].Text(ctx)
			if err != nil {
				return out, fmt.Errorf("header %s text: %w", want, err)
			}
			out[i] = &text
			break
		}
	}
	return out, nil
}

// fieldState is the pending-label register of Fields.
type fieldState int

const (
	idle fieldState = iota
	awaitingValue
)

// Fields walks every descendant of spec.Container. A heading tag sets the
// pending label; a value tag with a pending label records the pair and
// clears it; a value tag with nothing pending is dropped. A heading followed
// by another heading therefore yields nothing for the first one.
func (e *Extractor) Fields(ctx context.Context, spec FieldKeySpec) (Record, error) {
	parent, err := e.s.LocateOne(ctx, spec.Container)
	if err != nil {
		return nil, fmt.Errorf("fields container: %w", err)
	}
	children, err := parent.FindAll(ctx, descendants)
	if err != nil {
		return nil, fmt.Errorf("fields children: %w", err)
	}

	rec := Record{}
	state, label := idle, ""
	for _, c := range children {
		tag, err := c.TagName(ctx)
		if err != nil {
			return rec, fmt.Errorf("fields tag: %w", err)
		}
		switch {
		case tag == spec.Heading:
			if label, err = c.Text(ctx); err != nil {
				return rec, fmt.Errorf("fields heading: %w", err)
			}
			state = awaitingValue
		case tag == spec.Value && state == awaitingValue:
			text, err := c.Text(ctx)
			if err != nil {
				return rec, fmt.Errorf("fields value: %w", err)
			}
			rec[label] = text
			state, label = idle, ""
		case tag == spec.Value:
			e.log.Debug("dropping value without a label")
		}
	}
	return rec, nil
}

// RetrieveAttr locates parent, optionally narrows to childXPath, and returns
// the element text (attr empty) or the named attribute. A missing element or
// attribute is reported as absent, not as an error.
func (e *Extractor) RetrieveAttr(ctx context.Context, parent driver.Expr, childXPath, attr string) (string, bool, error) {
	el, err := e.s.LocateOne(ctx, parent)
	if err != nil {
		if errors.Is(err, driver.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if childXPath != "" {
		if el, err = el.Find(ctx, childXPath); err != nil {
			if errors.Is(err, driver.ErrNotFound) {
				return "", false, nil
			}
			return "", false, fmt.Errorf("attribute child %s: %w", childXPath, err)
		}
	}
	if attr == "" {
		text, err := el.Text(ctx)
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	}
	return el.Attribute(ctx, attr)
}

func tagsOf(ctx context.Context, els []*session.Element) ([]string, error) {
	tags := make([]string, len(els))
	for i, el := range els {
		tag, err := el.TagName(ctx)
		if err != nil {
			return nil, fmt.Errorf("tag name: %w", err)
		}
		tags[i] = tag
	}
	return tags, nil
}
