package domain

import (
	"fmt"
	"strings"
)

// Category is a rights area a chat session is scoped to.
type Category string

// CategoryInfo is one row of the directive table.
type CategoryInfo struct {
	Key         Category
	Title       string
	Description string
	Directive   string
}

// FeedTopic maps an article-feed tab to its search query.
type FeedTopic struct {
	ID    string
	Label string
	Query string
}

// Catalog is the read-only table of categories and feed topics.
// It is built once at startup and shared between sessions.
type Catalog struct {
	categories      []CategoryInfo
	byKey           map[Category]CategoryInfo
	defaultCategory Category

	topics       []FeedTopic
	byTopic      map[string]FeedTopic
	defaultTopic string
}

// NewCatalog validates the entries and builds a Catalog.
func NewCatalog(
	categories []CategoryInfo,
	defaultCategory Category,
	topics []FeedTopic,
	defaultTopic string,
) (*Catalog, error) {
	c := &Catalog{
		byKey:           make(map[Category]CategoryInfo, len(categories)),
		defaultCategory: defaultCategory,
		byTopic:         make(map[string]FeedTopic, len(topics)),
		defaultTopic:    defaultTopic,
	}

	for _, info := range categories {
		if info.Key == "" {
			return nil, fmt.Errorf("catalog: category with empty key")
		}
		if strings.TrimSpace(info.Directive) == "" {
			return nil, fmt.Errorf("catalog: category %q has no directive", info.Key)
		}
		if _, dup := c.byKey[info.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate category %q", info.Key)
		}
		c.byKey[info.Key] = info
		c.categories = append(c.categories, info)
	}
	if _, ok := c.byKey[defaultCategory]; !ok {
		return nil, fmt.Errorf("catalog: default category %q not defined", defaultCategory)
	}

	for _, t := range topics {
		if t.ID == "" || t.Query == "" {
			return nil, fmt.Errorf("catalog: feed topic %q needs an id and a query", t.ID)
		}
		if _, dup := c.byTopic[t.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate feed topic %q", t.ID)
		}
		c.byTopic[t.ID] = t
		c.topics = append(c.topics, t)
	}
	if len(topics) > 0 {
		if _, ok := c.byTopic[defaultTopic]; !ok {
			return nil, fmt.Errorf("catalog: default feed topic %q not defined", defaultTopic)
		}
	}

	return c, nil
}

// Resolve returns the category for key, or the default category when the key
// is unknown.
func (c *Catalog) Resolve(key string) CategoryInfo {
	k := Category(strings.ToLower(strings.TrimSpace(key)))
	if info, ok := c.byKey[k]; ok {
		return info
	}
	return c.byKey[c.defaultCategory]
}

// Lookup reports whether key is a known category.
func (c *Catalog) Lookup(key string) (CategoryInfo, bool) {
	info, ok := c.byKey[Category(strings.ToLower(strings.TrimSpace(key)))]
	return info, ok
}

func (c *Catalog) DefaultCategory() Category { return c.defaultCategory }

// Categories returns the categories in declaration order.
func (c *Catalog) Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(c.categories))
	copy(out, c.categories)
	return out
}

// Topic returns the feed topic for id, falling back to the default topic.
func (c *Catalog) Topic(id string) FeedTopic {
	if t, ok := c.byTopic[strings.ToLower(strings.TrimSpace(id))]; ok {
		return t
	}
	return c.byTopic[c.defaultTopic]
}

func (c *Catalog) Topics() []FeedTopic {
	out := make([]FeedTopic, len(c.topics))
	copy(out, c.topics)
	return out
}
