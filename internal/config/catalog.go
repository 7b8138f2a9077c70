package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/idefend/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	DefaultCategory string `yaml:"default_category"`
	DefaultTopic    string `yaml:"default_topic"`
	Categories      []struct {
		Key         string `yaml:"key"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Directive   string `yaml:"directive"`
	} `yaml:"categories"`
	Topics []struct {
		ID    string `yaml:"id"`
		Label string `yaml:"label"`
		Query string `yaml:"query"`
	} `yaml:"topics"`
}

// LoadCatalog reads the category/topic table from path, or the built-in table
// when path is empty.
func LoadCatalog(path string) (*domain.Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog %s: %w", path, err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*domain.Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	categories := make([]domain.CategoryInfo, 0, len(f.Categories))
	for _, c := range f.Categories {
		categories = append(categories, domain.CategoryInfo{
			Key:         domain.Category(strings.ToLower(c.Key)),
			Title:       c.Title,
			Description: c.Description,
			Directive:   strings.TrimSpace(c.Directive),
		})
	}

	topics := make([]domain.FeedTopic, 0, len(f.Topics))
	for _, t := range f.Topics {
		topics = append(topics, domain.FeedTopic{
			ID:    strings.ToLower(t.ID),
			Label: t.Label,
			Query: t.Query,
		})
	}

	return domain.NewCatalog(
		categories,
		domain.Category(strings.ToLower(f.DefaultCategory)),
		topics,
		strings.ToLower(f.DefaultTopic),
	)
}
