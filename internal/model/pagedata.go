package model

import (
	"fmt"
	"html/template"
	"os"

	"gopkg.in/yaml.v2"
)

// PageData is what page.html and post.html are executed with.
type PageData struct {
	Title       string
	Slug        string
	Content     template.HTML
	Frontmatter Frontmatter
	Site        *SiteData
}

// BlogData is what blog.html is executed with.
type BlogData struct {
	Posts []PostSummary
	Site  *SiteData
}

// LoadSiteData reads site params from a YAML config file. A missing file
// yields empty params.
func LoadSiteData(filename string) (*SiteData, error) {
	site := &SiteData{Params: map[string]interface{}{}}
	if filename == "" {
		return site, nil
	}

	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return site, nil
		}
		return nil, fmt.Errorf("error reading config file %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(yamlFile, &site.Params); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", filename, err)
	}
	if site.Params == nil {
		site.Params = map[string]interface{}{}
	}
	return site, nil
}
