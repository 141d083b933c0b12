package parse

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/models"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

const (
	// SearchPrefix marks a seed as a whitespace-separated keyword list
	SearchPrefix = "search:"
	// CustomLabel labels a seed that is used verbatim as a page URL
	CustomLabel = "custom"
)

// engineTemplates hold one %s for the query-escaped keyword.
// Substitution is textual since templates may carry their own percent-escapes.
var engineTemplates = map[string]string{
	"google": "https://www.google.com/search?tbm=isch&q=%s",
	"bing":   "https://www.bing.com/images/search?q=%s",
	"baidu":  "https://www.baidu.com/s?wd=%s+" + url.QueryEscape("图片"),
}

// ParseSeed turns user input into fetch targets.
// "search:cat dog" yields one search-results page per keyword; anything else is a single custom target.
func ParseSeed(seed string, search config.SearchConfig) ([]models.SeedTarget, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil, utils.ErrEmptySeed
	}

	if !strings.HasPrefix(seed, SearchPrefix) {
		return []models.SeedTarget{{URL: seed, Label: CustomLabel}}, nil
	}

	keywords := strings.Fields(strings.TrimPrefix(seed, SearchPrefix))
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: no keywords after '%s'", utils.ErrEmptySeed, SearchPrefix)
	}

	tmpl, err := searchTemplate(search)
	if err != nil {
		return nil, err
	}

	targets := make([]models.SeedTarget, 0, len(keywords))
	for _, kw := range keywords {
		targets = append(targets, models.SeedTarget{
			URL:   strings.Replace(tmpl, "%s", url.QueryEscape(kw), 1),
			Label: kw,
		})
	}
	return targets, nil
}

func searchTemplate(search config.SearchConfig) (string, error) {
	engine := strings.ToLower(search.Engine)
	if engine == "" {
		engine = "google"
	}
	if engine == "custom" {
		if strings.Count(search.URLTemplate, "%s") != 1 {
			return "", fmt.Errorf("%w: custom search template needs exactly one %%s", utils.ErrConfigValidation)
		}
		return search.URLTemplate, nil
	}
	tmpl, ok := engineTemplates[engine]
	if !ok {
		return "", fmt.Errorf("%w: unknown search engine '%s'", utils.ErrConfigValidation, search.Engine)
	}
	return tmpl, nil
}
