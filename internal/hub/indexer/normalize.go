package indexer

import (
	"regexp"
	"strings"

	apiv0 "github.com/modelcontextprotocol/registry/pkg/api/v0"
	"github.com/modelcontextprotocol/registry/pkg/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pluginhub-dev/pluginhub/pkg/models"
)

const defaultCategory = "utilities"

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	titleCaser = cases.Title(language.English)
)

// shortName derives the catalog name from a possibly namespaced upstream
// identifier: last path segment, lowercased, runs of non-alphanumerics
// collapsed into single hyphens.
func shortName(identifier string) string {
	seg := identifier
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	seg = nonAlnum.ReplaceAllString(strings.ToLower(seg), "-")
	return strings.Trim(seg, "-")
}

// displayName splits the short name on hyphens and word-capitalizes it.
// Neither upstream carries a human-readable title, so the derived name is
// all we have.
func displayName(short string) string {
	return titleCaser.String(strings.ReplaceAll(short, "-", " "))
}

type categoryRule struct {
	pattern  *regexp.Regexp
	category string
}

// categoryRules are matched in order against name+description; the first
// hit wins.
var categoryRules = []categoryRule{
	{regexp.MustCompile(`postgres|mysql|sqlite|mongodb?|redis|clickhouse|database|\bsql\b`), "databases"},
	{regexp.MustCompile(`playwright|puppeteer|selenium|browser`), "browser-automation"},
	{regexp.MustCompile(`kubernetes|terraform|\baws\b|azure|gcloud|cloudflare`), "cloud"},
	{regexp.MustCompile(`github|gitlab|bitbucket|\bgit\b`), "version-control"},
	{regexp.MustCompile(`slack|discord|telegram|\bemail\b|smtp`), "communication"},
	{regexp.MustCompile(`search|crawl|scrape`), "search"},
	{regexp.MustCompile(`filesystem|\bfiles?\b|storage|\bs3\b`), "filesystem"},
	{regexp.MustCompile(`monitor|metrics|observability|sentry|grafana`), "monitoring"},
	{regexp.MustCompile(`\bllm\b|openai|anthropic|embedding|\bai\b|\bagents?\b`), "ai"},
}

func classify(name, description string) string {
	haystack := strings.ToLower(name + " " + description)
	for _, rule := range categoryRules {
		if rule.pattern.MatchString(haystack) {
			return rule.category
		}
	}
	return defaultCategory
}

// vendorKeywords maps well-known product names to their vendor when the
// upstream identifier carries no namespace. Ordered so matching is
// deterministic.
var vendorKeywords = []struct {
	keyword string
	vendor  string
}{
	{"playwright", "Microsoft"},
	{"github", "GitHub"},
	{"gitlab", "GitLab"},
	{"slack", "Slack"},
	{"stripe", "Stripe"},
	{"cloudflare", "Cloudflare"},
	{"notion", "Notion"},
	{"grafana", "Grafana Labs"},
	{"elasticsearch", "Elastic"},
	{"mongodb", "MongoDB"},
	{"redis", "Redis"},
}

// vendorFor extracts the vendor from the identifier's namespace prefix,
// falling back to a keyword lookup on the short name.
func vendorFor(identifier, short string) string {
	if ns := namespaceOf(identifier); ns != "" {
		return ns
	}
	key := strings.ToLower(short)
	for _, entry := range vendorKeywords {
		if strings.Contains(key, entry.keyword) {
			return entry.vendor
		}
	}
	return ""
}

// namespaceOf returns the identifier's namespace. Reverse-DNS namespaces
// like io.github.acme reduce to their last label.
func namespaceOf(identifier string) string {
	i := strings.LastIndex(identifier, "/")
	if i <= 0 {
		return ""
	}
	ns := identifier[:i]
	if j := strings.LastIndex(ns, "."); j >= 0 {
		ns = ns[j+1:]
	}
	return ns
}

// serverTypeFromRemotes infers the transport from declared remotes.
func serverTypeFromRemotes(remotes []model.Transport) string {
	for _, remote := range remotes {
		switch remote.Type {
		case "streamable-http", "http":
			return "http"
		case "sse":
			return "sse"
		}
	}
	return "stdio"
}

// installMethods builds the install method list from package and remote
// descriptors, and reports the first docker image seen. An npm package is
// the recommended method when present, else a docker image, else the
// first remote URL.
func installMethods(server *apiv0.ServerJSON) ([]models.InstallMethod, string) {
	var methods []models.InstallMethod
	dockerImage := ""

	for _, pkg := range server.Packages {
		switch strings.ToLower(pkg.RegistryType) {
		case "npm":
			methods = append(methods, models.InstallMethod{
				Type:    "npm",
				Command: "npx -y " + pkg.Identifier,
				Package: pkg.Identifier,
			})
		case "oci", "docker":
			if dockerImage == "" {
				dockerImage = pkg.Identifier
			}
			methods = append(methods, models.InstallMethod{
				Type:    "docker",
				Command: "docker run -i --rm " + pkg.Identifier,
				Image:   pkg.Identifier,
			})
		}
	}

	for _, remote := range server.Remotes {
		if remote.URL != "" {
			methods = append(methods, models.InstallMethod{
				Type: "remote",
				URL:  remote.URL,
			})
		}
	}

	markRecommended(methods)
	return methods, dockerImage
}

func markRecommended(methods []models.InstallMethod) {
	for _, preferred := range []string{"npm", "docker", "remote"} {
		for i := range methods {
			if methods[i].Type == preferred {
				methods[i].Recommended = true
				return
			}
		}
	}
}
