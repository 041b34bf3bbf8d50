// Package labels normalizes GitLab label strings like "priority:high" or
// "team-payments" into fixed reporting columns.
package labels

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// Well-known column names the default patterns map to.
const (
	ColPriority  = "label_priority"
	ColType      = "label_type"
	ColStatus    = "label_status"
	ColTeam      = "label_team"
	ColComponent = "label_component"
)

// MaxCustomSlots bounds how many unrecognized "category:value" labels are
// kept per item.
const MaxCustomSlots = 3

// Pattern maps a label prefix to a storage column.
type Pattern struct {
	Prefix string `yaml:"prefix"`
	Column string `yaml:"column"`
}

// DefaultPatterns returns the standard prefix set.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Prefix: "priority", Column: ColPriority},
		{Prefix: "type", Column: ColType},
		{Prefix: "status", Column: ColStatus},
		{Prefix: "team", Column: ColTeam},
		{Prefix: "component", Column: ColComponent},
	}
}

// Parsed holds the normalized label values for one item.
type Parsed struct {
	Columns map[string]string // column name -> first matching value
	Custom  []string          // up to MaxCustomSlots "category:value" leftovers
}

// Parser matches labels against a pattern table and tracks custom
// categories it discovers along the way.
type Parser struct {
	patterns   []Pattern
	matchers   []*regexp.Regexp
	custom     *regexp.Regexp
	discovered map[string]bool
}

// NewParser builds a parser over the given pattern table; nil means
// DefaultPatterns.
func NewParser(patterns []Pattern) *Parser {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	p := &Parser{
		patterns:   patterns,
		custom:     regexp.MustCompile(`^([a-zA-Z0-9_]+)[:-](.+)$`),
		discovered: make(map[string]bool),
	}
	for _, pat := range patterns {
		p.matchers = append(p.matchers,
			regexp.MustCompile(`(?i)^`+regexp.QuoteMeta(pat.Prefix)+`[:-](.+)$`))
	}
	return p
}

// Parse normalizes one item's labels. The first label matching a pattern
// wins its column; unmatched "category:value" labels fill the custom slots
// in order.
func (p *Parser) Parse(labels []string) Parsed {
	out := Parsed{Columns: make(map[string]string)}
	for _, label := range labels {
		matched := false
		for i, re := range p.matchers {
			m := re.FindStringSubmatch(label)
			if m == nil {
				continue
			}
			col := p.patterns[i].Column
			if _, taken := out.Columns[col]; !taken {
				out.Columns[col] = strings.TrimSpace(m[1])
			}
			matched = true
			break
		}
		if matched {
			continue
		}
		if m := p.custom.FindStringSubmatch(label); m != nil {
			category := strings.ToLower(m[1])
			if !p.discovered[category] {
				p.discovered[category] = true
				slog.Debug("discovered custom label category", "category", category)
			}
			if len(out.Custom) < MaxCustomSlots {
				out.Custom = append(out.Custom, fmt.Sprintf("%s:%s", category, strings.TrimSpace(m[2])))
			}
		}
	}
	return out
}

// Discovered lists the custom categories seen so far, sorted.
func (p *Parser) Discovered() []string {
	cats := make([]string, 0, len(p.discovered))
	for c := range p.discovered {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}
