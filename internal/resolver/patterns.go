// -----------------------------------------------------------------------
// Pattern generator - Tier 3 alternative selector candidates
// -----------------------------------------------------------------------

package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Candidate is one generated alternative selector with the strategy that
// produced it
type Candidate struct {
	Selector string
	Strategy string
}

// maxCandidates caps the Tier 3 candidate list; each candidate costs a
// short visibility wait, so the list stays small.
const maxCandidates = 6

// knownFields are the form-field tokens the pattern rules key on
var knownFields = []string{
	"email", "password", "username", "user", "search", "phone",
	"address", "postcode", "zip", "city", "state", "country",
	"firstname", "lastname", "name", "date", "amount", "quantity",
	"comment", "message", "title", "description",
}

// buttonWords mark a step as targeting a clickable control rather than a field
var buttonWords = []string{
	"button", "submit", "login", "log in", "sign in", "save", "cancel",
	"confirm", "next", "back", "continue", "add", "delete", "edit", "ok",
}

var idSelectorRe = regexp.MustCompile(`#([A-Za-z][\w-]*)`)
var attrSelectorRe = regexp.MustCompile(`\[(?:name|id|data-testid)\s*[*^$]?=\s*['"]?([\w-]+)['"]?\]`)

// GenerateAlternatives emits alternative selector candidates for a step
// whose direct selector no longer matches. Rules key on substrings of the
// target and label; when a DOM snapshot is available it is mined for
// matching attributes and nearby text as a last set of candidates.
func GenerateAlternatives(target, label, domSnapshot string) []Candidate {
	var candidates []Candidate
	seen := map[string]bool{target: true}

	add := func(selector, strategy string) {
		if len(candidates) >= maxCandidates || selector == "" || seen[selector] {
			return
		}
		seen[selector] = true
		candidates = append(candidates, Candidate{Selector: selector, Strategy: strategy})
	}

	haystack := strings.ToLower(target + " " + label)

	// Identifier mentioned in the stale selector itself: try looser variants
	if m := idSelectorRe.FindStringSubmatch(target); m != nil {
		add(fmt.Sprintf("[id*='%s']", m[1]), StrategyPatternAttribute)
		add(fmt.Sprintf("[name='%s']", m[1]), StrategyPatternAttribute)
	}
	if m := attrSelectorRe.FindStringSubmatch(target); m != nil {
		add("#"+m[1], StrategyPatternAttribute)
		add(fmt.Sprintf("[data-testid='%s']", m[1]), StrategyPatternAttribute)
	}

	// Known field names: attribute and ARIA variants
	for _, field := range knownFields {
		if !strings.Contains(haystack, field) {
			continue
		}
		add(fmt.Sprintf("input[name='%s']", field), StrategyPatternAttribute)
		add(fmt.Sprintf("input[id*='%s']", field), StrategyPatternAttribute)
		add(fmt.Sprintf("[aria-label*='%s' i]", field), StrategyPatternARIA)
		break
	}

	// Clickable controls: label-text variants
	if label != "" && containsAny(haystack, buttonWords) {
		text := labelText(label)
		add(fmt.Sprintf("//button[contains(., '%s')]", text), StrategyPatternText)
		add(fmt.Sprintf("//a[contains(., '%s')]", text), StrategyPatternText)
		add(fmt.Sprintf("[aria-label*='%s' i]", text), StrategyPatternARIA)
	}

	// DOM mining: real attributes and text from the captured page
	if domSnapshot != "" && len(candidates) < maxCandidates {
		for _, mined := range mineDOM(domSnapshot, target, label) {
			add(mined, StrategyPatternDOM)
		}
	}

	return candidates
}

// labelText extracts the leading human words of a step label for use in a
// text-containment selector
func labelText(label string) string {
	text := strings.TrimSpace(label)
	if idx := strings.IndexAny(text, ":("); idx > 0 {
		text = strings.TrimSpace(text[:idx])
	}
	// Quotes would break the generated selector expressions
	text = strings.ReplaceAll(text, "'", "")
	words := strings.Fields(text)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// mineDOM searches the captured page for elements whose identifying
// attributes or text relate to the step, and emits concrete selectors for
// them. Best-effort: parse failures return nothing.
func mineDOM(domSnapshot, target, label string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(domSnapshot))
	if err != nil {
		return nil
	}

	tokens := mineTokens(target, label)
	if len(tokens) == 0 {
		return nil
	}

	var selectors []string
	doc.Find("input, select, textarea, button, a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(selectors) >= 3 {
			return false
		}
		id, _ := sel.Attr("id")
		name, _ := sel.Attr("name")
		aria, _ := sel.Attr("aria-label")
		text := strings.TrimSpace(sel.Text())

		for _, token := range tokens {
			switch {
			case id != "" && strings.Contains(strings.ToLower(id), token):
				selectors = append(selectors, "#"+id)
			case name != "" && strings.Contains(strings.ToLower(name), token):
				selectors = append(selectors, fmt.Sprintf("%s[name='%s']", goquery.NodeName(sel), name))
			case aria != "" && strings.Contains(strings.ToLower(aria), token):
				selectors = append(selectors, fmt.Sprintf("[aria-label='%s']", aria))
			case text != "" && len(text) < 40 && strings.Contains(strings.ToLower(text), token):
				selectors = append(selectors, fmt.Sprintf("//%s[contains(., '%s')]", goquery.NodeName(sel), strings.ReplaceAll(text, "'", "")))
			default:
				continue
			}
			return len(selectors) < 3
		}
		return true
	})

	return selectors
}

// mineTokens derives lowercase search tokens from the step's target and label
func mineTokens(target, label string) []string {
	var tokens []string
	if m := idSelectorRe.FindStringSubmatch(target); m != nil {
		tokens = append(tokens, strings.ToLower(m[1]))
	}
	if m := attrSelectorRe.FindStringSubmatch(target); m != nil {
		tokens = append(tokens, strings.ToLower(m[1]))
	}
	for _, word := range strings.Fields(strings.ToLower(label)) {
		cleaned := strings.Trim(word, ":()[]\"'")
		if len(cleaned) >= 4 {
			tokens = append(tokens, cleaned)
		}
		if len(tokens) >= 4 {
			break
		}
	}
	return tokens
}
