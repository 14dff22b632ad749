package filter

import (
	"slices"
	"time"

	"kindklick/internal/models"
)

// Evaluate classifies rawURL against a settings snapshot at time now.
// Steps run in fixed precedence and the first match wins:
//
//  1. unparseable or non-http(s) URL: allow (fail-open)
//  2. active parent approval: allow
//  3. allow list: allow
//  4. custom block list: block, category Custom
//  5. enabled category list: block
//  6. otherwise allow
//
// Evaluate never mutates s. Expired approvals are ignored, not removed.
func Evaluate(rawURL string, s *models.Settings, now time.Time) models.Verdict {
	domain := ExtractDomain(rawURL)
	if domain == "" {
		return models.Verdict{Action: models.ActionAllow, Reason: models.ReasonInvalidURL}
	}
	if s == nil {
		return allow(domain, models.ReasonNoRule, models.RuleNone)
	}

	if a, ok := s.Approvals[domain]; ok && a.Active(now) {
		return allow(domain, models.ReasonParentApproval, models.RuleApproval)
	}

	if containsDomain(s.AllowList, domain) {
		return allow(domain, models.ReasonAllowList, models.RuleAllowList)
	}

	if containsDomain(s.BlockList, domain) {
		return models.Verdict{
			Action:   models.ActionBlock,
			Domain:   domain,
			Reason:   models.ReasonCustomBlockList,
			Category: models.CategoryCustom,
			Rule:     models.RuleCustomBlockList,
		}
	}

	if category := CategoryFor(domain, s.CategoryLists); category != "" && s.CategoryEnabled(category) {
		return models.Verdict{
			Action:   models.ActionBlock,
			Domain:   domain,
			Reason:   models.ReasonCategory,
			Category: category,
			Rule:     models.RuleCategory,
		}
	}

	return allow(domain, models.ReasonNoRule, models.RuleNone)
}

// CategoryFor returns the first category (in name order) whose list contains
// domain, or "". Operators are expected to keep category lists disjoint;
// sorting only makes the outcome stable when they are not.
func CategoryFor(domain string, lists map[string][]string) string {
	names := make([]string, 0, len(lists))
	for name := range lists {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if containsDomain(lists[name], domain) {
			return name
		}
	}
	return ""
}

func allow(domain string, reason models.Reason, rule models.Rule) models.Verdict {
	return models.Verdict{Action: models.ActionAllow, Domain: domain, Reason: reason, Rule: rule}
}
