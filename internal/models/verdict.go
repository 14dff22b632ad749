package models

// Action is the outcome of evaluating a URL
type Action string

const (
	ActionAllow Action = "allow"
	ActionBlock Action = "block"
)

// Reason explains which precedence step produced a verdict
type Reason string

const (
	ReasonInvalidURL      Reason = "invalid_url"
	ReasonParentApproval  Reason = "parent_approval"
	ReasonAllowList       Reason = "allow_list"
	ReasonCustomBlockList Reason = "custom_blocklist"
	ReasonCategory        Reason = "category"
	ReasonNoRule          Reason = "no_rule"
)

// Rule identifies the rule family that matched
type Rule string

const (
	RuleNone            Rule = ""
	RuleApproval        Rule = "approval"
	RuleAllowList       Rule = "allowlist"
	RuleCustomBlockList Rule = "custom_blocklist"
	RuleCategory        Rule = "category"
)

// Verdict is the engine output. It is never persisted.
type Verdict struct {
	Action   Action `json:"action"`
	Domain   string `json:"domain"`
	Reason   Reason `json:"reason"`
	Category string `json:"category,omitempty"`
	Rule     Rule   `json:"rule,omitempty"`
}

// Blocked is a convenience accessor
func (v Verdict) Blocked() bool {
	return v.Action == ActionBlock
}

// Explain returns the human readable reason shown on the block page
func (v Verdict) Explain() string {
	switch v.Reason {
	case ReasonCustomBlockList:
		return "Custom blocklist"
	case ReasonCategory:
		return v.Category + " (Category rule)"
	case ReasonParentApproval:
		return "Approved by parent"
	case ReasonAllowList:
		return "Allow list"
	case ReasonInvalidURL:
		return "Invalid URL"
	default:
		return "No rule"
	}
}
