package skills

import "strings"

// MatchReason names the rule that related a ticket skill to a moderator skill.
type MatchReason string

const (
	ReasonExact             MatchReason = "exact"
	ReasonModeratorContains MatchReason = "moderator_contains_ticket"
	ReasonTicketContains    MatchReason = "ticket_contains_moderator"
	ReasonAbbreviation      MatchReason = "abbreviation"
)

// TicketMode selects how an abbreviation rule tests the normalized ticket skill.
type TicketMode int

const (
	TicketEquals TicketMode = iota
	TicketContains
)

// AbbreviationRule matches when the normalized ticket skill satisfies Ticket under Mode and
// the normalized moderator skill contains any of Moderator.
type AbbreviationRule struct {
	Ticket    string
	Mode      TicketMode
	Moderator []string
}

func (r AbbreviationRule) applies(ticket, moderator string) bool {
	switch r.Mode {
	case TicketEquals:
		if ticket != r.Ticket {
			return false
		}
	case TicketContains:
		if !strings.Contains(ticket, r.Ticket) {
			return false
		}
	default:
		return false
	}
	for _, target := range r.Moderator {
		if strings.Contains(moderator, target) {
			return true
		}
	}
	return false
}

// DefaultRules returns the built-in abbreviation rules.
func DefaultRules() []AbbreviationRule {
	return []AbbreviationRule{
		{Ticket: "js", Mode: TicketEquals, Moderator: []string{"javascript", "nodejs", "reactjs"}},
		{Ticket: "node", Mode: TicketEquals, Moderator: []string{"nodejs"}},
		{Ticket: "react", Mode: TicketEquals, Moderator: []string{"reactjs"}},
		{Ticket: "javascript", Mode: TicketContains, Moderator: []string{"js"}},
	}
}

// Normalize lower-cases s and strips every character outside [a-z0-9].
func Normalize(s string) string {
	lower := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Matcher decides whether a moderator skill covers a ticket skill.
// The relation is directional: the first argument is always the ticket skill.
type Matcher struct {
	rules []AbbreviationRule
}

// NewMatcher builds a matcher over rules. A nil slice means no abbreviation rules.
func NewMatcher(rules []AbbreviationRule) *Matcher {
	return &Matcher{rules: append([]AbbreviationRule(nil), rules...)}
}

// DefaultMatcher returns a matcher using DefaultRules.
func DefaultMatcher() *Matcher {
	return NewMatcher(DefaultRules())
}

// Explain reports whether the skills match and which rule matched first.
func (m *Matcher) Explain(ticketSkill, moderatorSkill string) (MatchReason, bool) {
	ticket := Normalize(ticketSkill)
	moderator := Normalize(moderatorSkill)

	switch {
	case ticket == moderator:
		return ReasonExact, true
	case strings.Contains(moderator, ticket):
		return ReasonModeratorContains, true
	case strings.Contains(ticket, moderator):
		return ReasonTicketContains, true
	}
	for _, rule := range m.rules {
		if rule.applies(ticket, moderator) {
			return ReasonAbbreviation, true
		}
	}
	return "", false
}

// Match reports whether moderatorSkill covers ticketSkill.
func (m *Matcher) Match(ticketSkill, moderatorSkill string) bool {
	_, ok := m.Explain(ticketSkill, moderatorSkill)
	return ok
}

// MatchingSkills returns the ticket skills covered by at least one moderator skill,
// in ticket order.
func (m *Matcher) MatchingSkills(ticketSkills, moderatorSkills []string) []string {
	matched := make([]string, 0, len(ticketSkills))
	for _, ts := range ticketSkills {
		for _, ms := range moderatorSkills {
			if m.Match(ts, ms) {
				matched = append(matched, ts)
				break
			}
		}
	}
	return matched
}
