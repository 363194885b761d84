package game

import (
	"strings"
	"unicode/utf8"
)

// RuleID names one identity-probe pattern family.
type RuleID string

const (
	RuleAreYou       RuleID = "are_you"        // "are you" + name token
	RuleIsYourName   RuleID = "is_your_name"   // "is your name" + name token
	RuleYourNameIs   RuleID = "your_name_is"   // "your name is" + name token
	RuleCalled       RuleID = "called"         // "called" + name token
	RuleWhatName     RuleID = "what_name"      // "what" and "name" anywhere
	RuleNamePhrase   RuleID = "name_phrase"    // fixed name-inquiry phrases
	RuleBareNameMark RuleID = "bare_name_mark" // long name token + "?", "are" or "is"
)

// probe is the normalized input every rule sees.
type probe struct {
	msg    string   // lower-cased message
	tokens []string // lower-cased, whitespace-delimited display name tokens
}

func newProbe(message, displayName string) probe {
	return probe{
		msg:    strings.ToLower(message),
		tokens: strings.Fields(strings.ToLower(displayName)),
	}
}

// mentionsName reports whether any name token occurs in the message.
func (p probe) mentionsName() bool {
	for _, t := range p.tokens {
		if strings.Contains(p.msg, t) {
			return true
		}
	}
	return false
}

func (p probe) has(s string) bool { return strings.Contains(p.msg, s) }

// Rule is one independent predicate over a probe.
type Rule struct {
	ID    RuleID
	Match func(p probe) bool
}

var namePhrases = []string{
	"tell me your name",
	"what do they call you",
	"what should i call you",
}

// DefaultRules returns the classifier rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{ID: RuleAreYou, Match: func(p probe) bool { return p.has("are you") && p.mentionsName() }},
		{ID: RuleIsYourName, Match: func(p probe) bool { return p.has("is your name") && p.mentionsName() }},
		{ID: RuleYourNameIs, Match: func(p probe) bool { return p.has("your name is") && p.mentionsName() }},
		{ID: RuleCalled, Match: func(p probe) bool { return p.has("called") && p.mentionsName() }},
		{ID: RuleWhatName, Match: func(p probe) bool { return p.has("what") && p.has("name") }},
		{ID: RuleNamePhrase, Match: func(p probe) bool {
			for _, ph := range namePhrases {
				if p.has(ph) {
					return true
				}
			}
			return false
		}},
		{ID: RuleBareNameMark, Match: func(p probe) bool {
			long := false
			for _, t := range p.tokens {
				if utf8.RuneCountInString(t) > 2 && strings.Contains(p.msg, t) {
					long = true
					break
				}
			}
			return long && (p.has("?") || p.has("are") || p.has("is"))
		}},
	}
}
