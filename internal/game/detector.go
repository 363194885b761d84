package game

import "strings"

// Outcome is the verdict for one chat message.
type Outcome int

const (
	NotAGuess Outcome = iota
	CorrectGuess
	IncorrectGuess
)

func (o Outcome) String() string {
	switch o {
	case CorrectGuess:
		return "correct"
	case IncorrectGuess:
		return "incorrect"
	default:
		return "not_a_guess"
	}
}

// Detector classifies free-form chat messages as implicit name guesses.
type Detector struct {
	rules []Rule
}

func NewDetector() *Detector {
	return &Detector{rules: DefaultRules()}
}

// Classify evaluates rules in order and returns the first one that matches.
func (d *Detector) Classify(message, displayName string) (RuleID, bool) {
	p := newProbe(message, displayName)
	for _, r := range d.rules {
		if r.Match(p) {
			return r.ID, true
		}
	}
	return "", false
}

// MatchAll returns every matching rule; diagnostics only.
func (d *Detector) MatchAll(message, displayName string) []RuleID {
	p := newProbe(message, displayName)
	var out []RuleID
	for _, r := range d.rules {
		if r.Match(p) {
			out = append(out, r.ID)
		}
	}
	return out
}

// Judge classifies message and, for guesses, decides correctness: a guess is
// correct when any display name token occurs in the message. This is looser
// than MatchExplicit on purpose; the two rules are kept distinct.
func (d *Detector) Judge(message, displayName string) (Outcome, RuleID) {
	rule, ok := d.Classify(message, displayName)
	if !ok {
		return NotAGuess, ""
	}
	if newProbe(message, displayName).mentionsName() {
		return CorrectGuess, rule
	}
	return IncorrectGuess, rule
}

// MatchExplicit is the rule for the dedicated guess action. Both sides are
// lower-cased and trimmed; the guess is correct on equality or when either
// string contains the other. Very short guesses can therefore match (e.g.
// "jo" for "John"); that leniency is accepted.
func MatchExplicit(rawGuess, displayName string) bool {
	guess := strings.ToLower(strings.TrimSpace(rawGuess))
	name := strings.ToLower(strings.TrimSpace(displayName))
	if guess == "" || name == "" {
		return false
	}
	return guess == name || strings.Contains(name, guess) || strings.Contains(guess, name)
}
