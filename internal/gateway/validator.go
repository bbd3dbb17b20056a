// Package gateway turns a speaking decision into one validated message.
package gateway

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrPolicyViolation means generated text failed content validation after the
// bounded retries. The send is dropped; no fallback text is substituted.
var ErrPolicyViolation = errors.New("policy violation")

// ContentValidator gates generated text before it may leave the system. The
// rules themselves are pluggable; the gateway only honors the verdict.
type ContentValidator interface {
	Validate(text string) error
}

// RegexValidator rejects text matching any disclosure or policy pattern.
type RegexValidator struct {
	patterns []*regexp.Regexp
}

// defaultPatterns catch self-disclosure and prompt leaks.
var defaultPatterns = []string{
	`(?i)\bas an ai\b`,
	`(?i)\blanguage model\b`,
	`(?i)\bi('| a)m an? (ai|bot|assistant)\b`,
	`(?i)\bsoy (una? )?(ia|bot|asistente)\b`,
	`(?i)\bmodelo de lenguaje\b`,
	`(?i)\bsystem prompt\b`,
	`(?i)\bmy instructions\b`,
	`(?i)\bno puedo (ayudar|responder) con eso\b`,
	`(?i)\bi cannot assist\b`,
}

// NewRegexValidator builds a validator from the default disclosure patterns
// plus any extra expressions.
func NewRegexValidator(extra ...string) (*RegexValidator, error) {
	exprs := append(append([]string{}, defaultPatterns...), extra...)
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile validator pattern %q: %w", expr, err)
		}
		patterns = append(patterns, re)
	}
	return &RegexValidator{patterns: patterns}, nil
}

// Validate returns ErrPolicyViolation if any pattern matches.
func (v *RegexValidator) Validate(text string) error {
	for _, re := range v.patterns {
		if re.MatchString(text) {
			return fmt.Errorf("%w: matched %q", ErrPolicyViolation, re.String())
		}
	}
	return nil
}
