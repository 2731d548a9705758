package rules

import "fmt"

// RuleError is returned when a rule cannot be compiled or applied. The store
// is unchanged by the failing rule.
type RuleError struct {
	Index int
	Rule  Rule
	Err   error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("apply %s: %v", e.Rule.Label(e.Index), e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// MissingAttributeError is returned by the lexicon pass for a token that
// lacks an attribute the lexicon needs.
type MissingAttributeError struct {
	Subject   string
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("token %s has no %s attribute", e.Subject, e.Attribute)
}
