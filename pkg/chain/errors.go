package chain

import (
	"fmt"
	"strings"
)

// Issue is one wiring problem found by Validate.
type Issue struct {
	Err   error
	Block string
	Index int
}

func (i Issue) Error() string {
	return fmt.Sprintf("#%d %s: %v", i.Index, i.Block, i.Err)
}

// WiringError aggregates every Issue of a chain. errors.Is matches it
// against the kind of any contained issue.
type WiringError struct {
	Chain  string
	Issues []Issue
}

func (e *WiringError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "chain %s has %d wiring issue(s)", e.Chain, len(e.Issues))
	for _, issue := range e.Issues {
		b.WriteString("\n\t")
		b.WriteString(issue.Error())
	}
	return b.String()
}

func (e *WiringError) Unwrap() []error {
	errs := make([]error, len(e.Issues))
	for i, issue := range e.Issues {
		errs[i] = issue.Err
	}
	return errs
}
