package models

// Eligibility is a predicate over accounts. Repositories translate it into
// a query; Matches evaluates it in memory.
type Eligibility struct {
	Statuses        []AccountStatus
	RequireVerified bool
}

var (
	// ActiveAccounts may record entries.
	ActiveAccounts = Eligibility{
		Statuses: []AccountStatus{StatusTrialing, StatusActive, StatusExempt},
	}
	// PromptableAccounts may receive the daily prompt.
	PromptableAccounts = Eligibility{
		Statuses:        []AccountStatus{StatusTrialing, StatusActive, StatusExempt},
		RequireVerified: true,
	}
)

func (e Eligibility) Matches(a Account) bool {
	if e.RequireVerified && !a.Verified {
		return false
	}
	for _, s := range e.Statuses {
		if a.Status == s {
			return true
		}
	}
	return false
}
