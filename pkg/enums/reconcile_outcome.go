package enums

// ReconcileOutcome records how a pending-add reconciliation ended.
type ReconcileOutcome string

const (
	ReconcileOutcomeUnauthenticated    ReconcileOutcome = "skipped_unauthenticated"
	ReconcileOutcomeNoPending          ReconcileOutcome = "no_pending"
	ReconcileOutcomeDuplicate          ReconcileOutcome = "duplicate"
	ReconcileOutcomeCancelled          ReconcileOutcome = "cancelled"
	ReconcileOutcomeDiscardedMalformed ReconcileOutcome = "discarded_malformed"
	ReconcileOutcomeDiscardedMissing   ReconcileOutcome = "discarded_unresolved"
	ReconcileOutcomeAdded              ReconcileOutcome = "added"
)

// Replayed reports whether the outcome mutated the cart.
func (o ReconcileOutcome) Replayed() bool {
	return o == ReconcileOutcomeAdded
}
