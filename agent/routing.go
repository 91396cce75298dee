package agent

// Decision names the next step the orchestrator should execute.
type Decision int

const (
	DecisionRetrieve Decision = iota
	DecisionRewrite
	DecisionGenerate
	DecisionEnd
)

// String returns the decision name for logs.
func (d Decision) String() string {
	switch d {
	case DecisionRetrieve:
		return "retrieve"
	case DecisionRewrite:
		return "rewrite"
	case DecisionGenerate:
		return "generate"
	case DecisionEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Decide inspects the state and returns the next step. It is a pure function
// evaluated before every step execution; the first matching rule wins, and
// the termination rules come first so they dominate whatever the steps did.
//
// Rule order:
//  1. step budget exhausted            -> end
//  2. answer present                   -> end
//  3. error present                    -> end
//  4. nothing retrieved yet            -> retrieve
//  5. weak evidence, not yet rewritten -> rewrite
//  6. evidence present, no answer      -> generate
//  7. otherwise                        -> end
//
// Because rule 1 is checked on every iteration and every step increments
// StepCount exactly once, no cycle can run unboundedly.
func Decide(s *ConversationState) Decision {
	switch {
	case s.StepCount >= s.StepBudget:
		return DecisionEnd
	case s.Answered:
		return DecisionEnd
	case s.Err != "":
		return DecisionEnd
	case !s.EvidenceRetrieved:
		return DecisionRetrieve
	case s.NeedsMoreEvidence && !s.QueryRewritten:
		return DecisionRewrite
	case !s.Answered:
		return DecisionGenerate
	default:
		return DecisionEnd
	}
}
