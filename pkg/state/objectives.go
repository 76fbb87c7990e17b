package state

import (
	"github.com/jwebster45206/cyber-siege/pkg/conditionals"
	"github.com/jwebster45206/cyber-siege/pkg/scenario"
)

// TryComplete marks the first pending objective whose criteria match the
// resolved action and returns it. At most one objective changes per call;
// nil means nothing matched and nothing changed.
func TryComplete(objectives []scenario.Objective, action conditionals.Resolved) *scenario.Objective {
	for i := range objectives {
		obj := &objectives[i]
		if obj.Completed {
			continue
		}
		if obj.CompletionCriteria.Matches(action) {
			obj.Completed = true
			return obj
		}
	}
	return nil
}

// CompleteObjective runs the tracker against the session's own objectives
// and credits the points of whatever it completes.
func (s *Session) CompleteObjective(action conditionals.Resolved) *scenario.Objective {
	obj := TryComplete(s.Objectives, action)
	if obj != nil {
		s.Score += obj.Points
	}
	return obj
}

// PrimaryObjectivesComplete reports whether the session has at least one
// primary objective and all of them are completed.
func (s *Session) PrimaryObjectivesComplete() bool {
	found := false
	for _, obj := range s.Objectives {
		if obj.Kind != scenario.ObjectivePrimary && obj.Kind != "" {
			continue
		}
		if !obj.Completed {
			return false
		}
		found = true
	}
	return found
}

// CompletedObjectives returns how many objectives are done out of the total.
func (s *Session) CompletedObjectives() (done, total int) {
	for _, obj := range s.Objectives {
		if obj.Completed {
			done++
		}
	}
	return done, len(s.Objectives)
}
