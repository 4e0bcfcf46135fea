package services

import "gigmarket/internal/models"

// Allowed task status transitions. "Applied" never appears here: it is a
// display status derived on reads, not a stored state.
var TaskTransitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusOpen:      {models.StatusAssigned: true, models.StatusCanceled: true},
	models.StatusAssigned:  {models.StatusDone: true, models.StatusOpen: true},
	models.StatusDone:      {models.StatusCompleted: true, models.StatusCanceled: true},
	models.StatusCompleted: {},
	models.StatusCanceled:  {},
}

func canTransition(current, to models.TaskStatus) bool {
	nexts, ok := TaskTransitions[current]
	if !ok {
		return false
	}
	return nexts[to]
}

// transitionSources lists the statuses from which `to` is reachable.
// Conditional UPDATEs are keyed on this set so a concurrent transition
// (e.g. cancel racing an assign) falls out as zero rows affected.
func transitionSources(to models.TaskStatus) []models.TaskStatus {
	var from []models.TaskStatus
	for current, nexts := range TaskTransitions {
		if nexts[to] {
			from = append(from, current)
		}
	}
	return from
}
