package adminaction

type ActionType string

const (
	ActionReopenService            ActionType = "REOPEN_SERVICE"
	ActionReassignCompletedService ActionType = "REASSIGN_COMPLETED_SERVICE"
	ActionOverridePartStatus       ActionType = "OVERRIDE_PART_STATUS"
)
