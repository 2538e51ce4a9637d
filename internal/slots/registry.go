package slots

import (
	"zenort/pkg/engine"
	"zenort/pkg/task"
)

// RegisterAllSlots registers the standard library of slots. Task slots
// spawn through sched.
func RegisterAllSlots(eng *engine.Engine, sched *task.Scheduler) {
	RegisterFunctionSlots(eng)
	RegisterLogicSlots(eng)
	RegisterMathSlots(eng)
	RegisterCollectionSlots(eng)
	RegisterJSONSlots(eng)
	RegisterDebugSlots(eng)
	RegisterMetaSlots(eng)
	RegisterTaskSlots(eng, sched)
	RegisterChannelSlots(eng)
	RegisterSyncSlots(eng)
}
