package handler

import "time"

func SetFlowClock(fm *FlowManager, now func() time.Time) {
	fm.now = now
}
