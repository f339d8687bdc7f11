package worker

import (
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StartActivityWorker registers the activity recorder on the event dispatcher.
func StartActivityWorker(recorder *service.ActivityRecorder) {
	if recorder == nil {
		return
	}
	recorder.RegisterHandlers()
}
