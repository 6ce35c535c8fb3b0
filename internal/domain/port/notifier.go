package port

import "github.com/alwaisy/keyinsights-backend/internal/domain/entity"

// StatusNotifier pushes a status snapshot to live subscribers of a request.
// Delivery is best-effort and must never block or fail the caller.
type StatusNotifier interface {
	Broadcast(requestID string, job *entity.Job)
}
