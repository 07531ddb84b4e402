package health

import (
	"fmt"
	"time"
)

// NewHealthy creates a new healthy status
func NewHealthy(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   true,
		Status:    "healthy",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewUnhealthy creates a new unhealthy status
func NewUnhealthy(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   false,
		Status:    "unhealthy",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewDegraded creates a new degraded status
func NewDegraded(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   false,
		Status:    "degraded",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Aggregate rolls sub-statuses up into one status: unhealthy if any
// sub-status is unhealthy, degraded if any is degraded, healthy
// otherwise. Used by the /health endpoint over services and components.
func Aggregate(component string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(component, "No sub-components to aggregate")
	}

	unhealthy := 0
	degraded := 0
	for _, sub := range subStatuses {
		if sub.IsUnhealthy() {
			unhealthy++
		} else if sub.IsDegraded() {
			degraded++
		}
	}

	var status Status
	switch {
	case unhealthy > 0:
		status = NewUnhealthy(component,
			fmt.Sprintf("%d of %d sub-components unhealthy", unhealthy, len(subStatuses)))
	case degraded > 0:
		status = NewDegraded(component,
			fmt.Sprintf("%d of %d sub-components degraded", degraded, len(subStatuses)))
	default:
		status = NewHealthy(component, "All sub-components are healthy")
	}

	status.SubStatuses = make([]Status, len(subStatuses))
	copy(status.SubStatuses, subStatuses)

	return status
}
