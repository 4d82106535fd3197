package eventlog

import (
	"encoding/json"
	"fmt"

	"github.com/planwright/planwright/internal/domain"
)

// decode turns a record's JSON payload back into a concrete domain.Event,
// restamping it with the record's authoritative sequence and timestamp.
func decode(rec record) (domain.Event, error) {
	zero, ok := domain.NewZero(rec.EventType)
	if !ok {
		return nil, fmt.Errorf("eventlog: unknown event type %q", rec.EventType)
	}

	switch v := zero.(type) {
	case domain.WorkflowCreated:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.PlanningCompleted:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.ReviewCycleStarted:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.ReviewerApproved:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.ReviewerRejected:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.ReviewCycleCompleted:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.RevisionCompleted:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.PlanningMaxIterationsReached:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.UserAborted:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.ImplementationStarted:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.ImplementationRoundStarted:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.ImplementationReviewCompleted:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.ImplementationAccepted:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.AgentConversationRecorded:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.RecordFailure:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.ApprovalOverridden:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	case domain.WorkflowRestarted:
		if err := json.Unmarshal(rec.Payload, &v); err != nil {
			return nil, err
		}
		domain.Stamp(v, rec.Sequence, rec.Timestamp)
		return v, nil
	default:
		return nil, fmt.Errorf("eventlog: unhandled event type %q", rec.EventType)
	}
}
