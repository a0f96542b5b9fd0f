package campaign

import (
	"context"
	"fmt"

	"cv-status/internal/notify"
	"cv-status/internal/status"
	"cv-status/internal/storage"
)

// SetStatus applies a recruiter's manual override. Any status can be set from any status;
// the change is recorded in the candidate's notes.
func (t *Tracker) SetStatus(ctx context.Context, candidateID string, target status.Status) (*storage.Candidate, error) {
	if _, err := status.Parse(string(target)); err != nil {
		return nil, err
	}

	var (
		cand *storage.Candidate
		prev status.Status
		out  status.Outcome
	)
	err := t.db.WithTx(ctx, func(tx *storage.Tx) error {
		c, err := tx.GetCandidate(ctx, candidateID)
		if err != nil {
			return err
		}
		prev = c.Status
		out, err = tx.ApplySignal(ctx, candidateID, status.Manual(target))
		if err != nil {
			return err
		}
		if out.Changed {
			if err := tx.AppendNote(ctx, candidateID, fmt.Sprintf("status set manually: %s -> %s", prev, out.Next)); err != nil {
				return err
			}
		}
		cand, err = tx.GetCandidate(ctx, candidateID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if out.Changed {
		t.logger.Info("status set manually", "candidate_id", candidateID, "from", prev, "to", out.Next)
		t.publish(notify.Notification{Type: "status", CandidateID: candidateID, Status: string(out.Next)})
	}
	return cand, nil
}
