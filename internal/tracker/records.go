package tracker

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/sdctrack/internal/entity"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// Actor is the authenticated caller of a record operation.
type Actor struct {
	ID   string     `json:"id"`
	Role types.Role `json:"role"`
}

// RecordInput carries the editable fields of an SDC record.
type RecordInput struct {
	Date           string           `json:"date"`
	SponsorID      string           `json:"sponsorId"`
	CenterID       string           `json:"centerId"`
	InvestigatorID string           `json:"investigatorId"`
	ProjectCodeID  string           `json:"projectCodeId"`
	PatientCode    string           `json:"patientCode"`
	WorkDone       []types.WorkItem `json:"workDone"`
}

func (in RecordInput) apply(r *types.Record) {
	r.Date = in.Date
	r.SponsorID = in.SponsorID
	r.CenterID = in.CenterID
	r.InvestigatorID = in.InvestigatorID
	r.ProjectCodeID = in.ProjectCodeID
	r.PatientCode = in.PatientCode
	r.WorkDone = in.WorkDone
	if r.WorkDone == nil {
		r.WorkDone = []types.WorkItem{}
	}
}

// mayEdit reports whether a may change r.
func (a Actor) mayEdit(r types.Record) bool {
	return r.CreatorID == a.ID || a.Role.IsAdmin()
}

// ListRecords returns every SDC record in creation order.
func (s *Service) ListRecords(ctx context.Context) (entity.Page[types.Record], error) {
	return s.records.List(ctx)
}

// GetRecord returns one SDC record.
func (s *Service) GetRecord(ctx context.Context, id string) (types.Record, error) {
	return s.records.Get(ctx, id)
}

// CreateRecord stores a new record owned by actor, who must exist.
func (s *Service) CreateRecord(ctx context.Context, actor Actor, in RecordInput) (types.Record, error) {
	if actor.ID == "" {
		return types.Record{}, fmt.Errorf("%w: authentication required", types.ErrForbidden)
	}
	creator, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		return types.Record{}, fmt.Errorf("creator: %w", err)
	}

	now := s.nowMillis()
	r := types.Record{
		CreatorID:       creator.ID,
		CreatorUsername: creator.Username,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	in.apply(&r)
	return s.records.Create(ctx, r)
}

// UpdateRecord replaces the editable fields of id. Only the creator or an
// administrator may do so. The id, creator, and creation time are kept and
// UpdatedAt is stamped.
func (s *Service) UpdateRecord(ctx context.Context, actor Actor, id string, in RecordInput) (types.Record, error) {
	if actor.ID == "" {
		return types.Record{}, fmt.Errorf("%w: authentication required", types.ErrForbidden)
	}
	return s.records.Mutate(ctx, id, func(r types.Record) (types.Record, error) {
		if !actor.mayEdit(r) {
			return r, fmt.Errorf("%w: record %s", types.ErrForbidden, id)
		}
		in.apply(&r)
		r.UpdatedAt = s.nowMillis()
		return r, nil
	})
}

// DeleteRecord removes id. Only the creator or an administrator may do so.
func (s *Service) DeleteRecord(ctx context.Context, actor Actor, id string) error {
	if actor.ID == "" {
		return fmt.Errorf("%w: authentication required", types.ErrForbidden)
	}
	r, err := s.records.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.mayEdit(r) {
		return fmt.Errorf("%w: record %s", types.ErrForbidden, id)
	}
	deleted, err := s.records.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: sdc/%s", types.ErrNotFound, id)
	}
	return nil
}
