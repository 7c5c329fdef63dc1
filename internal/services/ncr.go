package services

import (
	"context"
	"strings"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	"github.com/yungbote/disaforms-backend/internal/data/repos"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

type NCRRequest struct {
	CheckpointID     uint   `json:"checkpointId"`
	Date             string `json:"date"`
	Machine          string `json:"machine"`
	Details          string `json:"details"`
	Correction       string `json:"correction"`
	RootCause        string `json:"rootCause"`
	CorrectiveAction string `json:"correctiveAction"`
	TargetDate       string `json:"targetDate"`
	Responsibility   string `json:"responsibility"`
	AssignedTo       string `json:"assignedTo"`
}

type NCRService interface {
	Create(ctx context.Context, formType string, req NCRRequest) (*types.NonConformanceReport, error)
	Pending(ctx context.Context, formType, person string) ([]*types.NonConformanceReport, error)
	Complete(ctx context.Context, formType string, id uint, signature string) (*types.NonConformanceReport, error)
}

type ncrService struct {
	log   *logger.Logger
	cat   *forms.Catalogue
	repos repos.Set
	agg   aggregates.NCRAggregate
}

func NewNCRService(baseLog *logger.Logger, cat *forms.Catalogue, r repos.Set, agg aggregates.NCRAggregate) NCRService {
	return &ncrService{
		log:   baseLog.With("service", "NCRService"),
		cat:   cat,
		repos: r,
		agg:   agg,
	}
}

func (s *ncrService) Create(ctx context.Context, formType string, req NCRRequest) (*types.NonConformanceReport, error) {
	schema, err := s.cat.Get(formType)
	if err != nil {
		return nil, err
	}
	date, err := requireDay("ncr.create", "date", req.Date)
	if err != nil {
		return nil, err
	}
	ncr, err := s.agg.Create(ctx, aggregates.NCRInput{
		Schema:           schema,
		CheckpointID:     req.CheckpointID,
		Date:             date,
		Machine:          strings.TrimSpace(req.Machine),
		Details:          req.Details,
		Correction:       req.Correction,
		RootCause:        req.RootCause,
		CorrectiveAction: req.CorrectiveAction,
		TargetDate:       req.TargetDate,
		Responsibility:   req.Responsibility,
		AssignedTo:       strings.TrimSpace(req.AssignedTo),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("ncr raised", "form", schema.Type, "ncr_id", ncr.ID, "checkpoint_id", ncr.CheckpointID, "person", ncr.AssignedTo)
	return ncr, nil
}

func (s *ncrService) Pending(ctx context.Context, formType, person string) ([]*types.NonConformanceReport, error) {
	const op = "ncr.pending"
	schema, err := s.cat.Get(formType)
	if err != nil {
		return nil, err
	}
	if !schema.NCR {
		return nil, domainagg.Validation(op, schema.Type+" does not raise non-conformances")
	}
	out, err := s.repos.NCRs.ListPending(dbctx.Context{Ctx: ctx}, schema.Type, strings.TrimSpace(person))
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if out == nil {
		out = []*types.NonConformanceReport{}
	}
	return out, nil
}

func (s *ncrService) Complete(ctx context.Context, formType string, id uint, signature string) (*types.NonConformanceReport, error) {
	schema, err := s.cat.Get(formType)
	if err != nil {
		return nil, err
	}
	ncr, err := s.agg.Complete(ctx, schema, id, signature)
	if err != nil {
		return nil, err
	}
	s.log.Info("ncr completed", "form", schema.Type, "ncr_id", ncr.ID)
	return ncr, nil
}
