package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	"github.com/yungbote/disaforms-backend/internal/data/repos"
	formrepo "github.com/yungbote/disaforms-backend/internal/data/repos/forms"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	domforms "github.com/yungbote/disaforms-backend/internal/domain/forms"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

// PendingItem is one unit of work in a sign-off queue: a single record, or
// every record of a day or shift when the signature is broadcast.
type PendingItem struct {
	RecordID  uint           `json:"recordId"`
	RecordIDs []uint         `json:"recordIds"`
	Date      string         `json:"date"`
	Machine   string         `json:"machine"`
	Shift     int            `json:"shift,omitempty"`
	RowKey    string         `json:"rowKey,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

type SignRequest struct {
	RecordID   uint   `json:"recordId,omitempty"`
	Date       string `json:"date,omitempty"`
	Machine    string `json:"machine,omitempty"`
	Shift      int    `json:"shift,omitempty"`
	Role       string `json:"role"`
	Signature  string `json:"signature"`
	SignerName string `json:"signerName,omitempty"`
}

type SignoffService interface {
	Pending(ctx context.Context, formType, role, person string) ([]PendingItem, error)
	Sign(ctx context.Context, formType string, req SignRequest) (aggregates.SignResult, error)
}

type signoffService struct {
	log   *logger.Logger
	cat   *forms.Catalogue
	repos repos.Set
	agg   aggregates.RecordAggregate
}

func NewSignoffService(baseLog *logger.Logger, cat *forms.Catalogue, r repos.Set, agg aggregates.RecordAggregate) SignoffService {
	return &signoffService{
		log:   baseLog.With("service", "SignoffService"),
		cat:   cat,
		repos: r,
		agg:   agg,
	}
}

// Pending lists records whose slot for role is unsigned. Slots with an
// assignment field are filtered to person; role-wide slots list every
// unsigned record. On strict-order forms a record only appears once every
// earlier slot is signed.
func (s *signoffService) Pending(ctx context.Context, formType, role, person string) ([]PendingItem, error) {
	const op = "signoff.pending"
	schema, err := s.cat.Get(formType)
	if err != nil {
		return nil, err
	}
	idx := schema.SlotIndex(role)
	if idx < 0 {
		return nil, domainagg.Validation(op, fmt.Sprintf("%s has no %q sign-off", schema.Type, role))
	}
	slot := schema.Chain[idx]
	person = strings.TrimSpace(person)
	q := formrepo.PendingQuery{FormType: schema.Type, Role: slot.Role}
	if slot.AssignField != "" {
		if person == "" {
			return nil, domainagg.Validation(op, "person is required")
		}
		q.Assignee = person
	}

	dbc := dbctx.Context{Ctx: ctx}
	records, err := s.repos.Records.ListPending(dbc, q)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if schema.StrictOrder && idx > 0 && len(records) > 0 {
		records, err = s.priorSigned(dbc, schema, records, idx)
		if err != nil {
			return nil, aggregates.MapError(op, err)
		}
	}
	return groupPending(schema, records), nil
}

func (s *signoffService) priorSigned(dbc dbctx.Context, schema *forms.Schema, records []*types.Record, idx int) ([]*types.Record, error) {
	slots, err := s.repos.Slots.ListByRecordIDs(dbc, recordIDs(records))
	if err != nil {
		return nil, err
	}
	signed := map[uint]map[string]bool{}
	for _, sl := range slots {
		if !sl.Signed() {
			continue
		}
		m := signed[sl.RecordID]
		if m == nil {
			m = map[string]bool{}
			signed[sl.RecordID] = m
		}
		m[strings.ToLower(sl.Role)] = true
	}
	out := records[:0:0]
	for _, rec := range records {
		ok := true
		for _, prior := range schema.Chain[:idx] {
			if !signed[rec.ID][strings.ToLower(prior.Role)] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// groupPending folds records into one item per broadcast scope, keeping the
// repository's order.
func groupPending(schema *forms.Schema, records []*types.Record) []PendingItem {
	out := []PendingItem{}
	index := map[string]int{}
	for _, rec := range records {
		date := domforms.FormatDay(rec.RecordDate)
		var key string
		switch schema.Broadcast {
		case forms.ScopeDay:
			key = date + "\x00" + rec.Machine
		case forms.ScopeShift:
			key = fmt.Sprintf("%s\x00%s\x00%d", date, rec.Machine, rec.Shift)
		default:
			key = fmt.Sprintf("#%d", rec.ID)
		}
		if i, ok := index[key]; ok {
			out[i].RecordIDs = append(out[i].RecordIDs, rec.ID)
			continue
		}
		item := PendingItem{
			RecordID:  rec.ID,
			RecordIDs: []uint{rec.ID},
			Date:      date,
			Machine:   rec.Machine,
			Shift:     rec.Shift,
		}
		if schema.Broadcast == forms.ScopeNone {
			item.RowKey = rec.RowKey
			item.Fields = schema.ReadFields(rec.Fields)
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}

func (s *signoffService) Sign(ctx context.Context, formType string, req SignRequest) (aggregates.SignResult, error) {
	const op = "signoff.sign"
	schema, err := s.cat.Get(formType)
	if err != nil {
		return aggregates.SignResult{}, err
	}
	in := aggregates.SignInput{
		Schema:     schema,
		RecordID:   req.RecordID,
		Machine:    strings.TrimSpace(req.Machine),
		Shift:      req.Shift,
		Role:       req.Role,
		Signature:  req.Signature,
		SignerName: strings.TrimSpace(req.SignerName),
	}
	if req.RecordID == 0 {
		if in.Date, err = requireDay(op, "date", req.Date); err != nil {
			return aggregates.SignResult{}, err
		}
	}
	res, err := s.agg.Sign(ctx, in)
	if err != nil {
		return res, err
	}
	s.log.Info("signed", "form", schema.Type, "role", res.Role, "records", len(res.RecordIDs), "signer", in.SignerName)
	return res, nil
}
