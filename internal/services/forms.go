package services

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	formrepo "github.com/yungbote/disaforms-backend/internal/data/repos/forms"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	domforms "github.com/yungbote/disaforms-backend/internal/domain/forms"
	"github.com/yungbote/disaforms-backend/internal/forms"
)

// RangeQuery selects records of one form by inclusive date bounds.
type RangeQuery struct {
	FormType string
	From     string
	To       string
	Machine  string
}

func requireDay(op, field, raw string) (datatypes.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return datatypes.Date{}, domainagg.Validation(op, field+" is required")
	}
	t, err := domforms.ParseDay(raw)
	if err != nil {
		return datatypes.Date{}, domainagg.Validation(op, fmt.Sprintf("%s %q is not a date", field, raw))
	}
	return domforms.Day(t), nil
}

func resolveRange(op string, cat *forms.Catalogue, q RangeQuery) (*forms.Schema, formrepo.Range, error) {
	s, err := cat.Get(q.FormType)
	if err != nil {
		return nil, formrepo.Range{}, err
	}
	from, err := requireDay(op, "fromDate", q.From)
	if err != nil {
		return nil, formrepo.Range{}, err
	}
	to, err := requireDay(op, "toDate", q.To)
	if err != nil {
		return nil, formrepo.Range{}, err
	}
	if time.Time(to).Before(time.Time(from)) {
		return nil, formrepo.Range{}, domainagg.Validation(op, "toDate is before fromDate")
	}
	return s, formrepo.Range{
		FormType: s.Type,
		From:     from,
		To:       to,
		Machine:  strings.TrimSpace(q.Machine),
	}, nil
}

func recordIDs(rows []*types.Record) []uint {
	out := make([]uint, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}
