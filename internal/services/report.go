package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	"github.com/yungbote/disaforms-backend/internal/data/repos"
	formrepo "github.com/yungbote/disaforms-backend/internal/data/repos/forms"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/observability"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
	"github.com/yungbote/disaforms-backend/internal/report"
)

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

type Rendered struct {
	ContentType string
	Filename    string
	Body        []byte
	Pages       int
}

type ReportService interface {
	Bulk(ctx context.Context, q RangeQuery) ([]report.Group, error)
	Render(ctx context.Context, q RangeQuery, format string) (*Rendered, error)
}

type ReportConfig struct {
	Company       string
	DecodeWorkers int
}

type reportService struct {
	log     *logger.Logger
	cat     *forms.Catalogue
	repos   repos.Set
	metrics *observability.Metrics
	cfg     ReportConfig
}

func NewReportService(baseLog *logger.Logger, cat *forms.Catalogue, r repos.Set, metrics *observability.Metrics, cfg ReportConfig) ReportService {
	if cfg.DecodeWorkers <= 0 {
		cfg.DecodeWorkers = 4
	}
	return &reportService{
		log:     baseLog.With("service", "ReportService"),
		cat:     cat,
		repos:   r,
		metrics: metrics,
		cfg:     cfg,
	}
}

func (s *reportService) Bulk(ctx context.Context, q RangeQuery) ([]report.Group, error) {
	const op = "report.bulk"
	schema, rng, err := resolveRange(op, s.cat, q)
	if err != nil {
		return nil, err
	}
	in, err := loadRange(dbctx.Context{Ctx: ctx}, s.repos, schema, rng)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	groups := report.Assemble(in)
	if groups == nil {
		groups = []report.Group{}
	}
	return groups, nil
}

// Render produces the printable report. Signatures that fail to decode are
// drawn as placeholders and counted; only a failure to produce the document
// itself is an error.
func (s *reportService) Render(ctx context.Context, q RangeQuery, format string) (*Rendered, error) {
	const op = "report.render"
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatPDF
	}
	if format != FormatPDF && format != FormatXLSX {
		return nil, domainagg.Validation(op, fmt.Sprintf("unknown format %q", format))
	}
	schema, rng, err := resolveRange(op, s.cat, q)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("disaforms/report").Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.String("form", schema.Type),
		attribute.String("format", format),
		attribute.String("from", q.From),
		attribute.String("to", q.To),
	)

	start := time.Now()
	out, err := s.render(ctx, schema, q, format, rng)
	status := "ok"
	pages := 0
	if err != nil {
		status = string(domainagg.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		pages = out.Pages
	}
	s.metrics.ObserveReport(schema.Type, format, status, pages, time.Since(start))
	return out, err
}

func (s *reportService) render(ctx context.Context, schema *forms.Schema, q RangeQuery, format string, rng formrepo.Range) (*Rendered, error) {
	const op = "report.render"
	in, err := loadRange(dbctx.Context{Ctx: ctx}, s.repos, schema, rng)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	pages := report.BuildPages(schema, in.Columns, report.Assemble(in), in.Checkpoints, report.Options{
		Company: s.cfg.Company,
		From:    q.From,
		To:      q.To,
	})
	sigs, err := report.DecodeSignatures(ctx, pages, s.cfg.DecodeWorkers)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeRender, op, err)
	}

	var buf bytes.Buffer
	var stats report.RenderStats
	out := &Rendered{}
	switch format {
	case FormatXLSX:
		stats, err = report.RenderXLSX(&buf, pages, sigs)
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		stats, err = report.RenderPDF(&buf, pages, sigs)
		out.ContentType = "application/pdf"
	}
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeRender, op, err)
	}
	for i := 0; i < stats.SignatureFailures; i++ {
		s.metrics.IncSignatureFailure(schema.Type)
	}
	if stats.SignatureFailures > 0 {
		s.log.Warn("signatures rendered as placeholders", "form", schema.Type, "count", stats.SignatureFailures)
	}
	out.Body = buf.Bytes()
	out.Pages = stats.Pages
	out.Filename = fmt.Sprintf("%s_%s_%s.%s", schema.Type, q.From, q.To, format)
	return out, nil
}
