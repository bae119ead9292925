// Package extraction provides the Google Document AI implementation of
// the invoice extraction boundary.
package extraction

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mantodeus/mantodeus-manager/internal/config"
	"github.com/mantodeus/mantodeus-manager/internal/extraction"
)

const processTimeout = 60 * time.Second

type processor struct {
	client *documentai.DocumentProcessorClient
	cfg    config.ExtractionConfig
	log    *zap.Logger
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

// New builds the Document AI processor. When extraction is disabled or
// unconfigured it returns a processor that rejects every call, so the
// import flow degrades to review-only drafts.
func New(lc fx.Lifecycle, p Params) (extraction.Processor, error) {
	cfg := p.Config.Extraction
	if !cfg.Enabled || cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return disabled{}, nil
	}

	var opts []option.ClientOption
	if cfg.Location != "" && cfg.Location != "us" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)))
	}

	client, err := documentai.NewDocumentProcessorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create document ai client: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return &processor{
		client: client,
		cfg:    cfg,
		log:    p.Log.Named("extraction.documentai"),
	}, nil
}

type disabled struct{}

func (disabled) Extract(ctx context.Context, document io.Reader) (*extraction.Result, error) {
	return nil, extraction.ErrDisabled
}

func (p *processor) Extract(ctx context.Context, document io.Reader) (*extraction.Result, error) {
	data, err := io.ReadAll(io.LimitReader(document, extraction.MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(data) > extraction.MaxDocumentSize {
		return nil, extraction.ErrDocumentTooLarge
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, extraction.ErrInvalidDocument
	}

	processCtx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	resp, err := p.client.ProcessDocument(processCtx, &documentaipb.ProcessRequest{
		Name: p.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: "application/pdf",
			},
		},
	})
	if err != nil {
		p.log.Warn("document ai request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", extraction.ErrProcessingFailed, err)
	}
	if resp.Document == nil {
		return nil, extraction.ErrProcessingFailed
	}

	return p.mapEntities(resp.Document), nil
}

func (p *processor) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		p.cfg.ProjectID, p.cfg.Location, p.cfg.ProcessorID)
}

func (p *processor) mapEntities(doc *documentaipb.Document) *extraction.Result {
	result := &extraction.Result{
		Currency:   "EUR",
		Confidence: make(map[string]float32),
	}

	for _, entity := range doc.Entities {
		value := strings.TrimSpace(entity.MentionText)
		result.Confidence[entity.Type] = entity.Confidence

		switch entity.Type {
		case "invoice_id", "invoice_number":
			result.InvoiceNumber = value
		case "supplier_name", "vendor_name":
			result.VendorName = value
		case "buyer_name", "customer_name":
			result.CustomerName = value
		case "currency":
			if value != "" {
				result.Currency = strings.ToUpper(value)
			}
		case "invoice_date":
			if date, ok := entityDate(entity); ok {
				result.IssueDate = &date
			}
		case "due_date":
			if date, ok := entityDate(entity); ok {
				result.DueDate = &date
			}
		case "net_amount", "subtotal_amount":
			if amount, ok := entityMoney(entity, value); ok {
				result.Subtotal = &amount
			}
		case "total_tax_amount", "vat_amount":
			if amount, ok := entityMoney(entity, value); ok {
				result.VATAmount = &amount
			}
		case "total_amount":
			if amount, ok := entityMoney(entity, value); ok {
				result.Total = &amount
			}
		case "line_item":
			if line, ok := entityLine(entity); ok {
				result.Lines = append(result.Lines, line)
			}
		}
	}

	return result
}

// entityDate prefers the normalized date value over the mention text.
func entityDate(entity *documentaipb.Document_Entity) (time.Time, bool) {
	if nv := entity.GetNormalizedValue(); nv != nil {
		if dv := nv.GetDateValue(); dv != nil && dv.Year != 0 {
			return time.Date(int(dv.Year), time.Month(dv.Month), int(dv.Day), 0, 0, 0, 0, time.UTC), true
		}
	}
	for _, layout := range []string{"2006-01-02", "02.01.2006", "01/02/2006"} {
		if t, err := time.Parse(layout, strings.TrimSpace(entity.MentionText)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func entityMoney(entity *documentaipb.Document_Entity, raw string) (decimal.Decimal, bool) {
	if nv := entity.GetNormalizedValue(); nv != nil {
		if mv := nv.GetMoneyValue(); mv != nil {
			units := decimal.NewFromInt(mv.Units)
			nanos := decimal.New(int64(mv.Nanos), -9)
			return units.Add(nanos).Round(2), true
		}
	}
	return parseAmount(raw)
}

// parseAmount handles both "1.234,56" and "1,234.56" mention formats.
func parseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, raw)
	if cleaned == "" {
		return decimal.Zero, false
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	if lastComma > lastDot {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return amount.Round(2), true
}

func entityLine(entity *documentaipb.Document_Entity) (extraction.Line, bool) {
	var line extraction.Line
	for _, prop := range entity.Properties {
		value := strings.TrimSpace(prop.MentionText)
		switch prop.Type {
		case "line_item/description":
			line.Description = value
		case "line_item/quantity":
			if qty, ok := parseAmount(value); ok {
				line.Quantity = qty
			}
		case "line_item/unit_price":
			if price, ok := entityMoney(prop, value); ok {
				line.UnitPrice = price
			}
		case "line_item/amount":
			if amount, ok := entityMoney(prop, value); ok {
				line.Amount = amount
			}
		}
	}
	if line.Description == "" && line.Amount.IsZero() {
		return extraction.Line{}, false
	}
	if line.Quantity.IsZero() {
		line.Quantity = decimal.NewFromInt(1)
	}
	if line.UnitPrice.IsZero() && !line.Quantity.IsZero() {
		line.UnitPrice = line.Amount.Div(line.Quantity).Round(2)
	}
	return line, true
}

var Module = fx.Module("providers.extraction",
	fx.Provide(New),
)
