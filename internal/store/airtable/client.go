package airtable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"aligner-bot/internal/apperr"
	"aligner-bot/internal/models"
	"aligner-bot/internal/store"
)

const (
	fieldTelegramID = "Telegram ID"
	fieldDate       = "Date"
)

type Config struct {
	BaseURL          string
	Token            string
	BaseID           string
	ParticipantTable string
	KudosTable       string
	Timeout          time.Duration
}

// Client talks to the Airtable REST API. All filterByFormula expressions
// live in this file.
type Client struct {
	http *resty.Client
	cfg  Config
}

var _ store.Repository = (*Client)(nil)

type record[F any] struct {
	ID          string `json:"id,omitempty"`
	CreatedTime string `json:"createdTime,omitempty"`
	Fields      F      `json:"fields"`
}

type listResponse[F any] struct {
	Records []record[F] `json:"records"`
	Offset  string      `json:"offset,omitempty"`
}

type participantFields struct {
	TelegramID int64  `json:"Telegram ID"`
	Handle     string `json:"Telegram handle,omitempty"`
	Name       string `json:"Telegram name,omitempty"`
}

type kudoFields struct {
	Participant  []string `json:"Participant"`
	KudoeeHandle string   `json:"Kudoee Telegram handle"`
	Date         string   `json:"Date"`
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("airtable: token must not be empty")
	}
	if cfg.BaseID == "" || cfg.ParticipantTable == "" || cfg.KudosTable == "" {
		return nil, errors.New("airtable: base and table ids must not be empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.airtable.com/v0"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.Token).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &Client{http: httpClient, cfg: cfg}, nil
}

func (c *Client) FindParticipant(ctx context.Context, telegramID int64) (*models.Participant, error) {
	formula := fmt.Sprintf("{%s}=%d", fieldTelegramID, telegramID)
	recs, err := list[participantFields](ctx, c, "find participant", c.cfg.ParticipantTable, formula, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	p := toParticipant(recs[0])
	return &p, nil
}

func (c *Client) CreateParticipant(ctx context.Context, p models.Participant) (*models.Participant, error) {
	in := record[participantFields]{Fields: participantFields{
		TelegramID: p.TelegramID,
		Handle:     p.Handle,
		Name:       p.Name,
	}}
	out, err := create(ctx, c, "create participant", c.cfg.ParticipantTable, in)
	if err != nil {
		return nil, err
	}
	created := toParticipant(*out)
	return &created, nil
}

// ListKudos returns every kudo linked to participantID. Airtable formulas
// cannot match linked record ids directly, so the giver filter is applied
// here.
func (c *Client) ListKudos(ctx context.Context, participantID string) ([]models.Kudo, error) {
	recs, err := list[kudoFields](ctx, c, "list kudos", c.cfg.KudosTable, "", 0)
	if err != nil {
		return nil, err
	}
	return kudosFor(recs, participantID), nil
}

func (c *Client) ListKudosForDay(ctx context.Context, participantID, date string) ([]models.Kudo, error) {
	formula := fmt.Sprintf("DATESTR({%s})=%s", fieldDate, quote(date))
	recs, err := list[kudoFields](ctx, c, "list kudos for day", c.cfg.KudosTable, formula, 0)
	if err != nil {
		return nil, err
	}
	return store.FilterByDate(kudosFor(recs, participantID), date), nil
}

func (c *Client) CreateKudo(ctx context.Context, k models.Kudo) (*models.Kudo, error) {
	in := record[kudoFields]{Fields: kudoFields{
		Participant:  []string{k.ParticipantID},
		KudoeeHandle: k.RecipientHandle,
		Date:         k.Date,
	}}
	out, err := create(ctx, c, "create kudo", c.cfg.KudosTable, in)
	if err != nil {
		return nil, err
	}
	created := toKudo(*out)
	return &created, nil
}

// list follows pagination until Airtable stops returning an offset.
// limit > 0 caps the number of records requested.
func list[F any](ctx context.Context, c *Client, op, table, formula string, limit int) ([]record[F], error) {
	var all []record[F]
	offset := ""
	for {
		var page listResponse[F]
		req := c.http.R().
			SetContext(ctx).
			SetPathParams(map[string]string{"base": c.cfg.BaseID, "table": table}).
			SetResult(&page)
		if formula != "" {
			req.SetQueryParam("filterByFormula", formula)
		}
		if limit > 0 {
			req.SetQueryParam("maxRecords", fmt.Sprintf("%d", limit))
		}
		if offset != "" {
			req.SetQueryParam("offset", offset)
		}

		resp, err := req.Get("/{base}/{table}")
		if err := classify("airtable: "+op, resp, err); err != nil {
			return nil, err
		}

		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

func create[F any](ctx context.Context, c *Client, op, table string, in record[F]) (*record[F], error) {
	var out record[F]
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"base": c.cfg.BaseID, "table": table}).
		SetBody(in).
		SetResult(&out).
		Post("/{base}/{table}")
	if err := classify("airtable: "+op, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		return apperr.New(apperr.StoreUnavailable, op, err)
	}
	if !resp.IsError() {
		return nil
	}
	cause := fmt.Errorf("status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.New(apperr.StoreAuthFailed, op, cause)
	default:
		return apperr.New(apperr.StoreUnavailable, op, cause)
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

func kudosFor(recs []record[kudoFields], participantID string) []models.Kudo {
	out := make([]models.Kudo, 0, len(recs))
	for _, r := range recs {
		for _, ref := range r.Fields.Participant {
			if ref == participantID {
				out = append(out, toKudo(r))
				break
			}
		}
	}
	return out
}

func toParticipant(r record[participantFields]) models.Participant {
	return models.Participant{
		ID:         r.ID,
		TelegramID: r.Fields.TelegramID,
		Handle:     r.Fields.Handle,
		Name:       r.Fields.Name,
		CreatedAt:  parseCreated(r.CreatedTime),
	}
}

func toKudo(r record[kudoFields]) models.Kudo {
	k := models.Kudo{
		ID:              r.ID,
		RecipientHandle: r.Fields.KudoeeHandle,
		Date:            r.Fields.Date,
		CreatedAt:       parseCreated(r.CreatedTime),
	}
	if len(r.Fields.Participant) > 0 {
		k.ParticipantID = r.Fields.Participant[0]
	}
	return k
}

func parseCreated(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
