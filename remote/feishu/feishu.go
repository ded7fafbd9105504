// Package feishu implements remote.RecordStore against the Feishu bitable
// open API: tenant token auth, paginated record search, and single-record
// create/update/delete.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tuido/internal/ratelimit"
	"tuido/internal/utils"
	"tuido/remote"
)

const (
	// pageSize is the record search page size; the API caps it at 500.
	pageSize = 200

	// tokenExpiryMargin refreshes the tenant token this long before the
	// server-reported expiry.
	tokenExpiryMargin = 5 * time.Minute
)

// Config holds Feishu bitable connection settings.
type Config struct {
	APIEndpoint   string
	BotAppID      string
	BotAppSecret  string
	TableAppToken string
	TableID       string
	TableViewID   string
	MaxRetries    int
}

// Store implements remote.RecordStore for one bitable.
type Store struct {
	config Config
	client *ratelimit.Client
	log    *utils.Logger

	token       string
	tokenExpiry time.Time
}

// New creates a Feishu record store.
func New(cfg Config) (*Store, error) {
	switch {
	case cfg.APIEndpoint == "":
		return nil, fmt.Errorf("feishu API endpoint is required")
	case cfg.BotAppID == "" || cfg.BotAppSecret == "":
		return nil, fmt.Errorf("feishu bot credentials are required")
	case cfg.TableAppToken == "" || cfg.TableID == "" || cfg.TableViewID == "":
		return nil, fmt.Errorf("feishu table settings are incomplete")
	}

	return &Store{
		config: cfg,
		client: ratelimit.NewClient(ratelimit.Config{
			MaxRetries:   cfg.MaxRetries,
			EnableJitter: true,
			Service:      "feishu",
		}),
		log: utils.GetLogger(),
	}, nil
}

// Close releases the store's resources.
func (s *Store) Close() error {
	return nil
}

// apiResponse is the envelope every bitable endpoint returns.
type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// accessToken returns a valid tenant token, fetching a new one when the
// cached token is near expiry.
func (s *Store) accessToken(ctx context.Context) (string, error) {
	if s.token != "" && time.Now().Before(s.tokenExpiry) {
		return s.token, nil
	}

	payload := map[string]string{
		"app_id":     s.config.BotAppID,
		"app_secret": s.config.BotAppSecret,
	}
	body, _ := json.Marshal(payload)

	resp, err := s.client.Do(ctx, http.MethodPost,
		s.config.APIEndpoint+"/auth/v3/tenant_access_token/internal",
		http.Header{"Content-Type": []string{"application/json"}},
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("failed to request tenant token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int    `json:"expire"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.Code != 0 {
		return "", fmt.Errorf("tenant token request rejected: %s", result.Msg)
	}

	expire := result.Expire
	if expire <= 0 {
		expire = 7200
	}
	s.token = result.TenantAccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(expire)*time.Second - tokenExpiryMargin)
	s.log.Debug("fetched tenant token, expires %s", s.tokenExpiry.Format(time.RFC3339))
	return s.token, nil
}

// doRequest performs an authenticated bitable API call and decodes the
// response envelope.
func (s *Store) doRequest(ctx context.Context, method, path string, query url.Values, payload any) (*apiResponse, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := s.config.APIEndpoint + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	header := http.Header{
		"Content-Type":  []string{"application/json"},
		"Authorization": []string{"Bearer " + token},
	}

	resp, err := s.client.Do(ctx, method, endpoint, header, body)
	if err != nil {
		return nil, fmt.Errorf("feishu request failed: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("authentication failed: invalid bot credentials")
	}

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("failed to decode feishu response: %w", err)
	}
	if api.Code != 0 {
		return nil, fmt.Errorf("feishu API error %d: %s", api.Code, api.Msg)
	}
	return &api, nil
}

func (s *Store) recordsPath(suffix string) string {
	return fmt.Sprintf("/bitable/v1/apps/%s/tables/%s/records%s",
		s.config.TableAppToken, s.config.TableID, suffix)
}

// rawRecord is one record as the search endpoint returns it.
type rawRecord struct {
	RecordID string         `json:"record_id"`
	Fields   map[string]any `json:"fields"`
}

// fieldText flattens a bitable field value to a string. Text fields arrive
// as lists of {text: ...} segments; other fields may be plain strings.
func fieldText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		var out string
		for _, seg := range val {
			if m, ok := seg.(map[string]any); ok {
				if text, ok := m["text"].(string); ok {
					out += text
					continue
				}
			}
			if str, ok := seg.(string); ok {
				out += str
			}
		}
		return out
	default:
		return ""
	}
}

// fieldList flattens a multi-value field (MultiSelect) to a string list.
func fieldList(v any) []string {
	switch val := v.(type) {
	case string:
		return remote.SplitTags(val)
	case []any:
		var out []string
		for _, item := range val {
			switch entry := item.(type) {
			case string:
				out = append(out, entry)
			case map[string]any:
				if text, ok := entry["text"].(string); ok {
					out = append(out, text)
				}
			}
		}
		return out
	default:
		return nil
	}
}

func toRecord(raw rawRecord) remote.Record {
	return remote.Record{
		RemoteID: raw.RecordID,
		Task:     fieldText(raw.Fields[remote.FieldTask]),
		Project:  fieldText(raw.Fields[remote.FieldProject]),
		Status:   fieldText(raw.Fields[remote.FieldStatus]),
		Tags:     fieldList(raw.Fields[remote.FieldTags]),
		Priority: fieldText(raw.Fields[remote.FieldPriority]),
		Updated:  fieldText(raw.Fields[remote.FieldUpdated]),
	}
}

// FetchAll returns every record in the configured view belonging to the
// given project, following pagination until exhausted. An empty project
// returns records from all projects (used by the global view).
func (s *Store) FetchAll(ctx context.Context, project string) ([]remote.Record, error) {
	var records []remote.Record
	pageToken := ""

	for {
		query := url.Values{"page_size": []string{fmt.Sprint(pageSize)}}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}
		payload := map[string]any{
			"field_names": remote.FieldNames,
			"view_id":     s.config.TableViewID,
		}

		resp, err := s.doRequest(ctx, http.MethodPost, s.recordsPath("/search"), query, payload)
		if err != nil {
			return nil, err
		}

		var data struct {
			Items     []rawRecord `json:"items"`
			HasMore   bool        `json:"has_more"`
			PageToken string      `json:"page_token"`
		}
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode record page: %w", err)
		}

		for _, raw := range data.Items {
			rec := toRecord(raw)
			if rec.Task == "" {
				continue
			}
			if project != "" && rec.Project != project {
				continue
			}
			records = append(records, rec)
		}

		if !data.HasMore || data.PageToken == "" {
			break
		}
		pageToken = data.PageToken
	}

	s.log.Debug("fetched %d records for project %q", len(records), project)
	return records, nil
}

// Create inserts one record and returns it with the assigned record id.
func (s *Store) Create(ctx context.Context, rec remote.Record) (*remote.Record, error) {
	resp, err := s.doRequest(ctx, http.MethodPost, s.recordsPath(""), nil,
		map[string]any{"fields": rec.Fields()})
	if err != nil {
		return nil, err
	}

	var data struct {
		Record rawRecord `json:"record"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}

	created := rec
	created.RemoteID = data.Record.RecordID
	return &created, nil
}

// Update overwrites the given fields of an existing record.
func (s *Store) Update(ctx context.Context, remoteID string, fields map[string]any) error {
	_, err := s.doRequest(ctx, http.MethodPut, s.recordsPath("/"+remoteID), nil,
		map[string]any{"fields": fields})
	return err
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, remoteID string) error {
	_, err := s.doRequest(ctx, http.MethodDelete, s.recordsPath("/"+remoteID), nil, nil)
	return err
}
