// Package smsapi is a signed client for the SMS verification service. It
// covers exactly two operations: asking the service to generate and deliver
// a one-time code, and checking a code the visitor submitted.
package smsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/gatehouse/internal/uuid"
)

const (
	apiVersion     = "2017-05-25"
	actionDispatch = "SendSmsVerifyCode"
	actionCheck    = "CheckSmsVerifyCode"

	// timestampLayout is ISO-8601 UTC without milliseconds, as the signing
	// scheme requires.
	timestampLayout = "2006-01-02T15:04:05Z"

	maxResponseBody = 1 << 20
)

// ErrMissingCredentials signals incomplete client configuration, distinct
// from a remote-service failure.
var ErrMissingCredentials = errors.New("smsapi: missing endpoint or credentials")

// templateParam instructs the remote service to generate the code itself.
// The service cannot verify a caller-supplied code, so a literal code must
// never be sent here.
const templateParam = `{"code":"##code##"}`

// Client signs and performs calls against the verification API.
// The signing secret is held in a memguard enclave and only opened for the
// duration of one signature computation.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	host        string
	accessKeyID string
	secret      *memguard.Enclave

	now   func() time.Time
	nonce func() string
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the request URL while keeping the signed Host header
// pointed at the real endpoint. Used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithNonceSource overrides the per-request nonce generator.
func WithNonceSource(nonce func() string) Option {
	return func(c *Client) { c.nonce = nonce }
}

// New creates a client for the given API endpoint host. The secret is copied
// into an enclave; the caller may discard its copy.
func New(endpoint, accessKeyID, accessKeySecret string, opts ...Option) (*Client, error) {
	if endpoint == "" || accessKeyID == "" || accessKeySecret == "" {
		return nil, ErrMissingCredentials
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     "https://" + endpoint,
		host:        endpoint,
		accessKeyID: accessKeyID,
		secret:      memguard.NewEnclave([]byte(accessKeySecret)),
		now:         time.Now,
		nonce:       uuid.New,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DispatchParams are the knobs for one code dispatch.
type DispatchParams struct {
	Phone        string
	CountryCode  string
	SignName     string
	TemplateCode string
	CodeLength   int
	ValidFor     time.Duration
	Interval     time.Duration
	CodeType     string
}

// DispatchCode asks the remote service to generate a one-time code and
// deliver it by SMS. No retries: the remote service enforces its own
// dispatch interval and a blind retry would fight it.
func (c *Client) DispatchCode(ctx context.Context, p DispatchParams) (Outcome, error) {
	query := url.Values{}
	query.Set("PhoneNumber", p.Phone)
	query.Set("CountryCode", p.CountryCode)
	query.Set("SignName", p.SignName)
	query.Set("TemplateCode", p.TemplateCode)
	query.Set("TemplateParam", templateParam)
	query.Set("CodeLength", strconv.Itoa(p.CodeLength))
	query.Set("ValidTime", strconv.Itoa(int(p.ValidFor.Seconds())))
	query.Set("Interval", strconv.Itoa(int(p.Interval.Seconds())))
	query.Set("CodeType", p.CodeType)
	return c.call(ctx, actionDispatch, query)
}

// CheckCode submits a visitor-supplied code for verification. A transport-
// successful outcome does not mean the code matched; the caller must check
// Outcome.VerifyPassed.
func (c *Client) CheckCode(ctx context.Context, phone, countryCode, code string) (Outcome, error) {
	query := url.Values{}
	query.Set("PhoneNumber", phone)
	query.Set("CountryCode", countryCode)
	query.Set("VerifyCode", code)
	return c.call(ctx, actionCheck, query)
}

func (c *Client) call(ctx context.Context, action string, query url.Values) (Outcome, error) {
	// The wire query must be byte-identical to the canonical form the
	// signature covers.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/?"+canonicalQuery(query), nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("building %s request: %w", action, err)
	}

	headers := map[string]string{
		"host":                  c.host,
		"x-acs-action":          action,
		"x-acs-version":         apiVersion,
		"x-acs-date":            c.now().UTC().Format(timestampLayout),
		"x-acs-signature-nonce": c.nonce(),
		"x-acs-content-sha256":  emptyBodyHash,
	}
	signed := signedHeaderNames(headers)

	canonical := canonicalRequest(http.MethodPost, "/", query, headers, signed, emptyBodyHash)
	signature, err := c.signWithSecret(stringToSign(canonical))
	if err != nil {
		return Outcome{}, fmt.Errorf("signing %s request: %w", action, err)
	}

	req.Host = c.host
	for name, value := range headers {
		if name == "host" {
			continue
		}
		req.Header.Set(name, value)
	}
	req.Header.Set("Authorization", authorizationHeader(c.accessKeyID, signed, signature))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("calling %s: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Outcome{}, fmt.Errorf("reading %s response: %w", action, err)
	}
	return parseOutcome(resp.StatusCode, body), nil
}

// signWithSecret opens the enclave just long enough to compute one HMAC.
func (c *Client) signWithSecret(toSign string) (string, error) {
	buf, err := c.secret.Open()
	if err != nil {
		return "", err
	}
	defer buf.Destroy()
	return sign(buf.Bytes(), toSign), nil
}

// parseOutcome normalizes the remote response. A malformed body is surfaced
// as a failure outcome rather than an error: the call completed, the service
// just said something unintelligible.
func parseOutcome(status int, body []byte) Outcome {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Outcome{
			OK:      false,
			Message: fmt.Sprintf("unparseable response (http %d)", status),
		}
	}

	outcome := Outcome{
		Code:    envelope.Code,
		Message: envelope.Message,
	}
	if len(envelope.Model) > 0 {
		// Best effort; a malformed model leaves the map nil, which reads
		// as verification-failed.
		_ = json.Unmarshal(envelope.Model, &outcome.Model)
	}

	if status < 200 || status >= 300 {
		outcome.OK = false
		if outcome.Message == "" {
			outcome.Message = fmt.Sprintf("http status %d", status)
		}
		return outcome
	}
	outcome.OK = envelope.Code == transportOKCode && envelope.Success
	if !outcome.OK && outcome.Message == "" {
		outcome.Message = fmt.Sprintf("remote code %s", envelope.Code)
	}
	return outcome
}
