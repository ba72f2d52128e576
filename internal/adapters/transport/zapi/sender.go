package zapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lembra/internal/platform/httpclient"
)

var (
	ErrNotConfigured = errors.New("zapi client not configured")
	ErrUpstream      = errors.New("zapi upstream error")
)

type Config struct {
	BaseURL    string
	InstanceID string
	Token      string

	Timeout time.Duration
}

// Sender manda texto por la API de la instancia de WhatsApp.
type Sender struct {
	http       *httpclient.Client
	instanceID string
	token      string
}

func NewSender(cfg Config) (*Sender, error) {
	c, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Sender{
		http:       c,
		instanceID: strings.TrimSpace(cfg.InstanceID),
		token:      strings.TrimSpace(cfg.Token),
	}, nil
}

func (s *Sender) IsConfigured() bool {
	return s != nil && s.http != nil && s.http.BaseURL != "" && s.instanceID != "" && s.token != ""
}

type sendTextRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendTextResponse struct {
	MessageID string `json:"messageId"`
	ZapID     string `json:"zaapId"`
}

func (s *Sender) Send(ctx context.Context, phone, text string) (string, error) {
	if !s.IsConfigured() {
		return "", ErrNotConfigured
	}
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.TrimSpace(text) == "" {
		return "", errors.New("zapi: phone and text required")
	}

	path := fmt.Sprintf("/instances/%s/token/%s/send-text", s.instanceID, s.token)

	var out sendTextResponse
	err := s.http.DoJSON(ctx, http.MethodPost, path, nil, sendTextRequest{
		Phone:   phone,
		Message: text,
	}, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			return "", fmt.Errorf("%w: status=%d", ErrUpstream, httpErr.StatusCode)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	id := out.MessageID
	if id == "" {
		id = out.ZapID
	}
	return id, nil
}
