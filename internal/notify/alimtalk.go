package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Template codes registered with the alimtalk provider.
const (
	TemplateOrderComplete = "ORDER_COMPLETE"
	TemplateReviewReply   = "REVIEW_REPLY"
)

// AlimtalkClient sends template-coded Kakao alimtalk messages through the
// provider's form-encoded HTTP API.
type AlimtalkClient struct {
	BaseURL    string
	APIKey     string
	SenderKey  string
	Sender     string
	HTTPClient *http.Client
}

func NewAlimtalkClient(baseURL, apiKey, senderKey, sender string) *AlimtalkClient {
	return &AlimtalkClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		SenderKey:  senderKey,
		Sender:     sender,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one templated message. Template variables are flattened into
// form fields the provider substitutes server-side.
func (a *AlimtalkClient) Send(ctx context.Context, to, templateCode string, vars map[string]string) error {
	if a.BaseURL == "" {
		return nil
	}

	form := url.Values{}
	form.Set("apikey", a.APIKey)
	form.Set("senderkey", a.SenderKey)
	form.Set("sender", a.Sender)
	form.Set("receiver", to)
	form.Set("template_code", templateCode)
	for k, v := range vars {
		form.Set("var_"+k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/v2/sender/send", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("alimtalk: send: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("alimtalk: provider returned %s: %s", res.Status, body)
	}
	return nil
}
