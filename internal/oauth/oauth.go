package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Profile is the provider-independent identity extracted from an OAuth
// profile response.
type Profile struct {
	Email    string
	Name     string
	Provider string
}

var profileURLs = map[string]string{
	"kakao":  "https://kapi.kakao.com/v2/user/me",
	"naver":  "https://openapi.naver.com/v1/nid/me",
	"google": "https://www.googleapis.com/oauth2/v2/userinfo",
}

// Client exchanges a provider access token for a profile. BaseURLs overrides
// the provider endpoints in tests.
type Client struct {
	HTTPClient *http.Client
	BaseURLs   map[string]string
}

func NewClient() *Client {
	return &Client{HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Client) profileURL(provider string) (string, bool) {
	if c.BaseURLs != nil {
		if u, ok := c.BaseURLs[provider]; ok {
			return u, true
		}
	}
	u, ok := profileURLs[provider]
	return u, ok
}

// FetchProfile calls the provider profile endpoint with the supplied bearer
// token and normalizes the response.
func (c *Client) FetchProfile(ctx context.Context, provider, accessToken string) (*Profile, error) {
	url, ok := c.profileURL(provider)
	if !ok {
		return nil, fmt.Errorf("oauth: unknown provider %q", provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth: profile request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth: provider %s returned %s", provider, res.Status)
	}

	switch provider {
	case "kakao":
		var body struct {
			KakaoAccount struct {
				Email   string `json:"email"`
				Profile struct {
					Nickname string `json:"nickname"`
				} `json:"profile"`
			} `json:"kakao_account"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return nil, err
		}
		return &Profile{Email: body.KakaoAccount.Email, Name: body.KakaoAccount.Profile.Nickname, Provider: provider}, nil
	case "naver":
		var body struct {
			Response struct {
				Email string `json:"email"`
				Name  string `json:"name"`
			} `json:"response"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return nil, err
		}
		return &Profile{Email: body.Response.Email, Name: body.Response.Name, Provider: provider}, nil
	case "google":
		var body struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return nil, err
		}
		return &Profile{Email: body.Email, Name: body.Name, Provider: provider}, nil
	}
	return nil, fmt.Errorf("oauth: unknown provider %q", provider)
}
