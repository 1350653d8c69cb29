package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	tokenURL = "https://www.reddit.com/api/v1/access_token"
	apiBase  = "https://oauth.reddit.com"
)

// Client is the authenticated half of the platform boundary: it posts
// annotation comments and applies link flair. Thin API calls only; retry
// policy belongs to the task layer.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	username     string
	password     string
	userAgent    string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(httpClient *http.Client, clientID, clientSecret, username, password, userAgent string) *Client {
	return &Client{
		httpClient:   httpClient,
		clientID:     clientID,
		clientSecret: clientSecret,
		username:     username,
		password:     password,
		userAgent:    userAgent,
	}
}

// PostComment submits a comment under the given post and returns the
// fullname of the created comment.
func (c *Client) PostComment(ctx context.Context, postID string, body string) (string, error) {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", postID)
	form.Set("text", body)

	var response struct {
		JSON struct {
			Errors [][]string `json:"errors"`
			Data   struct {
				Things []struct {
					Data struct {
						Name string `json:"name"`
					} `json:"data"`
				} `json:"things"`
			} `json:"data"`
		} `json:"json"`
	}

	if err := c.postForm(ctx, apiBase+"/api/comment", form, &response); err != nil {
		return "", fmt.Errorf("failed to post comment: %w", err)
	}

	if len(response.JSON.Errors) > 0 {
		return "", fmt.Errorf("comment rejected: %v", response.JSON.Errors)
	}
	if len(response.JSON.Data.Things) == 0 {
		return "", fmt.Errorf("comment response contained no created thing")
	}

	return response.JSON.Data.Things[0].Data.Name, nil
}

// SetFlair applies link flair text to a post.
func (c *Client) SetFlair(ctx context.Context, community string, postID string, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("link", postID)
	form.Set("text", text)

	endpoint := fmt.Sprintf("%s/r/%s/api/flair", apiBase, community)
	if err := c.postForm(ctx, endpoint, form, nil); err != nil {
		return fmt.Errorf("failed to set flair: %w", err)
	}

	return nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// ensureToken fetches a password-grant token when the cached one is
// missing or about to expire.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}

	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response contained no access token")
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)

	return c.accessToken, nil
}
