// internal/feed/client.go
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Item is one post as delivered by the content API. It is transient: the
// merge engine turns it into a models.Post and nothing persists it as-is.
type Item struct {
	ExternalID  string
	Title       string
	Content     string
	PublishedAt string
}

// Page is one decoded API response. NextURL is empty on the last page.
type Page struct {
	Items   []Item
	NextURL string
	Total   int
}

// Client fetches pages of the Patreon-style content API. Every request is
// bounded by the configured timeout; the engine never retries a failed fetch.
type Client struct {
	httpClient  *http.Client
	accessToken string
}

func NewClient(accessToken string, timeout time.Duration) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		accessToken: accessToken,
	}
}

// Wire shapes of the content API. Absence of links (or links.next) signals
// the end of pagination.
type apiResponse struct {
	Data  []apiPost `json:"data"`
	Links *apiLinks `json:"links"`
	Meta  apiMeta   `json:"meta"`
}

type apiLinks struct {
	Next string `json:"next"`
}

type apiMeta struct {
	Pagination apiPagination `json:"pagination"`
}

type apiPagination struct {
	Cursors apiCursors `json:"cursors"`
	Total   int        `json:"total"`
}

type apiCursors struct {
	Next *string `json:"next"`
}

type apiPost struct {
	ID         string        `json:"id"`
	Attributes apiAttributes `json:"attributes"`
}

type apiAttributes struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	PublishedAt string `json:"published_at"`
}

// FetchPage retrieves and decodes a single page. Any transport error,
// non-2xx status, or undecodable body is terminal for the whole sync run.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode feed page: %w", err)
	}

	page := &Page{
		Items: make([]Item, 0, len(decoded.Data)),
		Total: decoded.Meta.Pagination.Total,
	}
	for _, post := range decoded.Data {
		page.Items = append(page.Items, Item{
			ExternalID:  post.ID,
			Title:       post.Attributes.Title,
			Content:     post.Attributes.Content,
			PublishedAt: post.Attributes.PublishedAt,
		})
	}
	if decoded.Links != nil {
		page.NextURL = decoded.Links.Next
	}

	log.Printf("📥 [FEED] Fetched page with %d items (next: %t)", len(page.Items), page.NextURL != "")
	return page, nil
}
