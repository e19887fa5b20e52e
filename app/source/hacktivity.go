package source

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/h1feed/hacktivity-relay/app/feed"
)

// DefaultHacktivityEndpoint serves the public HackerOne disclosure feed
const DefaultHacktivityEndpoint = "https://hackerone.com/graphql"

const reportBaseURL = "https://hackerone.com"

const hacktivityQueryTpl = `{
  reports(
    first: %d
    where: { disclosed_at: { _is_null: false } }
    order_by: { field: disclosed_at, direction: DESC }
  ) {
    nodes {
      _id
      title
      url
      severity {
        rating
      }
      team {
        handle
      }
    }
  }
}`

var _ Source = (*Hacktivity)(nil)

// Hacktivity polls the HackerOne GraphQL API for publicly disclosed
// reports, ordered by disclosure time descending.
type Hacktivity struct {
	httpClient *http.Client
	endpoint   string
	windowSize int
	timeout    time.Duration
	userAgent  string
}

func NewHacktivity(httpClient *http.Client, endpoint string, windowSize int, timeout time.Duration, userAgent string) *Hacktivity {
	return &Hacktivity{
		httpClient: httpClient,
		endpoint:   cmp.Or(endpoint, DefaultHacktivityEndpoint),
		windowSize: windowSize,
		timeout:    timeout,
		userAgent:  userAgent,
	}
}

func (h *Hacktivity) Name() string {
	return "hacktivity"
}

type hacktivityResponse struct {
	Data struct {
		Reports struct {
			Nodes []hacktivityNode `json:"nodes"`
		} `json:"reports"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type hacktivityNode struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Severity *struct {
		Rating string `json:"rating"`
	} `json:"severity"`
	Team *struct {
		Handle string `json:"handle"`
	} `json:"team"`
}

func (h *Hacktivity) Fetch(ctx context.Context) ([]feed.Item, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{
		"query": fmt.Sprintf(hacktivityQueryTpl, h.windowSize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed hacktivityResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL error: %s", parsed.Errors[0].Message)
	}

	nodes := parsed.Data.Reports.Nodes
	items := make([]feed.Item, 0, len(nodes))
	for _, node := range nodes {
		items = append(items, normalizeNode(node))
	}

	return items, nil
}

// normalizeNode maps an API node onto the shared item shape. Report URLs
// occasionally come back relative to the site root.
func normalizeNode(node hacktivityNode) feed.Item {
	item := feed.Item{
		ID:    node.ID,
		Title: cmp.Or(node.Title, "Untitled"),
		URL:   node.URL,
	}

	if item.URL != "" && !strings.HasPrefix(item.URL, "http") {
		item.URL = reportBaseURL + item.URL
	}
	if node.Severity != nil {
		item.Severity = node.Severity.Rating
	}
	if node.Team != nil {
		item.Program = node.Team.Handle
	}

	return item
}
