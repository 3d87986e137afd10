package publish

import (
	"bytes"
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

const retractedPlaceholder = "Этот текст был отозван автором."

// TelegraphPublisher hosts finished content as pages on a telegra.ph
// compatible API. An account token is created lazily on first publish and
// reused for the process lifetime; page paths come from the host's own
// randomness and are not derivable from user identifiers.
type TelegraphPublisher struct {
	baseURL   string
	shortName string
	client    *http.Client

	mu    sync.Mutex
	token string
}

var _ Publisher = &TelegraphPublisher{}

func NewTelegraphPublisher(baseURL, shortName string) *TelegraphPublisher {
	if baseURL == "" {
		baseURL = "https://api.telegra.ph"
	}
	return &TelegraphPublisher{
		baseURL:   strings.TrimRight(baseURL, "/"),
		shortName: shortName,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Available reports whether the publisher is configured
func (p *TelegraphPublisher) Available() bool {
	return p != nil && p.shortName != ""
}

// --- Request/Response structs (Internal to this package) ---

type apiResponse struct {
	Ok     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

type accountResult struct {
	AccessToken string `json:"access_token"`
}

type pageResult struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

type contentNode struct {
	Tag      string   `json:"tag"`
	Children []string `json:"children"`
}

// --- Interface Implementation ---

func (p *TelegraphPublisher) Publish(ctx context.Context, title, content string) (*Result, error) {
	token, err := p.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	return p.createOrEdit(ctx, p.baseURL+"/createPage", token, title, content)
}

func (p *TelegraphPublisher) Update(ctx context.Context, editPath, title, content string) (*Result, error) {
	token, err := p.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	return p.createOrEdit(ctx, p.baseURL+"/editPage/"+editPath, token, title, content)
}

// Retract overwrites the page with a placeholder. The host keeps the page
// alive, so this is content replacement, not deletion.
func (p *TelegraphPublisher) Retract(ctx context.Context, editPath string) error {
	_, err := p.Update(ctx, editPath, "Отозвано", retractedPlaceholder)
	return err
}

func (p *TelegraphPublisher) ensureToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("short_name", p.shortName)

	raw, err := p.call(ctx, p.baseURL+"/createAccount", form)
	if err != nil {
		return "", fmt.Errorf("create publisher account: %w", err)
	}

	var account accountResult
	if err := json.Unmarshal(raw, &account); err != nil {
		return "", fmt.Errorf("unmarshal account: %w", err)
	}
	if account.AccessToken == "" {
		return "", fmt.Errorf("publisher returned empty access token")
	}

	p.token = account.AccessToken
	return p.token, nil
}

func (p *TelegraphPublisher) createOrEdit(ctx context.Context, endpoint, token, title, content string) (*Result, error) {
	nodes := buildContent(content)
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	form := url.Values{}
	form.Set("access_token", token)
	form.Set("title", title)
	form.Set("content", string(nodesJSON))

	raw, err := p.call(ctx, endpoint, form)
	if err != nil {
		return nil, err
	}

	var page pageResult
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("unmarshal page: %w", err)
	}
	if page.Path == "" {
		return nil, fmt.Errorf("publisher returned empty page path")
	}

	return &Result{
		URL:      page.URL,
		Path:     page.Path,
		EditPath: page.Path,
	}, nil
}

func (p *TelegraphPublisher) call(ctx context.Context, endpoint string, form url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publisher request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("publisher error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var api apiResponse
	if err := json.Unmarshal(bodyBytes, &api); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if !api.Ok {
		return nil, fmt.Errorf("publisher rejected request: %s", api.Error)
	}

	return api.Result, nil
}

// buildContent maps plain text to the host's node format, one paragraph
// per blank-line separated block.
func buildContent(content string) []contentNode {
	blocks := strings.Split(content, "\n\n")
	nodes := make([]contentNode, 0, len(blocks))
	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" {
			continue
		}
		nodes = append(nodes, contentNode{
			Tag:      "p",
			Children: []string{trimmed},
		})
	}
	if len(nodes) == 0 {
		nodes = append(nodes, contentNode{Tag: "p", Children: []string{content}})
	}
	return nodes
}
