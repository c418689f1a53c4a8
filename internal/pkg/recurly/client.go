package recurly

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ManuelReschke/RecurFox/internal/pkg/env"
)

const defaultPerPage = 50

// Client talks to the billing provider's v2 XML API. It authenticates with
// HTTP Basic auth (API key as username) against the configured subdomain.
type Client struct {
	APIKey    string
	Subdomain string

	// BaseURL overrides the subdomain-derived endpoint, used by tests and
	// sandbox setups.
	BaseURL string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from RECURLY_* environment settings.
func NewClientFromEnv() *Client {
	return &Client{
		APIKey:    strings.TrimSpace(env.GetEnv("RECURLY_API_KEY", "")),
		Subdomain: strings.TrimSpace(env.GetEnv("RECURLY_SUBDOMAIN", "")),
		BaseURL:   strings.TrimSpace(env.GetEnv("RECURLY_BASE_URL", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s.recurly.com/v2", c.Subdomain)
}

// Page is one slice of a paginated collection. Cursor is empty on the last
// page.
type Page struct {
	Items  []*Resource
	Cursor string
}

func (c *Client) do(ctx context.Context, rawURL, resourceName, key string) (*Resource, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.SetBasicAuth(c.APIKey, "")
	req.Header.Set("Accept", "application/xml")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode == http.StatusNotFound {
		return nil, "", &NotFoundError{Resource: resourceName, Key: key}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	res, err := ParseResource(body)
	if err != nil {
		return nil, "", err
	}
	return res, nextCursor(resp.Header.Get("Link")), nil
}

var nextLinkPattern = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="next"`)

// nextCursor extracts the pagination cursor from a Link response header.
func nextCursor(linkHeader string) string {
	m := nextLinkPattern.FindStringSubmatch(linkHeader)
	if m == nil {
		return ""
	}
	u, err := url.Parse(m[1])
	if err != nil {
		return ""
	}
	return u.Query().Get("cursor")
}

func (c *Client) get(ctx context.Context, path, resourceName, key string) (*Resource, error) {
	res, _, err := c.do(ctx, c.baseURL()+path, resourceName, key)
	return res, err
}

func (c *Client) list(ctx context.Context, path, cursor, resourceName string, params url.Values) (*Page, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("per_page", fmt.Sprint(defaultPerPage))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	res, next, err := c.do(ctx, c.baseURL()+path+"?"+params.Encode(), resourceName, path)
	if err != nil {
		return nil, err
	}

	// Collection documents hold their items as a single nested relation.
	var items []*Resource
	for _, list := range res.Nested {
		items = append(items, list...)
	}
	return &Page{Items: items, Cursor: next}, nil
}

// GetAccount fetches one account by code, with its billing info resolved:
// the returned resource carries a nested billing_info when the provider has
// one and none when it does not, so callers never have to probe links.
func (c *Client) GetAccount(ctx context.Context, accountCode string) (*Resource, error) {
	account, err := c.get(ctx, "/accounts/"+url.PathEscape(accountCode), "account", accountCode)
	if err != nil {
		return nil, err
	}
	if account.First("billing_info") != nil {
		return account, nil
	}

	billingInfo, err := c.get(ctx, "/accounts/"+url.PathEscape(accountCode)+"/billing_info", "billing_info", accountCode)
	if err != nil {
		if IsNotFound(err) {
			delete(account.Links, "billing_info")
			return account, nil
		}
		return nil, err
	}
	account.Nested["billing_info"] = []*Resource{billingInfo}
	return account, nil
}

// GetSubscription fetches one subscription by uuid.
func (c *Client) GetSubscription(ctx context.Context, uuid string) (*Resource, error) {
	return c.get(ctx, "/subscriptions/"+url.PathEscape(uuid), "subscription", uuid)
}

// GetTransaction fetches one transaction by id.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*Resource, error) {
	return c.get(ctx, "/transactions/"+url.PathEscape(transactionID), "transaction", transactionID)
}

// GetInvoiceForTransaction follows a transaction's invoice link.
func (c *Client) GetInvoiceForTransaction(ctx context.Context, transaction *Resource) (*Resource, error) {
	href, ok := transaction.Links["invoice"]
	if !ok {
		return nil, &NotFoundError{Resource: "invoice", Key: "(no link)"}
	}
	res, _, err := c.do(ctx, href, "invoice", href)
	return res, err
}

// ListAccountSubscriptions returns the full current subscription collection
// of an account, following pagination internally.
func (c *Client) ListAccountSubscriptions(ctx context.Context, accountCode string) ([]*Resource, error) {
	var all []*Resource
	cursor := ""
	for {
		page, err := c.list(ctx, "/accounts/"+url.PathEscape(accountCode)+"/subscriptions", cursor, "subscriptions", nil)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.Cursor == "" {
			return all, nil
		}
		cursor = page.Cursor
	}
}

// ListAccounts returns one page of the account collection.
func (c *Client) ListAccounts(ctx context.Context, cursor string) (*Page, error) {
	return c.list(ctx, "/accounts", cursor, "accounts", nil)
}

// ListSubscriptions returns one page of subscriptions in the given state
// (e.g. "live", "expired").
func (c *Client) ListSubscriptions(ctx context.Context, state, cursor string) (*Page, error) {
	params := url.Values{}
	if state != "" {
		params.Set("state", state)
	}
	return c.list(ctx, "/subscriptions", cursor, "subscriptions", params)
}

// ListTransactions returns one page of the transaction collection.
func (c *Client) ListTransactions(ctx context.Context, cursor string) (*Page, error) {
	return c.list(ctx, "/transactions", cursor, "transactions", nil)
}

// GetTokenResult resolves a one-time client-side form token into the
// resource (subscription, billing_info or invoice) it produced.
func (c *Client) GetTokenResult(ctx context.Context, token string) (*Resource, error) {
	return c.get(ctx, "/recurly_js/result/"+url.PathEscape(token), "token", token)
}
