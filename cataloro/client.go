package cataloro

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Client is the typed http client for the cataloro backend. One client
// holds one authenticated session; the probe creates a client per actor
// (admin, buyer, seller).
type Client struct {
	BaseURL string
	Token   string
	Logger  *logrus.Logger

	hc *http.Client
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if logger == nil {
		logger = log
	}
	return &Client{
		BaseURL: baseURL,
		Logger:  logger,
		hc:      &http.Client{Timeout: timeout},
	}
}

// Claims decodes the current session token. Login must have been called.
func (c *Client) Claims() (*TokenClaims, error) {
	if c.Token == "" {
		return nil, fmt.Errorf("no session token")
	}
	return DecodeToken(c.Token)
}

// Login authenticates and stores the bearer token on the client.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var res LoginResponse
	if err := c.do(ctx, http.MethodPost, LoginEndpoint, req, &res); err != nil {
		return nil, err
	}
	if err := ValidateStruct(res); err != nil {
		return nil, schemaErr(err)
	}
	c.Token = res.Token
	return &res, nil
}

// Profile fetches the authenticated user's own record.
func (c *Client) Profile(ctx context.Context) (*AuthUser, error) {
	var user AuthUser
	if err := c.do(ctx, http.MethodGet, ProfileEndpoint, nil, &user); err != nil {
		return nil, err
	}
	if err := ValidateStruct(user); err != nil {
		return nil, schemaErr(err)
	}
	return &user, nil
}

func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, http.MethodGet, HealthEndpoint, nil, &status); err != nil {
		return nil, err
	}
	if err := ValidateStruct(status); err != nil {
		return nil, schemaErr(err)
	}
	return &status, nil
}

func (c *Client) CreateListing(ctx context.Context, req CreateListingRequest) (*Listing, error) {
	var listing Listing
	if err := c.do(ctx, http.MethodPost, ListingsEndpoint, req, &listing); err != nil {
		return nil, err
	}
	if err := ValidateStruct(listing); err != nil {
		return nil, schemaErr(err)
	}
	return &listing, nil
}

func (c *Client) GetListing(ctx context.Context, id string) (*Listing, error) {
	var listing Listing
	if err := c.do(ctx, http.MethodGet, ListingEndpoint(id), nil, &listing); err != nil {
		return nil, err
	}
	if err := ValidateStruct(listing); err != nil {
		return nil, schemaErr(err)
	}
	return &listing, nil
}

func (c *Client) UpdateListing(ctx context.Context, id string, req UpdateListingRequest) (*Listing, error) {
	var listing Listing
	if err := c.do(ctx, http.MethodPut, ListingEndpoint(id), req, &listing); err != nil {
		return nil, err
	}
	if err := ValidateStruct(listing); err != nil {
		return nil, schemaErr(err)
	}
	return &listing, nil
}

func (c *Client) DeleteListing(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, ListingEndpoint(id), nil, nil)
}

// Browse walks the public marketplace feed. Pages are 1-based.
func (c *Client) Browse(ctx context.Context, page, pageSize int) (*BrowsePage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	var result BrowsePage
	if err := c.do(ctx, http.MethodGet, BrowseEndpoint+"?"+query.Encode(), nil, &result); err != nil {
		return nil, err
	}
	if err := ValidateStruct(result); err != nil {
		return nil, schemaErr(err)
	}
	for _, listing := range result.Listings {
		if err := ValidateStruct(listing); err != nil {
			return nil, schemaErr(err)
		}
	}
	return &result, nil
}

// MyListings returns every listing a seller owns, sold and closed included.
func (c *Client) MyListings(ctx context.Context, sellerID string) ([]Listing, error) {
	var listings []Listing
	if err := c.do(ctx, http.MethodGet, UserListingsEndpoint(sellerID), nil, &listings); err != nil {
		return nil, err
	}
	for _, listing := range listings {
		if err := ValidateStruct(listing); err != nil {
			return nil, schemaErr(err)
		}
	}
	return listings, nil
}

func (c *Client) SubmitTender(ctx context.Context, req SubmitTenderRequest) (*Tender, error) {
	var tender Tender
	if err := c.do(ctx, http.MethodPost, SubmitTenderEndpoint, req, &tender); err != nil {
		return nil, err
	}
	if err := ValidateStruct(tender); err != nil {
		return nil, schemaErr(err)
	}
	return &tender, nil
}

func (c *Client) ListingTenders(ctx context.Context, listingID string) ([]Tender, error) {
	return c.tenders(ctx, ListingTendersEndpoint(listingID))
}

func (c *Client) BuyerTenders(ctx context.Context, buyerID string) ([]Tender, error) {
	return c.tenders(ctx, BuyerTendersEndpoint(buyerID))
}

func (c *Client) tenders(ctx context.Context, endpoint string) ([]Tender, error) {
	var tenders []Tender
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &tenders); err != nil {
		return nil, err
	}
	for _, tender := range tenders {
		if err := ValidateStruct(tender); err != nil {
			return nil, schemaErr(err)
		}
	}
	return tenders, nil
}

func (c *Client) AcceptTender(ctx context.Context, id string) (*Tender, error) {
	return c.tenderAction(ctx, AcceptTenderEndpoint(id))
}

func (c *Client) RejectTender(ctx context.Context, id string) (*Tender, error) {
	return c.tenderAction(ctx, RejectTenderEndpoint(id))
}

func (c *Client) tenderAction(ctx context.Context, endpoint string) (*Tender, error) {
	var tender Tender
	if err := c.do(ctx, http.MethodPut, endpoint, nil, &tender); err != nil {
		return nil, err
	}
	if err := ValidateStruct(tender); err != nil {
		return nil, schemaErr(err)
	}
	return &tender, nil
}

func (c *Client) Messages(ctx context.Context, userID string) ([]Message, error) {
	var messages []Message
	if err := c.do(ctx, http.MethodGet, UserMessagesEndpoint(userID), nil, &messages); err != nil {
		return nil, err
	}
	for _, message := range messages {
		if err := ValidateStruct(message); err != nil {
			return nil, schemaErr(err)
		}
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, senderID string, req SendMessageRequest) (*Message, error) {
	var message Message
	if err := c.do(ctx, http.MethodPost, UserMessagesEndpoint(senderID), req, &message); err != nil {
		return nil, err
	}
	if err := ValidateStruct(message); err != nil {
		return nil, schemaErr(err)
	}
	return &message, nil
}

func (c *Client) MarkMessageRead(ctx context.Context, userID, messageID string) error {
	return c.do(ctx, http.MethodPut, MessageReadEndpoint(userID, messageID), nil, nil)
}

func (c *Client) Notifications(ctx context.Context, userID string) ([]Notification, error) {
	var notifications []Notification
	if err := c.do(ctx, http.MethodGet, UserNotificationsEndpoint(userID), nil, &notifications); err != nil {
		return nil, err
	}
	for _, notification := range notifications {
		if err := ValidateStruct(notification); err != nil {
			return nil, schemaErr(err)
		}
	}
	return notifications, nil
}

// GetMenuSettings returns the navigation as filtered for the caller's role.
func (c *Client) GetMenuSettings(ctx context.Context) (*MenuSettings, error) {
	var settings MenuSettings
	if err := c.do(ctx, http.MethodGet, MenuSettingsEndpoint, nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetAdminMenuSettings returns the raw, unfiltered navigation document.
func (c *Client) GetAdminMenuSettings(ctx context.Context) (*MenuSettings, error) {
	var settings MenuSettings
	if err := c.do(ctx, http.MethodGet, AdminMenuEndpoint, nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) SaveAdminMenuSettings(ctx context.Context, settings MenuSettings) error {
	return c.do(ctx, http.MethodPost, AdminMenuEndpoint, settings, nil)
}

func (c *Client) GetCMSSettings(ctx context.Context) (*CMSSettings, error) {
	var settings CMSSettings
	if err := c.do(ctx, http.MethodGet, AdminCMSEndpoint, nil, &settings); err != nil {
		return nil, err
	}
	if err := ValidateStruct(settings); err != nil {
		return nil, schemaErr(err)
	}
	return &settings, nil
}

func (c *Client) UpdateCMSSettings(ctx context.Context, settings CMSSettings) error {
	return c.do(ctx, http.MethodPut, AdminCMSEndpoint, settings, nil)
}

// do runs one request against the backend and classifies what came back:
// transport failures, non-json answers and non-2xx statuses each map to
// their own error class so checks can report them precisely.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reqBuffer io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBuffer = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, reqBuffer)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		c.Logger.WithFields(logrus.Fields{
			"code":     err.Error(),
			"endpoint": endpoint,
		}).Error("Error in establishing connection to the host")
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		c.Logger.WithFields(logrus.Fields{
			"code":     err.Error(),
			"endpoint": endpoint,
		}).Error("Error reading cataloro response")
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	c.Logger.WithFields(logrus.Fields{
		"endpoint":   endpoint,
		"method":     method,
		"status":     res.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
		"bytes":      len(responseBody),
	}).Debug("cataloro response")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode}
		// best effort: fastapi style {"detail": "..."} bodies
		_ = json.Unmarshal(responseBody, apiErr)
		return apiErr
	}

	if !strings.Contains(res.Header.Get("Content-Type"), "application/json") {
		c.Logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"details":  res.Header.Get("Content-Type"),
		}).Error("cataloro response content type is not application/json")
		return ErrContentType
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		c.Logger.WithFields(logrus.Fields{
			"code":         err.Error(),
			"all_response": string(responseBody),
			"endpoint":     endpoint,
		}).Info("cataloro response did not decode")
		return schemaErr(err)
	}
	return nil
}
