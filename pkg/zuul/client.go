package zuul

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Endpoint paths relative to the Identity Provider base URL.
const (
	AuthorizationPath = "/oauth/authorize"
	TokenPath         = "/oauth/oauth/token"
	TokenInfoPath     = "/api/v1/tokeninfo"
)

const (
	// DefaultBaseURL is the production Zuul instance.
	DefaultBaseURL = "https://auth.fit.cvut.cz"

	// ScopeTokenInfo grants access to the tokeninfo endpoint and is requested
	// when the caller does not ask for anything else.
	ScopeTokenInfo = "urn:zuul:oauth:oaas:tokeninfo"

	// ScopeSeparator joins scopes in the authorization request.
	ScopeSeparator = " "
)

// Config holds the client registration at the Identity Provider.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// HTTPClient is used for every outbound request. A client with a 10s
	// timeout is used when nil.
	HTTPClient *http.Client
}

// Client talks to a Zuul Identity Provider. It is safe for concurrent use.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	oauth oauth2.Config
}

// NewClient creates a Client for the given registration.
func NewClient(cfg Config) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}

	return &Client{
		BaseURL:    base,
		HTTPClient: httpClient,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + AuthorizationPath,
				TokenURL:  base + TokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{ScopeTokenInfo},
		},
	}
}

// ClientID returns the registered client identifier.
func (c *Client) ClientID() string { return c.oauth.ClientID }

// RedirectURI returns the registered callback URI.
func (c *Client) RedirectURI() string { return c.oauth.RedirectURL }
