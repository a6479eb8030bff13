package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/aussiebroadwan/zuul/internal/web/domain"
	"github.com/aussiebroadwan/zuul/internal/web/metrics"
	"github.com/aussiebroadwan/zuul/internal/web/session"
	"github.com/aussiebroadwan/zuul/pkg/slogx"
	"github.com/aussiebroadwan/zuul/pkg/zuul"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// DefaultUsermapBaseURL is the production Usermap API.
const DefaultUsermapBaseURL = "https://kosapi.fit.cvut.cz/usermap/v1"

// ProfileClient reads people from the Usermap API on behalf of the logged
// in user, refreshing the access token once when it has expired.
type ProfileClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenStore
	Metrics    *metrics.Metrics
}

// NewProfileClient returns a ProfileClient for baseURL.
func NewProfileClient(baseURL string, tokens TokenStore, m *metrics.Metrics) *ProfileClient {
	if baseURL == "" {
		baseURL = DefaultUsermapBaseURL
	}
	return &ProfileClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Tokens:  tokens,
		Metrics: m,
	}
}

// FetchProfile returns the Usermap record of username as indented JSON.
func (c *ProfileClient) FetchProfile(ctx context.Context, sess *session.Session, user domain.UserIdentity, username string) (string, error) {
	log := slogx.FromContext(ctx)

	pair, err := c.Tokens.Get(ctx, sess, user)
	if err != nil {
		return "", err
	}
	if pair == nil {
		c.Metrics.ObserveProfile(metrics.OutcomeFailure)
		return "", ErrNoToken
	}

	path := "/people/" + url.PathEscape(username)
	status, body, err := c.get(ctx, path, *pair)
	if err != nil {
		c.Metrics.ObserveProfile(metrics.OutcomeFailure)
		return "", err
	}

	if hasTokenExpired(status, body) {
		log.Debug("usermap rejected access token, refreshing", "user", user.ID())

		refreshed, err := c.Tokens.Refresh(ctx, sess, user)
		if err != nil {
			c.Metrics.ObserveProfile(metrics.OutcomeFailure)
			return "", err
		}

		c.Metrics.ObserveProfileRetry()
		status, body, err = c.get(ctx, path, refreshed)
		if err != nil {
			c.Metrics.ObserveProfile(metrics.OutcomeFailure)
			return "", err
		}
	}

	if status != http.StatusOK {
		c.Metrics.ObserveProfile(metrics.OutcomeFailure)
		log.Warn("usermap returned unexpected status", "status", status)
		return "", &UnexpectedResponseError{StatusCode: status}
	}

	out, err := prettyJSON(body)
	if err != nil {
		c.Metrics.ObserveProfile(metrics.OutcomeFailure)
		return "", &InvalidResponseBodyError{Err: err}
	}

	c.Metrics.ObserveProfile(metrics.OutcomeSuccess)
	return out, nil
}

func (c *ProfileClient) get(ctx context.Context, path string, pair domain.TokenPair) (int, []byte, error) {
	endpoint := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, &zuul.TransportError{Op: "usermap", URL: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	tok := &oauth2.Token{AccessToken: pair.AccessToken(), TokenType: "Bearer"}
	tok.SetAuthHeader(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, &zuul.TransportError{Op: "usermap", URL: endpoint, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &zuul.TransportError{Op: "usermap", URL: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return resp.StatusCode, body, nil
}

// hasTokenExpired reports whether a response is the resource server telling
// us the access token is no longer valid (RFC 6750 section 3.1).
func hasTokenExpired(status int, body []byte) bool {
	if status != http.StatusUnauthorized || !gjson.ValidBytes(body) {
		return false
	}
	return gjson.GetBytes(body, "error").String() == zuul.ErrorCodeInvalidToken
}

// prettyJSON re-indents body with four spaces. Key order, number literals
// and string bytes are kept as the server sent them, except that \uXXXX
// escapes of non-ASCII characters are written out as UTF-8.
func prettyJSON(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return "", errors.New("response is not a single JSON value")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "    "); err != nil {
		return "", err
	}
	return string(unescapeUnicode(buf.Bytes())), nil
}

// unescapeUnicode replaces \uXXXX escapes of code points outside ASCII,
// including surrogate pairs, with their UTF-8 encoding. ASCII escapes such
// as \u0022 must stay escaped to keep the document valid. b must be valid
// JSON, where a backslash only appears inside strings.
func unescapeUnicode(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u`)) {
		return b
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' {
			out = append(out, b[i])
			continue
		}
		if r, n := decodeEscape(b[i:]); n > 0 {
			out = utf8.AppendRune(out, r)
			i += n - 1
			continue
		}
		// Copy the escape pair verbatim so an escaped backslash is not
		// taken as the start of the next escape.
		out = append(out, b[i])
		if i+1 < len(b) {
			out = append(out, b[i+1])
			i++
		}
	}
	return out
}

// decodeEscape decodes a non-ASCII \uXXXX escape, or a surrogate pair of
// two, at the start of b. It returns n == 0 when the escape must be kept.
func decodeEscape(b []byte) (rune, int) {
	r, ok := hex4(b)
	if !ok || r < utf8.RuneSelf {
		return 0, 0
	}
	if !utf16.IsSurrogate(r) {
		return r, 6
	}
	lo, ok := hex4(b[6:])
	if !ok {
		return 0, 0
	}
	if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
		return pair, 12
	}
	return 0, 0
}

// hex4 parses a single \uXXXX escape at the start of b.
func hex4(b []byte) (rune, bool) {
	if len(b) < 6 || b[0] != '\\' || b[1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(string(b[2:6]), 16, 16)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
