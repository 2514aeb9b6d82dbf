// Package browser extracts the web app's Cognito session from local browsers.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"
)

// SupportedBrowser represents a supported browser type
type SupportedBrowser string

const (
	BrowserAuto     SupportedBrowser = "auto"
	BrowserChrome   SupportedBrowser = "chrome"
	BrowserChromium SupportedBrowser = "chromium"
	BrowserFirefox  SupportedBrowser = "firefox"
	BrowserEdge     SupportedBrowser = "edge"
	BrowserOpera    SupportedBrowser = "opera"
)

// cookiePrefix is the namespace Amplify uses for Cognito token cookies:
// CognitoIdentityServiceProvider.<clientId>.<username>.idToken and
// CognitoIdentityServiceProvider.<clientId>.LastAuthUser
const cookiePrefix = "CognitoIdentityServiceProvider."

const lastAuthUser = "LastAuthUser"

// AllSupportedBrowsers returns a list of all supported browsers
func AllSupportedBrowsers() []SupportedBrowser {
	return []SupportedBrowser{
		BrowserChrome,
		BrowserChromium,
		BrowserFirefox,
		BrowserEdge,
		BrowserOpera,
	}
}

// String returns the string representation of the browser
func (b SupportedBrowser) String() string {
	return string(b)
}

// ParseBrowser parses a browser string into a SupportedBrowser
func ParseBrowser(s string) (SupportedBrowser, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return BrowserAuto, nil
	case "chrome", "google-chrome":
		return BrowserChrome, nil
	case "chromium":
		return BrowserChromium, nil
	case "firefox", "mozilla", "mozilla-firefox":
		return BrowserFirefox, nil
	case "edge", "microsoft-edge", "msedge":
		return BrowserEdge, nil
	case "opera":
		return BrowserOpera, nil
	default:
		return "", fmt.Errorf("unsupported browser: %s. Supported: chrome, chromium, firefox, edge, opera", s)
	}
}

// Tokens are the Cognito tokens of one signed-in web user
type Tokens struct {
	Username     string
	IDToken      string
	AccessToken  string
	RefreshToken string
}

// Query selects which session to extract
type Query struct {
	// ClientID is the Cognito app client the web app signs in with
	ClientID string
	// Domain optionally restricts cookies to the web app's host
	Domain string
}

// ExtractResult contains the result of token extraction
type ExtractResult struct {
	Tokens      Tokens
	BrowserName string
}

// ExtractCognitoTokens finds the web app's signed-in session in a browser
func ExtractCognitoTokens(ctx context.Context, browser SupportedBrowser, q Query) (*ExtractResult, error) {
	if strings.TrimSpace(q.ClientID) == "" {
		return nil, fmt.Errorf("a Cognito client id is required to locate the session")
	}
	if browser == BrowserAuto {
		return extractFromAllBrowsers(ctx, q)
	}
	return extractFromBrowser(ctx, browser, q)
}

// extractFromAllBrowsers tries each supported browser in order of popularity
func extractFromAllBrowsers(ctx context.Context, q Query) (*ExtractResult, error) {
	browsers := []SupportedBrowser{
		BrowserChrome,
		BrowserFirefox,
		BrowserEdge,
		BrowserChromium,
		BrowserOpera,
	}

	var lastErr error
	for _, browser := range browsers {
		result, err := extractFromBrowser(ctx, browser, q)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("could not find a signed-in session in any browser: %w", lastErr)
	}
	return nil, fmt.Errorf("could not find a signed-in session in any supported browser")
}

// extractFromBrowser tries all profiles of one browser until a session is found
func extractFromBrowser(ctx context.Context, browser SupportedBrowser, q Query) (*ExtractResult, error) {
	stores := kooky.FindAllCookieStores(ctx)

	var matching []kooky.CookieStore
	for _, store := range stores {
		if matchesBrowser(store.Browser(), browser) {
			matching = append(matching, store)
		} else {
			store.Close()
		}
	}
	defer func() {
		for _, s := range matching {
			s.Close()
		}
	}()

	if len(matching) == 0 {
		return nil, fmt.Errorf("browser %s not found or no cookie store available", browser)
	}

	var lastErr error
	for _, store := range matching {
		result, err := extractFromStore(ctx, store, q)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// matchesBrowser checks if a browser name matches the target browser
func matchesBrowser(browserName string, target SupportedBrowser) bool {
	browserName = strings.ToLower(browserName)

	switch target {
	case BrowserChrome:
		return strings.Contains(browserName, "chrome") && !strings.Contains(browserName, "chromium")
	case BrowserChromium:
		return strings.Contains(browserName, "chromium")
	case BrowserFirefox:
		return strings.Contains(browserName, "firefox")
	case BrowserEdge:
		return strings.Contains(browserName, "edge")
	case BrowserOpera:
		return strings.Contains(browserName, "opera")
	default:
		return false
	}
}

// extractFromStore reads the Cognito cookies of one browser profile
func extractFromStore(ctx context.Context, store kooky.CookieStore, q Query) (*ExtractResult, error) {
	filters := []kooky.Filter{
		kooky.Valid,
		kooky.NameHasPrefix(cookiePrefix + q.ClientID + "."),
	}
	if q.Domain != "" {
		filters = append(filters, kooky.DomainContains(q.Domain))
	}

	var cookies []*kooky.Cookie
	for cookie := range store.TraverseCookies(filters...).OnlyCookies() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cookies = append(cookies, cookie)
	}

	displayName := store.Browser()
	if profile := store.Profile(); profile != "" {
		displayName = fmt.Sprintf("%s (profile: %s)", displayName, profile)
	}

	tokens, err := matchTokens(q.ClientID, cookies)
	if err != nil {
		return nil, fmt.Errorf("%w in %s", err, displayName)
	}
	return &ExtractResult{Tokens: tokens, BrowserName: displayName}, nil
}

// matchTokens groups token cookies by user and picks the last signed-in one
func matchTokens(clientID string, cookies []*kooky.Cookie) (Tokens, error) {
	prefix := cookiePrefix + clientID + "."
	users := make(map[string]*Tokens)
	var last string

	for _, cookie := range cookies {
		rest, ok := strings.CutPrefix(cookie.Name, prefix)
		if !ok {
			continue
		}
		if rest == lastAuthUser {
			last = cookie.Value
			continue
		}

		// usernames may contain dots, the token kind is the last segment
		i := strings.LastIndex(rest, ".")
		if i <= 0 {
			continue
		}
		user, kind := rest[:i], rest[i+1:]
		t := users[user]
		if t == nil {
			t = &Tokens{Username: user}
			users[user] = t
		}
		switch kind {
		case "idToken":
			t.IDToken = cookie.Value
		case "accessToken":
			t.AccessToken = cookie.Value
		case "refreshToken":
			t.RefreshToken = cookie.Value
		}
	}

	if t := users[last]; t != nil && t.IDToken != "" {
		return *t, nil
	}
	if last == "" {
		for _, t := range users {
			if t.IDToken != "" {
				return *t, nil
			}
		}
	}
	return Tokens{}, fmt.Errorf("no Cognito idToken cookie found for client %s. Please ensure you are signed in to the web app", clientID)
}

// ListAvailableBrowsers returns a list of browsers that have cookie stores
func ListAvailableBrowsers() []string {
	ctx := context.Background()
	stores := kooky.FindAllCookieStores(ctx)
	var browsers []string

	seen := make(map[string]bool)
	for _, store := range stores {
		name := store.Browser()
		if !seen[name] {
			browsers = append(browsers, name)
			seen[name] = true
		}
		store.Close()
	}

	return browsers
}
