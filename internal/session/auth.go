package session

import (
	"fmt"
	"net/url"

	"github.com/dghubble/oauth1"
)

// E*TRADE OAuth1 endpoints. The authorize step goes through the retail
// site, not the API host.
const (
	requestTokenURL = "https://api.etrade.com/oauth/request_token"
	accessTokenURL  = "https://api.etrade.com/oauth/access_token"
	authorizeURL    = "https://us.etrade.com/e/t/etws/authorize"
)

// oauthConfig builds the three-legged flow config. E*TRADE requires the
// out-of-band callback; the user copies a verifier code from the browser.
func oauthConfig(consumerKey, consumerSecret string) *oauth1.Config {
	return &oauth1.Config{
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		CallbackURL:    "oob",
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: requestTokenURL,
			AuthorizeURL:    authorizeURL,
			AccessTokenURL:  accessTokenURL,
		},
	}
}

// RequestToken obtains a temporary request token to start the flow.
func RequestToken(consumerKey, consumerSecret string) (token, secret string, err error) {
	token, secret, err = oauthConfig(consumerKey, consumerSecret).RequestToken()
	if err != nil {
		return "", "", fmt.Errorf("failed to get request token: %w", err)
	}
	return token, secret, nil
}

// AuthorizeURL returns the browser URL where the user grants access.
// E*TRADE uses key/token query params instead of the standard oauth_token.
func AuthorizeURL(consumerKey, requestToken string) string {
	query := url.Values{}
	query.Set("key", consumerKey)
	query.Set("token", requestToken)
	return authorizeURL + "?" + query.Encode()
}

// AccessToken exchanges the verifier code for long-lived access tokens.
func AccessToken(consumerKey, consumerSecret, requestToken, requestSecret, verifier string) (token, secret string, err error) {
	token, secret, err = oauthConfig(consumerKey, consumerSecret).AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return "", "", fmt.Errorf("failed to exchange verifier: %w", err)
	}
	return token, secret, nil
}
