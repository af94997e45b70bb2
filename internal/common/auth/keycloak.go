// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpclient "iiot-site/internal/common/http"
)

// KeycloakClient validates bearer tokens through the realm's introspection endpoint.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	http         *httpclient.Client
}

// Introspection is the subset of RFC 7662 plus Keycloak role claims we read.
type Introspection struct {
	Active      bool   `json:"active"`
	Subject     string `json:"sub"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	ClientID    string `json:"client_id"`
	ExpiresAt   int64  `json:"exp"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	ResourceAccess map[string]struct {
		Roles []string `json:"roles"`
	} `json:"resource_access"`
}

// HasRole reports whether role is granted at realm level or on any client.
func (i *Introspection) HasRole(role string) bool {
	for _, r := range i.RealmAccess.Roles {
		if r == role {
			return true
		}
	}
	for _, access := range i.ResourceAccess {
		for _, r := range access.Roles {
			if r == role {
				return true
			}
		}
	}
	return false
}

func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         httpclient.NewClient(10 * time.Second),
	}
}

// Introspect asks Keycloak whether token is active and which roles it carries.
func (k *KeycloakClient) Introspect(ctx context.Context, token string) (*Introspection, error) {
	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", k.baseURL, url.PathEscape(k.realm))

	form := url.Values{}
	form.Set("token", token)
	form.Set("client_id", k.clientID)
	form.Set("client_secret", k.clientSecret)

	var out Introspection
	err := k.http.DoJSON(ctx, http.MethodPost, endpoint,
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		strings.NewReader(form.Encode()), &out)
	if err != nil {
		return nil, fmt.Errorf("keycloak introspection failed: %w", err)
	}
	return &out, nil
}
