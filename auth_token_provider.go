/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"crypto/sha256"
	"encoding/hex"
	"github.com/pkg/errors"
	"strconv"
	"strings"
)

// implAuthTokenProvider keeps only sha256 hashes of the configured tokens.
type implAuthTokenProvider struct {
	allowed map[string]AuthInfo

	Tokens []string `value:"auth.tokens,default="`
}

// AuthTokenProvider authenticates static bearer tokens from the auth.tokens property.
func AuthTokenProvider() Authenticator {
	return &implAuthTokenProvider{allowed: make(map[string]AuthInfo)}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (t *implAuthTokenProvider) PostConstruct() error {

	// rebuilt on every context start, a reload must drop revoked tokens
	t.allowed = make(map[string]AuthInfo, len(t.Tokens))

	for i, token := range t.Tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if strings.ContainsAny(token, ", \t") {
			return errors.Errorf("auth token on position %d must not contain comma or whitespace", i)
		}
		hashed := hashToken(token)
		t.allowed[hashed] = AuthInfo{
			HashedToken: hashed,
			Subject:     "token-" + hashed[:12],
		}
	}

	return nil
}

func (t *implAuthTokenProvider) Authenticate(token string) (AuthInfo, error) {
	hashed := hashToken(token)
	if info, ok := t.allowed[hashed]; ok {
		return info, nil
	}
	return AuthInfo{}, ErrUnauthorized
}

func (t *implAuthTokenProvider) BeanName() string {
	return "auth_token_provider"
}

func (t *implAuthTokenProvider) GetStats(cb func(name, value string) bool) error {
	return emitStats(cb, "tokens", strconv.Itoa(len(t.allowed)))
}
