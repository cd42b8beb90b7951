package auth

import (
	"errors"
	"strings"
	"time"

	"metadata-serverless/internal/observability"
	"metadata-serverless/internal/token"
)

const (
	policyVersion = "2012-10-17"
	invokeAction  = "execute-api:Invoke"
	effectAllow   = "Allow"
)

// ErrUnauthorized is the only error the Authorizer returns. The cause of a
// rejection is logged, never exposed to the caller.
var ErrUnauthorized = errors.New("Unauthorized")

type PolicyStatement struct {
	Action   string `json:"Action"`
	Effect   string `json:"Effect"`
	Resource string `json:"Resource"`
}

type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

// Decision is the allow response handed back to the access-control
// infrastructure. The document shape is a compatibility contract and must
// not change.
type Decision struct {
	PrincipalID    string         `json:"principalId"`
	PolicyDocument PolicyDocument `json:"policyDocument"`
}

// Authorizer evaluates a bearer credential against the configured key pair
// and audience and produces an access decision for a target resource.
type Authorizer struct {
	codec  *token.Codec
	logger *observability.Logger
	now    func() time.Time
}

func NewAuthorizer(codec *token.Codec, logger *observability.Logger) *Authorizer {
	return &Authorizer{
		codec:  codec,
		logger: logger,
		now:    time.Now,
	}
}

// Authorize runs the rejection ladder in order: credential present, Bearer
// scheme, signature and audience valid, expiry in the future. Each step is
// terminal and every rejection looks identical to the caller.
func (a *Authorizer) Authorize(credential, resource string) (Decision, error) {
	if credential == "" {
		a.reject(resource, "missing credential", nil)
		return Decision{}, ErrUnauthorized
	}

	scheme, tokenString, found := strings.Cut(credential, " ")
	if !found || scheme != "Bearer" {
		a.reject(resource, "credential is not a bearer token", nil)
		return Decision{}, ErrUnauthorized
	}

	claims, err := a.codec.Verify(tokenString)
	if err != nil {
		a.reject(resource, "token verification failed", err)
		return Decision{}, ErrUnauthorized
	}

	nowMillis := a.now().UnixMilli()
	if claims.Expires == 0 || claims.Expires <= nowMillis {
		a.reject(resource, "token expired", nil)
		return Decision{}, ErrUnauthorized
	}

	return Decision{
		PrincipalID: claims.PrincipalID,
		PolicyDocument: PolicyDocument{
			Version: policyVersion,
			Statement: []PolicyStatement{{
				Action:   invokeAction,
				Effect:   effectAllow,
				Resource: resource,
			}},
		},
	}, nil
}

func (a *Authorizer) reject(resource, reason string, cause error) {
	fields := map[string]any{
		"resource": resource,
		"reason":   reason,
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	a.logger.Error("authorize_rejected", fields)
}
