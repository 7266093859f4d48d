package pg

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// secretLength is the number of random bytes, a secret consists of.
const secretLength = 24

// An ApiKeyManager creates and verifies API keys, which are used to authorize HTTP requests.
type ApiKeyManager interface {
	// CreateApiKey creates an API key for a unique secret ID and returns the key together with its authorization.
	// The authorization is only returned once, since the store keeps a hash of the secret.
	CreateApiKey(ctx context.Context, secretId string) (ApiKey, string, error)
	// GetApiKey verifies an authorization and returns the related API key.
	GetApiKey(ctx context.Context, authorization string) (ApiKey, error)
}

type ApiKey struct {
	Id int32

	CreatedAt time.Time
	SecretId  string
}

// apiKeyEntity is used as internal representation of an API key.
type apiKeyEntity struct {
	id int32

	createdAt  time.Time
	secretId   string
	secretHash string
}

func (e apiKeyEntity) apiKey() ApiKey {
	return ApiKey{
		Id: e.id,

		CreatedAt: e.createdAt,
		SecretId:  e.secretId,
	}
}

func createApiKey(ctx *pgContext, secretId string) (ApiKey, string, error) {
	if secretId == "" {
		return ApiKey{}, "", errors.New("secret ID is empty")
	}
	if strings.Contains(secretId, ":") {
		return ApiKey{}, "", errors.New("secret ID must not contain a colon")
	}

	b := make([]byte, secretLength)
	if _, err := rand.Read(b); err != nil {
		return ApiKey{}, "", fmt.Errorf("failed to create secret: %v", err)
	}

	secret := base64.RawURLEncoding.EncodeToString(b)

	entity := apiKeyEntity{
		createdAt:  ctx.Time(),
		secretId:   secretId,
		secretHash: hashSecret(secret),
	}

	row := ctx.tx.QueryRow(ctx.txCtx, `
INSERT INTO api_key (
	created_at,
	secret_hash,
	secret_id
) VALUES (
	$1,
	$2,
	$3
) ON CONFLICT DO NOTHING RETURNING id
`,
		entity.createdAt,
		entity.secretHash,
		entity.secretId,
	)

	if err := row.Scan(&entity.id); err != nil {
		if err == pgx.ErrNoRows {
			return ApiKey{}, "", fmt.Errorf("secret ID %s already exists", secretId)
		} else {
			return ApiKey{}, "", fmt.Errorf("failed to insert API key: %v", err)
		}
	}

	authorization := base64.StdEncoding.EncodeToString([]byte(secretId + ":" + secret))

	return entity.apiKey(), authorization, nil
}

func getApiKey(ctx *pgContext, authorization string) (ApiKey, error) {
	if authorization == "" {
		return ApiKey{}, errors.New("authorization is empty")
	}

	b, err := base64.StdEncoding.DecodeString(authorization)
	if err != nil {
		return ApiKey{}, fmt.Errorf("failed to decode authorization: %v", err)
	}

	secretIdAndSecret := string(b)
	i := strings.LastIndex(secretIdAndSecret, ":")
	if i == -1 {
		return ApiKey{}, errors.New("failed to decode authorization: invalid format")
	}

	secretId := secretIdAndSecret[:i]
	secret := secretIdAndSecret[i+1:]

	row := ctx.tx.QueryRow(ctx.txCtx, `
SELECT
	id,

	created_at
FROM
	api_key
WHERE
	secret_id = $1 AND
	secret_hash = $2
`,
		secretId,
		hashSecret(secret),
	)

	var apiKey apiKeyEntity

	if err := row.Scan(
		&apiKey.id,

		&apiKey.createdAt,
	); err != nil {
		return ApiKey{}, err
	}

	apiKey.secretId = secretId

	return apiKey.apiKey(), nil
}

func hashSecret(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(hash[:])
}
