package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RefusesEmptySecret(t *testing.T) {
	unkeyed := &TokenIssuer{TTL: time.Hour}
	_, err := unkeyed.Issue(uuid.New(), PurposeRecovery)
	assert.ErrorIs(t, err, ErrNoTokenSecret)

	keyed := &TokenIssuer{Secret: []byte("test-secret"), TTL: time.Hour}
	tok, err := keyed.Issue(uuid.New(), PurposeRecovery)
	require.NoError(t, err)

	_, err = unkeyed.Parse(tok, PurposeRecovery)
	assert.ErrorIs(t, err, errTokenInvalid)
	_, err = keyed.Parse(tok, PurposeRecovery)
	assert.NoError(t, err)
}
