package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateAndVerify(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	tokenString, err := manager.Create("admin")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	session, ok := manager.Verify(tokenString)
	require.True(t, ok)
	assert.Equal(t, "admin", session.Subject)
	assert.True(t, session.ExpiresAt.After(session.IssuedAt))
	assert.Equal(t, time.Hour, session.ExpiresAt.Sub(session.IssuedAt))
}

func TestManager_Create_EmptySubject(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	_, err := manager.Create("")
	assert.Error(t, err)
}

func TestManager_Verify_ExpiredToken(t *testing.T) {
	current := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	manager := NewManagerWithClock("test-secret", time.Hour, func() time.Time { return current })

	tokenString, err := manager.Create("admin")
	require.NoError(t, err)

	// До истечения срока токен валиден
	current = current.Add(59 * time.Minute)
	_, ok := manager.Verify(tokenString)
	assert.True(t, ok)

	// После истечения — нет
	current = current.Add(2 * time.Minute)
	_, ok = manager.Verify(tokenString)
	assert.False(t, ok)
}

func TestManager_Verify_TamperedSignature(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	tokenString, err := manager.Create("admin")
	require.NoError(t, err)

	// Портим один байт подписи (последний сегмент токена)
	parts := strings.Split(tokenString, ".")
	require.Len(t, parts, 3)
	signature := []byte(parts[2])
	if signature[0] == 'A' {
		signature[0] = 'B'
	} else {
		signature[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(signature)

	_, ok := manager.Verify(tampered)
	assert.False(t, ok)
}

func TestManager_Verify_WrongSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	tokenString, err := issuer.Create("admin")
	require.NoError(t, err)

	_, ok := verifier.Verify(tokenString)
	assert.False(t, ok)
}

func TestManager_Verify_MalformedToken(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	malformed := []string{"", "garbage", "a.b", "a.b.c.d", "....."}
	for _, tokenString := range malformed {
		_, ok := manager.Verify(tokenString)
		assert.False(t, ok, "expected %q to be rejected", tokenString)
	}
}

func TestManager_Verify_NeverPanics(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	assert.NotPanics(t, func() {
		manager.Verify(strings.Repeat(".", 100))
		manager.Verify("eyJhbGciOiJub25lIn0.e30.")
	})
}

func TestManager_TokensAreStateless(t *testing.T) {
	// Два менеджера с одним секретом взаимно проверяют токены:
	// процессы масштабируются без общего хранилища сессий
	managerA := NewManager("shared-secret", time.Hour)
	managerB := NewManager("shared-secret", time.Hour)

	tokenString, err := managerA.Create("driver-7")
	require.NoError(t, err)

	session, ok := managerB.Verify(tokenString)
	require.True(t, ok)
	assert.Equal(t, "driver-7", session.Subject)
}
