package database

import (
	"testing"
	"time"

	"otp-auth/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	pc, err := poolConfig(utils.DatabaseConfig{
		Host:     "db.internal",
		Port:     "6543",
		Name:     "otp",
		User:     "svc",
		Password: "p@ss word'",
		SSLMode:  "require",
		MaxConns: 8,
	})
	require.NoError(t, err)

	cc := pc.ConnConfig
	assert.Equal(t, "db.internal", cc.Host)
	assert.Equal(t, uint16(6543), cc.Port)
	assert.Equal(t, "otp", cc.Database)
	assert.Equal(t, "svc", cc.User)
	assert.Equal(t, "p@ss word'", cc.Password)
	assert.NotNil(t, cc.TLSConfig)
	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, 5*time.Second, cc.ConnectTimeout)
}

func TestPoolConfig_MinConnsNeverExceedsMax(t *testing.T) {
	pc, err := poolConfig(utils.DatabaseConfig{Host: "localhost", Port: "5432", Name: "otp", SSLMode: "disable", MaxConns: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(1), pc.MinConns)
	assert.Nil(t, pc.ConnConfig.TLSConfig)
}

func TestPoolConfig_RejectsBadSSLMode(t *testing.T) {
	_, err := poolConfig(utils.DatabaseConfig{Host: "localhost", Port: "5432", Name: "otp", SSLMode: "sometimes", MaxConns: 1})
	assert.Error(t, err)
}
