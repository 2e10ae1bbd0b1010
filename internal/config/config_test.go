package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsAdmin(t *testing.T) {
	req := require.New(t)
	cfg := &Config{AdminEmails: []string{"boss@skelectrical.lk", "ops@skelectrical.lk"}}

	req.True(cfg.IsAdmin("boss@skelectrical.lk"))
	req.True(cfg.IsAdmin("BOSS@skelectrical.lk"))
	req.False(cfg.IsAdmin("intruder@example.com"))
	req.False(cfg.IsAdmin(""))
}

func TestSplitList(t *testing.T) {
	req := require.New(t)

	req.Nil(splitList(""))
	req.Equal([]string{"a@x.lk"}, splitList("a@x.lk"))
	req.Equal([]string{"a@x.lk", "b@x.lk"}, splitList(" a@x.lk , b@x.lk ,, "))
}

func TestLoad_PoolPolicyFallback(t *testing.T) {
	req := require.New(t)

	t.Setenv("CHAT_POOL_POLICY", "round-robin")
	cfg := Load()
	req.Equal(PoolBroadcast, cfg.PoolPolicy)

	t.Setenv("CHAT_POOL_POLICY", "claim")
	cfg = Load()
	req.Equal(PoolClaim, cfg.PoolPolicy)
}

func TestLoad_EnvOverrides(t *testing.T) {
	req := require.New(t)

	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("DATABASE_URL", "postgres://u:p@db.internal:5432/chat")
	t.Setenv("DB_MAX_CONNECTIONS", "7")
	t.Setenv("ADMIN_EMAILS", "boss@skelectrical.lk")

	cfg := Load()
	req.Equal(":9999", cfg.ServerAddr)
	req.Equal("postgres://u:p@db.internal:5432/chat", cfg.DatabaseURL())
	req.Equal(7, cfg.DBMaxConnections())
	req.True(cfg.IsAdmin("boss@skelectrical.lk"))
}
