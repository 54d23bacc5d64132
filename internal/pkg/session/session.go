package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/didierkasongo/ndaku/internal/pkg/cache"
	"github.com/didierkasongo/ndaku/internal/pkg/env"
)

// Sessions live on Redis DB 1; the cache and counters use DB 0.
const sessionRedisDB = 1

const sessionCookie = "ndaku_session"

// sessionTTL bounds how long a subscriber stays signed in without activity.
const sessionTTL = 24 * time.Hour

var sessionStore *session.Store

// NewSessionStore builds the session store on the same Redis instance as the
// cache client, reusing its address and password.
func NewSessionStore() *session.Store {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient := cache.GetClient(); cacheClient != nil {
		if h, p, err := net.SplitHostPort(cacheClient.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: sessionRedisDB,
		Reset:    false,
	})

	sessionStore = session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		Expiration:     sessionTTL,
		KeyLookup:      "cookie:" + sessionCookie,
	})

	return sessionStore
}

// GetSessionStore returns the store built by NewSessionStore.
func GetSessionStore() *session.Store {
	return sessionStore
}

// SetSessionValue stores a key-value pair in the visitor's own session.
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}

	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue returns the string stored under key in the visitor's
// session, empty when unset or the store is not ready.
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}

	if strValue, ok := sess.Get(key).(string); ok {
		return strValue
	}
	return ""
}
