package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnv lets deployment secrets live outside the config file. Only set
// variables override; an empty variable is ignored.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("BUSWATCH_TG_TOKEN")); v != "" {
		c.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("BUSWATCH_TG_CHAT")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
	if v := strings.TrimSpace(os.Getenv("BUSWATCH_FEED_USER")); v != "" {
		c.Feed.Username = v
	}
	if v := strings.TrimSpace(os.Getenv("BUSWATCH_FEED_PASS")); v != "" {
		c.Feed.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("BUSWATCH_FEED_ENDPOINT")); v != "" {
		c.Feed.Endpoint = v
	}
}
