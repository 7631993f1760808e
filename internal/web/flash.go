package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookie  = "inventory_flash"
	flashMaxAge  = 60
	flashPending = "flash.pending"

	levelSuccess = "success"
	levelError   = "error"
)

type Flash struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func addFlash(c *gin.Context, level, text string) {
	c.Set(flashPending, append(pendingFlashes(c), Flash{Level: level, Text: text}))
}

func pendingFlashes(c *gin.Context) []Flash {
	v, ok := c.Get(flashPending)
	if !ok {
		return nil
	}
	flashes, _ := v.([]Flash)
	return flashes
}

// redirect stores the pending flashes in a cookie so that the next rendered
// page can show them.
func redirect(c *gin.Context, location string) {
	flashes := append(storedFlashes(c), pendingFlashes(c)...)
	if len(flashes) > 0 {
		payload, _ := json.Marshal(flashes)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(payload), flashMaxAge, "/", "", false, true)
	}
	c.Redirect(http.StatusSeeOther, location)
}

// takeFlashes returns every flash for the current render and clears the cookie.
func takeFlashes(c *gin.Context) []Flash {
	stored := storedFlashes(c)
	if stored != nil {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	}
	return append(stored, pendingFlashes(c)...)
}

func storedFlashes(c *gin.Context) []Flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(payload, &flashes); err != nil {
		return nil
	}
	return flashes
}
