// Package flash implements one-shot messages carried across a redirect in
// a short-lived cookie, mirroring the usual post/redirect/get flow of the
// server-rendered pages.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const cookieName = "flash"

type Message struct {
	Level string `json:"level"` // success | error | info
	Text  string `json:"text"`
}

func set(c *fiber.Ctx, level, text string) {
	msgs := peek(c)
	msgs = append(msgs, Message{Level: level, Text: text})
	b, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     cookieName,
		Value:    base64.URLEncoding.EncodeToString(b),
		Expires:  time.Now().Add(5 * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
}

func Success(c *fiber.Ctx, text string) { set(c, "success", text) }
func Error(c *fiber.Ctx, text string)   { set(c, "error", text) }
func Info(c *fiber.Ctx, text string)    { set(c, "info", text) }

func peek(c *fiber.Ctx) []Message {
	raw := c.Cookies(cookieName)
	// Messages queued earlier in this same request live on the response,
	// not the request; prefer those so consecutive calls accumulate.
	var rc fasthttp.Cookie
	rc.SetKey(cookieName)
	if c.Response().Header.Cookie(&rc) {
		raw = string(rc.Value())
	}
	if raw == "" {
		return nil
	}
	b, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil
	}
	return msgs
}

// Pop returns the queued messages and clears the cookie. Call once per
// rendered page.
func Pop(c *fiber.Ctx) []Message {
	msgs := peek(c)
	if msgs != nil {
		c.Cookie(&fiber.Cookie{
			Name:     cookieName,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Path:     "/",
		})
	}
	return msgs
}
