package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, msgs []Message) string {
	t.Helper()
	b, err := json.Marshal(msgs)
	require.NoError(t, err)
	return base64.URLEncoding.EncodeToString(b)
}

func TestSuccessSetsCookie(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		Success(c, "Saved.")
		return c.Redirect("/next")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	var value string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "flash" {
			value = cookie.Value
		}
	}
	require.NotEmpty(t, value)

	b, err := base64.URLEncoding.DecodeString(value)
	require.NoError(t, err)
	var msgs []Message
	require.NoError(t, json.Unmarshal(b, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "success", msgs[0].Level)
	assert.Equal(t, "Saved.", msgs[0].Text)
}

func TestPopReturnsAndClears(t *testing.T) {
	app := fiber.New()
	var got []Message
	app.Get("/", func(c *fiber.Ctx) error {
		got = Pop(c)
		return c.SendString("ok")
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "flash="+encode(t, []Message{
		{Level: "error", Text: "Access denied."},
		{Level: "info", Text: "Try again."},
	}))

	resp, err := app.Test(req)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "error", got[0].Level)
	assert.Equal(t, "Try again.", got[1].Text)

	// The response must expire the cookie.
	cleared := false
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "flash" && cookie.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestPopWithoutCookie(t *testing.T) {
	app := fiber.New()
	var got []Message
	app.Get("/", func(c *fiber.Ctx) error {
		got = Pop(c)
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Nil(t, got)
	for _, cookie := range resp.Cookies() {
		assert.NotEqual(t, "flash", cookie.Name)
	}
}

func TestMessagesAccumulate(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		Error(c, "First.")
		Info(c, "Second.")
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	var value string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "flash" {
			value = cookie.Value
		}
	}
	require.NotEmpty(t, value)

	b, err := base64.URLEncoding.DecodeString(value)
	require.NoError(t, err)
	var msgs []Message
	require.NoError(t, json.Unmarshal(b, &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "First.", msgs[0].Text)
	assert.Equal(t, "info", msgs[1].Level)
}
