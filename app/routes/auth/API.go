package auth

import (
	"time"

	"classfund/app/config"
	"classfund/app/database"
	"classfund/app/flash"
	"classfund/app/models"

	"github.com/gofiber/fiber/v2"
)

func ShowLoginPage(c *fiber.Ctx) error {
	if tokenString := c.Cookies(CookieName); tokenString != "" {
		if _, err := ValidateJWT(tokenString); err == nil {
			return c.Redirect("/dashboard")
		}
	}
	return c.Render("auth/login", fiber.Map{
		"Title":    "Login - Class Fund Manager",
		"Messages": flash.Pop(c),
		"Next":     c.Query("next"),
	}, "")
}

// LoginHandler authenticates the posted credentials and sets the JWT
// cookie. Failed logins re-render the form with an inline error.
func LoginHandler(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	user, err := database.GetUserByEmail(config.GetDB(), email)
	if err != nil || !database.CheckPasswordHash(password, user.Password) {
		return c.Status(fiber.StatusUnauthorized).Render("auth/login", fiber.Map{
			"Title": "Login - Class Fund Manager",
			"Error": "Invalid email or password. Please try again.",
			"Email": email,
		}, "")
	}

	token, err := GenerateJWT(user.ID, user.Email, string(user.Role))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to generate token")
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	flash.Success(c, "Welcome back, "+user.FullName()+"!")
	if next := c.FormValue("next"); next != "" && next[0] == '/' {
		return c.Redirect(next)
	}
	if user.IsTreasurer() {
		return c.Redirect("/treasurer")
	}
	return c.Redirect("/dashboard")
}

// LogoutHandler clears the JWT cookie. POST only; Fiber answers GET with
// a 405 because only the POST route is registered.
func LogoutHandler(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	flash.Info(c, "You have been logged out.")
	return c.Redirect("/auth/login")
}

func ShowProfilePage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return c.Render("auth/profile", fiber.Map{
		"Title":       "Profile - Class Fund Manager",
		"CurrentPage": "profile",
		"Messages":    flash.Pop(c),
		"user":        user,
	})
}

func ChangePasswordHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	current := c.FormValue("current_password")
	newPassword := c.FormValue("new_password")

	if !database.CheckPasswordHash(current, user.Password) {
		flash.Error(c, "Current password is incorrect.")
		return c.Redirect("/auth/profile")
	}
	if len(newPassword) < 8 {
		flash.Error(c, "New password must be at least 8 characters long.")
		return c.Redirect("/auth/profile")
	}

	hashed, err := database.HashPassword(newPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to hash password")
	}
	if err := database.UpdateUserPassword(config.GetDB(), user.ID, hashed); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to update password")
	}

	flash.Success(c, "Your password was updated successfully.")
	return c.Redirect("/auth/profile")
}

// UpdatePreferencesHandler toggles the hide-fund-balance preference.
func UpdatePreferencesHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	hide := c.FormValue("hide_fund_balance") == "on"
	if err := database.SetHideFundBalance(config.GetDB(), user.ID, hide); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to update preferences")
	}
	flash.Success(c, "Preferences saved.")
	return c.Redirect("/auth/profile")
}
