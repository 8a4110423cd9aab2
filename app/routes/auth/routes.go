package auth

import (
	"strings"

	"classfund/app/config"
	"classfund/app/database"
	"classfund/app/flash"
	"classfund/app/models"
	"classfund/app/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func SetupAuthRoutes(app *fiber.App) {
	auth := app.Group("/auth")

	auth.Get("/login", ShowLoginPage)
	auth.Post("/login", LoginHandler)
	auth.Post("/logout", LogoutHandler)

	auth.Use(RequireAuth)
	auth.Get("/profile", ShowProfilePage)
	auth.Post("/change-password", ChangePasswordHandler)
	auth.Post("/preferences", UpdatePreferencesHandler)
}

func isAPIRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/") || strings.Contains(c.Path(), "/api/")
}

// RequireAuth validates the JWT cookie and loads the fresh user row into
// Locals. Unauthenticated page requests are redirected to login; API
// requests get a 401.
func RequireAuth(c *fiber.Ctx) error {
	tokenString := c.Cookies(CookieName)
	if tokenString == "" {
		if auth := c.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if tokenString == "" {
		if isAPIRequest(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "No token found"})
		}
		return c.Redirect("/auth/login")
	}

	claims, err := ValidateJWT(tokenString)
	if err != nil {
		if isAPIRequest(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
		return c.Redirect("/auth/login")
	}

	// Load the user fresh so deactivated accounts and changed preferences
	// take effect immediately, not at token expiry.
	user, err := database.GetUserByID(config.GetDB(), claims.UserID)
	if err != nil {
		if isAPIRequest(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Account unavailable"})
		}
		return c.Redirect("/auth/login")
	}

	c.Locals("user", user)
	return c.Next()
}

// ResolveClass resolves the tenant SchoolClass for the current user once
// per request: treasurers get the class they manage, parents the class
// their children are enrolled in. A missing class resolves to nil and the
// views render empty results. Every downstream query is scoped by the
// resolved class id. This middleware is the single tenancy boundary.
func ResolveClass(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	db := config.GetDB()

	var class *models.SchoolClass
	var profiles []*models.StudentProfile

	if user.IsTreasurer() {
		sc, err := database.GetClassByTeacher(db, user.ID)
		if err == nil {
			class = sc
		} else if err != database.ErrNotFound {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to resolve class")
		}
	} else {
		all, err := database.GetProfilesByParent(db, user.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to resolve class")
		}
		if len(all) > 0 {
			sc, err := database.GetClassByID(db, all[0].SchoolClassID)
			if err == nil {
				class = sc
				for _, sp := range all {
					if sp.SchoolClassID == sc.ID {
						profiles = append(profiles, sp)
					}
				}
			}
		}
	}

	c.Locals("class", class)
	c.Locals("profiles", profiles)
	return c.Next()
}

// RequireTreasurer gates treasurer-only actions. Non-treasurers are sent
// back to their own dashboard with a flash message, never a hard 403 page;
// JSON endpoints get a 403.
func RequireTreasurer(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if user.IsTreasurer() {
		return c.Next()
	}
	if isAPIRequest(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Treasurer only"})
	}
	flash.Error(c, "Access denied – treasurer only.")
	return c.Redirect("/dashboard")
}

// InjectFundBalance puts the class fund totals into Locals for every
// rendered page (the balance cards in the shared layout).
func InjectFundBalance(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	classID := ClassID(c)

	collected, spent, err := database.GetFundTotals(config.GetDB(), classID)
	if err != nil {
		// The balance card is decoration; the page must still render.
		collected, spent = decimal.Zero, decimal.Zero
	}
	c.Locals("FundCollected", collected.StringFixed(2))
	c.Locals("FundSpent", spent.StringFixed(2))
	c.Locals("FundBalance", services.FundBalance(collected, spent).StringFixed(2))
	c.Locals("ShowFundBalance", !user.HideFundBalance)
	return c.Next()
}

// ClassID returns the resolved tenant class id, or "" when the user has no
// class. Query helpers treat "" as an empty scope.
func ClassID(c *fiber.Ctx) string {
	if class, ok := c.Locals("class").(*models.SchoolClass); ok && class != nil {
		return class.ID
	}
	return ""
}

// CurrentClass returns the resolved class or nil.
func CurrentClass(c *fiber.Ctx) *models.SchoolClass {
	if class, ok := c.Locals("class").(*models.SchoolClass); ok {
		return class
	}
	return nil
}

// CurrentProfiles returns the parent's student profiles in the resolved
// class (empty for treasurers).
func CurrentProfiles(c *fiber.Ctx) []*models.StudentProfile {
	if profiles, ok := c.Locals("profiles").([]*models.StudentProfile); ok {
		return profiles
	}
	return nil
}
