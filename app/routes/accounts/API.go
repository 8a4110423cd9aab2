package accounts

import (
	"database/sql"
	"fmt"
	"log"

	"classfund/app/config"
	"classfund/app/database"
	"classfund/app/flash"
	"classfund/app/models"
	"classfund/app/routes/auth"
	"classfund/app/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ImportResult summarizes one CSV import run for the report page.
type ImportResult struct {
	Created      int
	ParentsMade  int
	Skipped      []string
	ParsedErrors []string
}

// StudentsPageHandler lists the class roster with variable symbols and
// linked parent accounts.
func StudentsPageHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	roster, err := database.GetClassStudents(config.GetDB(), auth.ClassID(c))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load students")
	}
	return c.Render("accounts/students", fiber.Map{
		"Title":       "Students - Class Fund Manager",
		"CurrentPage": "students",
		"Messages":    flash.Pop(c),
		"user":        user,
		"Class":       auth.CurrentClass(c),
		"Students":    roster,
	})
}

func ShowImportPage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return c.Render("accounts/import", fiber.Map{
		"Title":       "Import Students - Class Fund Manager",
		"CurrentPage": "students",
		"Messages":    flash.Pop(c),
		"user":        user,
		"Class":       auth.CurrentClass(c),
	})
}

// ImportStudentsHandler processes an uploaded CSV roster. Each usable row
// creates one student profile in the treasurer's class; rows with a
// parent email get the parent account created (or reused) and linked,
// with a welcome email for brand-new accounts. Rows whose variable
// symbol is already taken are skipped and reported.
func ImportStudentsHandler(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	class := auth.CurrentClass(c)
	if class == nil {
		flash.Error(c, "You have no class assigned yet.")
		return c.Redirect("/treasurer")
	}
	db := config.GetDB()

	fileHeader, err := c.FormFile("csv_file")
	if err != nil {
		flash.Error(c, "Please choose a CSV file to upload.")
		return c.Redirect("/treasurer/students/import")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer file.Close()

	rows, problems, err := ParseStudentCSV(file)
	if err != nil {
		flash.Error(c, "Import failed: "+err.Error())
		return c.Redirect("/treasurer/students/import")
	}

	result := &ImportResult{ParsedErrors: problems}
	for _, row := range rows {
		if taken, err := database.VariableSymbolExists(db, row.VariableSymbol); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Import failed")
		} else if taken {
			result.Skipped = append(result.Skipped,
				fmt.Sprintf("line %d: variable symbol %s already in use, %s skipped", row.Line, row.VariableSymbol, row.ChildName))
			continue
		}

		var parentID *string
		if row.ParentEmail != "" {
			parent, created, err := getOrCreateParent(db, row, class.Name)
			if err != nil {
				result.Skipped = append(result.Skipped,
					fmt.Sprintf("line %d: could not create parent account for %s", row.Line, row.ParentEmail))
				continue
			}
			parentID = &parent.ID
			if created {
				result.ParentsMade++
			}
		}

		sp := &models.StudentProfile{
			SchoolClassID:  class.ID,
			ParentID:       parentID,
			ChildName:      row.ChildName,
			VariableSymbol: row.VariableSymbol,
		}
		if err := database.CreateStudentProfile(db, sp); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				// Unique constraint raced with a parallel import of the same symbol.
				result.Skipped = append(result.Skipped,
					fmt.Sprintf("line %d: variable symbol %s already in use, %s skipped", row.Line, row.VariableSymbol, row.ChildName))
				continue
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Import failed")
		}
		result.Created++
	}

	log.Printf("Student import by %s into class %s: %d created, %d skipped, %d parse errors",
		user.Email, class.Name, result.Created, len(result.Skipped), len(result.ParsedErrors))

	return c.Render("accounts/import", fiber.Map{
		"Title":       "Import Students - Class Fund Manager",
		"CurrentPage": "students",
		"Messages":    flash.Pop(c),
		"user":        user,
		"Class":       class,
		"Result":      result,
	})
}

// getOrCreateParent reuses an existing account for the email or creates
// a parent account with a generated password. New accounts get a welcome
// email in the background.
func getOrCreateParent(db *sql.DB, row ImportRow, className string) (*models.User, bool, error) {
	parent, err := database.GetUserByEmail(db, row.ParentEmail)
	if err == nil {
		return parent, false, nil
	}
	if err != database.ErrNotFound {
		return nil, false, err
	}

	initialPassword := uuid.NewString()
	hashed, err := database.HashPassword(initialPassword)
	if err != nil {
		return nil, false, err
	}
	parent = &models.User{
		Email:     row.ParentEmail,
		Password:  hashed,
		FirstName: row.ParentFirstName,
		LastName:  row.ParentLastName,
		Role:      models.RoleParent,
	}
	if err := database.CreateUser(db, parent); err != nil {
		return nil, false, err
	}

	welcomeTo := *parent
	go services.SendWelcomeEmail(db, &welcomeTo, className, initialPassword)

	return parent, true, nil
}
