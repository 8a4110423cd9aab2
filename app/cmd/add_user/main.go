package main

import (
	"flag"
	"fmt"

	"classfund/app/config"
	"classfund/app/database"
	"classfund/app/models"
)

// Bootstrap tool: creates a treasurer account and, optionally, their
// class. Parents are created through the CSV import, not here.
func main() {
	email := flag.String("email", "", "treasurer email (required)")
	password := flag.String("password", "", "initial password (required)")
	firstName := flag.String("first", "", "first name")
	lastName := flag.String("last", "", "last name")
	className := flag.String("class", "", "class to create and assign, e.g. 3.B")
	schoolYear := flag.String("year", "", "school year, e.g. 2025/2026")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Println("Usage: add_user -email treasurer@example.com -password secret [-first Jana] [-last Novakova] [-class 3.B] [-year 2025/2026]")
		return
	}

	config.Load()
	db := config.GetDB()
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		fmt.Printf("Error running migrations: %v\n", err)
		return
	}

	hashed, err := database.HashPassword(*password)
	if err != nil {
		fmt.Printf("Error hashing password: %v\n", err)
		return
	}

	user := &models.User{
		Email:     *email,
		Password:  hashed,
		FirstName: *firstName,
		LastName:  *lastName,
		Role:      models.RoleTreasurer,
	}
	if err := database.CreateUser(db, user); err != nil {
		fmt.Printf("Error creating user: %v\n", err)
		return
	}
	fmt.Printf("Treasurer created: %s (%s)\n", user.FullName(), user.Email)

	if *className != "" {
		sc := &models.SchoolClass{
			Name:       *className,
			TeacherID:  &user.ID,
			SchoolYear: *schoolYear,
		}
		if err := database.CreateSchoolClass(db, sc); err != nil {
			fmt.Printf("Error creating class: %v\n", err)
			return
		}
		fmt.Printf("Class created: %s (id %s)\n", sc.Name, sc.ID)
	}
}
