package database

import (
	"database/sql"

	"classfund/app/models"
)

// GetClassByTeacher returns the SchoolClass managed by the given treasurer,
// or ErrNotFound when no class is assigned yet. Treasurer views treat a
// missing class as "empty dashboard", never as a hard error.
func GetClassByTeacher(db *sql.DB, teacherID string) (*models.SchoolClass, error) {
	sc := &models.SchoolClass{}
	query := `SELECT id, name, teacher_id, school_year, created_at
			  FROM school_classes WHERE teacher_id = $1
			  ORDER BY name LIMIT 1`
	err := db.QueryRow(query, teacherID).Scan(
		&sc.ID, &sc.Name, &sc.TeacherID, &sc.SchoolYear, &sc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func GetClassByID(db *sql.DB, classID string) (*models.SchoolClass, error) {
	sc := &models.SchoolClass{}
	query := `SELECT id, name, teacher_id, school_year, created_at
			  FROM school_classes WHERE id = $1`
	err := db.QueryRow(query, classID).Scan(
		&sc.ID, &sc.Name, &sc.TeacherID, &sc.SchoolYear, &sc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func GetClassByName(db *sql.DB, name string) (*models.SchoolClass, error) {
	sc := &models.SchoolClass{}
	query := `SELECT id, name, teacher_id, school_year, created_at
			  FROM school_classes WHERE name = $1`
	err := db.QueryRow(query, name).Scan(
		&sc.ID, &sc.Name, &sc.TeacherID, &sc.SchoolYear, &sc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func CreateSchoolClass(db *sql.DB, sc *models.SchoolClass) error {
	query := `INSERT INTO school_classes (name, teacher_id, school_year)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at`
	return db.QueryRow(query, sc.Name, sc.TeacherID, sc.SchoolYear).Scan(&sc.ID, &sc.CreatedAt)
}

// GetClassStudents returns the active roster of a class (with the parent
// account joined where one is linked), ordered for display. Empty slice
// when classID is empty.
func GetClassStudents(db *sql.DB, classID string) ([]*models.StudentProfile, error) {
	if classID == "" {
		return nil, nil
	}
	query := `SELECT sp.id, sp.school_class_id, sp.parent_id, sp.child_name,
					 sp.variable_symbol, sp.is_active, sp.created_at,
					 u.id, u.email, u.first_name, u.last_name, u.role, u.hide_fund_balance, u.is_active
			  FROM student_profiles sp
			  LEFT JOIN users u ON u.id = sp.parent_id
				AND u.is_active = true AND u.deleted_at IS NULL
			  WHERE sp.school_class_id = $1 AND sp.is_active = true
			  ORDER BY sp.child_name`
	rows, err := db.Query(query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*models.StudentProfile
	for rows.Next() {
		sp := &models.StudentProfile{}
		var (
			parentID, email, firstName, lastName, role sql.NullString
			hideBalance, isActive                      sql.NullBool
		)
		err := rows.Scan(
			&sp.ID, &sp.SchoolClassID, &sp.ParentID, &sp.ChildName,
			&sp.VariableSymbol, &sp.IsActive, &sp.CreatedAt,
			&parentID, &email, &firstName, &lastName, &role,
			&hideBalance, &isActive,
		)
		if err != nil {
			return nil, err
		}
		if parentID.Valid {
			sp.Parent = &models.User{
				ID:              parentID.String,
				Email:           email.String,
				FirstName:       firstName.String,
				LastName:        lastName.String,
				Role:            models.Role(role.String),
				HideFundBalance: hideBalance.Bool,
				IsActive:        isActive.Bool,
			}
		}
		students = append(students, sp)
	}
	return students, rows.Err()
}

// GetProfilesByParent returns the active student profiles belonging to a
// parent account, usually exactly one.
func GetProfilesByParent(db *sql.DB, parentID string) ([]*models.StudentProfile, error) {
	query := `SELECT id, school_class_id, parent_id, child_name, variable_symbol, is_active, created_at
			  FROM student_profiles
			  WHERE parent_id = $1 AND is_active = true
			  ORDER BY created_at`
	rows, err := db.Query(query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.StudentProfile
	for rows.Next() {
		sp := &models.StudentProfile{}
		err := rows.Scan(
			&sp.ID, &sp.SchoolClassID, &sp.ParentID, &sp.ChildName,
			&sp.VariableSymbol, &sp.IsActive, &sp.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, sp)
	}
	return profiles, rows.Err()
}

func GetStudentProfile(db *sql.DB, profileID string) (*models.StudentProfile, error) {
	sp := &models.StudentProfile{}
	query := `SELECT id, school_class_id, parent_id, child_name, variable_symbol, is_active, created_at
			  FROM student_profiles WHERE id = $1`
	err := db.QueryRow(query, profileID).Scan(
		&sp.ID, &sp.SchoolClassID, &sp.ParentID, &sp.ChildName,
		&sp.VariableSymbol, &sp.IsActive, &sp.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// VariableSymbolExists reports whether any profile (active or not)
// already uses the given variable symbol. Symbols are unique across all
// classes so bank transfers can always be matched unambiguously.
func VariableSymbolExists(db *sql.DB, vs string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM student_profiles WHERE variable_symbol = $1)`
	if err := db.QueryRow(query, vs).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func CreateStudentProfile(db *sql.DB, sp *models.StudentProfile) error {
	query := `INSERT INTO student_profiles (school_class_id, parent_id, child_name, variable_symbol)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, is_active, created_at`
	return db.QueryRow(query,
		sp.SchoolClassID, sp.ParentID, sp.ChildName, sp.VariableSymbol,
	).Scan(&sp.ID, &sp.IsActive, &sp.CreatedAt)
}
