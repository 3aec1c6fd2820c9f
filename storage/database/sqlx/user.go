// Package sqlxrepos implements the domain repositories over PostgreSQL via sqlx.
package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/user"
)

type userRow struct {
	ID           string      `db:"id"`
	FirstName    string      `db:"first_name"`
	LastName     string      `db:"last_name"`
	Email        string      `db:"email"`
	Role         string      `db:"role"`
	SchoolID     null.String `db:"school_id"`
	GenerationID null.String `db:"generation_id"`
	CommunityID  null.String `db:"community_id"`
	PasswordHash []byte      `db:"password_hash"`
	IsActive     bool        `db:"is_active"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Role:         r.Role,
		SchoolID:     r.SchoolID,
		GenerationID: r.GenerationID,
		CommunityID:  r.CommunityID,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

func toUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		FirstName:    usr.FirstName,
		LastName:     usr.LastName,
		Email:        usr.Email,
		Role:         usr.Role,
		SchoolID:     usr.SchoolID,
		GenerationID: usr.GenerationID,
		CommunityID:  usr.CommunityID,
		PasswordHash: usr.PasswordHash,
		IsActive:     usr.IsActive,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero()),
	}
}

const userColumns = `id, first_name, last_name, email, role, school_id, generation_id,
	community_id, password_hash, is_active, created_at, updated_at, last_login`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	query := `SELECT COUNT(*) FROM users WHERE email = $1`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, len(excludedUsers))
		for i, usr := range excludedUsers {
			ids[i] = usr.ID
		}
		inQuery, inArgs, err := sqlx.In(`SELECT COUNT(*) FROM users WHERE email = ? AND id NOT IN (?)`, email, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query = repo.db.Rebind(inQuery)
		args = inArgs
	}

	var count int
	if err := repo.db.Get(&count, query, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	row := toUserRow(usr)
	_, err := repo.db.NamedExec(`
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :first_name, :last_name, :email, :role, :school_id, :generation_id,
			:community_id, :password_hash, :is_active, :created_at, :updated_at, :last_login)`,
		row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, `SELECT `+userColumns+` FROM users ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return rowsToUsers(rows), nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	var row userRow
	err := repo.db.Get(&row, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	var row userRow
	err := repo.db.Get(&row, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user by email")
	}
	return row.toUser(), nil
}

// orderable columns for FilterUsers; anything else in an ordering is ignored
var userOrderFields = map[string]bool{
	"first_name": true,
	"last_name":  true,
	"email":      true,
	"role":       true,
	"is_active":  true,
	"created_at": true,
	"last_login": true,
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	// build the WHERE clause incrementally; bindvars are rebound at the end
	var args []interface{}
	q := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	if filter.Search != "" {
		q += ` AND (first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Role != "" {
		q += ` AND role = ?`
		args = append(args, filter.Role)
	}
	if filter.SchoolID != "" {
		q += ` AND school_id = ?`
		args = append(args, filter.SchoolID)
	}
	if filter.IsActive != nil {
		q += ` AND is_active = ?`
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		q += ` AND created_at >= ?`
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		q += ` AND created_at <= ?`
		args = append(args, filter.CreatedTo)
	}
	var orderBy []string
	for _, ord := range orderings {
		if userOrderFields[ord.Field] {
			orderBy = append(orderBy, ord.String())
		}
	}
	if len(orderBy) == 0 {
		orderBy = []string{"created_at"}
	}
	q += ` ORDER BY ` + strings.Join(orderBy, ", ")

	var rows []userRow
	if err := repo.db.Select(&rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return rowsToUsers(rows), nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	orig, err := repo.GetUserByID(usr.ID)
	if err != nil {
		return user.User{}, err
	}

	if usr.FirstName == "" {
		usr.FirstName = orig.FirstName
	}
	if usr.LastName == "" {
		usr.LastName = orig.LastName
	}
	if usr.Email == "" {
		usr.Email = orig.Email
	}
	if usr.Role == "" {
		usr.Role = orig.Role
	}
	if usr.PasswordHash == nil {
		usr.PasswordHash = orig.PasswordHash
	}
	if !usr.SchoolID.Valid {
		usr.SchoolID = orig.SchoolID
	}
	if !usr.GenerationID.Valid {
		usr.GenerationID = orig.GenerationID
	}
	if !usr.CommunityID.Valid {
		usr.CommunityID = orig.CommunityID
	}
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = orig.CreatedAt
	}
	if usr.LastLogin.IsZero() {
		usr.LastLogin = orig.LastLogin
	}
	if isActive != nil {
		usr.IsActive = *isActive
	} else {
		usr.IsActive = orig.IsActive
	}

	row := toUserRow(usr)
	_, err = repo.db.NamedExec(`
		UPDATE users SET
			first_name = :first_name, last_name = :last_name, email = :email,
			role = :role, school_id = :school_id, generation_id = :generation_id,
			community_id = :community_id, password_hash = :password_hash,
			is_active = :is_active, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`,
		row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

func rowsToUsers(rows []userRow) []user.User {
	users := make([]user.User, len(rows))
	for i, row := range rows {
		users[i] = row.toUser()
	}
	return users
}
