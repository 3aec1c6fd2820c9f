package dummydb

import (
	"sort"
	"strings"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email && !isExcluded(usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func isExcluded(usr user.User, excluded []user.User) bool {
	for _, ex := range excluded {
		if ex.ID == usr.ID {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var users []user.User
	for _, usr := range repo.query() {
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		if filter.SchoolID != "" && (!usr.SchoolID.Valid || usr.SchoolID.String != filter.SchoolID) {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		if filter.Search != "" && !matchesSearch(usr, filter.Search) {
			continue
		}
		users = append(users, usr)
	}
	sortUsers(users, orderings)
	return users, nil
}

func sortUsers(users []user.User, orderings []core.DBOrdering) {
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range orderings {
			a, b := userOrderKey(users[i], ord.Field), userOrderKey(users[j], ord.Field)
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}

func userOrderKey(usr user.User, field string) string {
	switch field {
	case "first_name":
		return strings.ToLower(usr.FirstName)
	case "last_name":
		return strings.ToLower(usr.LastName)
	case "email":
		return usr.Email
	case "role":
		return usr.Role
	default:
		return ""
	}
}

func matchesSearch(usr user.User, search string) bool {
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(usr.FirstName), s) ||
		strings.Contains(strings.ToLower(usr.LastName), s) ||
		strings.Contains(strings.ToLower(usr.Email), s)
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
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

	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
