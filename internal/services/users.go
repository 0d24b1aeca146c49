package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tietkiem/internal/core"
	"tietkiem/internal/storage"
)

const minPasswordLength = 6

// Default categories seeded for every new user.
var (
	defaultExpenseCategories = []string{"Ăn uống", "Di chuyển", "Mua sắm", "Hóa đơn", "Giải trí", "Sức khỏe", "Khác"}
	defaultIncomeCategories  = []string{"Lương", "Thưởng", "Đầu tư", "Khác"}
)

// Registration is the input of UserService.Register.
type Registration struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type UserService struct {
	gw *storage.Gateway
}

func NewUserService(gw *storage.Gateway) *UserService {
	return &UserService{gw: gw}
}

// Register creates a user with a bcrypt password hash and seeds the default
// categories in the same database transaction.
func (s *UserService) Register(ctx context.Context, r Registration) (core.User, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	if r.Username == "" {
		return core.User{}, core.Invalid("username", "Tên đăng nhập không được để trống")
	}
	if len(r.Password) < minPasswordLength {
		return core.User{}, core.Invalid("password", fmt.Sprintf("Mật khẩu phải có ít nhất %d ký tự", minPasswordLength))
	}
	if r.Name == "" {
		r.Name = r.Username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	var user core.User
	err = s.gw.WithTx(ctx, func(st storage.Stores) error {
		if _, exists, err := st.Users.ByUsername(ctx, r.Username); err != nil {
			return err
		} else if exists {
			return core.Invalid("username", "Tên đăng nhập đã tồn tại")
		}
		if r.Email != "" {
			if _, exists, err := st.Users.ByEmail(ctx, r.Email); err != nil {
				return err
			} else if exists {
				return core.Invalid("email", "Email đã được sử dụng")
			}
		}

		created, err := st.Users.Create(ctx, core.User{
			Username:     r.Username,
			Name:         r.Name,
			Email:        r.Email,
			Phone:        strings.TrimSpace(r.Phone),
			PasswordHash: string(hash),
		})
		if err != nil {
			return err
		}
		user = created
		return seedCategories(ctx, st, user.ID)
	})
	if err != nil {
		return core.User{}, err
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func seedCategories(ctx context.Context, st storage.Stores, userID int64) error {
	seed := func(names []string, typ core.TxType) error {
		for _, name := range names {
			if _, err := st.Categories.Create(ctx, core.Category{Name: name, Type: typ, UserID: userID}); err != nil {
				return fmt.Errorf("seed category %q: %w", name, err)
			}
		}
		return nil
	}
	if err := seed(defaultExpenseCategories, core.Expense); err != nil {
		return err
	}
	return seed(defaultIncomeCategories, core.Income)
}

// Authenticate checks a username and password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	invalid := core.Invalid("credentials", "Tên đăng nhập hoặc mật khẩu không đúng")

	u, ok, err := s.gw.Users.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return core.User{}, err
	}
	if !ok {
		return core.User{}, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return core.User{}, invalid
		}
		return core.User{}, fmt.Errorf("compare password: %w", err)
	}
	return u, nil
}

func (s *UserService) UpdateName(ctx context.Context, id int64, name string) (core.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.User{}, core.Invalid("name", "Tên không được để trống")
	}
	return s.gw.Users.UpdateName(ctx, id, name)
}

func (s *UserService) Get(ctx context.Context, id int64) (core.User, error) {
	return s.gw.Users.ByID(ctx, id)
}
