package services

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/diewo77/go-worklog/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// The user-facing handle is a display name, not an email. Names are mapped
// deterministically to a synthetic address in a reserved local domain so the
// email-shaped identity layer stays invisible to users.
const pseudoEmailDomain = "users.worklog.local"

// PseudoEmail maps a display name to its synthetic identity address by
// hex-encoding the trimmed name's bytes.
func PseudoEmail(name string) string {
	return hex.EncodeToString([]byte(strings.TrimSpace(name))) + "@" + pseudoEmailDomain
}

// DisplayNameFromEmail inverts PseudoEmail for identities whose profile must
// be materialized after the fact. Anything that does not decode to a usable
// name falls back to the "unnamed" literal.
func DisplayNameFromEmail(email string) string {
	local, ok := strings.CutSuffix(email, "@"+pseudoEmailDomain)
	if !ok {
		return models.UnnamedDisplayName
	}
	raw, err := hex.DecodeString(local)
	if err != nil {
		return models.UnnamedDisplayName
	}
	name := strings.TrimSpace(string(raw))
	if name == "" {
		return models.UnnamedDisplayName
	}
	return name
}

var (
	ErrNameRequired       = errors.New("name_required")
	ErrPasswordRequired   = errors.New("password_required")
	ErrNameTaken          = errors.New("name_already_exists")
	ErrInvalidCredentials = errors.New("invalid_credentials")
)

// RegistrationService creates identities and materializes their profiles.
type RegistrationService struct {
	DB *gorm.DB
}

func NewRegistrationService(db *gorm.DB) *RegistrationService {
	return &RegistrationService{DB: db}
}

// Register creates a new identity plus its profile. The display-name
// collision check runs as a pre-flight read (case-sensitive exact match);
// the unique index on profiles.display_name backstops the check-then-create
// race, surfacing as ErrNameTaken either way.
func (s *RegistrationService) Register(name, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	var count int64
	if err := s.DB.Model(&models.Profile{}).Where("display_name = ?", name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrNameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{Email: PseudoEmail(name), Password: string(hash)}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{
			ID:           user.ID,
			DisplayName:  name,
			Role:         models.RoleUser,
			EmployeeType: models.DefaultEmployeeType,
		}).Error
	})
	if err != nil {
		if isDuplicateErr(err) {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies name/password and returns the identity.
func (s *RegistrationService) Authenticate(name, password string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("email = ?", PseudoEmail(name)).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
