package service

import (
	"context"
	"errors"
	"strings"

	"github.com/suteetoe/shopstock/internal/actor"
	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ShopAssignment is the body of an account shop change. A nil ShopID
// removes the account from its shop.
type ShopAssignment struct {
	ShopID *uint `json:"shop_id"`
}

// SuperuserInput describes the bootstrap administrator
type SuperuserInput struct {
	Username string `validate:"required,max=150"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	ShopName string `validate:"required,max=255"`
}

// SuperuserResult reports what EnsureSuperuser had to create
type SuperuserResult struct {
	Account        model.Account
	Shop           model.Shop
	AccountCreated bool
	ShopCreated    bool
	ShopAssigned   bool
}

// AccountAssignment is one line of the shop assignment report
type AccountAssignment struct {
	Account model.Account
	Shop    *model.Shop
}

// AssignmentReport lists every account with its shop and every shop
type AssignmentReport struct {
	Accounts   []AccountAssignment
	Shops      []model.Shop
	Unassigned []model.Account
}

// ResolveActor loads the authoritative shop and staff flags for an account.
// Missing or inactive accounts are rejected as UNAUTHORIZED.
func (s *Directory) ResolveActor(ctx context.Context, accountID uint) (actor.Actor, error) {
	var account model.Account
	err := s.read(ctx, func(db *gorm.DB) error {
		return notFound(db.First(&account, accountID).Error, "Account")
	})
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return actor.Actor{}, apperror.New(apperror.CodeUnauthorized, "Account not found.")
	case err != nil:
		return actor.Actor{}, err
	case !account.IsActive:
		return actor.Actor{}, apperror.New(apperror.CodeUnauthorized, "Account is disabled.")
	}
	return actor.Actor{AccountID: account.ID, TenantID: account.ShopID, IsStaff: account.IsStaff}, nil
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Me returns the actor's own account
func (s *Directory) Me(ctx context.Context, a actor.Actor) (*model.Account, error) {
	return s.GetAccount(ctx, a, a.AccountID)
}

// GetAccount returns an account visible to the actor: itself, or any account
// for staff.
func (s *Directory) GetAccount(ctx context.Context, a actor.Actor, id uint) (*model.Account, error) {
	if !a.IsStaff && id != a.AccountID {
		return nil, apperror.NotFound("Account")
	}
	var account model.Account
	err := s.read(ctx, func(db *gorm.DB) error {
		return notFound(db.First(&account, id).Error, "Account")
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// AccountByUsername looks up an account for system tooling
func (s *Directory) AccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	var account model.Account
	err := s.read(ctx, func(db *gorm.DB) error {
		return notFound(db.Where("username = ?", username).First(&account).Error, "Account")
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ListAccounts lists every account. Staff only.
func (s *Directory) ListAccounts(ctx context.Context, a actor.Actor, req PageRequest) (Page[model.Account], error) {
	if !a.IsStaff {
		return Page[model.Account]{}, apperror.Forbidden("Only staff can list accounts.")
	}
	var page Page[model.Account]
	err := s.read(ctx, func(db *gorm.DB) error {
		var err error
		page, err = paginate[model.Account](db.Model(&model.Account{}), req, "id ASC")
		return err
	})
	return page, err
}

// AssignAccountShop moves an account into a shop, or out of its shop when
// shopID is nil. Staff may assign anyone. A shop owner may add accounts to
// the shop and remove its members. Any account may leave its own shop.
func (s *Directory) AssignAccountShop(ctx context.Context, a actor.Actor, accountID uint, shopID *uint) (*model.Account, error) {
	var account model.Account
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&account, accountID).Error; err != nil {
			return notFound(err, "Account")
		}

		if shopID == nil {
			if !a.IsStaff && account.ID != a.AccountID {
				owns, err := ownsShop(tx, a.AccountID, account.ShopID)
				if err != nil {
					return err
				}
				if !owns {
					return apperror.Forbidden("Only the shop owner can remove members.")
				}
			}
		} else {
			var shop model.Shop
			if err := tx.First(&shop, *shopID).Error; err != nil {
				if isRecordNotFound(err) {
					return apperror.New(apperror.CodeValidation, "Invalid input.").
						WithField("shop_id", "Invalid shop.")
				}
				return err
			}
			if !a.IsStaff && shop.OwnerID != a.AccountID {
				return apperror.Forbidden("Only the shop owner can assign accounts to this shop.")
			}
		}

		if err := tx.Model(&account).Update("shop_id", shopID).Error; err != nil {
			return err
		}
		account.ShopID = shopID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func ownsShop(tx *gorm.DB, accountID uint, shopID *uint) (bool, error) {
	if shopID == nil {
		return false, nil
	}
	var count int64
	err := tx.Model(&model.Shop{}).Where("id = ? AND owner_id = ?", *shopID, accountID).Count(&count).Error
	return count > 0, err
}

// DeleteAccount removes an account. Shops it owns go with it through the
// owner cascade and their members are left without a shop. Ledger entries and
// orders keep existing without an actor.
func (s *Directory) DeleteAccount(ctx context.Context, a actor.Actor, id uint) error {
	if !a.IsStaff && id != a.AccountID {
		return apperror.Forbidden("You can only delete your own account.")
	}
	return s.transaction(ctx, func(tx *gorm.DB) error {
		var account model.Account
		if err := tx.First(&account, id).Error; err != nil {
			return notFound(err, "Account")
		}
		owned := tx.Model(&model.Shop{}).Select("id").Where("owner_id = ?", account.ID)
		if err := tx.Model(&model.Account{}).
			Where("shop_id IN (?)", owned).
			Update("shop_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&account).Error
	})
}

// EnsureSuperuser creates the bootstrap staff account and its shop when they
// are missing. Running it again is a no-op.
func (s *Directory) EnsureSuperuser(ctx context.Context, in SuperuserInput) (*SuperuserResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.ShopName = strings.TrimSpace(in.ShopName)
	fields, err := structFields(in)
	if err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	res := &SuperuserResult{}
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		err := tx.Where("username = ?", in.Username).First(&res.Account).Error
		switch {
		case isRecordNotFound(err):
			hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			res.Account = model.Account{
				Username:     in.Username,
				Email:        in.Email,
				PasswordHash: string(hash),
				IsStaff:      true,
				IsActive:     true,
			}
			if err := tx.Create(&res.Account).Error; err != nil {
				return err
			}
			res.AccountCreated = true
		case err != nil:
			return err
		}

		if res.Account.ShopID != nil {
			return tx.First(&res.Shop, *res.Account.ShopID).Error
		}

		err = tx.Where("name = ? AND owner_id = ?", in.ShopName, res.Account.ID).First(&res.Shop).Error
		switch {
		case isRecordNotFound(err):
			res.Shop = model.Shop{Name: in.ShopName, OwnerID: res.Account.ID, CreatedAt: s.now()}
			if err := tx.Create(&res.Shop).Error; err != nil {
				return err
			}
			res.ShopCreated = true
		case err != nil:
			return err
		}

		if err := tx.Model(&res.Account).Update("shop_id", res.Shop.ID).Error; err != nil {
			return err
		}
		res.Account.ShopID = uintPtr(res.Shop.ID)
		res.ShopAssigned = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ShopAssignments reports every account with its shop, for operators
func (s *Directory) ShopAssignments(ctx context.Context) (*AssignmentReport, error) {
	report := &AssignmentReport{}
	err := s.read(ctx, func(db *gorm.DB) error {
		var accounts []model.Account
		if err := db.Order("id ASC").Find(&accounts).Error; err != nil {
			return err
		}
		if err := db.Order("id ASC").Find(&report.Shops).Error; err != nil {
			return err
		}

		byID := make(map[uint]*model.Shop, len(report.Shops))
		for i := range report.Shops {
			byID[report.Shops[i].ID] = &report.Shops[i]
		}
		for _, acc := range accounts {
			line := AccountAssignment{Account: acc}
			if acc.ShopID != nil {
				line.Shop = byID[*acc.ShopID]
			}
			if line.Shop == nil {
				report.Unassigned = append(report.Unassigned, acc)
			}
			report.Accounts = append(report.Accounts, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
