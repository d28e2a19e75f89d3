package credits

import (
	"context"

	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/phambaophuc/image-generator/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger keeps per-user credit balances. Users are provisioned with the initial
// balance the first time they are seen.
type Ledger struct {
	db      *gorm.DB
	initial int
}

func NewLedger(db *gorm.DB, initialBalance int) *Ledger {
	return &Ledger{db: db, initial: initialBalance}
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	account, err := l.account(l.db.WithContext(ctx), userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Deduct subtracts amount only if the balance covers it.
func (l *Ledger) Deduct(ctx context.Context, userID string, amount int) (int, error) {
	var balance int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.provision(tx, userID); err != nil {
			return err
		}

		res := tx.Model(&models.UserCredits{}).
			Where("user_id = ? AND balance >= ?", userID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return errors.Wrapf(res.Error, "failed to deduct %d credits from %s", amount, userID)
		}
		if res.RowsAffected == 0 {
			return errors.Wrapf(apperrs.ErrInsufficientCredits, "user %s cannot cover %d credits", userID, amount)
		}

		account, err := l.account(tx, userID)
		if err != nil {
			return err
		}
		balance = account.Balance
		return nil
	})
	return balance, err
}

func (l *Ledger) Grant(ctx context.Context, userID string, amount int) (int, error) {
	var balance int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.provision(tx, userID); err != nil {
			return err
		}

		res := tx.Model(&models.UserCredits{}).
			Where("user_id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return errors.Wrapf(res.Error, "failed to grant %d credits to %s", amount, userID)
		}

		account, err := l.account(tx, userID)
		if err != nil {
			return err
		}
		balance = account.Balance
		return nil
	})
	return balance, err
}

func (l *Ledger) List(ctx context.Context, limit, offset int) ([]models.UserCredits, error) {
	var accounts []models.UserCredits
	err := l.db.WithContext(ctx).
		Order("user_id").
		Limit(limit).
		Offset(offset).
		Find(&accounts).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list credit accounts")
	}
	return accounts, nil
}

// Totals returns the number of accounts and the sum of their balances.
func (l *Ledger) Totals(ctx context.Context) (users int64, outstanding int64, err error) {
	row := l.db.WithContext(ctx).
		Model(&models.UserCredits{}).
		Select("COUNT(*), COALESCE(SUM(balance), 0)").
		Row()
	if err := row.Scan(&users, &outstanding); err != nil {
		return 0, 0, errors.Wrap(err, "failed to total credits")
	}
	return users, outstanding, nil
}

func (l *Ledger) account(tx *gorm.DB, userID string) (*models.UserCredits, error) {
	if err := l.provision(tx, userID); err != nil {
		return nil, err
	}

	var account models.UserCredits
	if err := tx.Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to load credits of %s", userID)
	}
	return &account, nil
}

func (l *Ledger) provision(tx *gorm.DB, userID string) error {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserCredits{UserID: userID, Balance: l.initial}).Error
	return errors.Wrapf(err, "failed to provision credits for %s", userID)
}
