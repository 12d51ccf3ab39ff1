// Package identity defines the contract PairJournal expects from the external
// identity provider and ships LocalProvider, a reference implementation that
// keeps bcrypt credentials in a key store and issues JWT access tokens.
//
// The key hierarchy never sees password hashes: it only needs to know that a
// password was accepted and, during rotation, to change it last.
package identity

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/go-playground/validator/v10"
)

// Principal is a successfully authenticated account.
type Principal struct {
	AccountID   string
	Email       string
	AccessToken string
}

// Provider authenticates accounts.
//
// Contract:
//   - Register creates credentials for a new email and returns the account id;
//     a taken email yields common.ErrAlreadyExists.
//   - SignIn checks the password; unknown email or bad password yield
//     common.ErrUnauthorized.
//   - ChangePassword replaces the password after checking the old one.
type Provider interface {
	Register(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (*Principal, error)
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type credentialsInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// ValidateCredentials checks that email is a syntactically valid address and
// password is not empty.
func ValidateCredentials(email, password string) error {
	if err := validate.Struct(credentialsInput{Email: common.NormalizeEmail(email), Password: password}); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return nil
}

// ValidateEmail checks that email is a syntactically valid address.
func ValidateEmail(email string) error {
	if err := validate.Var(common.NormalizeEmail(email), "required,email"); err != nil {
		return fmt.Errorf("%w: invalid email", common.ErrInvalidInput)
	}
	return nil
}
