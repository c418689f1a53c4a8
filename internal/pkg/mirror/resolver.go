package mirror

import "github.com/ManuelReschke/RecurFox/app/models"

// UserResolver links a mirrored account to a local user. It receives the
// remote account code and the (not yet persisted) account row and returns
// the matching user, or nil when no local user owns the account. Returning
// an error aborts the sync.
type UserResolver func(accountCode string, account *models.Account) (*models.User, error)

// DefaultUserResolver matches the account code against the local user name
// and falls back to the account's email address. Deployments with their own
// account-code scheme plug in a different resolver.
func DefaultUserResolver(repo Repository) UserResolver {
	return func(accountCode string, account *models.Account) (*models.User, error) {
		user, err := repo.UserByName(accountCode)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
		if account.Email == "" {
			return nil, nil
		}
		return repo.UserByEmail(account.Email)
	}
}
