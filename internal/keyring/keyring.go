package keyring

import (
	"errors"
	"os"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/m96-chan/chanlist/internal/consts"
)

// ErrNotFound is returned when a token is neither in the environment nor
// in the system keyring.
var ErrNotFound = gokeyring.ErrNotFound

// token names a secret by its keyring account and environment variable.
type token struct {
	account string
	env     string
}

var (
	userToken = token{account: "user_token", env: consts.EnvPrefix + "USER_TOKEN"}
	appToken  = token{account: "app_token", env: consts.EnvPrefix + "APP_TOKEN"}
)

// get prefers the environment so tokens can be injected without touching
// the keyring.
func (t token) get() (string, error) {
	if v := os.Getenv(t.env); v != "" {
		return v, nil
	}
	return gokeyring.Get(consts.Name, t.account)
}

func (t token) set(v string) error { return gokeyring.Set(consts.Name, t.account, v) }

func (t token) delete() error {
	if err := gokeyring.Delete(consts.Name, t.account); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// GetUserToken returns the user token from CHANLIST_USER_TOKEN, falling
// back to the system keyring.
func GetUserToken() (string, error) { return userToken.get() }

// GetAppToken returns the app-level token from CHANLIST_APP_TOKEN, falling
// back to the system keyring.
func GetAppToken() (string, error) { return appToken.get() }

// Tokens returns both tokens. The error joins the failure of each missing
// one, so errors.Is(err, ErrNotFound) reports an absent token.
func Tokens() (user, app string, err error) {
	user, userErr := userToken.get()
	app, appErr := appToken.get()
	if err = errors.Join(userErr, appErr); err != nil {
		return "", "", err
	}
	return user, app, nil
}

// SetUserToken stores the user token in the system keyring.
func SetUserToken(v string) error { return userToken.set(v) }

// SetAppToken stores the app-level token in the system keyring.
func SetAppToken(v string) error { return appToken.set(v) }

// DeleteUserToken removes the user token from the system keyring. A token
// that was never stored is not an error.
func DeleteUserToken() error { return userToken.delete() }

// DeleteAppToken removes the app-level token from the system keyring.
func DeleteAppToken() error { return appToken.delete() }

// Clear removes both tokens from the system keyring.
func Clear() error {
	return errors.Join(DeleteUserToken(), DeleteAppToken())
}
