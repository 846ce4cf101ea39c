package cart

import "context"

// Repository is the backend capability set the Model depends on. Writes are
// keyed by line id; implementations scope them to the signed-in user.
type Repository interface {
	ListLines(ctx context.Context, userID string) ([]Line, error)
	UpdateQuantity(ctx context.Context, lineID string, quantity int) error
	DeleteLine(ctx context.Context, lineID string) error
}

// Authenticator supplies the current user id. It returns an error of kind
// KindNotAuthenticated, or an empty id, when nobody is signed in.
type Authenticator interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// StaticUser is an Authenticator for a user id already known to the caller,
// such as a request authenticated by middleware.
type StaticUser string

func (u StaticUser) CurrentUserID(context.Context) (string, error) {
	if u == "" {
		return "", NotAuthenticated("current user")
	}
	return string(u), nil
}
