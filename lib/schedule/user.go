package schedule

import (
	"errors"
	"strings"
)

type UserType int

const (
	UserTypeUndergraduate UserType = iota
	UserTypePostgraduate
)

func (u UserType) String() string {
	if u == UserTypePostgraduate {
		return "postgraduate"
	}
	return "undergraduate"
}

// User is the stored subscription record. Password is kept encrypted at
// rest, KeyId names the key it was sealed under.
type User struct {
	Username       string   `json:"username"`
	Password       string   `json:"password"`
	KeyId          string   `json:"key_id,omitempty"`
	SubscriptionId string   `json:"subscription_id"`
	UserType       UserType `json:"user_type"`
}

var ErrInvalidUsername = errors.New("username is not a recognized student id")

// ClassifyUsername derives the user type from the student id shape
// before any network call. Ids start with the admission-year prefix,
// undergraduates get 8 digits, postgraduates 12 or 13.
func ClassifyUsername(username string) (UserType, error) {
	if !strings.HasPrefix(username, "20") {
		return 0, ErrInvalidUsername
	}
	for _, c := range username {
		if c < '0' || c > '9' {
			return 0, ErrInvalidUsername
		}
	}
	switch len(username) {
	case 8:
		return UserTypeUndergraduate, nil
	case 12, 13:
		return UserTypePostgraduate, nil
	default:
		return 0, ErrInvalidUsername
	}
}
