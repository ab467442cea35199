package session

// Durable storage keys owned by the session engine.
const (
	KeyToken          = "token"
	KeyUserInfo       = "userInfo"
	KeyUsers          = "users"
	KeyRememberedUser = "rememberedUser"
)

// Profile is the signed-in user's public profile. It is replaced wholesale
// on every login.
type Profile struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Session is the authenticated-user context held by the engine.
//
// Token and UserInfo are either both set or both empty.
type Session struct {
	Token    string
	UserInfo Profile
}

// IsAuthenticated reports whether both halves of the session are present.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.UserInfo.Username != ""
}

// UserRecord is one entry of the persisted user table. Username is the
// unique key. Password holds an encoded password hash, never plaintext.
type UserRecord struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	CreateTime int64  `json:"createTime"`
	Avatar     string `json:"avatar"`
	Nickname   string `json:"nickname"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// Profile projects the record onto the public profile fields.
func (u UserRecord) Profile() Profile {
	return Profile{
		Username: u.Username,
		Avatar:   u.Avatar,
		Nickname: u.Nickname,
		Email:    u.Email,
		Phone:    u.Phone,
	}
}

// RememberedCredential is the optional username/password pair kept for
// automatic re-login.
type RememberedCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// FindUser returns the index of username in users, or -1.
func FindUser(users []UserRecord, username string) int {
	for i := range users {
		if users[i].Username == username {
			return i
		}
	}
	return -1
}
