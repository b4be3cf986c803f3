package session

// Session is the pair carried by a session cookie. Token is empty for
// encodings that do not carry one.
type Session struct {
	UserID string
	Token  string
}

// Complete reports whether both halves of the pair are present.
func (s Session) Complete() bool {
	return s.UserID != "" && s.Token != ""
}
