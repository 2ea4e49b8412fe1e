package domain

// Document is the whole persisted aggregate. Stores read and rewrite it in
// full; there are no partial updates.
type Document struct {
	Users    []User    `json:"users" bson:"users"`
	Sessions []Session `json:"sessions" bson:"sessions"`
}

// NewDocument returns an empty document with non-nil slices so it
// serializes as {"users":[],"sessions":[]}.
func NewDocument() *Document {
	return &Document{Users: []User{}, Sessions: []Session{}}
}

// Normalize replaces nil slices left by decoding an incomplete file.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Sessions == nil {
		d.Sessions = []Session{}
	}
}

// FindUserByLogin returns the user whose username or email equals login.
// The pointer aliases the slice element so callers can mutate in place.
func (d *Document) FindUserByLogin(login string) *User {
	for i := range d.Users {
		if d.Users[i].Username == login || d.Users[i].Email == login {
			return &d.Users[i]
		}
	}
	return nil
}

// FindUserByID returns the user with the given id, aliasing the slice element.
func (d *Document) FindUserByID(id int) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// HasUsernameOrEmail reports whether any user already owns username or email.
func (d *Document) HasUsernameOrEmail(username, email string) bool {
	for _, u := range d.Users {
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

// NextUserID is one more than the largest existing id, or 1 when empty.
func (d *Document) NextUserID() int {
	maxID := 0
	for _, u := range d.Users {
		if u.ID > maxID {
			maxID = u.ID
		}
	}
	return maxID + 1
}

// RemoveSessionsByToken drops every session whose token equals token and
// returns how many were removed.
func (d *Document) RemoveSessionsByToken(token string) int {
	kept := d.Sessions[:0]
	removed := 0
	for _, s := range d.Sessions {
		if s.Token == token {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	d.Sessions = kept
	return removed
}
