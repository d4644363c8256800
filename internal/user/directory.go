package user

// All returns the directory in display order.
func All() []User {
	out := make([]User, len(directory))
	copy(out, directory)
	return out
}

// Find looks up a user by ID.
func Find(id string) (User, bool) {
	for _, u := range directory {
		if string(u.ID) == id {
			return u, true
		}
	}
	return User{}, false
}

// IsKnown reports whether id names a member of the directory.
func IsKnown(id string) bool {
	_, ok := Find(id)
	return ok
}

// DisplayName returns the user's name, or fallback when the ID is unknown.
func DisplayName(id, fallback string) string {
	if u, ok := Find(id); ok {
		return u.Name
	}
	return fallback
}
