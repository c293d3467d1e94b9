package services

import "github.com/engforum/engforum/models"

// IsOwner reports whether caller is the author recorded on an entity.
// Authors are denormalized usernames, so the comparison is on the stored name.
func IsOwner(caller *models.User, author string) bool {
	return caller != nil && author != "" && caller.Username == author
}

// IsAdmin reports whether caller currently holds the administrator flag.
func IsAdmin(caller *models.User) bool {
	return caller != nil && caller.IsAdmin
}

// CanModerate reports whether caller may act on an entity owned by author.
func CanModerate(caller *models.User, author string) bool {
	return IsOwner(caller, author) || IsAdmin(caller)
}
