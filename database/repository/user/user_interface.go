package userRepo

import "veridie/models"

// UserRepository exposes the registered-purchaser lookups needed when
// resolving booking attendees.
type UserRepository interface {
	GetByID(id string) (*models.User, error)
	Create(user *models.User) error
}
