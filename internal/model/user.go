package model

import "time"

// Role values stored in users.role. Owners manage kos listings; society
// users (renters) book rooms.
const (
	RoleOwner   = "OWNER"
	RoleSociety = "SOCIETY"
)

// User represents an application user record as stored in the `users`
// table. Each field corresponds to a column. The json tags are omitted
// because these structs are used by the repository layer; handlers define
// separate response types with appropriate JSON tags.
//
// Fields:
//  ID             – primary key identifier of the user.
//  UUID           – external identifier exposed to clients.
//  Name           – display name.
//  Email          – unique email address.
//  PasswordHash   – bcrypt hashed password.
//  Role           – OWNER or SOCIETY.
//  PhoneNumber    – unique phone number.
//  ProfilePicture – stored filename of the profile picture ("" when unset).
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type User struct {
	ID             uint64    // users.id
	UUID           string    // users.uuid
	Name           string    // users.name
	Email          string    // users.email
	PasswordHash   string    // users.password
	Role           string    // users.role
	PhoneNumber    string    // users.phone_number
	ProfilePicture string    // users.profile_picture
	CreatedAt      time.Time // users.created_at
	UpdatedAt      time.Time // users.updated_at
}
