package domain

import "time"

// Role is one of the fixed set of user roles. The set is closed: any role
// string outside it carries no capabilities.
type Role string

const (
	RolePlatformAdmin Role = "platform-admin"
	RoleHotelAdmin    Role = "hotel-admin"
	RoleManager       Role = "manager"
	RoleStaff         Role = "staff"
	RoleDemo          Role = "demo"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RolePlatformAdmin, RoleHotelAdmin, RoleManager, RoleStaff, RoleDemo:
		return true
	}
	return false
}

// User represents an authenticated principal.
//
// A platform-admin has no home hotel (HotelID is 0 by construction). Every
// other role except demo must reference one. Deactivation is a flag flip,
// never a physical delete.
type User struct {
	ID           int64     `json:"id"`
	HotelID      int64     `json:"hotelId,omitempty"` // 0 for platform-admin
	Name         string    `json:"name"`
	Email        string    `json:"email"` // Unique email address
	PasswordHash string    `json:"-"`     // Bcrypt hashed password, never serialized
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	LastLogin    time.Time `json:"lastLogin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	IsActive     bool      `json:"isActive"`
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(user *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	Update(user *User) error
	Delete(id int64) error
	UpdateLastLogin(id int64, at time.Time) error
	ListByHotel(hotelID int64) ([]*User, error)
	ListAll() ([]*User, error)
}

// Hotel represents a tenant property
type Hotel struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	TotalRooms int       `json:"totalRooms"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	IsActive   bool      `json:"isActive"`
}

// HotelRepository defines data access for hotels
type HotelRepository interface {
	Create(hotel *Hotel) error
	GetByID(id int64) (*Hotel, error)
	GetByName(name string) (*Hotel, error)
	Update(hotel *Hotel) error
	Delete(id int64) error
	List() ([]*Hotel, error)
}

// ActivityEntry is one row of the audit trail
type ActivityEntry struct {
	ID           int64     `json:"id"`
	HotelID      int64     `json:"hotelId,omitempty"`
	UserID       int64     `json:"userId"`
	ActivityType string    `json:"activityType"`
	EntityType   string    `json:"entityType"`
	EntityID     int64     `json:"entityId"`
	Description  string    `json:"description"`
	IPAddress    string    `json:"ipAddress,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ActivityRepository defines append/list access to the audit trail
type ActivityRepository interface {
	Append(entry *ActivityEntry) error
	ListByHotel(hotelID int64, limit int) ([]*ActivityEntry, error)
	ListAll(limit int) ([]*ActivityEntry, error)
}
