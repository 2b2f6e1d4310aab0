package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type Avatar struct {
	PublicID string `bson:"public_id"`
	URL      string `bson:"url"`
}

type Address struct {
	ID          string `bson:"_id"`
	AddressType string `bson:"addressType"`
	Country     string `bson:"country,omitempty"`
	City        string `bson:"city,omitempty"`
	Address1    string `bson:"address1,omitempty"`
	Address2    string `bson:"address2,omitempty"`
	ZipCode     string `bson:"zipCode,omitempty"`
}

// User is stored as a single document; every change re-saves the whole record.
type User struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Name        string        `bson:"name"`
	Email       string        `bson:"email"`
	Password    string        `bson:"password"`
	PhoneNumber string        `bson:"phoneNumber,omitempty"`
	Role        UserRole      `bson:"role"`
	Avatar      Avatar        `bson:"avatar"`
	Addresses   []Address     `bson:"addresses"`
	Active      bool          `bson:"active"`
	CreatedAt   time.Time     `bson:"createdAt"`
}

func (u User) IDHex() string {
	return u.ID.Hex()
}

func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
