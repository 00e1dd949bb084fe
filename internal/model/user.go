package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// ProfilePicture references an avatar stored in the blob store. PublicID is
// kept so the previous picture can be deleted when it is replaced.
type ProfilePicture struct {
	PublicID string `json:"publicId,omitempty" bson:"public_id,omitempty"`
	URL      string `json:"url" bson:"url"`
}

// User represents a user document in MongoDB. Password never leaves the
// server: it is excluded from every JSON rendering.
type User struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	Email          string             `json:"email" bson:"email"`
	Password       string             `json:"-" bson:"password"`
	Role           string             `json:"role" bson:"role"`
	IsVerified     bool               `json:"isVerified" bson:"is_verified"`
	Specialization string             `json:"specialization,omitempty" bson:"specialization,omitempty"`
	Phone          string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Age            int                `json:"age,omitempty" bson:"age,omitempty"`
	Sex            string             `json:"sex,omitempty" bson:"sex,omitempty"`
	ProfilePicture ProfilePicture     `json:"profilePicture" bson:"profile_picture"`
	LastActive     time.Time          `json:"lastActive" bson:"last_active"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updated_at"`
}

// ParticipantInfo is the subset of a user rendered inside conversation
// listings (what the chat UI needs to label the other side).
type ParticipantInfo struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Specialization string `json:"specialization,omitempty"`
}

// DoctorStats summarizes the verification state of the doctor pool.
type DoctorStats struct {
	Total      int `json:"total"`
	Verified   int `json:"verified"`
	Unverified int `json:"unverified"`
}
