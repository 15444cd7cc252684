package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserType string

const (
	UserTypeRider  UserType = "rider"
	UserTypeDriver UserType = "driver"
)

func (t UserType) IsValid() bool {
	return t == UserTypeRider || t == UserTypeDriver
}

// Profile is the single user record for both riders and drivers.
// Rating and WalletBalance are derived fields; Version guards their overwrite.
type Profile struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email             string             `json:"email" bson:"email" validate:"required,email"`
	PasswordHash      string             `json:"-" bson:"password_hash"`
	FullName          string             `json:"full_name" bson:"full_name" validate:"required,min=2,max=100"`
	Phone             string             `json:"phone" bson:"phone"`
	UserType          UserType           `json:"user_type" bson:"user_type" validate:"required,oneof=rider driver"`
	AvatarURL         string             `json:"avatar_url" bson:"avatar_url"`
	AvatarKey         string             `json:"-" bson:"avatar_key,omitempty"`
	Latitude          *float64           `json:"latitude" bson:"latitude"`
	Longitude         *float64           `json:"longitude" bson:"longitude"`
	LocationUpdatedAt *time.Time         `json:"location_updated_at,omitempty" bson:"location_updated_at,omitempty"`
	Available         bool               `json:"available" bson:"available"`
	CarModel          string             `json:"car_model,omitempty" bson:"car_model,omitempty"`
	CarPlate          string             `json:"car_plate,omitempty" bson:"car_plate,omitempty"`
	Rating            *float64           `json:"rating" bson:"rating"`
	WalletBalance     float64            `json:"wallet_balance" bson:"wallet_balance"`
	Version           int64              `json:"version" bson:"version"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

func (p *Profile) IsDriver() bool {
	return p.UserType == UserTypeDriver
}

func (p *Profile) IsRider() bool {
	return p.UserType == UserTypeRider
}

func (p *Profile) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Position returns the last known coordinates, if any.
func (p *Profile) Position() (Coordinates, bool) {
	if !p.HasLocation() {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}, true
}

func (p *Profile) Summary() *ProfileSummary {
	if p == nil {
		return nil
	}
	return &ProfileSummary{
		ID:        p.ID,
		FullName:  p.FullName,
		Phone:     p.Phone,
		AvatarURL: p.AvatarURL,
		CarModel:  p.CarModel,
		CarPlate:  p.CarPlate,
		Rating:    p.Rating,
	}
}

// ProfileSummary is the public view of a ride participant.
type ProfileSummary struct {
	ID        primitive.ObjectID `json:"id"`
	FullName  string             `json:"full_name"`
	Phone     string             `json:"phone,omitempty"`
	AvatarURL string             `json:"avatar_url,omitempty"`
	CarModel  string             `json:"car_model,omitempty"`
	CarPlate  string             `json:"car_plate,omitempty"`
	Rating    *float64           `json:"rating,omitempty"`
}

// NearbyDriver is a driver candidate together with its distance from a point.
type NearbyDriver struct {
	Profile    *Profile `json:"driver"`
	DistanceKM float64  `json:"distance_km"`
}
