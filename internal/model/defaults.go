package model

import (
	"fmt"
	"strconv"
	"time"
)

// DOBLayout is the date-of-birth layout accepted by the target form.
const DOBLayout = "02-01-2006"

// DefaultValues is the fallback policy applied to fields the form requires but
// the caller left empty.
type DefaultValues struct {
	IDType       string
	Caste        string
	RentAmount   string
	RentalPeriod string
	PropertyType string
	ReferencedBy string

	LandlordFirstName       string
	LandlordLastName        string
	LandlordFatherFirstName string
	LandlordFatherLastName  string
	LandlordMobile          string
}

// Defaults is the table used by Resolve. Landlord address falls back to the
// rented then permanent address, landlord district/station to the tenant's,
// and the rented address to the permanent address.
var Defaults = DefaultValues{
	IDType:       "Aadhaar Card",
	Caste:        "General",
	RentAmount:   "0",
	RentalPeriod: "11",
	PropertyType: "Residential",
	ReferencedBy: "Self",

	LandlordFirstName:       "ZZZ",
	LandlordLastName:        "AAA",
	LandlordFatherFirstName: "SSS",
	LandlordFatherLastName:  "ZZZ",
	LandlordMobile:          "9999999999",
}

// ResolvedSubmission is a SubmissionRequest with every form-required value
// populated. It is passed by value and never mutated after Resolve.
type ResolvedSubmission struct {
	SubmissionRequest

	// DOB is the parsed date of birth.
	DOB time.Time
	// AgeDerived reports whether Age was computed rather than supplied.
	AgeDerived bool
}

// Resolve applies Defaults and derives the age relative to now.
func Resolve(req SubmissionRequest, now time.Time) (ResolvedSubmission, error) {
	dob, err := time.Parse(DOBLayout, req.DateOfBirth)
	if err != nil {
		return ResolvedSubmission{}, fmt.Errorf("parse date_of_birth: %w", err)
	}

	out := ResolvedSubmission{SubmissionRequest: req, DOB: dob}
	// Extensions never reach the form.
	out.Extensions = nil

	d := Defaults
	if out.Age == "" {
		out.Age = strconv.Itoa(AgeAt(dob, now))
		out.AgeDerived = true
	}
	setDefault(&out.IDType, d.IDType)
	setDefault(&out.Caste, d.Caste)
	setDefault(&out.RentedAddress, out.PermanentAddress)
	setDefault(&out.RentAmount, d.RentAmount)
	setDefault(&out.RentalDuration, d.RentalPeriod)
	setDefault(&out.PropertyType, d.PropertyType)
	setDefault(&out.ReferencedBy, d.ReferencedBy)

	setDefault(&out.LandlordFirstName, d.LandlordFirstName)
	setDefault(&out.LandlordLastName, d.LandlordLastName)
	setDefault(&out.LandlordFatherFirstName, d.LandlordFatherFirstName)
	setDefault(&out.LandlordFatherLastName, d.LandlordFatherLastName)
	setDefault(&out.LandlordMobile, d.LandlordMobile)
	setDefault(&out.LandlordAddress, out.RentedAddress)
	setDefault(&out.LandlordDistrict, out.PoliceDistrict)
	setDefault(&out.LandlordStation, out.PoliceStation)

	return out, nil
}

// AgeAt returns completed years between dob and now.
func AgeAt(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

func setDefault(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}
