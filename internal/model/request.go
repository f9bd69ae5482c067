package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SubmissionRequest is the inbound tenant-verification payload.
//
// Every known key is decoded as text; numbers are accepted and kept in their
// literal form. Keys the service does not know about land in Extensions and are
// never mapped onto the form.
type SubmissionRequest struct {
	// Identity document.
	IDType   string `json:"id_type,omitempty"`
	IDNumber string `json:"id_number,omitempty"`

	// Tenant name.
	FirstName  string `json:"first_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`

	FatherFirstName  string `json:"father_first_name,omitempty"`
	FatherMiddleName string `json:"father_middle_name,omitempty"`
	FatherLastName   string `json:"father_last_name,omitempty"`

	Caste string `json:"caste,omitempty"`

	// DateOfBirth is DD-MM-YYYY.
	DateOfBirth string `json:"date_of_birth,omitempty"`
	// Age is derived from DateOfBirth when empty.
	Age string `json:"age,omitempty"`

	State          string `json:"state,omitempty"`
	PoliceDistrict string `json:"police_district,omitempty"`
	PoliceStation  string `json:"police_station,omitempty"`
	Phone          string `json:"phone,omitempty"`

	PermanentAddress string `json:"permanent_address,omitempty"`
	RentedAddress    string `json:"rented_address,omitempty"`
	RentAmount       string `json:"rent_amount,omitempty"`
	RentalDuration   string `json:"rental_duration,omitempty"`
	PropertyType     string `json:"property_type,omitempty"`

	LandlordFirstName        string `json:"landlord_first_name,omitempty"`
	LandlordMiddleName       string `json:"landlord_middle_name,omitempty"`
	LandlordLastName         string `json:"landlord_last_name,omitempty"`
	LandlordFatherFirstName  string `json:"landlord_father_first_name,omitempty"`
	LandlordFatherMiddleName string `json:"landlord_father_middle_name,omitempty"`
	LandlordFatherLastName   string `json:"landlord_father_last_name,omitempty"`
	LandlordMobile           string `json:"landlord_mobile,omitempty"`
	LandlordAddress          string `json:"landlord_address,omitempty"`
	LandlordDistrict         string `json:"landlord_district,omitempty"`
	LandlordStation          string `json:"landlord_station,omitempty"`

	ReferencedBy string `json:"referenced_by,omitempty"`

	// PhotoURL and IDPhotoURL are either remote URLs or local paths.
	PhotoURL   string `json:"photo_url,omitempty"`
	IDPhotoURL string `json:"id_photo_url,omitempty"`

	// Extensions holds unrecognised keys verbatim.
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

// KnownKeys lists the payload keys mapped onto SubmissionRequest fields.
func KnownKeys() []string {
	var r SubmissionRequest
	keys := make([]string, 0, 40)
	for k := range r.fields() {
		keys = append(keys, k)
	}
	return keys
}

func (r *SubmissionRequest) fields() map[string]*string {
	return map[string]*string{
		"id_type":                     &r.IDType,
		"id_number":                   &r.IDNumber,
		"first_name":                  &r.FirstName,
		"middle_name":                 &r.MiddleName,
		"last_name":                   &r.LastName,
		"father_first_name":           &r.FatherFirstName,
		"father_middle_name":          &r.FatherMiddleName,
		"father_last_name":            &r.FatherLastName,
		"caste":                       &r.Caste,
		"date_of_birth":               &r.DateOfBirth,
		"age":                         &r.Age,
		"state":                       &r.State,
		"police_district":             &r.PoliceDistrict,
		"police_station":              &r.PoliceStation,
		"phone":                       &r.Phone,
		"permanent_address":           &r.PermanentAddress,
		"rented_address":              &r.RentedAddress,
		"rent_amount":                 &r.RentAmount,
		"rental_duration":             &r.RentalDuration,
		"property_type":               &r.PropertyType,
		"landlord_first_name":         &r.LandlordFirstName,
		"landlord_middle_name":        &r.LandlordMiddleName,
		"landlord_last_name":          &r.LandlordLastName,
		"landlord_father_first_name":  &r.LandlordFatherFirstName,
		"landlord_father_middle_name": &r.LandlordFatherMiddleName,
		"landlord_father_last_name":   &r.LandlordFatherLastName,
		"landlord_mobile":             &r.LandlordMobile,
		"landlord_address":            &r.LandlordAddress,
		"landlord_district":           &r.LandlordDistrict,
		"landlord_station":            &r.LandlordStation,
		"referenced_by":               &r.ReferencedBy,
		"photo_url":                   &r.PhotoURL,
		"id_photo_url":                &r.IDPhotoURL,
	}
}

// UnmarshalJSON decodes known keys as text and collects the rest into
// Extensions.
func (r *SubmissionRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	known := r.fields()
	for key, val := range raw {
		dst, ok := known[key]
		if !ok {
			if r.Extensions == nil {
				r.Extensions = make(map[string]json.RawMessage)
			}
			r.Extensions[key] = val
			continue
		}
		s, err := textValue(val)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		*dst = s
	}
	return nil
}

func textValue(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", fmt.Errorf("must be a string or number")
	}
}
