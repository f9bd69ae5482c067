// Package form drives the tenant-verification form: the selector table, the
// field-fill engine, cascading dropdowns and submission.
package form

// DefaultURL is the public tenant-verification form.
const DefaultURL = "https://www.police.rajasthan.gov.in/old/verificationform.aspx"

// Kind tells the filler how to write a value.
type Kind int

const (
	Text Kind = iota
	Choice
	File
)

func (k Kind) String() string {
	switch k {
	case Choice:
		return "choice"
	case File:
		return "file"
	default:
		return "text"
	}
}

// Field is a logical form field and its selector candidates in priority order.
type Field struct {
	Name      string
	Kind      Kind
	Selectors []string
}

// aspx expands an ASP.NET control id into the usual candidate list: the
// master-page client id, a name suffix match and an id substring match.
func aspx(tag, id string) []string {
	return []string{
		"#ContentPlaceHolder1_" + id,
		tag + "[name$='" + id + "']",
		tag + "[id*='" + id + "']",
	}
}

func text(name, id string, extra ...string) Field {
	return Field{Name: name, Kind: Text, Selectors: append(aspx("input", id), extra...)}
}

func choice(name, id string, extra ...string) Field {
	return Field{Name: name, Kind: Choice, Selectors: append(aspx("select", id), extra...)}
}

// Tenant fields.
var (
	IDType   = choice("id_type", "ddlIdentityType", "select[id*='IdType']")
	IDNumber = text("id_number", "txtIdentityNo", "input[id*='IdNo']")

	FirstName  = text("first_name", "txtFirstName")
	MiddleName = text("middle_name", "txtMiddleName")
	LastName   = text("last_name", "txtLastName")

	FatherFirstName  = text("father_first_name", "txtFatherFirstName")
	FatherMiddleName = text("father_middle_name", "txtFatherMiddleName")
	FatherLastName   = text("father_last_name", "txtFatherLastName")

	Caste       = choice("caste", "ddlCaste", "input[name$='txtCaste']")
	DateOfBirth = text("date_of_birth", "txtDOB", "input[id*='DateOfBirth']")
	Age         = text("age", "txtAge")
	Phone       = text("phone", "txtMobileNo", "input[id*='Mobile']")

	PermanentAddress = Field{Name: "permanent_address", Kind: Text, Selectors: append(aspx("textarea", "txtPermanentAddress"), aspx("input", "txtPermanentAddress")...)}
	RentedAddress    = Field{Name: "rented_address", Kind: Text, Selectors: append(aspx("textarea", "txtTenancyAddress"), "textarea[id*='RentedAddress']", "input[id*='TenancyAddress']")}
	RentAmount       = text("rent_amount", "txtRentAmount", "input[id*='Rent']")
	RentalDuration   = text("rental_duration", "txtTenancyPeriod", "input[id*='Duration']")
	PropertyType     = choice("property_type", "ddlPropertyType")
	ReferencedBy     = text("referenced_by", "txtReferencedBy")

	State          = choice("state", "ddlState")
	PoliceDistrict = choice("police_district", "ddlDistrict")
	PoliceStation  = choice("police_station", "ddlPoliceStation", "select[id*='Thana']")

	Photo   = Field{Name: "photo", Kind: File, Selectors: append(aspx("input", "fuPhoto"), "input[type='file'][id*='Photo']", "input[type='file']")}
	IDPhoto = Field{Name: "id_photo", Kind: File, Selectors: append(aspx("input", "fuIdentityProof"), "input[type='file'][id*='Identity']")}
)

// Landlord fields.
var (
	LandlordFirstName        = text("landlord_first_name", "txtOwnerFirstName")
	LandlordMiddleName       = text("landlord_middle_name", "txtOwnerMiddleName")
	LandlordLastName         = text("landlord_last_name", "txtOwnerLastName")
	LandlordFatherFirstName  = text("landlord_father_first_name", "txtOwnerFatherFirstName")
	LandlordFatherMiddleName = text("landlord_father_middle_name", "txtOwnerFatherMiddleName")
	LandlordFatherLastName   = text("landlord_father_last_name", "txtOwnerFatherLastName")
	LandlordMobile           = text("landlord_mobile", "txtOwnerMobileNo")
	LandlordAddress          = Field{Name: "landlord_address", Kind: Text, Selectors: append(aspx("textarea", "txtOwnerAddress"), aspx("input", "txtOwnerAddress")...)}
	LandlordDistrict         = choice("landlord_district", "ddlOwnerDistrict")
	LandlordStation          = choice("landlord_station", "ddlOwnerPoliceStation", "select[id*='OwnerThana']")
)

// SubmitButton candidates, most specific first.
var SubmitButton = Field{
	Name: "submit",
	Kind: Text,
	Selectors: []string{
		"#ContentPlaceHolder1_btnSubmit",
		"input[type='submit'][name$='btnSubmit']",
		"input[type='submit'][value*='Submit']",
		"button[type='submit']",
		"input[type='submit']",
	},
}
