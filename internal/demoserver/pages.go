package demoserver

import "html/template"

// Option is one entry of a dropdown.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// District is a police district with its short code and stations.
type District struct {
	Option
	Code     string
	Stations []Option
}

const rajasthan = "29"

var states = []Option{
	{Value: rajasthan, Label: "Rajasthan"},
	{Value: "8", Label: "Delhi"},
}

var districts = []District{
	{Option{"101", "Jaipur East"}, "JPE", []Option{{"1011", "Adarsh Nagar"}, {"1012", "Bajaj Nagar"}, {"1013", "Malviya Nagar"}}},
	{Option{"102", "Jaipur West"}, "JPW", []Option{{"1021", "Vaishali Nagar"}, {"1022", "Sodala"}}},
	{Option{"103", "Jodhpur East"}, "JDE", []Option{{"1031", "Ratanada"}, {"1032", "Sardarpura"}}},
	{Option{"104", "Ajmer"}, "AJM", []Option{{"1041", "Civil Lines"}, {"1042", "Alwar Gate"}}},
}

var (
	idTypes       = []string{"Aadhaar Card", "Voter ID", "Passport", "Driving Licence", "PAN Card"}
	castes        = []string{"General", "OBC", "SC", "ST"}
	propertyTypes = []string{"Residential", "Commercial"}
)

// districtOptions lists the districts of a state; only Rajasthan has any.
func districtOptions(state string) []Option {
	if state != rajasthan {
		return []Option{}
	}
	out := make([]Option, 0, len(districts))
	for _, d := range districts {
		out = append(out, d.Option)
	}
	return out
}

func stationOptions(district string) []Option {
	if d, ok := findDistrict(district); ok {
		return d.Stations
	}
	return []Option{}
}

func findDistrict(value string) (District, bool) {
	for _, d := range districts {
		if d.Value == value {
			return d, true
		}
	}
	return District{}, false
}

func stationLabel(district, station string) (string, bool) {
	for _, s := range stationOptions(district) {
		if s.Value == station {
			return s.Label, true
		}
	}
	return "", false
}

type formPage struct {
	States        []Option
	Districts     []Option
	IDTypes       []string
	Castes        []string
	PropertyTypes []string
	Errors        []string
}

type resultPage struct {
	Reference string
	Name      string
	Station   string
}

var formTemplate = template.Must(template.New("form").Parse(formHTML))

var resultTemplate = template.Must(template.New("result").Parse(resultHTML))

// The control ids and names follow the ASP.NET master-page convention of the
// live portal: id ContentPlaceHolder1_X, name ctl00$ContentPlaceHolder1$X.
const formHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Tenant Verification Form - Rajasthan Police</title>
    <style>
        body { font-family: sans-serif; max-width: 960px; margin: 0 auto; }
        fieldset { margin-bottom: 16px; }
        label { display: inline-block; width: 220px; }
        .row { margin: 6px 0; }
    </style>
    <script>
        function fillSelect(id, options) {
            var sel = document.getElementById(id);
            sel.options.length = 1;
            options.forEach(function (o) { sel.add(new Option(o.label, o.value)); });
        }
        function cascade(parentId, childId, list, resetIds) {
            (resetIds || []).forEach(function (id) { document.getElementById(id).options.length = 1; });
            var parent = document.getElementById(parentId);
            fetch('/old/cascade?list=' + list + '&parent=' + encodeURIComponent(parent.value))
                .then(function (r) { return r.json(); })
                .then(function (opts) { fillSelect(childId, opts); });
        }
    </script>
</head>
<body>
<form method="post" action="/old/verificationform.aspx" id="form1" enctype="multipart/form-data">
    <h2>Tenant Verification Form</h2>
    {{if .Errors}}
    <div id="ContentPlaceHolder1_ValidationSummary1" class="validation-summary-errors">
        <ul>{{range .Errors}}<li>{{.}}</li>{{end}}</ul>
    </div>
    {{end}}

    <fieldset>
        <legend>Tenant Details</legend>
        <div class="row"><label for="ContentPlaceHolder1_ddlIdentityType">Identity Type</label>
            <select id="ContentPlaceHolder1_ddlIdentityType" name="ctl00$ContentPlaceHolder1$ddlIdentityType">
                <option value="0">--Select--</option>
                {{range .IDTypes}}<option value="{{.}}">{{.}}</option>{{end}}
            </select></div>
        <div class="row"><label for="ContentPlaceHolder1_txtIdentityNo">Identity Number</label>
            <input type="text" id="ContentPlaceHolder1_txtIdentityNo" name="ctl00$ContentPlaceHolder1$txtIdentityNo"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtFirstName">First Name *</label>
            <input type="text" id="ContentPlaceHolder1_txtFirstName" name="ctl00$ContentPlaceHolder1$txtFirstName"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtMiddleName">Middle Name</label>
            <input type="text" id="ContentPlaceHolder1_txtMiddleName" name="ctl00$ContentPlaceHolder1$txtMiddleName"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtLastName">Last Name</label>
            <input type="text" id="ContentPlaceHolder1_txtLastName" name="ctl00$ContentPlaceHolder1$txtLastName"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtFatherFirstName">Father First Name</label>
            <input type="text" id="ContentPlaceHolder1_txtFatherFirstName" name="ctl00$ContentPlaceHolder1$txtFatherFirstName"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtFatherMiddleName">Father Middle Name</label>
            <input type="text" id="ContentPlaceHolder1_txtFatherMiddleName" name="ctl00$ContentPlaceHolder1$txtFatherMiddleName"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtFatherLastName">Father Last Name</label>
            <input type="text" id="ContentPlaceHolder1_txtFatherLastName" name="ctl00$ContentPlaceHolder1$txtFatherLastName"></div>
        <div class="row"><label for="ContentPlaceHolder1_ddlCaste">Caste</label>
            <select id="ContentPlaceHolder1_ddlCaste" name="ctl00$ContentPlaceHolder1$ddlCaste">
                <option value="0">--Select--</option>
                {{range .Castes}}<option value="{{.}}">{{.}}</option>{{end}}
            </select></div>
        <div class="row"><label for="ContentPlaceHolder1_txtDOB">Date of Birth (DD-MM-YYYY) *</label>
            <input type="text" id="ContentPlaceHolder1_txtDOB" name="ctl00$ContentPlaceHolder1$txtDOB"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtAge">Age</label>
            <input type="text" id="ContentPlaceHolder1_txtAge" name="ctl00$ContentPlaceHolder1$txtAge"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtMobileNo">Mobile No</label>
            <input type="text" id="ContentPlaceHolder1_txtMobileNo" name="ctl00$ContentPlaceHolder1$txtMobileNo"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtPermanentAddress">Permanent Address</label>
            <textarea id="ContentPlaceHolder1_txtPermanentAddress" name="ctl00$ContentPlaceHolder1$txtPermanentAddress"></textarea></div>
        <div class="row"><label for="ContentPlaceHolder1_txtTenancyAddress">Tenancy Address</label>
            <textarea id="ContentPlaceHolder1_txtTenancyAddress" name="ctl00$ContentPlaceHolder1$txtTenancyAddress"></textarea></div>
        <div class="row"><label for="ContentPlaceHolder1_txtRentAmount">Rent Amount</label>
            <input type="text" id="ContentPlaceHolder1_txtRentAmount" name="ctl00$ContentPlaceHolder1$txtRentAmount"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtTenancyPeriod">Tenancy Period (months)</label>
            <input type="text" id="ContentPlaceHolder1_txtTenancyPeriod" name="ctl00$ContentPlaceHolder1$txtTenancyPeriod"></div>
        <div class="row"><label for="ContentPlaceHolder1_ddlPropertyType">Property Type</label>
            <select id="ContentPlaceHolder1_ddlPropertyType" name="ctl00$ContentPlaceHolder1$ddlPropertyType">
                <option value="0">--Select--</option>
                {{range .PropertyTypes}}<option value="{{.}}">{{.}}</option>{{end}}
            </select></div>
        <div class="row"><label for="ContentPlaceHolder1_txtReferencedBy">Referenced By</label>
            <input type="text" id="ContentPlaceHolder1_txtReferencedBy" name="ctl00$ContentPlaceHolder1$txtReferencedBy"></div>
    </fieldset>

    <fieldset>
        <legend>Police Station</legend>
        <div class="row"><label for="ContentPlaceHolder1_ddlState">State</label>
            <select id="ContentPlaceHolder1_ddlState" name="ctl00$ContentPlaceHolder1$ddlState"
                onchange="cascade('ContentPlaceHolder1_ddlState', 'ContentPlaceHolder1_ddlDistrict', 'district', ['ContentPlaceHolder1_ddlPoliceStation'])">
                <option value="0">--Select--</option>
                {{range .States}}<option value="{{.Value}}">{{.Label}}</option>{{end}}
            </select></div>
        <div class="row"><label for="ContentPlaceHolder1_ddlDistrict">District</label>
            <select id="ContentPlaceHolder1_ddlDistrict" name="ctl00$ContentPlaceHolder1$ddlDistrict"
                onchange="cascade('ContentPlaceHolder1_ddlDistrict', 'ContentPlaceHolder1_ddlPoliceStation', 'station')">
                <option value="0">--Select--</option>
            </select></div>
        <div class="row"><label for="ContentPlaceHolder1_ddlPoliceStation">Police Station *</label>
            <select id="ContentPlaceHolder1_ddlPoliceStation" name="ctl00$ContentPlaceHolder1$ddlPoliceStation">
                <option value="0">--Select--</option>
            </select></div>
    </fieldset>

    <fieldset>
        <legend>Owner Details</legend>
        <div class="row"><label for="ContentPlaceHolder1_txtOwnerFirstName">Owner First Name</label>
            <input type="text" id="ContentPlaceHolder1_txtOwnerFirstName" name="ctl00$ContentPlaceHolder1$txtOwnerFirstName"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtOwnerMiddleName">Owner Middle Name</label>
            <input type="text" id="ContentPlaceHolder1_txtOwnerMiddleName" name="ctl00$ContentPlaceHolder1$txtOwnerMiddleName"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtOwnerLastName">Owner Last Name</label>
            <input type="text" id="ContentPlaceHolder1_txtOwnerLastName" name="ctl00$ContentPlaceHolder1$txtOwnerLastName"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtOwnerFatherFirstName">Owner Father First Name</label>
            <input type="text" id="ContentPlaceHolder1_txtOwnerFatherFirstName" name="ctl00$ContentPlaceHolder1$txtOwnerFatherFirstName"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtOwnerFatherMiddleName">Owner Father Middle Name</label>
            <input type="text" id="ContentPlaceHolder1_txtOwnerFatherMiddleName" name="ctl00$ContentPlaceHolder1$txtOwnerFatherMiddleName"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtOwnerFatherLastName">Owner Father Last Name</label>
            <input type="text" id="ContentPlaceHolder1_txtOwnerFatherLastName" name="ctl00$ContentPlaceHolder1$txtOwnerFatherLastName"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtOwnerMobileNo">Owner Mobile No</label>
            <input type="text" id="ContentPlaceHolder1_txtOwnerMobileNo" name="ctl00$ContentPlaceHolder1$txtOwnerMobileNo"></div>
        <div class="row"><label for="ContentPlaceHolder1_txtOwnerAddress">Owner Address</label>
            <textarea id="ContentPlaceHolder1_txtOwnerAddress" name="ctl00$ContentPlaceHolder1$txtOwnerAddress"></textarea></div>
        <div class="row"><label for="ContentPlaceHolder1_ddlOwnerDistrict">Owner District</label>
            <select id="ContentPlaceHolder1_ddlOwnerDistrict" name="ctl00$ContentPlaceHolder1$ddlOwnerDistrict"
                onchange="cascade('ContentPlaceHolder1_ddlOwnerDistrict', 'ContentPlaceHolder1_ddlOwnerPoliceStation', 'station')">
                <option value="0">--Select--</option>
                {{range .Districts}}<option value="{{.Value}}">{{.Label}}</option>{{end}}
            </select></div>
        <div class="row"><label for="ContentPlaceHolder1_ddlOwnerPoliceStation">Owner Police Station</label>
            <select id="ContentPlaceHolder1_ddlOwnerPoliceStation" name="ctl00$ContentPlaceHolder1$ddlOwnerPoliceStation">
                <option value="0">--Select--</option>
            </select></div>
    </fieldset>

    <fieldset>
        <legend>Documents</legend>
        <div class="row"><label for="ContentPlaceHolder1_fuPhoto">Tenant Photo</label>
            <input type="file" id="ContentPlaceHolder1_fuPhoto" name="ctl00$ContentPlaceHolder1$fuPhoto" accept="image/*"></div>
        <div class="row"><label for="ContentPlaceHolder1_fuIdentityProof">Identity Proof</label>
            <input type="file" id="ContentPlaceHolder1_fuIdentityProof" name="ctl00$ContentPlaceHolder1$fuIdentityProof" accept="image/*"></div>
    </fieldset>

    <input type="submit" id="ContentPlaceHolder1_btnSubmit" name="ctl00$ContentPlaceHolder1$btnSubmit" value="Submit">
</form>
</body>
</html>`

const resultHTML = `<!DOCTYPE html>
<html>
<head><title>Tenant Verification Form - Rajasthan Police</title></head>
<body>
    <h2>Tenant Verification</h2>
    {{if .Reference}}
    <p>Your tenant verification request for {{.Name}} has been forwarded to {{.Station}}.</p>
    <p><span id="ContentPlaceHolder1_lblRefNo">Reference No: {{.Reference}}</span></p>
    <p>Keep this number for future correspondence.</p>
    {{else}}
    <p>Your tenant verification request for {{.Name}} has been saved.</p>
    {{end}}
    <a href="/old/verificationform.aspx">New request</a>
</body>
</html>`
