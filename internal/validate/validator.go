// Package validate checks inbound submission payloads before any browser work
// starts.
package validate

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/raysh454/policeform/internal/model"
)

//go:embed schema.json
var schemaJSON []byte

// DOBMessage is returned for every missing or malformed date of birth.
const DOBMessage = "date_of_birth must be in DD-MM-YYYY format"

var dobPattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// Validator checks payload shape and the date-of-birth contract.
type Validator struct {
	schema *gojsonschema.Schema
}

// New compiles the embedded payload schema.
func New() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile submission schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate decodes raw into a SubmissionRequest. Only a malformed body, a
// non-text known field or a bad date of birth are rejected; everything else is
// reported through Warnings.
func (v *Validator) Validate(raw []byte) (*model.SubmissionRequest, error) {
	if !json.Valid(raw) {
		return nil, model.NewError(model.KindValidation, "request body must be a JSON object", nil)
	}

	res, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, model.NewError(model.KindValidation, "request body must be a JSON object", err)
	}
	if !res.Valid() {
		var msgs []string
		for _, re := range res.Errors() {
			if re.Field() == "date_of_birth" {
				return nil, model.NewError(model.KindValidation, DOBMessage, nil)
			}
			msgs = append(msgs, re.String())
		}
		sort.Strings(msgs)
		se := model.NewError(model.KindValidation, "invalid request: "+strings.Join(msgs, "; "), nil)
		se.Details = msgs
		return nil, se
	}

	var req model.SubmissionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, model.NewError(model.KindValidation, "invalid request body", err)
	}
	if _, err := ParseDOB(req.DateOfBirth); err != nil {
		return nil, model.NewError(model.KindValidation, DOBMessage, err)
	}
	return &req, nil
}

// ParseDOB checks the DD-MM-YYYY pattern and that the date exists.
func ParseDOB(s string) (time.Time, error) {
	if !dobPattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("date %q does not match DD-MM-YYYY", s)
	}
	t, err := time.Parse(model.DOBLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return t, nil
}

// identityFields are expected on every real submission. Missing ones are
// substituted or left blank, so they only produce warnings.
var identityFields = []struct {
	key string
	get func(*model.SubmissionRequest) string
}{
	{"id_number", func(r *model.SubmissionRequest) string { return r.IDNumber }},
	{"first_name", func(r *model.SubmissionRequest) string { return r.FirstName }},
	{"last_name", func(r *model.SubmissionRequest) string { return r.LastName }},
	{"father_first_name", func(r *model.SubmissionRequest) string { return r.FatherFirstName }},
	{"father_last_name", func(r *model.SubmissionRequest) string { return r.FatherLastName }},
	{"state", func(r *model.SubmissionRequest) string { return r.State }},
	{"police_district", func(r *model.SubmissionRequest) string { return r.PoliceDistrict }},
	{"police_station", func(r *model.SubmissionRequest) string { return r.PoliceStation }},
	{"phone", func(r *model.SubmissionRequest) string { return r.Phone }},
	{"permanent_address", func(r *model.SubmissionRequest) string { return r.PermanentAddress }},
	{"photo_url", func(r *model.SubmissionRequest) string { return r.PhotoURL }},
}

// Warnings lists advisory problems with an otherwise accepted request.
func Warnings(req *model.SubmissionRequest) []string {
	var out []string
	for _, f := range identityFields {
		if f.get(req) == "" {
			out = append(out, f.key+" is missing")
		}
	}
	if len(req.Extensions) > 0 {
		keys := make([]string, 0, len(req.Extensions))
		for k := range req.Extensions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out = append(out, "ignored unknown fields: "+strings.Join(keys, ", "))
	}
	return out
}
